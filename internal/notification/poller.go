package notification

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/nao1215/jobtracker/internal/store"
	"github.com/nao1215/jobtracker/pkg/event"
)

// DefaultPollInterval はポーリング間隔のデフォルト値。
const DefaultPollInterval = 3000 * time.Millisecond

// DeliveryStore はPollerが未配信通知を読み出し、配信済みにマークする先。
type DeliveryStore interface {
	ListUndeliveredNotifications(ctx context.Context) ([]store.UndeliveredNotification, error)
	MarkNotificationDelivered(ctx context.Context, id int64) error
}

// Pusher はユーザー宛ての配信データを接続中のセッションへ送る。
type Pusher interface {
	Push(userID int64, p event.NotificationPayload) int
}

// TickResult は1回のポーリングの結果。
type TickResult struct {
	// Found は取り出した未配信通知の件数。
	Found int
	// Pushed はセッションへ送った延べ件数。
	Pushed int
	// Delivered は配信済みにマークした件数。
	Delivered int
	// Failed は処理に失敗して次回へ持ち越した件数。
	Failed int
	// Skipped は前回のポーリングが実行中だったため何もしなかった場合にtrue。
	Skipped bool
}

// Poller は未配信の通知を定期的に取り出してプッシュ配信するバックグラウンドプロセス。
// 配信後に配信済みマークを付けるため、マーク失敗時は次回に再配信される（at-least-once）。
type Poller struct {
	store    DeliveryStore
	pusher   Pusher
	interval time.Duration

	// tickMu はポーリングの重複実行を防ぐ。
	tickMu sync.Mutex

	// mu はcancelとdoneを保護する。
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller は新しいPollerを生成する。intervalが0以下の場合はDefaultPollIntervalを使う。
func NewPoller(s DeliveryStore, pusher Pusher, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{store: s, pusher: pusher, interval: interval}
}

// Interval はポーリング間隔を返す。
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Start はバックグラウンドでポーリングを開始する。起動済みの場合は何もしない。
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done

	go func() {
		defer close(done)
		log.Printf("[Poller] ポーリングを開始します (interval=%s)", p.interval)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Println("[Poller] ポーリングを停止しました")
				return
			case <-ticker.C:
				// 停止要求が来ても実行中のポーリングは最後まで処理する
				if _, err := p.Tick(context.WithoutCancel(ctx)); err != nil {
					log.Printf("[Poller] ポーリングエラー: %v", err)
				}
			}
		}
	}()
}

// Stop はポーリングを停止し、実行中のポーリングの完了を待つ。
// Start前や2回目以降の呼び出しは何もしない。
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Tick はポーリングを1回実行する。
// 未配信通知がなければ書き込みもプッシュも行わない。
// 1件の失敗はログに記録して残りの処理を続ける。
func (p *Poller) Tick(ctx context.Context) (TickResult, error) {
	if !p.tickMu.TryLock() {
		return TickResult{Skipped: true}, nil
	}
	defer p.tickMu.Unlock()

	pending, err := p.store.ListUndeliveredNotifications(ctx)
	if err != nil {
		return TickResult{}, fmt.Errorf("未配信通知の取得に失敗: %w", err)
	}

	res := TickResult{Found: len(pending)}
	if len(pending) == 0 {
		return res, nil
	}

	for _, n := range pending {
		res.Pushed += p.pusher.Push(n.OwnerUserID, n.Payload)

		if err := p.store.MarkNotificationDelivered(ctx, n.Payload.NotificationID); err != nil {
			log.Printf("[Poller] 配信済みマークに失敗 (notification=%d): %v", n.Payload.NotificationID, err)
			res.Failed++
			continue
		}
		res.Delivered++
	}

	log.Printf("[Poller] %d件の通知を配信しました (sessions=%d, failed=%d)", res.Delivered, res.Pushed, res.Failed)
	return res, nil
}
