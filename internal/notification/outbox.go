package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nao1215/jobtracker/internal/application"
	"github.com/nao1215/jobtracker/internal/store"
	"github.com/nao1215/jobtracker/pkg/event"
)

// ErrInvalidEntry はOutboxへ書き込めない不正なエントリのエラー。
var ErrInvalidEntry = errors.New("通知エントリが不正です")

// OutboxStore はOutboxが通知行を書き込む先。
type OutboxStore interface {
	InsertNotification(ctx context.Context, arg store.InsertNotificationParams) (int64, error)
}

// Entry はOutboxへ追記する通知。
type Entry struct {
	// Type は通知メッセージ本文。
	Type string
	// ApplicationID は契機となった応募のID。
	ApplicationID int64
	// AdminID は通知を発生させた管理者のID。自動通知の場合はnil。
	AdminID *int64
	// OccurredAt は発生時刻。ゼロ値の場合は追記時の現在時刻を使う。
	OccurredAt time.Time
}

// Outbox は配信待ちの通知を永続化する。配信はPollerが行う。
type Outbox struct {
	store OutboxStore
	now   func() time.Time
}

// NewOutbox は新しいOutboxを生成する。
func NewOutbox(s OutboxStore) *Outbox {
	return &Outbox{store: s, now: time.Now}
}

// Append は通知を未配信・未読の状態で書き込み、通知IDを返す。
// 日付と時刻はプロセスのローカルタイムゾーンで記録する。
func (o *Outbox) Append(ctx context.Context, e Entry) (int64, error) {
	if e.Type == "" {
		return 0, fmt.Errorf("%w: 本文が空です", ErrInvalidEntry)
	}
	if e.ApplicationID <= 0 {
		return 0, fmt.Errorf("%w: applicationID=%d", ErrInvalidEntry, e.ApplicationID)
	}

	at := e.OccurredAt
	if at.IsZero() {
		at = o.now()
	}
	at = at.Local()

	id, err := o.store.InsertNotification(ctx, store.InsertNotificationParams{
		Type:          e.Type,
		Date:          at.Format(event.DateLayout),
		Time:          at.Format(event.TimeLayout),
		ApplicationID: e.ApplicationID,
		AdminID:       e.AdminID,
	})
	if err != nil {
		return 0, fmt.Errorf("Outboxへの追記に失敗: %w", err)
	}
	return id, nil
}

// InterviewScheduledMessage は面接登録時の通知本文を返す。
func InterviewScheduledMessage(date string) string {
	return "Interview scheduled on " + date
}

// StatusChangedMessage は管理者によるステータス変更時の通知本文を返す。
func StatusChangedMessage(status application.Status) string {
	return "Status changed to " + string(status)
}
