package notification

import (
	"errors"
	"log"
	"sync"

	"github.com/nao1215/jobtracker/pkg/event"
)

var (
	// ErrUnknownSession は接続されていないセッションを指定した場合のエラー。
	ErrUnknownSession = errors.New("セッションが接続されていません")
	// ErrSessionExists は既に接続済みのセッションIDで接続しようとした場合のエラー。
	ErrSessionExists = errors.New("セッションは既に接続されています")
)

// DefaultSessionBuffer はセッションごとの送信バッファのデフォルト長。
const DefaultSessionBuffer = 32

// session はストリーム接続1本分の状態。
type session struct {
	// id はセッションID。
	id string
	// userID は識別済みのユーザーID。未識別の場合は0。
	userID int64
	// ch は配信データの送信先。
	ch chan event.NotificationPayload
}

// HubStats はHubの接続状況。
type HubStats struct {
	// Sessions は接続中のセッション数。
	Sessions int `json:"sessions"`
	// Users は1本以上のセッションを持つユーザー数。
	Users int `json:"users"`
}

// Hub はセッションとユーザーの対応を保持し、ユーザー宛ての配信を全セッションへ振り分ける。
// プロセス内のみで有効で、永続化はしない。
type Hub struct {
	mu       sync.Mutex
	buffer   int
	sessions map[string]*session
	rooms    map[int64]map[string]*session
}

// NewHub は新しいHubを生成する。bufferが0以下の場合はDefaultSessionBufferを使う。
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultSessionBuffer
	}
	return &Hub{
		buffer:   buffer,
		sessions: make(map[string]*session),
		rooms:    make(map[int64]map[string]*session),
	}
}

// Connect はセッションを登録し、配信を受け取るチャネルを返す。
// チャネルはUnregisterで閉じられる。
func (h *Hub) Connect(sessionID string) (<-chan event.NotificationPayload, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[sessionID]; ok {
		return nil, ErrSessionExists
	}
	s := &session{id: sessionID, ch: make(chan event.NotificationPayload, h.buffer)}
	h.sessions[sessionID] = s
	return s.ch, nil
}

// Register はセッションをユーザーのルームに参加させる。
// 同じユーザーへの再登録は何もしない。別ユーザーへの再登録は元のルームから移動する。
func (h *Hub) Register(sessionID string, userID int64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.sessions[sessionID]
	if !ok {
		return ErrUnknownSession
	}
	if s.userID == userID {
		return nil
	}
	h.leave(s)

	room, ok := h.rooms[userID]
	if !ok {
		room = make(map[string]*session)
		h.rooms[userID] = room
	}
	room[sessionID] = s
	s.userID = userID
	return nil
}

// Unregister はセッションを削除してチャネルを閉じる。未知のセッションは無視する。
func (h *Hub) Unregister(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.sessions[sessionID]
	if !ok {
		return
	}
	h.leave(s)
	delete(h.sessions, sessionID)
	close(s.ch)
}

// leave はセッションを現在のルームから外す。h.mu を保持して呼ぶこと。
func (h *Hub) leave(s *session) {
	if s.userID == 0 {
		return
	}
	if room, ok := h.rooms[s.userID]; ok {
		delete(room, s.id)
		if len(room) == 0 {
			delete(h.rooms, s.userID)
		}
	}
	s.userID = 0
}

// Push はユーザーの全セッションへ配信データを送り、受け取ったセッション数を返す。
// セッションがない場合は何もせず0を返す。バッファが満杯のセッションは読み飛ばす。
func (h *Hub) Push(userID int64, p event.NotificationPayload) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	sent := 0
	for id, s := range h.rooms[userID] {
		select {
		case s.ch <- p:
			sent++
		default:
			log.Printf("[Hub] 送信バッファが満杯のため破棄: session=%s notification=%d", id, p.NotificationID)
		}
	}
	return sent
}

// Stats は現在の接続状況を返す。
func (h *Hub) Stats() HubStats {
	h.mu.Lock()
	defer h.mu.Unlock()

	return HubStats{Sessions: len(h.sessions), Users: len(h.rooms)}
}
