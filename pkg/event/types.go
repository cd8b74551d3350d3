package event

// Name はSSEで配信するイベント名を表す。
type Name string

const (
	// NameSession はストリーム接続直後にセッションIDを通知するイベント。
	NameSession Name = "session"
	// NameNotification は通知のプッシュ配信イベント。
	NameNotification Name = "notification"
	// NamePing は接続維持のためのハートビートイベント。
	NamePing Name = "ping"
)

const (
	// DateLayout は通知の日付フィールドの書式（YYYY-MM-DD）。
	DateLayout = "2006-01-02"
	// TimeLayout は通知の時刻フィールドの書式（HH:MM:SS）。
	TimeLayout = "15:04:05"
)

// NotificationPayload は notification イベントで配信するデータ。
// Outboxが書き込む通知行とワイヤ形式の両方をこの構造体で表す。
// フィールド名とJSONキーはダッシュボードとの互換性のため変更しないこと。
type NotificationPayload struct {
	// NotificationID は通知の一意識別子。
	NotificationID int64 `json:"notificationID"`
	// Type は通知メッセージ本文。
	Type string `json:"type"`
	// Date は通知の作成日（YYYY-MM-DD）。
	Date string `json:"date"`
	// Time は通知の作成時刻（HH:MM:SS）。
	Time string `json:"time"`
	// ApplicationID は通知の契機となった応募のID。
	ApplicationID int64 `json:"applicationID"`
	// AdminID は通知を発生させた管理者のID。自動通知の場合はnull。
	AdminID *int64 `json:"adminID"`
}

// SessionData は session イベントのデータ。
type SessionData struct {
	// SessionID はストリーム接続に割り当てられたセッションID。
	SessionID string `json:"sessionID"`
}
