package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// InsertNotificationParams は通知作成のパラメータ。
type InsertNotificationParams struct {
	// Type は通知メッセージ本文。
	Type string
	// Date は作成日（YYYY-MM-DD）。
	Date string
	// Time は作成時刻（HH:MM:SS）。
	Time string
	// ApplicationID は契機となった応募のID。
	ApplicationID int64
	// AdminID は通知を発生させた管理者のID。自動通知の場合はnil。
	AdminID *int64
}

// InsertNotification は delivered=0, is_read=0 で通知を作成し、通知IDを返す。
func (s *Store) InsertNotification(ctx context.Context, arg InsertNotificationParams) (int64, error) {
	var id int64
	err := s.queryRow(ctx,
		`INSERT INTO notifications (type, date, time, application_id, admin_id, delivered, is_read)
		 VALUES (?, ?, ?, ?, ?, 0, 0) RETURNING notification_id`,
		arg.Type, arg.Date, arg.Time, arg.ApplicationID, nullInt64(arg.AdminID),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("通知の作成に失敗: %w", err)
	}
	return id, nil
}

// ListUndeliveredNotifications は未配信の通知を所有ユーザーと結合して通知ID昇順で返す。
func (s *Store) ListUndeliveredNotifications(ctx context.Context) ([]UndeliveredNotification, error) {
	rows, err := s.query(ctx,
		`SELECT n.notification_id, n.type, n.date, n.time, n.application_id, n.admin_id, a.user_id
		 FROM notifications n
		 JOIN job_applications a ON n.application_id = a.application_id
		 WHERE n.delivered = 0
		 ORDER BY n.notification_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("未配信通知の取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var pending []UndeliveredNotification
	for rows.Next() {
		var (
			u       UndeliveredNotification
			adminID sql.NullInt64
		)
		if err := rows.Scan(&u.Payload.NotificationID, &u.Payload.Type, &u.Payload.Date, &u.Payload.Time,
			&u.Payload.ApplicationID, &adminID, &u.OwnerUserID); err != nil {
			return nil, fmt.Errorf("未配信通知行の読み取りに失敗: %w", err)
		}
		u.Payload.AdminID = int64Ptr(adminID)
		pending = append(pending, u)
	}
	return pending, rows.Err()
}

// MarkNotificationDelivered は通知を配信済みにする。
func (s *Store) MarkNotificationDelivered(ctx context.Context, id int64) error {
	if err := s.execAffected(ctx, `UPDATE notifications SET delivered = 1 WHERE notification_id = ?`, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("通知の配信済み更新に失敗: %w", err)
	}
	return nil
}

const notificationColumns = `n.notification_id, n.type, n.date, n.time, n.application_id, n.admin_id,
	a.user_id, r.role_title, c.company_name, n.delivered, n.is_read`

const notificationJoins = `FROM notifications n
	JOIN job_applications a ON n.application_id = a.application_id
	JOIN job_roles r ON a.role_id = r.role_id
	JOIN companies c ON r.company_id = c.company_id`

func scanNotification(scan func(dest ...any) error) (Notification, error) {
	var (
		n       Notification
		adminID sql.NullInt64
	)
	if err := scan(&n.NotificationID, &n.Type, &n.Date, &n.Time, &n.ApplicationID, &adminID,
		&n.UserID, &n.RoleTitle, &n.CompanyName, &n.Delivered, &n.IsRead); err != nil {
		return Notification{}, err
	}
	n.AdminID = int64Ptr(adminID)
	return n, nil
}

// ListNotificationsByUser はユーザーの通知を新しい順に返す。
func (s *Store) ListNotificationsByUser(ctx context.Context, userID int64) ([]Notification, error) {
	rows, err := s.query(ctx,
		`SELECT `+notificationColumns+` `+notificationJoins+`
		 WHERE a.user_id = ?
		 ORDER BY n.notification_id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("通知一覧の取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	notifications := make([]Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("通知行の読み取りに失敗: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// GetNotification は通知を1件取得する。
func (s *Store) GetNotification(ctx context.Context, id int64) (Notification, error) {
	n, err := scanNotification(s.queryRow(ctx,
		`SELECT `+notificationColumns+` `+notificationJoins+` WHERE n.notification_id = ?`, id).Scan)
	if err != nil {
		return Notification{}, wrapNoRows(err)
	}
	return n, nil
}

// MarkNotificationRead は通知を既読にする。
func (s *Store) MarkNotificationRead(ctx context.Context, id int64) error {
	if err := s.execAffected(ctx, `UPDATE notifications SET is_read = 1 WHERE notification_id = ?`, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("通知の既読更新に失敗: %w", err)
	}
	return nil
}

// MarkAllNotificationsRead はユーザーの全通知を既読にし、更新件数を返す。
func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID int64) (int64, error) {
	res, err := s.exec(ctx,
		`UPDATE notifications SET is_read = 1
		 WHERE is_read = 0
		   AND application_id IN (SELECT application_id FROM job_applications WHERE user_id = ?)`, userID)
	if err != nil {
		return 0, fmt.Errorf("全通知の既読更新に失敗: %w", err)
	}
	return res.RowsAffected()
}

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func int64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}
