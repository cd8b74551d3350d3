// Package store は応募管理データの永続化層を提供する。
//
// ユーザー、管理者、企業、職種、応募、面接、通知をリレーショナルDBに保存する。
// 既定はSQLite（modernc.org/sqlite）で、DB_DRIVER=pgx を指定すると
// PostgreSQL（pgx stdlib）を使用する。SQLは ? プレースホルダで記述し、
// PostgreSQLでは $n に書き換えて実行する。
//
// 通知配信パイプラインが使用する操作:
//   - InsertInterview / GetApplicationStatus / SetApplicationStatus
//   - InsertNotification（Outbox）
//   - ListUndeliveredNotifications / MarkNotificationDelivered（ポーラー）
package store
