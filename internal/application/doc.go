// Package application は応募ステータスの定義と、自動イベントによる
// ステータス遷移の判定を提供する。
//
// 判定はストレージに依存しない純粋関数として実装する。
// Selected と Rejected は終端ステータスであり、面接登録などの自動イベントでは変更されない。
// 管理者による手動変更はこのパッケージを経由しない。
package application
