// Package tracker は応募管理のREST APIを提供する。
//
// 応募者と管理者の2種類のロールを持ち、求人・企業・応募・面接・通知を扱う。
// 面接登録はステータスガードを通して応募ステータスを進め、
// Outboxへ通知を追記する。通知のプッシュ配信は notification パッケージが担う。
package tracker
