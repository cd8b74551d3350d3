// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// JWT認証トークンの発行と検証、ロールによるアクセス制御、
// パニックリカバリを含む。
package middleware
