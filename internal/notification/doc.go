// Package notification は通知のプッシュ配信パイプラインを提供する。
//
// Outboxが通知行を delivered=false で書き込み、Pollerが一定間隔で
// 未配信行を取り出してHubへ渡し、配信済みにマークする。
// HubはストリームのセッションとユーザーIDの対応を保持し、
// GatewayはSSEストリームの接続・識別・切断をHubへ橋渡しする。
package notification
