package model

import "time"

// Session は閲覧者のログインセッション。
// 発行と失効は外部の認証基盤が行い、本サービスはユーザーIDの解決にのみ使う。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
