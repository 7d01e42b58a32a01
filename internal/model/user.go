// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// 初回の認証交換時に作成され、以後は更新も削除もされない。
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Picture   *string   `json:"picture"`
	CreatedAt time.Time `json:"created_at"`
}

// Session はユーザーのログインセッションを表す。
// トークン自体は外部IdPが発行したもので、ここではダイジェストのみ保持する。
type Session struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsActive は指定時刻においてセッションが有効かどうかを返す。
// 有効期限と同時刻の場合は無効とする。
func (s *Session) IsActive(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}
