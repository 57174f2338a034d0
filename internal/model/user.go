// Package model はドメインモデルを定義する。
package model

import "time"

// User は開発サーバーが管理するユーザーアカウントを表す。
// PasswordHashはbcryptハッシュで、平文パスワードは保存しない。
type User struct {
	ID           string
	Username     string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}

// BlogRecord は開発サーバーが永続化するブログのレコードを表す。
// クライアント側のBlogと異なり、所有者はIDのみで保持する。
type BlogRecord struct {
	ID        string
	Title     string
	Author    string
	URL       string
	Likes     int
	UserID    string
	CreatedAt time.Time
}

// Token は開発サーバーが発行するBearerトークンを表す。
type Token struct {
	Value     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
