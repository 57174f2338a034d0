// Package model はドメインモデルを定義する。
package model

// Session は認証済みユーザーのコンテキストを表す。
// ログイン成功時にサーバーから返され、永続化ストレージに保存される。
// 存在する = 認証済み、不在 = 未認証。
type Session struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// NewUser はユーザー作成リクエスト（テストハーネス用エンドポイント）のボディ。
type NewUser struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Password string `json:"password"`
}
