// Package repository はデータ永続化のインターフェースを定義する。
// クライアント側のセッション永続化と、開発サーバー側のユーザー・ブログ・
// トークンのストアを含む。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/blogman/internal/model"
)

// SessionRepository はクライアント側のセッションblobの永続化インターフェース。
// 1つの永続キーに {token, username, name} をシリアライズして保持する。
type SessionRepository interface {
	// Load は永続化されたセッションを読み込む。
	// 保存されたセッションがない場合は(nil, nil)を返す。
	// 破損している場合はエラーを返す（呼び出し元が「セッションなし」として扱う）。
	Load() (*model.Session, error)

	// Save はセッションを永続化する。
	Save(session *model.Session) error

	// Clear は永続化されたセッションを削除する。存在しない場合もエラーにしない。
	Clear() error
}

// UserStore は開発サーバーのユーザーアカウントのストアインターフェース。
type UserStore interface {
	// Create はユーザーを作成する。usernameが重複する場合はエラーを返す。
	Create(ctx context.Context, user *model.User) error

	// FindByUsername はusernameでユーザーを検索する。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// DeleteAll は全ユーザーを削除する。テストハーネスのリセット用。
	DeleteAll(ctx context.Context) error
}

// BlogStore は開発サーバーのブログレコードのストアインターフェース。
type BlogStore interface {
	// List は全ブログを作成日時の昇順で返す。
	List(ctx context.Context) ([]*model.BlogRecord, error)

	// FindByID は指定IDのブログを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.BlogRecord, error)

	// Create はブログを作成する。
	Create(ctx context.Context, blog *model.BlogRecord) error

	// Update は既存ブログを上書き更新する。
	Update(ctx context.Context, blog *model.BlogRecord) error

	// Delete は指定IDのブログを削除する。
	Delete(ctx context.Context, id string) error

	// DeleteAll は全ブログを削除する。テストハーネスのリセット用。
	DeleteAll(ctx context.Context) error
}

// TokenStore は開発サーバーが発行したBearerトークンのストアインターフェース。
// トークンは開発サーバーのプロセス内でのみ有効なため、メモリ実装のみを持つ。
type TokenStore interface {
	// Save はトークンを保存する。
	Save(ctx context.Context, token *model.Token) error

	// Find はトークン値でトークンを検索する。期限切れ・不明な場合はnilを返す。
	Find(ctx context.Context, value string) (*model.Token, error)

	// DeleteExpired は期限切れトークンを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context, now time.Time) (int, error)

	// DeleteAll は全トークンを削除する。テストハーネスのリセット用。
	DeleteAll(ctx context.Context) error
}
