package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hitoshi/blogman/internal/model"
)

// MemoryUserRepo はメモリ上のユーザーストア。
// DATABASE_URL未設定時の開発サーバーのデフォルト実装。
type MemoryUserRepo struct {
	mu    sync.RWMutex
	users map[string]*model.User // key: ID
}

// NewMemoryUserRepo はMemoryUserRepoを生成する。
func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{
		users: make(map[string]*model.User),
	}
}

// Create はユーザーを作成する。usernameが重複する場合はエラーを返す。
func (r *MemoryUserRepo) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == user.Username {
			return fmt.Errorf("username already taken: %s", user.Username)
		}
	}

	stored := *user
	r.users[user.ID] = &stored
	return nil
}

// FindByUsername はusernameでユーザーを検索する。見つからない場合はnilを返す。
func (r *MemoryUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Username == username {
			found := *u
			return &found, nil
		}
	}
	return nil, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *MemoryUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	found := *u
	return &found, nil
}

// DeleteAll は全ユーザーを削除する。
func (r *MemoryUserRepo) DeleteAll(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = make(map[string]*model.User)
	return nil
}

// MemoryBlogRepo はメモリ上のブログストア。
type MemoryBlogRepo struct {
	mu    sync.RWMutex
	blogs map[string]*model.BlogRecord // key: ID
}

// NewMemoryBlogRepo はMemoryBlogRepoを生成する。
func NewMemoryBlogRepo() *MemoryBlogRepo {
	return &MemoryBlogRepo{
		blogs: make(map[string]*model.BlogRecord),
	}
}

// List は全ブログを作成日時の昇順で返す。
func (r *MemoryBlogRepo) List(_ context.Context) ([]*model.BlogRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]*model.BlogRecord, 0, len(r.blogs))
	for _, b := range r.blogs {
		copied := *b
		list = append(list, &copied)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list, nil
}

// FindByID は指定IDのブログを取得する。見つからない場合はnilを返す。
func (r *MemoryBlogRepo) FindByID(_ context.Context, id string) (*model.BlogRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.blogs[id]
	if !ok {
		return nil, nil
	}
	found := *b
	return &found, nil
}

// Create はブログを作成する。
func (r *MemoryBlogRepo) Create(_ context.Context, blog *model.BlogRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *blog
	r.blogs[blog.ID] = &stored
	return nil
}

// Update は既存ブログを上書き更新する。存在しない場合はエラーを返す。
func (r *MemoryBlogRepo) Update(_ context.Context, blog *model.BlogRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.blogs[blog.ID]; !ok {
		return fmt.Errorf("blog not found: %s", blog.ID)
	}
	stored := *blog
	r.blogs[blog.ID] = &stored
	return nil
}

// Delete は指定IDのブログを削除する。存在しない場合もエラーにしない。
func (r *MemoryBlogRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.blogs, id)
	return nil
}

// DeleteAll は全ブログを削除する。
func (r *MemoryBlogRepo) DeleteAll(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blogs = make(map[string]*model.BlogRecord)
	return nil
}

// MemoryTokenRepo はメモリ上のトークンストア。
// トークンはプロセス内でのみ有効なため、永続化は行わない。
type MemoryTokenRepo struct {
	mu     sync.RWMutex
	tokens map[string]*model.Token // key: トークン値
}

// NewMemoryTokenRepo はMemoryTokenRepoを生成する。
func NewMemoryTokenRepo() *MemoryTokenRepo {
	return &MemoryTokenRepo{
		tokens: make(map[string]*model.Token),
	}
}

// Save はトークンを保存する。
func (r *MemoryTokenRepo) Save(_ context.Context, token *model.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *token
	r.tokens[token.Value] = &stored
	return nil
}

// Find はトークン値でトークンを検索する。期限切れ・不明な場合はnilを返す。
// 期限切れエントリは検索時に削除する。
func (r *MemoryTokenRepo) Find(_ context.Context, value string) (*model.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tokens[value]
	if !ok {
		return nil, nil
	}
	if time.Now().After(t.ExpiresAt) {
		delete(r.tokens, value)
		return nil, nil
	}
	found := *t
	return &found, nil
}

// DeleteAll は全トークンを削除する。
func (r *MemoryTokenRepo) DeleteAll(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens = make(map[string]*model.Token)
	return nil
}

// DeleteExpired は期限切れトークンを削除し、削除件数を返す。
func (r *MemoryTokenRepo) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deleted := 0
	for value, t := range r.tokens {
		if now.After(t.ExpiresAt) {
			delete(r.tokens, value)
			deleted++
		}
	}
	return deleted, nil
}
