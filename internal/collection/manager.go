// Package collection はブログ一覧のクライアント側キャッシュと
// 作成・いいね・削除の各操作を提供する。
package collection

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/hitoshi/blogman/internal/model"
)

// BlogAPI はコレクション操作に必要なAPI呼び出しの抽象化。
// 実体は api.Client。
type BlogAPI interface {
	ListBlogs(ctx context.Context) ([]model.Blog, error)
	CreateBlog(ctx context.Context, draft model.BlogDraft) (*model.Blog, error)
	UpdateBlog(ctx context.Context, id string, payload model.UpdatePayload) (*model.Blog, error)
	DeleteBlog(ctx context.Context, id string) error
}

// SessionReader は現在のセッションの参照の抽象化。
// 実体は session.Store。
type SessionReader interface {
	Current() *model.Session
}

// Notifier はユーザー向け通知の発行の抽象化。
// 実体は notify.Broadcaster。
type Notifier interface {
	Notify(message string, kind model.NotificationKind)
}

// Manager はブログコレクションのキャッシュを保持し、サーバーと同期する。
// 作成は楽観的更新を行わず、サーバーが採番したIDを受け取ってから反映する。
// ログアウト後に届いた応答は世代カウンタで判定して破棄する。
type Manager struct {
	api      BlogAPI
	session  SessionReader
	notifier Notifier

	mu    sync.RWMutex
	blogs []model.Blog
	gen   uint64 // Clearのたびに増える。網越し応答の鮮度判定に使う
}

// NewManager はManagerを生成する。
func NewManager(api BlogAPI, session SessionReader, notifier Notifier) *Manager {
	return &Manager{
		api:      api,
		session:  session,
		notifier: notifier,
	}
}

// LoadAll はサーバーから全件を取得してキャッシュを置き換える。
// 取得中にログアウトされた場合、応答は破棄される。
func (m *Manager) LoadAll(ctx context.Context) error {
	gen := m.generation()

	blogs, err := m.api.ListBlogs(ctx)
	if err != nil {
		return fmt.Errorf("failed to load blogs: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.gen != gen {
		slog.Debug("discarding stale blog list response")
		return nil
	}

	m.blogs = blogs
	return nil
}

// Create は新規ブログを作成する。
// サーバーがIDを採番した応答を受け取ってからキャッシュに追加する（楽観的更新はしない）。
// 成功時は「A new blog '<title>' by <author> added」、失敗時は「Error creating blog」を通知する。
func (m *Manager) Create(ctx context.Context, draft model.BlogDraft) (*model.Blog, error) {
	gen := m.generation()

	created, err := m.api.CreateBlog(ctx, draft)
	if err != nil {
		m.notifier.Notify("Error creating blog", model.NotificationError)
		return nil, fmt.Errorf("failed to create blog: %w", err)
	}
	if created.ID == "" {
		m.notifier.Notify("Error creating blog", model.NotificationError)
		return nil, fmt.Errorf("server response is missing blog ID")
	}

	m.mu.Lock()
	if m.gen == gen {
		m.blogs = append(m.blogs, *created)
	}
	stale := m.gen != gen
	m.mu.Unlock()

	if stale {
		slog.Debug("discarding stale create response", slog.String("blog_id", created.ID))
		return created, nil
	}

	slog.Info("blog created",
		slog.String("blog_id", created.ID),
		slog.String("title", created.Title),
	)
	m.notifier.Notify(
		fmt.Sprintf("A new blog '%s' by %s added", created.Title, created.Author),
		model.NotificationSuccess,
	)
	return created, nil
}

// Like は指定ブログのいいね数を1増やす。
// 更新リクエストにはキャッシュ中の値+1と書誌情報、所有者の解決可能なIDを載せる。
// サーバー応答の所有者が要約を欠く場合、キャッシュ済みの完全な所有者を保持する。
// 同じ値からの同時ないいねは後勝ちになる（片方の加算が失われる）。
func (m *Manager) Like(ctx context.Context, id string) (*model.Blog, error) {
	m.mu.RLock()
	gen := m.gen
	var target *model.Blog
	for i := range m.blogs {
		if m.blogs[i].ID == id {
			b := m.blogs[i]
			target = &b
			break
		}
	}
	m.mu.RUnlock()

	if target == nil {
		return nil, fmt.Errorf("blog not found: %s", id)
	}

	payload := model.UpdatePayload{
		Owner:  target.Owner.ResolvableID(),
		Likes:  target.Likes + 1,
		Title:  target.Title,
		Author: target.Author,
		URL:    target.URL,
	}

	updated, err := m.api.UpdateBlog(ctx, id, payload)
	if err != nil {
		m.notifier.Notify("Error liking blog", model.NotificationError)
		return nil, fmt.Errorf("failed to like blog: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.gen != gen {
		slog.Debug("discarding stale like response", slog.String("blog_id", id))
		return updated, nil
	}

	for i := range m.blogs {
		if m.blogs[i].ID != id {
			continue
		}
		merged := *updated
		// 応答の所有者が不完全なら、既知の完全な所有者を格下げしない
		if !merged.Owner.IsComplete() && m.blogs[i].Owner.IsComplete() {
			merged.Owner = m.blogs[i].Owner
		}
		m.blogs[i] = merged
		result := merged
		return &result, nil
	}

	return updated, nil
}

// Delete は指定ブログを削除する。
// confirmがfalseを返した場合は何もしない。
// 成功時は「Deleted blog "<title>"」、失敗時は「Error deleting blog」を通知する。
func (m *Manager) Delete(ctx context.Context, id string, confirm func(title, author string) bool) error {
	m.mu.RLock()
	gen := m.gen
	var target *model.Blog
	for i := range m.blogs {
		if m.blogs[i].ID == id {
			b := m.blogs[i]
			target = &b
			break
		}
	}
	m.mu.RUnlock()

	if target == nil {
		return fmt.Errorf("blog not found: %s", id)
	}

	if confirm != nil && !confirm(target.Title, target.Author) {
		return nil
	}

	if err := m.api.DeleteBlog(ctx, id); err != nil {
		m.notifier.Notify("Error deleting blog", model.NotificationError)
		return fmt.Errorf("failed to delete blog: %w", err)
	}

	m.mu.Lock()
	if m.gen == gen {
		for i := range m.blogs {
			if m.blogs[i].ID == id {
				m.blogs = append(m.blogs[:i], m.blogs[i+1:]...)
				break
			}
		}
	}
	m.mu.Unlock()

	slog.Info("blog deleted", slog.String("blog_id", id), slog.String("title", target.Title))
	m.notifier.Notify(fmt.Sprintf("Deleted blog %q", target.Title), model.NotificationSuccess)
	return nil
}

// SortedView はいいね数の降順に並べたコレクションのコピーを返す。
// 同数の場合は取得時の相対順を保つ。呼び出しのたびに再計算する。
func (m *Manager) SortedView() []model.Blog {
	m.mu.RLock()
	view := make([]model.Blog, len(m.blogs))
	copy(view, m.blogs)
	m.mu.RUnlock()

	sort.SliceStable(view, func(i, j int) bool {
		return view[i].Likes > view[j].Likes
	})
	return view
}

// Get は指定IDのブログのコピーを返す。見つからない場合はnilを返す。
func (m *Manager) Get(id string) *model.Blog {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := range m.blogs {
		if m.blogs[i].ID == id {
			b := m.blogs[i]
			return &b
		}
	}
	return nil
}

// CanDelete は現在のユーザーが指定ブログを削除できるかを返す。
// 所有者の要約が不完全な場合は判定できないためfalseを返す（サーバー側でも強制される）。
func (m *Manager) CanDelete(blog *model.Blog) bool {
	sess := m.session.Current()
	if sess == nil {
		return false
	}
	if !blog.Owner.IsComplete() {
		return false
	}
	return blog.Owner.Username == sess.Username
}

// Clear はキャッシュを破棄し、以降に届く網越し応答を無効化する。
// ログアウト時に呼ぶ。
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blogs = nil
	m.gen++
}

// Len はキャッシュ中のブログ件数を返す。
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blogs)
}

func (m *Manager) generation() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gen
}
