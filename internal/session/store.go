// Package session はログインセッションの確立、復元、破棄を提供する。
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/repository"
)

// Authenticator はセッション確立に必要なAPI呼び出しの抽象化。
// 実体は api.Client。
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*model.Session, error)
	SetToken(token string)
}

// Notifier はユーザー向け通知の発行の抽象化。
// 実体は notify.Broadcaster。
type Notifier interface {
	Notify(message string, kind model.NotificationKind)
}

// Store はアクティブなセッションを1つだけ保持し、永続化と復元を行う。
// ログイン成功時にAPIクライアントへトークンを設定し、ログアウト時に解除する。
type Store struct {
	auth     Authenticator
	repo     repository.SessionRepository
	notifier Notifier
	onLogout func() // ログアウト時のコレクション破棄フック（nil可）

	mu      sync.RWMutex
	current *model.Session
}

// NewStore はStoreを生成する。
// onLogoutはログアウト完了時に呼ばれる（表示中データの破棄用、nil可）。
func NewStore(
	auth Authenticator,
	repo repository.SessionRepository,
	notifier Notifier,
	onLogout func(),
) *Store {
	return &Store{
		auth:     auth,
		repo:     repo,
		notifier: notifier,
		onLogout: onLogout,
	}
}

// Restore は永続化済みセッションを読み込み、あればアクティブにする。
// 保存されたセッションがない場合は(nil, nil)を返す。
// 破損した保存データはログアウト状態として扱い、ファイルを破棄する。
func (s *Store) Restore(ctx context.Context) (*model.Session, error) {
	sess, err := s.repo.Load()
	if err != nil {
		slog.Warn("discarding unreadable session data", slog.String("error", err.Error()))
		if clearErr := s.repo.Clear(); clearErr != nil {
			return nil, fmt.Errorf("failed to clear corrupt session: %w", clearErr)
		}
		return nil, nil
	}
	if sess == nil {
		return nil, nil
	}

	s.auth.SetToken(sess.Token)

	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()

	slog.Info("session restored", slog.String("username", sess.Username))
	return s.copyCurrent(), nil
}

// Login は認証を行い、成功したセッションを永続化してアクティブにする。
// 成功時は「<name> logged in」、失敗時は「Wrong username or password」を通知する。
// 永続化の失敗はセッションの確立を妨げない（次回復元ができないだけ）。
func (s *Store) Login(ctx context.Context, username, password string) (*model.Session, error) {
	sess, err := s.auth.Login(ctx, username, password)
	if err != nil {
		s.notifier.Notify("Wrong username or password", model.NotificationError)
		return nil, fmt.Errorf("login failed: %w", err)
	}

	s.auth.SetToken(sess.Token)

	if err := s.repo.Save(sess); err != nil {
		slog.Warn("failed to persist session",
			slog.String("username", sess.Username),
			slog.String("error", err.Error()),
		)
	}

	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()

	slog.Info("user logged in", slog.String("username", sess.Username))
	s.notifier.Notify(fmt.Sprintf("%s logged in", sess.Name), model.NotificationSuccess)

	return s.copyCurrent(), nil
}

// Logout はセッションを破棄する。
// 永続化データの削除、トークンの解除、表示中データの破棄フックの順に実行する。
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	username := ""
	if s.current != nil {
		username = s.current.Username
	}
	s.current = nil
	s.mu.Unlock()

	s.auth.SetToken("")

	if err := s.repo.Clear(); err != nil {
		return fmt.Errorf("failed to clear persisted session: %w", err)
	}

	if s.onLogout != nil {
		s.onLogout()
	}

	slog.Info("user logged out", slog.String("username", username))
	s.notifier.Notify("Logged out", model.NotificationSuccess)
	return nil
}

// Current はアクティブなセッションのコピーを返す。未ログインならnilを返す。
func (s *Store) Current() *model.Session {
	return s.copyCurrent()
}

// IsActive はログイン中かどうかを返す。
func (s *Store) IsActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil
}

func (s *Store) copyCurrent() *model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil
	}
	sess := *s.current
	return &sess
}
