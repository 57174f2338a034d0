package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/blogman/internal/middleware"
)

// StoreResetter は全レコード削除の抽象化。
// E2Eテストハーネスが既知の状態から開始できるようにするために使う。
type StoreResetter interface {
	DeleteAll(ctx context.Context) error
}

// TestingHandler はテストハーネス用のHTTPハンドラー。
// ENABLE_TESTING_API が有効な場合のみルーティングに載る。
type TestingHandler struct {
	users  StoreResetter
	blogs  StoreResetter
	tokens StoreResetter
}

// NewTestingHandler はTestingHandlerを生成する。
func NewTestingHandler(users, blogs, tokens StoreResetter) *TestingHandler {
	return &TestingHandler{
		users:  users,
		blogs:  blogs,
		tokens: tokens,
	}
}

// Reset は全ユーザー・ブログ・トークンを削除する。
// POST /api/testing/reset
func (h *TestingHandler) Reset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// 外部キー制約の都合でブログから先に削除する
	if err := h.blogs.DeleteAll(ctx); err != nil {
		slog.Error("failed to reset blogs", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}
	if err := h.tokens.DeleteAll(ctx); err != nil {
		slog.Error("failed to reset tokens", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}
	if err := h.users.DeleteAll(ctx); err != nil {
		slog.Error("failed to reset users", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	slog.Info("test data reset")

	w.WriteHeader(http.StatusNoContent)
}
