package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/blogman/internal/blog"
	"github.com/hitoshi/blogman/internal/middleware"
	"github.com/hitoshi/blogman/internal/model"
)

// BlogMetrics はブログ操作のメトリクス記録の抽象化。
type BlogMetrics interface {
	RecordBlogCreated()
	RecordBlogLiked()
	RecordBlogDeleted()
}

// BlogServiceInterface はブログハンドラーが必要とするサービスインターフェース。
type BlogServiceInterface interface {
	// List は全ブログを作成者の要約付きで返す。
	List(ctx context.Context) ([]model.Blog, error)
	// Create は新規ブログを作成する。
	Create(ctx context.Context, userID string, draft model.BlogDraft) (*model.Blog, error)
	// Update は指定ブログを更新する（主にいいね数）。
	Update(ctx context.Context, id string, payload model.UpdatePayload) (*model.Blog, error)
	// Delete は指定ブログを削除する。作成者のみが削除できる。
	Delete(ctx context.Context, id, userID string) error
}

// BlogHandler はブログ管理のHTTPハンドラー。
type BlogHandler struct {
	service BlogServiceInterface
	metrics BlogMetrics
}

// NewBlogHandler はBlogHandlerを生成する。
func NewBlogHandler(service BlogServiceInterface, metrics BlogMetrics) *BlogHandler {
	return &BlogHandler{
		service: service,
		metrics: metrics,
	}
}

// ownerResponse はブログ所有者の要約のAPIレスポンス。
type ownerResponse struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
	Name     string `json:"name,omitempty"`
}

// blogResponse はブログ情報のAPIレスポンス。所有者はオブジェクト形式。
type blogResponse struct {
	ID     string        `json:"id"`
	Title  string        `json:"title"`
	Author string        `json:"author"`
	URL    string        `json:"url"`
	Likes  int           `json:"likes"`
	User   ownerResponse `json:"user"`
}

// blogUpdateResponse は更新APIのレスポンス。
// 更新応答では所有者をIDの文字列のみで返す（バックエンドのスキーマに合わせる）。
type blogUpdateResponse struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	URL    string `json:"url"`
	Likes  int    `json:"likes"`
	User   string `json:"user"`
}

// toBlogResponse はドメインモデルをAPIレスポンスに変換する。
func toBlogResponse(b model.Blog) blogResponse {
	return blogResponse{
		ID:     b.ID,
		Title:  b.Title,
		Author: b.Author,
		URL:    b.URL,
		Likes:  b.Likes,
		User: ownerResponse{
			ID:       b.Owner.ID,
			Username: b.Owner.Username,
			Name:     b.Owner.Name,
		},
	}
}

// List は全ブログの一覧を取得する。
// GET /api/blogs
func (h *BlogHandler) List(w http.ResponseWriter, r *http.Request) {
	blogs, err := h.service.List(r.Context())
	if err != nil {
		slog.Error("failed to list blogs", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	res := make([]blogResponse, len(blogs))
	for i, b := range blogs {
		res[i] = toBlogResponse(b)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

// Create は新規ブログを作成する。
// POST /api/blogs
func (h *BlogHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteError(w, http.StatusUnauthorized, "token missing or invalid")
		return
	}

	var draft model.BlogDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.service.Create(r.Context(), userID, draft)
	if err != nil {
		handleBlogServiceError(w, err)
		return
	}

	h.metrics.RecordBlogCreated()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toBlogResponse(*created))
}

// Update は指定ブログを更新する。
// PUT /api/blogs/{id}
func (h *BlogHandler) Update(w http.ResponseWriter, r *http.Request) {
	blogID := chi.URLParam(r, "id")

	var payload model.UpdatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.service.Update(r.Context(), blogID, payload)
	if err != nil {
		handleBlogServiceError(w, err)
		return
	}

	h.metrics.RecordBlogLiked()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(blogUpdateResponse{
		ID:     updated.ID,
		Title:  updated.Title,
		Author: updated.Author,
		URL:    updated.URL,
		Likes:  updated.Likes,
		User:   updated.Owner.ID,
	})
}

// Delete は指定ブログを削除する。
// DELETE /api/blogs/{id}
func (h *BlogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteError(w, http.StatusUnauthorized, "token missing or invalid")
		return
	}

	blogID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), blogID, userID); err != nil {
		handleBlogServiceError(w, err)
		return
	}

	h.metrics.RecordBlogDeleted()

	w.WriteHeader(http.StatusNoContent)
}

// handleBlogServiceError はブログサービスのエラーをHTTPステータスに変換する。
func handleBlogServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, blog.ErrNotFound):
		middleware.WriteError(w, http.StatusNotFound, "blog not found")
	case errors.Is(err, blog.ErrForbidden):
		middleware.WriteError(w, http.StatusForbidden, "only the creator can delete a blog")
	case errors.Is(err, blog.ErrValidation):
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("blog service error", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
	}
}
