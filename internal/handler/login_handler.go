// Package handler は開発サーバーのHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/blogman/internal/auth"
	"github.com/hitoshi/blogman/internal/middleware"
)

// LoginMetrics はログイン試行のメトリクス記録の抽象化。
type LoginMetrics interface {
	RecordLogin(success bool)
}

// LoginServiceInterface はログインハンドラーが必要とするサービスインターフェース。
type LoginServiceInterface interface {
	// Login は資格情報を検証し、Bearerトークンを発行する。
	// 資格情報が不正な場合は auth.ErrInvalidCredentials を返す。
	Login(ctx context.Context, username, password string) (*auth.LoginResult, error)
}

// LoginHandler はログインのHTTPハンドラー。
type LoginHandler struct {
	service LoginServiceInterface
	metrics LoginMetrics
}

// NewLoginHandler はLoginHandlerを生成する。
func NewLoginHandler(service LoginServiceInterface, metrics LoginMetrics) *LoginHandler {
	return &LoginHandler{
		service: service,
		metrics: metrics,
	}
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse はログイン成功時のAPIレスポンス。
type loginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// Login は資格情報を検証してトークンを返す。
// POST /api/login
func (h *LoginHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.metrics.RecordLogin(false)
			middleware.WriteError(w, http.StatusUnauthorized, "invalid username or password")
			return
		}
		slog.Error("login failed", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	h.metrics.RecordLogin(true)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(loginResponse{
		Token:    result.Token,
		Username: result.Username,
		Name:     result.Name,
	})
}
