// Package auth は開発サーバーのトークン認証を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/repository"
)

// ErrInvalidCredentials はユーザー名またはパスワードが誤っている場合のエラー。
var ErrInvalidCredentials = errors.New("invalid username or password")

// LoginResult はログイン成功時にクライアントへ返す情報。
type LoginResult struct {
	Token    string
	Username string
	Name     string
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	TokenTTL time.Duration // トークン有効期間
}

// Service はトークン認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo  repository.UserStore
	tokenRepo repository.TokenStore
	config    ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserStore,
	tokenRepo repository.TokenStore,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		config:    config,
	}
}

// Login は認証情報を検証し、Bearerトークンを発行する。
// ユーザーが存在しない場合とパスワード不一致の場合は同じErrInvalidCredentialsを返す
// （存在するユーザー名の推測を防ぐ）。
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	tokenValue, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	token := &model.Token{
		Value:     tokenValue,
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.config.TokenTTL),
		CreatedAt: time.Now(),
	}

	if err := s.tokenRepo.Save(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to save token: %w", err)
	}

	slog.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return &LoginResult{
		Token:    tokenValue,
		Username: user.Username,
		Name:     user.Name,
	}, nil
}

// Verify はBearerトークンを検証し、対応するユーザーIDを返す。
// トークンが存在しない、または期限切れの場合はエラーを返す。
func (s *Service) Verify(ctx context.Context, token string) (string, error) {
	found, err := s.tokenRepo.Find(ctx, token)
	if err != nil {
		return "", fmt.Errorf("failed to find token: %w", err)
	}
	if found == nil {
		return "", fmt.Errorf("token not found or expired")
	}
	return found.UserID, nil
}

// generateToken は暗号的に安全なトークンを生成する。
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
