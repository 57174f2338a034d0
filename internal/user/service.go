// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/repository"
)

// ErrValidation はユーザー登録の入力検証エラー。
// errors.Isで判定し、メッセージをそのままクライアントに返してよい。
var ErrValidation = errors.New("validation failed")

// ServiceConfig はユーザーサービスの設定。
type ServiceConfig struct {
	BcryptCost int // パスワードハッシュのコスト
}

// Service はユーザー管理のサービス層。
// ユーザー登録のビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserStore
	config   ServiceConfig
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserStore, config ServiceConfig) *Service {
	return &Service{
		userRepo: userRepo,
		config:   config,
	}
}

// Register は新規ユーザーを登録する。
// ユーザー名とパスワードは3文字以上、ユーザー名は一意であることを検証する。
func (s *Service) Register(ctx context.Context, req model.NewUser) (*model.User, error) {
	if len(req.Username) < 3 {
		return nil, fmt.Errorf("%w: username must be at least 3 characters long", ErrValidation)
	}
	if len(req.Password) < 3 {
		return nil, fmt.Errorf("%w: password must be at least 3 characters long", ErrValidation)
	}

	existing, err := s.userRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: username must be unique", ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser := &model.User{
		ID:           uuid.New().String(),
		Username:     req.Username,
		Name:         req.Name,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}

	if err := s.userRepo.Create(ctx, newUser); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user registered",
		slog.String("user_id", newUser.ID),
		slog.String("username", newUser.Username),
	)

	return newUser, nil
}
