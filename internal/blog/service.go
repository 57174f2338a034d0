// Package blog はブログ記事管理のドメインロジックを提供する。
package blog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/repository"
)

// ErrNotFound は指定されたブログが存在しない場合のエラー。
var ErrNotFound = errors.New("blog not found")

// ErrForbidden は作成者以外がブログを削除しようとした場合のエラー。
var ErrForbidden = errors.New("only the creator can delete a blog")

// ErrValidation はブログ作成・更新の入力検証エラー。
var ErrValidation = errors.New("validation failed")

// FieldSanitizer はユーザー入力フィールドのサニタイズの抽象化。
// 実体は security.FieldSanitizerService。
type FieldSanitizer interface {
	SanitizeField(raw string) string
}

// Service はブログ管理のサービス層。
// 一覧取得、作成、更新（いいね）、削除のビジネスロジックを提供する。
type Service struct {
	blogRepo  repository.BlogStore
	userRepo  repository.UserStore
	sanitizer FieldSanitizer
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	blogRepo repository.BlogStore,
	userRepo repository.UserStore,
	sanitizer FieldSanitizer,
) *Service {
	return &Service{
		blogRepo:  blogRepo,
		userRepo:  userRepo,
		sanitizer: sanitizer,
	}
}

// List は全ブログを作成者の要約付きで返す。
func (s *Service) List(ctx context.Context) ([]model.Blog, error) {
	records, err := s.blogRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list blogs: %w", err)
	}

	// 同一ユーザーの重複検索を避けるため呼び出し内でキャッシュする
	owners := make(map[string]*model.User)

	blogs := make([]model.Blog, len(records))
	for i, rec := range records {
		owner, ok := owners[rec.UserID]
		if !ok {
			owner, err = s.userRepo.FindByID(ctx, rec.UserID)
			if err != nil {
				return nil, fmt.Errorf("failed to find blog owner: %w", err)
			}
			owners[rec.UserID] = owner
		}
		blogs[i] = toBlog(rec, owner)
	}

	return blogs, nil
}

// Create は新規ブログを作成する。
// タイトルとURLは必須。入力フィールドはサニタイズしてから保存する。
func (s *Service) Create(ctx context.Context, userID string, draft model.BlogDraft) (*model.Blog, error) {
	title := s.sanitizer.SanitizeField(draft.Title)
	author := s.sanitizer.SanitizeField(draft.Author)
	url := s.sanitizer.SanitizeField(draft.URL)

	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if url == "" {
		return nil, fmt.Errorf("%w: url is required", ErrValidation)
	}

	owner, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if owner == nil {
		return nil, fmt.Errorf("user not found: %s", userID)
	}

	rec := &model.BlogRecord{
		ID:        uuid.New().String(),
		Title:     title,
		Author:    author,
		URL:       url,
		Likes:     0,
		UserID:    userID,
		CreatedAt: time.Now(),
	}

	if err := s.blogRepo.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to create blog: %w", err)
	}

	slog.Info("blog created",
		slog.String("blog_id", rec.ID),
		slog.String("user_id", userID),
		slog.String("title", rec.Title),
	)

	blog := toBlog(rec, owner)
	return &blog, nil
}

// Update は指定ブログを更新する。主な用途はいいね数の更新。
// 作成者以外のユーザーからの更新も受け付ける（いいねは誰でも押せる）。
// 所有者は変更されない。
func (s *Service) Update(ctx context.Context, id string, payload model.UpdatePayload) (*model.Blog, error) {
	rec, err := s.blogRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find blog: %w", err)
	}
	if rec == nil {
		return nil, ErrNotFound
	}

	if payload.Likes < 0 {
		return nil, fmt.Errorf("%w: likes must not be negative", ErrValidation)
	}

	rec.Likes = payload.Likes
	if title := s.sanitizer.SanitizeField(payload.Title); title != "" {
		rec.Title = title
	}
	if author := s.sanitizer.SanitizeField(payload.Author); author != "" {
		rec.Author = author
	}
	if url := s.sanitizer.SanitizeField(payload.URL); url != "" {
		rec.URL = url
	}

	if err := s.blogRepo.Update(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to update blog: %w", err)
	}

	slog.Info("blog updated",
		slog.String("blog_id", rec.ID),
		slog.Int("likes", rec.Likes),
	)

	// 所有者の要約は展開しない（応答のownerはIDのみ）
	blog := toBlog(rec, nil)
	return &blog, nil
}

// Delete は指定ブログを削除する。作成者のみが削除できる。
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	rec, err := s.blogRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to find blog: %w", err)
	}
	if rec == nil {
		return ErrNotFound
	}

	if rec.UserID != userID {
		return ErrForbidden
	}

	if err := s.blogRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete blog: %w", err)
	}

	slog.Info("blog deleted",
		slog.String("blog_id", id),
		slog.String("user_id", userID),
	)

	return nil
}

// toBlog はストレージのレコードをAPIのブログ表現に変換する。
// ownerがnilの場合、所有者はIDのみの要約になる。
func toBlog(rec *model.BlogRecord, owner *model.User) model.Blog {
	b := model.Blog{
		ID:     rec.ID,
		Title:  rec.Title,
		Author: rec.Author,
		URL:    rec.URL,
		Likes:  rec.Likes,
		Owner:  model.Owner{ID: rec.UserID},
	}
	if owner != nil {
		b.Owner.Username = owner.Username
		b.Owner.Name = owner.Name
	}
	return b
}
