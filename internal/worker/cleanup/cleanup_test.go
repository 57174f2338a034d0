package cleanup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/repository"
)

type mockSweeper struct {
	deleteFunc func(ctx context.Context, now time.Time) (int, error)
}

func (m *mockSweeper) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	return m.deleteFunc(ctx, now)
}

var _ TokenSweeper = (*mockSweeper)(nil)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

func TestRun_DeletesExpiredTokens(t *testing.T) {
	var buf bytes.Buffer
	sweeper := &mockSweeper{
		deleteFunc: func(ctx context.Context, now time.Time) (int, error) {
			return 3, nil
		},
	}
	job := NewCleanupJob(sweeper, newTestLogger(&buf))

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log output: %v", err)
	}
	if entry["msg"] != "token cleanup completed" {
		t.Errorf("msg = %q", entry["msg"])
	}
	if count, ok := entry["deleted_count"].(float64); !ok || count != 3 {
		t.Errorf("deleted_count = %v, want 3", entry["deleted_count"])
	}
}

func TestRun_SweeperError(t *testing.T) {
	var buf bytes.Buffer
	sweeper := &mockSweeper{
		deleteFunc: func(ctx context.Context, now time.Time) (int, error) {
			return 0, errors.New("store unavailable")
		},
	}
	job := NewCleanupJob(sweeper, newTestLogger(&buf))

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error from failing sweeper")
	}
}

func TestRun_WithMemoryTokenRepo(t *testing.T) {
	repo := repository.NewMemoryTokenRepo()
	ctx := context.Background()

	// 期限切れ1件と有効1件を保存
	if err := repo.Save(ctx, &model.Token{
		Value:     "expired",
		UserID:    "u-1",
		ExpiresAt: time.Now().Add(-time.Hour),
	}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := repo.Save(ctx, &model.Token{
		Value:     "valid",
		UserID:    "u-1",
		ExpiresAt: time.Now().Add(time.Hour),
	}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	var buf bytes.Buffer
	job := NewCleanupJob(repo, newTestLogger(&buf))
	if err := job.Run(ctx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if tok, _ := repo.Find(ctx, "valid"); tok == nil {
		t.Error("valid token should survive cleanup")
	}
	if tok, _ := repo.Find(ctx, "expired"); tok != nil {
		t.Error("expired token should be removed")
	}
}
