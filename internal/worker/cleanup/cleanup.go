// Package cleanup は期限切れトークンの自動削除ジョブを提供する。
// トークンは検証時に遅延削除されるが、一度も再利用されないトークンは
// ストアに残り続けるため、定期バッチで掃除する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// TokenSweeper は期限切れトークンの削除を抽象化するインターフェース。
// 実体は repository.TokenStore。
type TokenSweeper interface {
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// CleanupJob は期限切れトークンの自動削除ジョブ。
// 定期実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	tokens TokenSweeper
	logger *slog.Logger
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(tokens TokenSweeper, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		tokens: tokens,
		logger: logger,
	}
}

// Run は期限切れトークンを削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	deleted, err := j.tokens.DeleteExpired(ctx, time.Now())
	if err != nil {
		j.logger.Error("token cleanup failed",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to delete expired tokens: %w", err)
	}

	j.logger.Info("token cleanup completed",
		slog.Int("deleted_count", deleted),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return nil
}
