package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

const (
	// initialBackoff は接続リトライの初回遅延。
	initialBackoff = 500 * time.Millisecond
	// maxBackoff は接続リトライの最大遅延。
	maxBackoff = 10 * time.Second
)

// CalculateBackoff は連続失敗回数に基づいて指数バックオフ遅延を計算する。
// 初回500ms、2倍ずつ増加、最大10秒。
func CalculateBackoff(consecutiveErrors int) time.Duration {
	delay := initialBackoff
	for i := 0; i < consecutiveErrors; i++ {
		delay *= 2
		if delay > maxBackoff {
			return maxBackoff
		}
	}
	return delay
}

// PingWithRetry はデータベースへの疎通を指数バックオフ付きで確認する。
// コンテナ起動直後などDBの受け付け開始前に接続を試みるケースに備える。
// attemptsは試行回数で、全試行が失敗した場合は最後のエラーを返す。
func PingWithRetry(ctx context.Context, db *sql.DB, attempts int) error {
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			delay := CalculateBackoff(i - 1)
			slog.Info("retrying database connection",
				slog.Int("attempt", i+1),
				slog.Duration("delay", delay),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := db.PingContext(ctx); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("database unreachable after %d attempts: %w", attempts, lastErr)
}
