// Package cleanup は期限切れセッションの定期削除ジョブを提供する。
// 期限切れのセッションは検証時に無効と判定されるため、削除は容量管理のためだけに行う。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// DefaultRetention は有効期限切れ後もセッション行を残す期間。
const DefaultRetention = 24 * time.Hour

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// CleanupJob は有効期限からRetention以上経過したセッションを削除するジョブ。
// 冪等であり、削除対象がない場合もエラーにならない。
type CleanupJob struct {
	db        Executor
	logger    *slog.Logger
	now       func() time.Time
	Retention time.Duration
}

// NewCleanupJob は新しいCleanupJobを生成する。nowにnilを渡した場合はtime.Nowを使う。
func NewCleanupJob(db Executor, logger *slog.Logger, now func() time.Time) *CleanupJob {
	if now == nil {
		now = time.Now
	}
	return &CleanupJob{
		db:        db,
		logger:    logger,
		now:       now,
		Retention: DefaultRetention,
	}
}

// Run は期限切れセッションを1回削除する。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()
	cutoff := j.now().Add(-j.Retention)

	result, err := j.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < $1`, cutoff)
	if err != nil {
		j.logger.Error("session cleanup failed",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	deletedCount, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	j.logger.Info("session cleanup completed",
		slog.Int64("deleted_count", deletedCount),
		slog.Time("cutoff", cutoff),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return nil
}

// Start は起動直後に1回実行し、以降interval毎に実行する。ctxがキャンセルされるまでブロックする。
// 個々の実行の失敗はログに残して次回に持ち越す。
func (j *CleanupJob) Start(ctx context.Context, interval time.Duration) {
	_ = j.Run(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = j.Run(ctx)
		}
	}
}
