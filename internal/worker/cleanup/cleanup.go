// Package cleanup はセッションと操作ログの自動削除ジョブを提供する。
// 期限切れセッションと保持期間（デフォルト90日）を超過した操作ログを
// 定期バッチで削除する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// SessionPruner は期限切れセッション削除のインターフェース。
// repository.SessionRepositoryの部分集合として定義する。
type SessionPruner interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// ActivityLogPruner は古い操作ログ削除のインターフェース。
// repository.ActivityLogRepositoryの部分集合として定義する。
type ActivityLogPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// CleanupJob は期限切れセッションと古い操作ログの自動削除ジョブ。
// 冪等な削除処理として設計されており、削除対象がなくてもエラーにならない。
type CleanupJob struct {
	sessions      SessionPruner
	activityLogs  ActivityLogPruner
	logger        *slog.Logger
	RetentionDays int // 操作ログの保持日数（デフォルト: 90）
}

// NewCleanupJob は新しいCleanupJobを生成する。
// デフォルトのログ保持日数は90日。
func NewCleanupJob(sessions SessionPruner, activityLogs ActivityLogPruner, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		sessions:      sessions,
		activityLogs:  activityLogs,
		logger:        logger,
		RetentionDays: 90,
	}
}

// Run は期限切れセッションと保持期間を超過した操作ログを削除する。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	expiredSessions, err := j.sessions.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("failed to delete expired sessions",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	cutoff := time.Now().AddDate(0, 0, -j.RetentionDays)
	prunedLogs, err := j.activityLogs.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		j.logger.Error("failed to prune activity logs",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.RetentionDays),
		)
		return fmt.Errorf("failed to prune activity logs: %w", err)
	}

	duration := time.Since(start)
	j.logger.Info("cleanup job completed",
		slog.Int64("expired_sessions", expiredSessions),
		slog.Int64("pruned_logs", prunedLogs),
		slog.Int("retention_days", j.RetentionDays),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// Start は指定間隔のティッカーでクリーンアップジョブを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (j *CleanupJob) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("cleanup scheduler started",
		slog.Duration("interval", interval),
	)

	// 起動直後に1回実行
	if err := j.Run(ctx); err != nil {
		j.logger.Error("cleanup run failed", slog.String("error", err.Error()))
	}

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("cleanup scheduler stopped")
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("cleanup run failed", slog.String("error", err.Error()))
			}
		}
	}
}
