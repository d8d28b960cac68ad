// Package overdue は支払い期限超過伝票の定期レビュージョブを提供する。
// 期限を過ぎたpending伝票をoverdueへ遷移させ、督促メールを送信する。
package overdue

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// OverdueReviewer は期限超過レビューの実行インターフェース。
// billing.Serviceの部分集合として定義する。
type OverdueReviewer interface {
	ReviewOverdue(ctx context.Context, now time.Time) (int, error)
}

// ReviewJob は期限超過伝票のレビュージョブ。
// 状態遷移はデータベース側の単一UPDATEで行われるため、
// 多重起動しても同じ伝票に二重の督促が送られることはない。
type ReviewJob struct {
	reviewer OverdueReviewer
	logger   *slog.Logger
}

// NewReviewJob は新しいReviewJobを生成する。
func NewReviewJob(reviewer OverdueReviewer, logger *slog.Logger) *ReviewJob {
	return &ReviewJob{
		reviewer: reviewer,
		logger:   logger,
	}
}

// Run は期限超過レビューを1回実行する。
func (j *ReviewJob) Run(ctx context.Context) error {
	start := time.Now()

	flipped, err := j.reviewer.ReviewOverdue(ctx, time.Now())
	if err != nil {
		j.logger.Error("failed to review overdue receipts",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to review overdue receipts: %w", err)
	}

	j.logger.Info("overdue review completed",
		slog.Int("flipped_count", flipped),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return nil
}

// Start は指定間隔のティッカーでレビュージョブを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (j *ReviewJob) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("overdue review scheduler started",
		slog.Duration("interval", interval),
	)

	if err := j.Run(ctx); err != nil {
		j.logger.Error("overdue review run failed", slog.String("error", err.Error()))
	}

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("overdue review scheduler stopped")
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("overdue review run failed", slog.String("error", err.Error()))
			}
		}
	}
}
