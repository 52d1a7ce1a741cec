// Package cleanup は期限切れメール確認トークンの自動削除ジョブを提供する。
// TTLを超過したトークンと、そのトークンに紐づく未確認ユーザーを
// 定期バッチで削除する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// TokenPurger は期限切れトークンの削除に必要なインターフェース。
// repository.TokenRepositoryの部分集合として定義する。
type TokenPurger interface {
	DeleteExpiredWithUsers(ctx context.Context, ttlSeconds int64) (int, error)
}

// CleanupJob は期限切れメール確認トークンの自動削除ジョブ。
// 定期実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	tokens   TokenPurger
	logger   *slog.Logger
	TokenTTL time.Duration // トークンの有効期間（デフォルト: 1時間）
	Interval time.Duration // 実行間隔（デフォルト: 1時間）
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(tokens TokenPurger, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		tokens:   tokens,
		logger:   logger,
		TokenTTL: time.Hour,
		Interval: time.Hour,
	}
}

// Run は期限切れトークンと未確認ユーザーを削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	deleted, err := j.tokens.DeleteExpiredWithUsers(ctx, int64(j.TokenTTL.Seconds()))
	if err != nil {
		j.logger.Error("token cleanup failed",
			slog.String("error", err.Error()),
			slog.Duration("token_ttl", j.TokenTTL),
		)
		return fmt.Errorf("期限切れトークンの削除に失敗しました: %w", err)
	}

	j.logger.Info("token cleanup completed",
		slog.Int("deleted_users", deleted),
		slog.Duration("token_ttl", j.TokenTTL),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return nil
}

// Start は即座に1回実行した後、Intervalごとにジョブを実行し続ける。
// 個々の実行の失敗はログに残すのみで、次回の実行は継続する。
// ctxのキャンセルで停止する。
func (j *CleanupJob) Start(ctx context.Context) {
	if err := j.Run(ctx); err != nil && ctx.Err() == nil {
		j.logger.Warn("token cleanup run failed, will retry next interval")
	}

	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("token cleanup worker stopped")
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil && ctx.Err() == nil {
				j.logger.Warn("token cleanup run failed, will retry next interval")
			}
		}
	}
}
