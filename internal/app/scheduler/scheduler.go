// Package scheduler は登録銘柄の定期更新ジョブを管理します。
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/robfig/cron/v3"
)

// Refresher は定期更新の実行インターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（scheduler）側で定義します。
type Refresher interface {
	RunScheduled(ctx context.Context)
}

// Config はスケジューラーの設定を保持します。
type Config struct {
	// RefreshCron は全体更新のcron式です（秒フィールドなしの5フィールド形式）。
	// 空文字の場合、定期更新は無効になります。
	RefreshCron string
}

// LoadConfig は環境変数からスケジューラー設定を読み込みます。
func LoadConfig() Config {
	return Config{
		RefreshCron: os.Getenv("REFRESH_CRON"),
	}
}

// Scheduler は全体更新をcron式に従って起動します。
type Scheduler struct {
	cron      *cron.Cron
	refresher Refresher
}

// NewScheduler は指定されたRefresherでSchedulerの新しいインスタンスを生成します。
func NewScheduler(refresher Refresher) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		refresher: refresher,
	}
}

// Register は全体更新ジョブをcron式で登録します。
func (s *Scheduler) Register(spec string) error {
	if _, err := s.cron.AddFunc(spec, func() {
		slog.Info("scheduled refresh starting", "spec", spec)
		s.refresher.RunScheduled(context.Background())
	}); err != nil {
		return fmt.Errorf("register refresh job: %w", err)
	}
	return nil
}

// Start はスケジューラーを開始します。
func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("scheduler started")
}

// Stop は実行中のジョブの完了を待たずにスケジューラーを停止します。
func (s *Scheduler) Stop() {
	s.cron.Stop()
	slog.Info("scheduler stopped")
}
