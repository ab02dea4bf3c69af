// Package db はSQLiteデータベース接続の初期化を提供します。
package db

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"bb_monitor/internal/feature/quotes/adapters"
	tablesadapters "bb_monitor/internal/feature/tables/adapters"
)

// Config はデータベース接続設定です。
type Config struct {
	Path string // SQLiteファイルパス
}

// LoadConfigFromEnv は環境変数からデータベース設定を読み込みます。
func LoadConfigFromEnv() Config {
	path := os.Getenv("DB_PATH")
	if path == "" {
		path = "stock.db"
	}
	return Config{Path: path}
}

// BuildDSN はWALジャーナルモードと外部キーを有効にしたDSN文字列を生成します。
// 同時読み書きはWAL + 主キーupsertの組み合わせで行単位に直列化されます。
func BuildDSN(cfg Config) string {
	return fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000", cfg.Path)
}

// Opener はDSNからgorm.DBを開く関数型です（テストで差し替え可能）。
type Opener func(dsn string) (*gorm.DB, error)

// DefaultOpener はSQLiteドライバーで接続を開きます。
func DefaultOpener(dsn string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(dsn), &gorm.Config{})
}

// ConnectWithRetry はタイムアウトまで3秒間隔で接続を試行します。
func ConnectWithRetry(dsn string, timeout time.Duration, opener Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := opener(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("DB connect failed after %v: %w", timeout, err)
		}
		slog.Warn("DB connect failed, retrying...", "error", err)
		time.Sleep(3 * time.Second)
	}
}

// OpenDB は設定からデータベースを開き、マイグレーションを実行します。
// 失敗時はプロセスを終了します（起動時のみ呼ばれる前提）。
func OpenDB(cfg Config) *gorm.DB {
	gdb, err := ConnectWithRetry(BuildDSN(cfg), 30*time.Second, DefaultOpener)
	if err != nil {
		slog.Error("failed to open database", "path", cfg.Path, "error", err)
		os.Exit(1)
	}

	if err := gdb.AutoMigrate(
		&adapters.PriceModel{},
		&adapters.MetaModel{},
		&adapters.FundamentalsModel{},
		&tablesadapters.KVModel{},
	); err != nil {
		slog.Error("failed to migrate", "error", err)
		os.Exit(1)
	}

	slog.Info("database ready", "path", cfg.Path)
	return gdb
}
