package database

import (
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"Travel-App/internal/logger"
)

// NewSQLiteClient ローカル実行・テスト用のSQLite接続
// インメモリDBは接続ごとに別DBになるため接続数を1に固定する
func NewSQLiteClient(dsn string, log *logger.Logger) (*Client, error) {
	if dsn == "" {
		dsn = ":memory:"
	}

	cfg := newGormConfig()
	cfg.Logger = gormLogger.Default.LogMode(gormLogger.Silent)

	db, err := gorm.Open(sqlite.Open(dsn), cfg)
	if err != nil {
		return nil, fmt.Errorf("SQLiteの初期化に失敗: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("SQLiteの初期化に失敗: %w", err)
	}
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		sqlDB.SetMaxOpenConns(1)
	}

	log.Debug("SQLiteに接続しました", "dsn", dsn)
	return &Client{DB: db, driver: "sqlite", log: log}, nil
}
