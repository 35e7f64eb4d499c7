package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"Travel-App/internal/config"
	"Travel-App/internal/domain/model"
	"Travel-App/internal/logger"
)

// Client リレーショナルストアへの接続（gorm）
type Client struct {
	DB     *gorm.DB
	driver string
	log    *logger.Logger
}

// Open 設定に応じてPostgreSQLまたはSQLiteに接続する
func Open(ctx context.Context, settings config.DatabaseSettings, log *logger.Logger) (*Client, error) {
	switch settings.Driver {
	case "postgres":
		return NewPostgreSQLClient(ctx, settings.URL, log)
	case "sqlite":
		return NewSQLiteClient(settings.URL, log)
	default:
		return nil, &model.ConfigurationError{Key: "DATABASE_DRIVER", Reason: fmt.Sprintf("未対応のドライバです: %q", settings.Driver)}
	}
}

// NewPostgreSQLClient lib/pqで接続したsql.DBをgormでラップする
func NewPostgreSQLClient(ctx context.Context, dsn string, log *logger.Logger) (*Client, error) {
	if dsn == "" {
		return nil, &model.ConfigurationError{Key: "DATABASE_URL", Reason: "環境変数が設定されていません"}
	}

	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("PostgreSQL接続の初期化に失敗: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	// 接続テスト
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("PostgreSQLへの接続に失敗: %w", err)
	}

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), newGormConfig())
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("gormの初期化に失敗: %w", err)
	}

	log.Info("✅ PostgreSQLに接続しました")
	return &Client{DB: db, driver: "postgres", log: log}, nil
}

func newGormConfig() *gorm.Config {
	return &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger: gormLogger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			gormLogger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  gormLogger.Warn,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
	}
}

// AutoMigrate パイプラインが使うテーブルを作成・更新する
func (c *Client) AutoMigrate(ctx context.Context) error {
	err := c.DB.WithContext(ctx).AutoMigrate(
		&model.Address{},
		&model.ExternalLinks{},
		&model.Entity{},
		&model.Translation{},
		&model.ImportLedgerEntry{},
		&model.MigrationResource{},
	)
	if err != nil {
		return fmt.Errorf("マイグレーションに失敗: %w", err)
	}
	return nil
}

// Driver 接続中のドライバ名
func (c *Client) Driver() string {
	return c.driver
}

// Close データベース接続を閉じる
func (c *Client) Close() error {
	if c.DB == nil {
		return nil
	}
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// HealthCheck データベース接続のヘルスチェック
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.DB == nil {
		return fmt.Errorf("データベースクライアントが初期化されていません")
	}
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
