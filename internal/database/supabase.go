package database

import (
	"context"
	"fmt"
	"strings"

	postgrest "github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"

	"Travel-App/internal/config"
	"Travel-App/internal/domain/model"
)

// HealthCheckTable ヘルスチェックで参照するテーブル
const HealthCheckTable = "import_ledger"

// SupabaseClient Supabaseクライアントのラッパー
type SupabaseClient struct {
	Client *supabase.Client
	url    string
}

// NewSupabaseClient 設定からSupabaseクライアントを作成
func NewSupabaseClient(settings config.SupabaseSettings) (*SupabaseClient, error) {
	if settings.URL == "" {
		return nil, &model.ConfigurationError{Key: "SUPABASE_URL", Reason: "環境変数が設定されていません"}
	}
	if settings.AnonKey == "" {
		return nil, &model.ConfigurationError{Key: "SUPABASE_ANON_KEY", Reason: "環境変数が設定されていません"}
	}

	baseURL := strings.TrimRight(settings.URL, "/")
	client, err := supabase.NewClient(baseURL, settings.AnonKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("Supabaseクライアントの初期化に失敗: %w", err)
	}

	return &SupabaseClient{
		Client: client,
		url:    baseURL,
	}, nil
}

// GetClient Supabaseクライアントを取得
func (sc *SupabaseClient) GetClient() *supabase.Client {
	return sc.Client
}

// Table PostgRESTのテーブルに対するクエリビルダー
func (sc *SupabaseClient) Table(name string) *postgrest.QueryBuilder {
	return sc.Client.From(name)
}

// URL 接続先のURL
func (sc *SupabaseClient) URL() string {
	return sc.url
}

// HealthCheck 台帳テーブルを1件だけ読んでPostgRESTへの疎通を確認する
func (sc *SupabaseClient) HealthCheck(ctx context.Context) error {
	if sc.Client == nil {
		return fmt.Errorf("Supabaseクライアントが初期化されていません")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, _, err := sc.Table(HealthCheckTable).Select("id", "", false).Limit(1, "").Execute(); err != nil {
		return fmt.Errorf("Supabaseへの接続確認に失敗: %w", err)
	}
	return nil
}
