package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"Travel-App/internal/domain/model"
)

// Settings アプリケーション全体の設定
type Settings struct {
	Database   DatabaseSettings
	Supabase   SupabaseSettings
	Firestore  FirestoreSettings
	GeoAPI     GeoAPISettings
	Grid       GridSettings
	Translator TranslatorSettings
	ImageCheck ImageCheckSettings
	Server     ServerSettings
	Log        LogSettings
}

type DatabaseSettings struct {
	Driver        string // postgres | sqlite
	URL           string
	LedgerBackend string // database | supabase
}

type SupabaseSettings struct {
	URL     string
	AnonKey string
}

type FirestoreSettings struct {
	ProjectID string
}

type GeoAPISettings struct {
	BaseURL       string
	APIKey        string
	RatePerSecond float64
	MinRate       int
	Kinds         string
	Timeout       time.Duration
	Concurrency   int
}

type GridSettings struct {
	StepLat   float64
	StepLon   float64
	Precision int
}

type TranslatorSettings struct {
	APIKey        string
	RatePerSecond float64
	Concurrency   int
	Languages     []string
}

type ImageCheckSettings struct {
	Attempts int
	Timeout  time.Duration
	CacheTTL time.Duration
}

type ServerSettings struct {
	Port int
}

type LogSettings struct {
	Mode  string
	Level string
}

// SetDefaults デフォルト値を登録
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database_driver", "postgres")
	v.SetDefault("ledger_backend", "database")
	v.SetDefault("opentripmap_base_url", "https://api.opentripmap.com/0.1/en")
	v.SetDefault("opentripmap_rate_limit", 10.0)
	v.SetDefault("opentripmap_min_rate", 3)
	v.SetDefault("opentripmap_kinds", "interesting_places,amusements,adult,foods,transport,accomodations")
	v.SetDefault("http_timeout", "30s")
	v.SetDefault("fetch_concurrency", 5)
	v.SetDefault("grid_step_lat", 0.05)
	v.SetDefault("grid_step_lon", 0.1)
	v.SetDefault("grid_precision", model.DefaultGridPrecision)
	v.SetDefault("translator_rate_limit", 5.0)
	v.SetDefault("translation_concurrency", 5)
	v.SetDefault("languages", strings.Join(model.DefaultLanguages, ","))
	v.SetDefault("image_check_attempts", 3)
	v.SetDefault("image_check_timeout", "10s")
	v.SetDefault("image_check_cache_ttl", "1h")
	v.SetDefault("server_port", 8080)
	v.SetDefault("log_mode", "development")
	v.SetDefault("log_level", "info")
}

// Load .env・環境変数・config.yamlから設定を読み込む
func Load(v *viper.Viper) (*Settings, error) {
	if err := godotenv.Load(); err != nil {
		// .envがなくても環境変数で動作する
		fmt.Println("Warning: .env file not found, using system environment variables")
	}

	SetDefaults(v)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("設定ファイルの読み込みに失敗: %w", err)
		}
	}

	return FromViper(v), nil
}

// FromViper viperの値からSettingsを組み立てる
func FromViper(v *viper.Viper) *Settings {
	return &Settings{
		Database: DatabaseSettings{
			Driver:        strings.ToLower(v.GetString("database_driver")),
			URL:           v.GetString("database_url"),
			LedgerBackend: strings.ToLower(v.GetString("ledger_backend")),
		},
		Supabase: SupabaseSettings{
			URL:     v.GetString("supabase_url"),
			AnonKey: v.GetString("supabase_anon_key"),
		},
		Firestore: FirestoreSettings{
			ProjectID: v.GetString("firestore_project_id"),
		},
		GeoAPI: GeoAPISettings{
			BaseURL:       strings.TrimRight(v.GetString("opentripmap_base_url"), "/"),
			APIKey:        v.GetString("opentripmap_api_key"),
			RatePerSecond: v.GetFloat64("opentripmap_rate_limit"),
			MinRate:       v.GetInt("opentripmap_min_rate"),
			Kinds:         v.GetString("opentripmap_kinds"),
			Timeout:       v.GetDuration("http_timeout"),
			Concurrency:   v.GetInt("fetch_concurrency"),
		},
		Grid: GridSettings{
			StepLat:   v.GetFloat64("grid_step_lat"),
			StepLon:   v.GetFloat64("grid_step_lon"),
			Precision: v.GetInt("grid_precision"),
		},
		Translator: TranslatorSettings{
			APIKey:        v.GetString("translator_api_key"),
			RatePerSecond: v.GetFloat64("translator_rate_limit"),
			Concurrency:   v.GetInt("translation_concurrency"),
			Languages:     ParseLanguages(v.GetString("languages")),
		},
		ImageCheck: ImageCheckSettings{
			Attempts: v.GetInt("image_check_attempts"),
			Timeout:  v.GetDuration("image_check_timeout"),
			CacheTTL: v.GetDuration("image_check_cache_ttl"),
		},
		Server: ServerSettings{
			Port: v.GetInt("server_port"),
		},
		Log: LogSettings{
			Mode:  v.GetString("log_mode"),
			Level: v.GetString("log_level"),
		},
	}
}

// ParseLanguages "en, pl" 形式を重複なしの言語コード一覧に変換
func ParseLanguages(raw string) []string {
	seen := make(map[string]bool)
	var languages []string
	for _, part := range strings.Split(raw, ",") {
		code := strings.ToLower(strings.TrimSpace(part))
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		languages = append(languages, code)
	}
	return languages
}

// RequireDatabase データベース接続設定の確認
func (s *Settings) RequireDatabase() error {
	switch s.Database.Driver {
	case "postgres", "sqlite":
	default:
		return &model.ConfigurationError{Key: "DATABASE_DRIVER", Reason: fmt.Sprintf("未対応のドライバです: %q", s.Database.Driver)}
	}
	if s.Database.URL == "" {
		return &model.ConfigurationError{Key: "DATABASE_URL", Reason: "環境変数が設定されていません"}
	}
	switch s.Database.LedgerBackend {
	case "database":
	case "supabase":
		if s.Supabase.URL == "" || s.Supabase.AnonKey == "" {
			return &model.ConfigurationError{Key: "SUPABASE_URL", Reason: "LEDGER_BACKEND=supabase にはSUPABASE_URLとSUPABASE_ANON_KEYが必要です"}
		}
	default:
		return &model.ConfigurationError{Key: "LEDGER_BACKEND", Reason: fmt.Sprintf("未対応の台帳バックエンドです: %q", s.Database.LedgerBackend)}
	}
	return nil
}

// RequireGeoAPI ジオAPIの認証情報の確認
func (s *Settings) RequireGeoAPI() error {
	if s.GeoAPI.BaseURL == "" {
		return &model.ConfigurationError{Key: "OPENTRIPMAP_BASE_URL", Reason: "環境変数が設定されていません"}
	}
	if s.GeoAPI.APIKey == "" {
		return &model.ConfigurationError{Key: "OPENTRIPMAP_API_KEY", Reason: "環境変数が設定されていません"}
	}
	if s.GeoAPI.RatePerSecond <= 0 {
		return &model.ConfigurationError{Key: "OPENTRIPMAP_RATE_LIMIT", Reason: "正の値を指定してください"}
	}
	return nil
}

// RequireTranslator 翻訳APIの設定確認
func (s *Settings) RequireTranslator() error {
	if s.Translator.APIKey == "" {
		return &model.ConfigurationError{Key: "TRANSLATOR_API_KEY", Reason: "環境変数が設定されていません"}
	}
	if len(s.Translator.Languages) == 0 {
		return &model.ConfigurationError{Key: "LANGUAGES", Reason: "翻訳対象の言語がありません"}
	}
	return nil
}
