package usecase

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"Travel-App/internal/config"
	"Travel-App/internal/domain/model"
	"Travel-App/internal/domain/repository"
	"Travel-App/internal/domain/service"
	"Travel-App/internal/logger"
)

// ActionFunc 移行後アクション（結果はログ・表示用）
type ActionFunc func(ctx context.Context) (interface{}, error)

// MigrationService 移行元サービスごとのデータ移行
type MigrationService interface {
	// Name サービス名（destination_resourceと同じ）
	Name() string
	// RequiredArguments Migrateに必須の引数名
	RequiredArguments() []string
	// Migrate 指定範囲のデータを取り込む
	Migrate(ctx context.Context, args map[string]string) (model.MigrationSummary, error)
	// Actions 移行後アクション（audit_images, purge_duplicates）
	Actions() map[string]ActionFunc
}

// ImageVerifier 画像の到達性チェック（正規化と監査の両方で使う）
type ImageVerifier interface {
	service.ImageChecker
	service.ReachabilityChecker
}

// Deps 移行サービスの依存関係
// PlaceSourceとImagesがnilの場合は設定から生成する
type Deps struct {
	Settings     *config.Settings
	Log          *logger.Logger
	Entities     repository.EntityRepository
	Ledger       repository.ImportLedgerRepository
	Translations repository.TranslationRepository
	Resources    repository.MigrationResourceRepository
	Publisher    repository.CellSnapshotPublisher
	Translator   service.Translator
	Detector     service.LanguageDetector
	PlaceSource  service.PlaceSource
	Images       ImageVerifier
}

// ServiceConstructor 移行サービスのコンストラクタ
type ServiceConstructor func(ctx context.Context, deps Deps) (MigrationService, error)

// registry 利用可能な移行サービス
var registry = map[string]ServiceConstructor{
	model.ResourceOpenStreetMap: NewOpenStreetMapMigrationService,
}

// ServiceNames 登録済みのサービス名（ソート済み）
func ServiceNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RequireService はサービス名が登録済みかを確認する（接続前の検証用）
func RequireService(name string) error {
	if _, ok := registry[name]; !ok {
		return &model.ConfigurationError{
			Key:    "service",
			Reason: fmt.Sprintf("%v: %q（利用可能: %s）", model.ErrUnknownService, name, strings.Join(ServiceNames(), ", ")),
		}
	}
	return nil
}

// ResolveService はサービス名から移行サービスを生成する
func ResolveService(ctx context.Context, name string, deps Deps) (MigrationService, error) {
	if err := RequireService(name); err != nil {
		return nil, err
	}
	return registry[name](ctx, deps)
}

// ValidateArguments は必須引数が揃っているかを確認する
func ValidateArguments(svc MigrationService, args map[string]string) error {
	var missing []string
	for _, key := range svc.RequiredArguments() {
		if strings.TrimSpace(args[key]) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return &model.ConfigurationError{
			Key:    strings.Join(missing, ","),
			Reason: fmt.Sprintf("%s に必要な引数が不足しています", svc.Name()),
		}
	}
	return nil
}

// RunAction は移行後アクションを名前で実行する
func RunAction(ctx context.Context, svc MigrationService, action string) (interface{}, error) {
	actions := svc.Actions()
	fn, ok := actions[action]
	if !ok {
		names := make([]string, 0, len(actions))
		for name := range actions {
			names = append(names, name)
		}
		sort.Strings(names)
		return nil, &model.ConfigurationError{
			Key:    "action",
			Reason: fmt.Sprintf("%s に未知のアクションです: %q（利用可能: %s）", svc.Name(), action, strings.Join(names, ", ")),
		}
	}
	return fn(ctx)
}

func parseFloatArg(args map[string]string, key string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(args[key]), 64)
	if err != nil {
		return 0, &model.ConfigurationError{Key: key, Reason: fmt.Sprintf("数値として解釈できません: %q", args[key])}
	}
	return v, nil
}

// optionalFloatArg 引数がなければdefaultValueを返す
func optionalFloatArg(args map[string]string, key string, defaultValue float64) (float64, error) {
	if strings.TrimSpace(args[key]) == "" {
		return defaultValue, nil
	}
	return parseFloatArg(args, key)
}
