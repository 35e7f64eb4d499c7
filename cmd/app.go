package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"Travel-App/internal/database"
	domainrepo "Travel-App/internal/domain/repository"
	"Travel-App/internal/domain/service"
	"Travel-App/internal/handler"
	dbinfra "Travel-App/internal/infrastructure/database"
	fsinfra "Travel-App/internal/infrastructure/firestore"
	"Travel-App/internal/infrastructure/langdetect"
	"Travel-App/internal/infrastructure/translator"
	"Travel-App/internal/repository"
	"Travel-App/internal/usecase"
)

// stores コマンド実行中に使う接続とリポジトリ
type stores struct {
	db        *dbinfra.Client
	supabase  *database.SupabaseClient
	firestore *fsinfra.FirestoreClient

	entities     domainrepo.EntityRepository
	translations domainrepo.TranslationRepository
	resources    domainrepo.MigrationResourceRepository
	ledger       domainrepo.ImportLedgerRepository
	publisher    domainrepo.CellSnapshotPublisher
}

// openStores データベースに接続し、設定に応じた台帳と公開先を組み立てる
func openStores(ctx context.Context, app *appContext, withPublisher bool) (*stores, error) {
	settings := app.settings
	if err := settings.RequireDatabase(); err != nil {
		return nil, err
	}

	// 1. リレーショナルストア
	db, err := dbinfra.Open(ctx, settings.Database, app.log)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &stores{
		db:           db,
		entities:     repository.NewGormEntityRepository(db.DB),
		translations: repository.NewGormTranslationRepository(db.DB),
		resources:    repository.NewGormMigrationResourceRepository(db.DB),
		ledger:       repository.NewGormImportLedgerRepository(db.DB),
		publisher:    repository.NewNoopCellSnapshotPublisher(),
	}

	// 2. 台帳（Supabaseを選択した場合はPostgREST経由）
	if settings.Database.LedgerBackend == "supabase" {
		supabaseClient, err := database.NewSupabaseClient(settings.Supabase)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.supabase = supabaseClient
		s.ledger = repository.NewSupabaseImportLedgerRepository(supabaseClient)
		app.log.Info("📒 インポート台帳にSupabaseを使用します")
	}

	// 3. セルスナップショットの公開先
	if withPublisher && settings.Firestore.ProjectID != "" {
		fsClient, err := fsinfra.NewFirestoreClient(ctx, settings.Firestore.ProjectID, app.log)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.firestore = fsClient
		s.publisher = repository.NewFirestoreGridCellPublisher(fsClient.GetClient(), app.log)
	}

	return s, nil
}

// Close 開いた接続をすべて閉じる
func (s *stores) Close() {
	if s.firestore != nil {
		_ = s.firestore.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
}

// healthChecks serveコマンドのヘルスチェック対象
func (s *stores) healthChecks() map[string]handler.HealthChecker {
	checks := map[string]handler.HealthChecker{
		"database": s.db.HealthCheck,
	}
	if s.supabase != nil {
		checks["supabase"] = s.supabase.HealthCheck
	}
	return checks
}

// newTranslator 翻訳APIキーがあればGoogleTranslatorを返す（なければnil）
func newTranslator(app *appContext) (service.Translator, error) {
	if app.settings.Translator.APIKey == "" {
		return nil, nil
	}
	t, err := translator.NewGoogleTranslator(app.settings.Translator.APIKey, app.settings.Translator.RatePerSecond, app.log)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// closeTranslator 翻訳クライアントが接続を持っていれば閉じる
func closeTranslator(app *appContext, t service.Translator) {
	c, ok := t.(io.Closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		app.log.Warn("⚠️ 翻訳クライアントのクローズに失敗しました", "error", err)
	}
}

// migrationDeps 移行サービスの依存関係を組み立てる
func migrationDeps(app *appContext, s *stores, t service.Translator) usecase.Deps {
	return usecase.Deps{
		Settings:     app.settings,
		Log:          app.log,
		Entities:     s.entities,
		Ledger:       s.ledger,
		Translations: s.translations,
		Resources:    s.resources,
		Publisher:    s.publisher,
		Translator:   t,
		Detector:     langdetect.NewDetector(langdetect.DefaultMinConfidence),
	}
}

// exitError 中断時のエラーを分かりやすくする
func exitError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return fmt.Errorf("処理が中断されました: %w", err)
	}
	return err
}
