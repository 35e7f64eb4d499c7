package usecase

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"Travel-App/internal/domain/model"
	"Travel-App/internal/domain/repository"
	"Travel-App/internal/domain/service"
	"Travel-App/internal/logger"
)

// DefaultTranslateBatchSize 1ページで読み込むエンティティ数
const DefaultTranslateBatchSize = 100

// TranslateUsecase 既存の全エンティティを1言語に翻訳する
type TranslateUsecase interface {
	// Run overwriteがfalseなら翻訳済みのエンティティはスキップする
	Run(ctx context.Context, lang string, overwrite bool) (service.TranslationSummary, error)
}

type translateUsecaseImpl struct {
	entities     repository.EntityRepository
	translations repository.TranslationRepository
	translator   service.Translator
	concurrency  int
	batchSize    int
	log          *logger.Logger
}

// NewTranslateUsecase は新しいTranslateUsecaseを生成する
func NewTranslateUsecase(
	entities repository.EntityRepository,
	translations repository.TranslationRepository,
	translator service.Translator,
	concurrency int,
	log *logger.Logger,
) (TranslateUsecase, error) {
	if translator == nil {
		return nil, model.ErrTranslatorMissing
	}
	return &translateUsecaseImpl{
		entities:     entities,
		translations: translations,
		translator:   translator,
		concurrency:  concurrency,
		batchSize:    DefaultTranslateBatchSize,
		log:          log,
	}, nil
}

// Run はページごとに翻訳を投入し、ページ単位で完了を待つ
func (u *translateUsecaseImpl) Run(ctx context.Context, lang string, overwrite bool) (service.TranslationSummary, error) {
	code, err := normalizeLanguage(lang)
	if err != nil {
		return service.TranslationSummary{}, err
	}

	fanout, err := service.NewTranslationFanout(u.translator, u.translations, []string{code}, u.concurrency, u.log)
	if err != nil {
		return service.TranslationSummary{}, err
	}
	fanout.WithOptions(service.TranslationOptions{Overwrite: overwrite})

	u.log.Info("🚀 翻訳を開始します", "language", code, "overwrite", overwrite)

	afterID := ""
	for {
		if err := ctx.Err(); err != nil {
			return fanout.Wait(), err
		}
		batch, err := u.entities.ListAll(ctx, afterID, u.batchSize)
		if err != nil {
			return fanout.Wait(), fmt.Errorf("エンティティの取得に失敗: %w", err)
		}
		if len(batch) == 0 {
			break
		}
		afterID = batch[len(batch)-1].ID

		for _, entity := range batch {
			fanout.Dispatch(ctx, entity)
		}
		summary := fanout.Wait()
		u.log.Info("📝 翻訳の進捗", "language", code, "entities", summary.Entities, "translated", summary.Translated)

		if len(batch) < u.batchSize {
			break
		}
	}

	summary := fanout.Wait()
	u.log.Info("✅ 翻訳が完了しました",
		"language", code,
		"entities", summary.Entities,
		"translated", summary.Translated,
		"skipped", summary.Skipped,
		"already_translated", summary.AlreadyTranslated,
		"failed", summary.Failed,
	)
	return summary, nil
}

// normalizeLanguage はBCP 47タグとして妥当か確認し、小文字のコードを返す
func normalizeLanguage(lang string) (string, error) {
	lang = strings.TrimSpace(lang)
	if _, err := language.Parse(lang); err != nil {
		return "", &model.ConfigurationError{Key: "language", Reason: fmt.Sprintf("不正な言語コードです: %q", lang)}
	}
	return strings.ToLower(lang), nil
}
