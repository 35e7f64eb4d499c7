package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"Travel-App/internal/domain/model"
	"Travel-App/internal/domain/repository"
	"Travel-App/internal/logger"
	"Travel-App/internal/metrics"
)

// DefaultTranslationConcurrency 同時に翻訳するエンティティ数
const DefaultTranslationConcurrency = 5

// Translator 機械翻訳
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

// TranslationOutcome 1言語分の翻訳結果
type TranslationOutcome string

const (
	OutcomeTranslated        TranslationOutcome = "translated"
	OutcomeSkipped           TranslationOutcome = "skipped" // 原語と同じ言語
	OutcomeAlreadyTranslated TranslationOutcome = "exists"
	OutcomeFailed            TranslationOutcome = "failed"
)

// LanguageResult 言語ごとの結果
type LanguageResult struct {
	Language string
	Outcome  TranslationOutcome
	Err      error
}

// EntityTranslationResult 1エンティティ分の結果（言語順）
type EntityTranslationResult struct {
	EntityID string
	Results  []LanguageResult
}

// Count は指定した結果の言語数を返す
func (r EntityTranslationResult) Count(outcome TranslationOutcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}

// TranslationOptions 翻訳の動作オプション
type TranslationOptions struct {
	// Overwrite trueなら既存の翻訳を置き換える
	Overwrite bool
}

// TranslationSummary Dispatchした翻訳の集計
type TranslationSummary struct {
	Entities          int `json:"entities"`
	Translated        int `json:"translated"`
	Skipped           int `json:"skipped"`
	AlreadyTranslated int `json:"already_translated"`
	Failed            int `json:"failed"`
}

func (s *TranslationSummary) add(result EntityTranslationResult) {
	s.Entities++
	s.Translated += result.Count(OutcomeTranslated)
	s.Skipped += result.Count(OutcomeSkipped)
	s.AlreadyTranslated += result.Count(OutcomeAlreadyTranslated)
	s.Failed += result.Count(OutcomeFailed)
}

// TranslationFanout はエンティティを設定された全言語へ翻訳する
// 言語ごとの失敗は他の言語に影響しない
type TranslationFanout struct {
	translator   Translator
	translations repository.TranslationRepository
	languages    []string
	options      TranslationOptions
	sem          *semaphore.Weighted
	log          *logger.Logger

	wg      sync.WaitGroup
	mu      sync.Mutex
	summary TranslationSummary
}

// NewTranslationFanout は新しいTranslationFanoutを生成する
func NewTranslationFanout(translator Translator, translations repository.TranslationRepository, languages []string, concurrency int, log *logger.Logger) (*TranslationFanout, error) {
	if translator == nil {
		return nil, model.ErrTranslatorMissing
	}
	if len(languages) == 0 {
		return nil, &model.ConfigurationError{Key: "LANGUAGES", Reason: "翻訳対象の言語が指定されていません"}
	}
	if concurrency <= 0 {
		concurrency = DefaultTranslationConcurrency
	}
	return &TranslationFanout{
		translator:   translator,
		translations: translations,
		languages:    languages,
		sem:          semaphore.NewWeighted(int64(concurrency)),
		log:          log,
	}, nil
}

// WithOptions はDispatchで使うオプションを設定する
func (f *TranslationFanout) WithOptions(opts TranslationOptions) *TranslationFanout {
	f.options = opts
	return f
}

// Languages は翻訳対象の言語を返す
func (f *TranslationFanout) Languages() []string {
	return f.languages
}

// Dispatch はエンティティの翻訳をバックグラウンドで開始し、すぐに戻る
// 完了を待つにはWaitを呼ぶ
func (f *TranslationFanout) Dispatch(ctx context.Context, entity model.Entity) {
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()

		if err := f.sem.Acquire(ctx, 1); err != nil {
			f.log.Warn("⚠️ 翻訳を開始できませんでした", "entity_id", entity.ID, "error", err)
			return
		}
		defer f.sem.Release(1)

		result := f.TranslateEntity(ctx, &entity, f.languages, f.options)

		f.mu.Lock()
		f.summary.add(result)
		f.mu.Unlock()
	}()
}

// Wait はDispatchした全ての翻訳が終わるまで待ち、集計を返す
func (f *TranslationFanout) Wait() TranslationSummary {
	f.wg.Wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.summary
}

// TranslateEntity は1エンティティを指定言語へ並行に翻訳する
func (f *TranslationFanout) TranslateEntity(ctx context.Context, entity *model.Entity, languages []string, opts TranslationOptions) EntityTranslationResult {
	result := EntityTranslationResult{
		EntityID: entity.ID,
		Results:  make([]LanguageResult, len(languages)),
	}

	var wg sync.WaitGroup
	for i, lang := range languages {
		i, lang := i, lang
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := f.translateLanguage(ctx, entity, lang, opts)
			metrics.TranslationsTotal.WithLabelValues(lang, string(res.Outcome)).Inc()
			result.Results[i] = res
		}()
	}
	wg.Wait()

	return result
}

func (f *TranslationFanout) translateLanguage(ctx context.Context, entity *model.Entity, lang string, opts TranslationOptions) LanguageResult {
	res := LanguageResult{Language: lang}

	// 1. 原語と同じ言語は翻訳しない
	if entity.OriginalLanguage != "" && strings.EqualFold(entity.OriginalLanguage, lang) {
		res.Outcome = OutcomeSkipped
		return res
	}

	// 2. 既存の翻訳があればスキップ（上書き指定時を除く）
	if !opts.Overwrite {
		exists, err := f.translations.Exists(ctx, entity.ID, lang)
		if err != nil {
			return f.failed(res, entity, err)
		}
		if exists {
			res.Outcome = OutcomeAlreadyTranslated
			return res
		}
	}

	// 3. 名前と説明文を個別に翻訳
	name, err := f.translator.Translate(ctx, entity.Name, lang)
	if err != nil {
		return f.failed(res, entity, fmt.Errorf("名前の翻訳に失敗: %w", err))
	}
	var description string
	if strings.TrimSpace(entity.Description) != "" {
		description, err = f.translator.Translate(ctx, entity.Description, lang)
		if err != nil {
			return f.failed(res, entity, fmt.Errorf("説明文の翻訳に失敗: %w", err))
		}
	}

	// 4. 保存
	translation := &model.Translation{
		EntityID:    entity.ID,
		Language:    lang,
		Name:        name,
		Description: description,
	}
	if opts.Overwrite {
		err = f.translations.Upsert(ctx, translation)
	} else {
		err = f.translations.Create(ctx, translation)
	}
	if err != nil {
		return f.failed(res, entity, err)
	}

	res.Outcome = OutcomeTranslated
	return res
}

func (f *TranslationFanout) failed(res LanguageResult, entity *model.Entity, err error) LanguageResult {
	f.log.Warn("❌ 翻訳に失敗しました", "entity_id", entity.ID, "language", res.Language, "error", err)
	res.Outcome = OutcomeFailed
	res.Err = err
	return res
}
