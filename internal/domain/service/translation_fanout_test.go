package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"Travel-App/internal/domain/model"
	"Travel-App/internal/logger"
)

// fakeTranslator は"[lang] text"を返す。failLangsの言語は失敗させる
type fakeTranslator struct {
	failLangs map[string]bool
	calls     atomic.Int64
}

func (tr *fakeTranslator) Translate(ctx context.Context, text, targetLang string) (string, error) {
	tr.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if tr.failLangs[targetLang] {
		return "", &model.UpstreamError{Service: "google-translate", StatusCode: 503}
	}
	return "[" + targetLang + "] " + text, nil
}

// memoryTranslationRepo はメモリ上のTranslationRepository
type memoryTranslationRepo struct {
	mu   sync.Mutex
	rows map[string]model.Translation
}

func newMemoryTranslationRepo() *memoryTranslationRepo {
	return &memoryTranslationRepo{rows: map[string]model.Translation{}}
}

func (r *memoryTranslationRepo) key(entityID, language string) string {
	return entityID + "/" + language
}

func (r *memoryTranslationRepo) Exists(ctx context.Context, entityID, language string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.rows[r.key(entityID, language)]
	return ok, nil
}

func (r *memoryTranslationRepo) Create(ctx context.Context, t *model.Translation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := r.key(t.EntityID, t.Language)
	if _, ok := r.rows[k]; ok {
		return &model.PersistenceError{Op: "create_translation", Cause: errors.New("duplicate")}
	}
	r.rows[k] = *t
	return nil
}

func (r *memoryTranslationRepo) Upsert(ctx context.Context, t *model.Translation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[r.key(t.EntityID, t.Language)] = *t
	return nil
}

func (r *memoryTranslationRepo) ListByEntity(ctx context.Context, entityID string) ([]model.Translation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Translation
	for _, t := range r.rows {
		if t.EntityID == entityID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *memoryTranslationRepo) get(entityID, language string) (model.Translation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.rows[r.key(entityID, language)]
	return t, ok
}

func TestTranslationFanout_SkipsOriginalLanguage(t *testing.T) {
	defer goleak.VerifyNone(t)

	translator := &fakeTranslator{}
	repo := newMemoryTranslationRepo()
	fanout, err := NewTranslationFanout(translator, repo, []string{"en", "pl"}, 2, logger.NewNop())
	require.NoError(t, err)

	entity := &model.Entity{ID: "e1", Name: "Zamek", Description: "Stary zamek", OriginalLanguage: "pl"}
	result := fanout.TranslateEntity(context.Background(), entity, fanout.Languages(), TranslationOptions{})

	require.Len(t, result.Results, 2)
	assert.Equal(t, LanguageResult{Language: "en", Outcome: OutcomeTranslated}, result.Results[0])
	assert.Equal(t, LanguageResult{Language: "pl", Outcome: OutcomeSkipped}, result.Results[1])

	en, ok := repo.get("e1", "en")
	require.True(t, ok)
	assert.Equal(t, "[en] Zamek", en.Name)
	assert.Equal(t, "[en] Stary zamek", en.Description)
	_, ok = repo.get("e1", "pl")
	assert.False(t, ok)
	assert.Equal(t, int64(2), translator.calls.Load())
}

func TestTranslationFanout_EmptyDescriptionNotSent(t *testing.T) {
	translator := &fakeTranslator{}
	repo := newMemoryTranslationRepo()
	fanout, err := NewTranslationFanout(translator, repo, []string{"de"}, 1, logger.NewNop())
	require.NoError(t, err)

	result := fanout.TranslateEntity(context.Background(), &model.Entity{ID: "e1", Name: "Tower"}, []string{"de"}, TranslationOptions{})

	assert.Equal(t, 1, result.Count(OutcomeTranslated))
	assert.Equal(t, int64(1), translator.calls.Load())
	de, _ := repo.get("e1", "de")
	assert.Empty(t, de.Description)
}

func TestTranslationFanout_FailureIsolatedPerLanguage(t *testing.T) {
	defer goleak.VerifyNone(t)

	translator := &fakeTranslator{failLangs: map[string]bool{"de": true}}
	repo := newMemoryTranslationRepo()
	fanout, err := NewTranslationFanout(translator, repo, []string{"en", "de", "pl"}, 2, logger.NewNop())
	require.NoError(t, err)

	result := fanout.TranslateEntity(context.Background(), &model.Entity{ID: "e1", Name: "Castle", OriginalLanguage: "en"}, fanout.Languages(), TranslationOptions{})

	assert.Equal(t, OutcomeSkipped, result.Results[0].Outcome)
	assert.Equal(t, OutcomeFailed, result.Results[1].Outcome)
	assert.True(t, model.IsTransportError(result.Results[1].Err))
	assert.Equal(t, OutcomeTranslated, result.Results[2].Outcome)

	_, ok := repo.get("e1", "de")
	assert.False(t, ok)
	_, ok = repo.get("e1", "pl")
	assert.True(t, ok)
}

func TestTranslationFanout_AlreadyTranslatedAndOverwrite(t *testing.T) {
	translator := &fakeTranslator{}
	repo := newMemoryTranslationRepo()
	require.NoError(t, repo.Create(context.Background(), &model.Translation{EntityID: "e1", Language: "pl", Name: "Stary"}))
	fanout, err := NewTranslationFanout(translator, repo, []string{"pl"}, 1, logger.NewNop())
	require.NoError(t, err)
	entity := &model.Entity{ID: "e1", Name: "Castle", OriginalLanguage: "en"}

	result := fanout.TranslateEntity(context.Background(), entity, []string{"pl"}, TranslationOptions{})
	assert.Equal(t, OutcomeAlreadyTranslated, result.Results[0].Outcome)
	assert.Zero(t, translator.calls.Load())

	result = fanout.TranslateEntity(context.Background(), entity, []string{"pl"}, TranslationOptions{Overwrite: true})
	assert.Equal(t, OutcomeTranslated, result.Results[0].Outcome)
	pl, _ := repo.get("e1", "pl")
	assert.Equal(t, "[pl] Castle", pl.Name)
}

func TestTranslationFanout_DispatchAndWait(t *testing.T) {
	defer goleak.VerifyNone(t)

	translator := &fakeTranslator{failLangs: map[string]bool{"de": true}}
	repo := newMemoryTranslationRepo()
	fanout, err := NewTranslationFanout(translator, repo, []string{"en", "de"}, 3, logger.NewNop())
	require.NoError(t, err)

	for _, id := range []string{"e1", "e2", "e3", "e4"} {
		fanout.Dispatch(context.Background(), model.Entity{ID: id, Name: "Place " + id, OriginalLanguage: "en"})
	}
	summary := fanout.Wait()

	assert.Equal(t, TranslationSummary{Entities: 4, Skipped: 4, Failed: 4}, summary)
}

func TestTranslationFanout_DispatchCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	repo := newMemoryTranslationRepo()
	fanout, err := NewTranslationFanout(&fakeTranslator{}, repo, []string{"pl"}, 1, logger.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fanout.Dispatch(ctx, model.Entity{ID: "e1", Name: "Castle"})
	summary := fanout.Wait()

	assert.Zero(t, summary.Translated)
}

func TestNewTranslationFanout_Validation(t *testing.T) {
	_, err := NewTranslationFanout(nil, newMemoryTranslationRepo(), []string{"pl"}, 1, logger.NewNop())
	assert.ErrorIs(t, err, model.ErrTranslatorMissing)

	_, err = NewTranslationFanout(&fakeTranslator{}, newMemoryTranslationRepo(), nil, 1, logger.NewNop())
	assert.True(t, model.IsConfigurationError(err))
}
