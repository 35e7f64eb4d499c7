package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Travel-App/internal/domain/model"
)

func TestGormTranslationRepository_CreateAndExists(t *testing.T) {
	repo := NewGormTranslationRepository(newTestDB(t))
	ctx := context.Background()

	exists, err := repo.Exists(ctx, "e1", "pl")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.Create(ctx, &model.Translation{EntityID: "e1", Language: "pl", Name: "Zamek"}))

	exists, err = repo.Exists(ctx, "e1", "pl")
	require.NoError(t, err)
	assert.True(t, exists)

	// (entity_id, language) の一意制約
	err = repo.Create(ctx, &model.Translation{EntityID: "e1", Language: "pl", Name: "Zamek 2"})
	require.Error(t, err)
	assert.True(t, model.IsPersistenceError(err))
}

func TestGormTranslationRepository_UpsertReplaces(t *testing.T) {
	repo := NewGormTranslationRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &model.Translation{EntityID: "e1", Language: "pl", Name: "Zamek", Description: "Stary"}))
	require.NoError(t, repo.Upsert(ctx, &model.Translation{EntityID: "e1", Language: "pl", Name: "Zamek Królewski", Description: "Nowy"}))
	require.NoError(t, repo.Upsert(ctx, &model.Translation{EntityID: "e1", Language: "de", Name: "Burg"}))

	translations, err := repo.ListByEntity(ctx, "e1")
	require.NoError(t, err)
	require.Len(t, translations, 2)
	assert.Equal(t, "de", translations[0].Language)
	assert.Equal(t, "pl", translations[1].Language)
	assert.Equal(t, "Zamek Królewski", translations[1].Name)
	assert.Equal(t, "Nowy", translations[1].Description)
}
