package repository

import (
	"context"

	"Travel-App/internal/domain/model"
)

// TranslationRepository 言語別翻訳の永続化（entity_id, languageで一意）
type TranslationRepository interface {
	Exists(ctx context.Context, entityID, language string) (bool, error)
	Create(ctx context.Context, translation *model.Translation) error
	Upsert(ctx context.Context, translation *model.Translation) error
	ListByEntity(ctx context.Context, entityID string) ([]model.Translation, error)
}
