package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"Travel-App/internal/domain/model"
	"Travel-App/internal/domain/repository"
)

type GormTranslationRepository struct {
	db *gorm.DB
}

func NewGormTranslationRepository(db *gorm.DB) repository.TranslationRepository {
	return &GormTranslationRepository{
		db: db,
	}
}

func (r *GormTranslationRepository) Exists(ctx context.Context, entityID, language string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Translation{}).
		Where("entity_id = ? AND language = ?", entityID, language).
		Count(&count).Error
	if err != nil {
		return false, &model.PersistenceError{Op: "translation_exists", Cause: err}
	}
	return count > 0, nil
}

// Create 既存行がある場合は一意制約違反としてエラーになる
func (r *GormTranslationRepository) Create(ctx context.Context, translation *model.Translation) error {
	if err := r.db.WithContext(ctx).Create(translation).Error; err != nil {
		return &model.PersistenceError{Op: "translation_create", Cause: err}
	}
	return nil
}

// Upsert (entity_id, language) が既にあれば名前と説明を置き換える
func (r *GormTranslationRepository) Upsert(ctx context.Context, translation *model.Translation) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entity_id"}, {Name: "language"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description", "updated_at"}),
	}).Create(translation).Error
	if err != nil {
		return &model.PersistenceError{Op: "translation_upsert", Cause: err}
	}
	return nil
}

func (r *GormTranslationRepository) ListByEntity(ctx context.Context, entityID string) ([]model.Translation, error) {
	var translations []model.Translation
	err := r.db.WithContext(ctx).Where("entity_id = ?", entityID).Order("language").Find(&translations).Error
	if err != nil {
		return nil, fmt.Errorf("翻訳一覧の取得失敗: %w", err)
	}
	return translations, nil
}
