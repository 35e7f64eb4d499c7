package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"Travel-App/internal/domain/model"
	"Travel-App/internal/domain/repository"
)

type GormMigrationResourceRepository struct {
	db *gorm.DB
}

func NewGormMigrationResourceRepository(db *gorm.DB) repository.MigrationResourceRepository {
	return &GormMigrationResourceRepository{
		db: db,
	}
}

func (r *GormMigrationResourceRepository) GetByName(ctx context.Context, name string) (*model.MigrationResource, error) {
	var resource model.MigrationResource
	err := r.db.WithContext(ctx).Where("name = ?", name).Take(&resource).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("移行元リソースの取得失敗: %w", err)
	}
	return &resource, nil
}

func (r *GormMigrationResourceRepository) Save(ctx context.Context, resource *model.MigrationResource) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"base_url", "credentials"}),
	}).Create(resource).Error
	if err != nil {
		return fmt.Errorf("移行元リソースの保存失敗: %w", err)
	}
	return nil
}
