package repository

import (
	"context"

	"Travel-App/internal/domain/model"
)

// MigrationResourceRepository 移行元サービスの接続情報
type MigrationResourceRepository interface {
	// GetByName 見つからない場合は (nil, nil)
	GetByName(ctx context.Context, name string) (*model.MigrationResource, error)
	Save(ctx context.Context, resource *model.MigrationResource) error
}
