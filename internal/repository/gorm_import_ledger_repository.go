package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"Travel-App/internal/domain/model"
	"Travel-App/internal/domain/repository"
)

type GormImportLedgerRepository struct {
	db *gorm.DB
}

func NewGormImportLedgerRepository(db *gorm.DB) repository.ImportLedgerRepository {
	return &GormImportLedgerRepository{
		db: db,
	}
}

func (r *GormImportLedgerRepository) IsProcessed(ctx context.Context, resource string, cell model.GridCell) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ImportLedgerEntry{}).
		Where("resource = ? AND min_lat = ? AND max_lat = ? AND min_lon = ? AND max_lon = ?",
			resource, cell.MinLat, cell.MaxLat, cell.MinLon, cell.MaxLon).
		Count(&count).Error
	if err != nil {
		return false, &model.PersistenceError{Op: "ledger_is_processed", Cause: err}
	}
	return count > 0, nil
}

// MarkProcessed 既に記録済みのセルは何もしない（ON CONFLICT DO NOTHING）
func (r *GormImportLedgerRepository) MarkProcessed(ctx context.Context, resource string, cell model.GridCell, stats model.CellStats) error {
	entry := model.ImportLedgerEntry{
		Resource:     resource,
		MinLat:       cell.MinLat,
		MaxLat:       cell.MaxLat,
		MinLon:       cell.MinLon,
		MaxLon:       cell.MaxLon,
		PlacesFound:  stats.PlacesFound,
		PlacesStored: stats.PlacesStored,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&entry).Error
	if err != nil {
		return &model.PersistenceError{Op: "ledger_mark_processed", Cause: err}
	}
	return nil
}

func (r *GormImportLedgerRepository) List(ctx context.Context, resource string, limit int) ([]model.ImportLedgerEntry, error) {
	var entries []model.ImportLedgerEntry
	query := r.db.WithContext(ctx).Order("imported_at DESC, id DESC")
	if resource != "" {
		query = query.Where("resource = ?", resource)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("台帳の取得失敗: %w", err)
	}
	return entries, nil
}
