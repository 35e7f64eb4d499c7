package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"Travel-App/internal/domain/helper"
	"Travel-App/internal/domain/model"
	"Travel-App/internal/domain/repository"
)

type GormEntityRepository struct {
	db *gorm.DB
}

func NewGormEntityRepository(db *gorm.DB) repository.EntityRepository {
	return &GormEntityRepository{
		db: db,
	}
}

// Upsert Address → ExternalLinks → Entity の順に1トランザクションで書き込む
func (r *GormEntityRepository) Upsert(ctx context.Context, entity *model.Entity) (*model.Entity, bool, error) {
	created := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. 住所（内容で get-or-create）
		entity.AddressID = nil
		if entity.Address != nil && !entity.Address.IsEmpty() {
			address, err := getOrCreateAddress(tx, entity.Address)
			if err != nil {
				return err
			}
			entity.Address = address
			entity.AddressID = &address.ID
		}

		// 2. 外部リンク（URLの組で get-or-create）
		entity.ExternalLinksID = nil
		if entity.ExternalLinks != nil && !entity.ExternalLinks.IsEmpty() {
			links, err := getOrCreateExternalLinks(tx, entity.ExternalLinks)
			if err != nil {
				return err
			}
			entity.ExternalLinks = links
			entity.ExternalLinksID = &links.ID
		}

		// 3. Entity本体（xidで作成または全置換）
		var existing model.Entity
		err := tx.Where("destination_resource = ? AND xid = ?", entity.DestinationResource, entity.XID).Take(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if entity.ID == "" {
				entity.ID = uuid.New().String()
			}
			if err := tx.Omit(clause.Associations).Create(entity).Error; err != nil {
				return fmt.Errorf("エンティティの作成に失敗: %w", err)
			}
			created = true
		case err != nil:
			return fmt.Errorf("エンティティの検索に失敗: %w", err)
		default:
			entity.ID = existing.ID
			entity.CreatedAt = existing.CreatedAt
			if err := tx.Omit(clause.Associations).Save(entity).Error; err != nil {
				return fmt.Errorf("エンティティの更新に失敗: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, false, &model.PersistenceError{Op: "upsert_entity", Cause: err}
	}
	return entity, created, nil
}

func getOrCreateAddress(tx *gorm.DB, a *model.Address) (*model.Address, error) {
	address := model.Address{
		Street:     a.Street,
		City:       a.City,
		State:      a.State,
		Country:    a.Country,
		PostalCode: a.PostalCode,
	}
	// 構造体条件はゼロ値を無視するためmapで全項目を指定する
	conds := map[string]interface{}{
		"street":      a.Street,
		"city":        a.City,
		"state":       a.State,
		"country":     a.Country,
		"postal_code": a.PostalCode,
	}
	if err := tx.Where(conds).FirstOrCreate(&address).Error; err != nil {
		return nil, fmt.Errorf("住所の保存に失敗: %w", err)
	}
	return &address, nil
}

func getOrCreateExternalLinks(tx *gorm.DB, l *model.ExternalLinks) (*model.ExternalLinks, error) {
	links := model.ExternalLinks{WikipediaURL: l.WikipediaURL, WebsiteURL: l.WebsiteURL}
	conds := map[string]interface{}{
		"wikipedia_url": l.WikipediaURL,
		"website_url":   l.WebsiteURL,
	}
	if err := tx.Where(conds).FirstOrCreate(&links).Error; err != nil {
		return nil, fmt.Errorf("外部リンクの保存に失敗: %w", err)
	}
	return &links, nil
}

func (r *GormEntityRepository) ExistsByContent(ctx context.Context, name string, images []string, description, provenance, excludeXID string) (bool, error) {
	query := r.db.WithContext(ctx).Model(&model.Entity{}).
		Where("name = ? AND description = ? AND destination_resource = ? AND images = ?",
			name, description, provenance, model.StringList(images))
	if excludeXID != "" {
		query = query.Where("xid <> ?", excludeXID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, &model.PersistenceError{Op: "exists_by_content", Cause: err}
	}
	return count > 0, nil
}

func (r *GormEntityRepository) GetByID(ctx context.Context, id string) (*model.Entity, error) {
	var entity model.Entity
	err := r.db.WithContext(ctx).Preload("Address").Preload("ExternalLinks").Where("id = ?", id).Take(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("エンティティ %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("エンティティの取得失敗: %w", err)
	}
	return &entity, nil
}

func (r *GormEntityRepository) GetByXID(ctx context.Context, provenance, xid string) (*model.Entity, error) {
	var entity model.Entity
	err := r.db.WithContext(ctx).Preload("Address").Preload("ExternalLinks").
		Where("destination_resource = ? AND xid = ?", provenance, xid).Take(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("xid %s: %w", xid, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("エンティティの取得失敗: %w", err)
	}
	return &entity, nil
}

func (r *GormEntityRepository) FindByProvenance(ctx context.Context, provenance, afterID string, limit int) ([]model.Entity, error) {
	var entities []model.Entity
	err := r.db.WithContext(ctx).Preload("ExternalLinks").
		Where("destination_resource = ? AND id > ?", provenance, afterID).
		Order("id").Limit(limit).Find(&entities).Error
	if err != nil {
		return nil, fmt.Errorf("エンティティ一覧の取得失敗: %w", err)
	}
	return entities, nil
}

func (r *GormEntityRepository) ListAll(ctx context.Context, afterID string, limit int) ([]model.Entity, error) {
	var entities []model.Entity
	err := r.db.WithContext(ctx).Where("id > ?", afterID).Order("id").Limit(limit).Find(&entities).Error
	if err != nil {
		return nil, fmt.Errorf("エンティティ一覧の取得失敗: %w", err)
	}
	return entities, nil
}

// FindNearby 矩形で絞り込んでからHaversine距離で並べ替える
func (r *GormEntityRepository) FindNearby(ctx context.Context, location model.LatLng, radiusMeters float64, limit int) ([]model.NearbyActivity, error) {
	bound := helper.SearchBound(helper.LatLngToPoint(location), radiusMeters)

	var entities []model.Entity
	err := r.db.WithContext(ctx).Preload("Address").Preload("ExternalLinks").
		Where("latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?",
			bound.Min.Lat(), bound.Max.Lat(), bound.Min.Lon(), bound.Max.Lon()).
		Find(&entities).Error
	if err != nil {
		return nil, fmt.Errorf("周辺エンティティの取得失敗: %w", err)
	}

	return helper.RankByDistance(location, entities, radiusMeters, limit), nil
}

func (r *GormEntityRepository) Count(ctx context.Context, provenance string) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&model.Entity{})
	if provenance != "" {
		query = query.Where("destination_resource = ?", provenance)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("エンティティ数の取得失敗: %w", err)
	}
	return count, nil
}

func (r *GormEntityRepository) ApplyImageAudit(ctx context.Context, updates []model.ImageAuditUpdate) (model.ImageAuditResult, error) {
	var result model.ImageAuditResult
	if len(updates) == 0 {
		return result, nil
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var toDelete []string
		for _, u := range updates {
			if len(u.Images) == 0 {
				toDelete = append(toDelete, u.EntityID)
				continue
			}
			res := tx.Model(&model.Entity{}).Where("id = ?", u.EntityID).Update("images", model.StringList(u.Images))
			if res.Error != nil {
				return fmt.Errorf("画像リストの更新に失敗: %w", res.Error)
			}
			result.Updated += int(res.RowsAffected)
		}

		deleted, err := deleteEntities(tx, toDelete)
		if err != nil {
			return err
		}
		result.Deleted = deleted
		return nil
	})
	if err != nil {
		return model.ImageAuditResult{}, &model.PersistenceError{Op: "apply_image_audit", Cause: err}
	}
	return result, nil
}

func (r *GormEntityRepository) DeleteByIDs(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var deleted int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := deleteEntities(tx, ids)
		deleted = n
		return err
	})
	if err != nil {
		return 0, &model.PersistenceError{Op: "delete_entities", Cause: err}
	}
	return deleted, nil
}

func deleteEntities(tx *gorm.DB, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	if err := tx.Where("entity_id IN ?", ids).Delete(&model.Translation{}).Error; err != nil {
		return 0, fmt.Errorf("翻訳の削除に失敗: %w", err)
	}
	res := tx.Where("id IN ?", ids).Delete(&model.Entity{})
	if res.Error != nil {
		return 0, fmt.Errorf("エンティティの削除に失敗: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}
