package repository

import (
	"context"

	"Travel-App/internal/domain/model"
)

// EntityRepository アクティビティ（Entity）の永続化
type EntityRepository interface {
	// Upsert (destination_resource, xid) をキーに作成または全項目を置き換える
	// Address・ExternalLinksの作成と同一トランザクションで行う
	Upsert(ctx context.Context, entity *model.Entity) (*model.Entity, bool, error)
	// ExistsByContent 同じ (name, images, description, provenance) を持つ別xidのEntityがあるか
	ExistsByContent(ctx context.Context, name string, images []string, description, provenance, excludeXID string) (bool, error)
	GetByID(ctx context.Context, id string) (*model.Entity, error)
	GetByXID(ctx context.Context, provenance, xid string) (*model.Entity, error)
	// FindByProvenance afterIDより後のIDをID順に最大limit件（キーセットページング）
	FindByProvenance(ctx context.Context, provenance, afterID string, limit int) ([]model.Entity, error)
	ListAll(ctx context.Context, afterID string, limit int) ([]model.Entity, error)
	FindNearby(ctx context.Context, location model.LatLng, radiusMeters float64, limit int) ([]model.NearbyActivity, error)
	Count(ctx context.Context, provenance string) (int64, error)
	// ApplyImageAudit 画像リストの更新と空になったEntityの削除を1トランザクションで行う
	ApplyImageAudit(ctx context.Context, updates []model.ImageAuditUpdate) (model.ImageAuditResult, error)
	// DeleteByIDs Entityと翻訳を1トランザクションで削除する
	DeleteByIDs(ctx context.Context, ids []string) (int, error)
}
