package repository

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"

	"Travel-App/internal/domain/model"
	"Travel-App/internal/domain/repository"
	"Travel-App/internal/logger"
)

const gridCellsCollection = "gridCells"

// FirestoreGridCellPublisher 処理済みセルのPOIをFirestoreのgridCellsに書き出す
type FirestoreGridCellPublisher struct {
	client *firestore.Client
	log    *logger.Logger
}

// NewFirestoreGridCellPublisher 新しいFirestoreGridCellPublisherインスタンスを作成
func NewFirestoreGridCellPublisher(client *firestore.Client, log *logger.Logger) repository.CellSnapshotPublisher {
	return &FirestoreGridCellPublisher{
		client: client,
		log:    log,
	}
}

// GridCellDocumentID ドキュメントID（例: "open_street_map_48.14:48.24:11.54:11.64"）
func GridCellDocumentID(resource string, cell model.GridCell) string {
	return fmt.Sprintf("%s_%s", resource, cell.Key())
}

// BuildGridCellDocument セルのEntityからFirestoreドキュメントを組み立てる
func BuildGridCellDocument(resource string, cell model.GridCell, entities []model.Entity, now time.Time) model.GridCellDocument {
	pois := make([]model.POIObject, 0, len(entities))
	for i := range entities {
		pois = append(pois, entities[i].ToPOIObject())
	}
	return model.GridCellDocument{
		ID:          GridCellDocumentID(resource, cell),
		Resource:    resource,
		Cell:        cell,
		POIs:        pois,
		PublishedAt: now,
	}
}

func (p *FirestoreGridCellPublisher) Publish(ctx context.Context, resource string, cell model.GridCell, entities []model.Entity) error {
	doc := BuildGridCellDocument(resource, cell, entities, time.Now().UTC())

	if _, err := p.client.Collection(gridCellsCollection).Doc(doc.ID).Set(ctx, doc); err != nil {
		return fmt.Errorf("グリッドセルの保存に失敗しました: %w", err)
	}

	p.log.Debug("✅ グリッドセルを公開しました", "doc_id", doc.ID, "pois", len(doc.POIs))
	return nil
}

// NoopCellSnapshotPublisher Firestore未設定時に使う何もしない実装
type NoopCellSnapshotPublisher struct{}

func NewNoopCellSnapshotPublisher() repository.CellSnapshotPublisher {
	return NoopCellSnapshotPublisher{}
}

func (NoopCellSnapshotPublisher) Publish(ctx context.Context, resource string, cell model.GridCell, entities []model.Entity) error {
	return nil
}
