package repository

import (
	"context"

	"Travel-App/internal/domain/model"
)

// CellSnapshotPublisher 処理済みセルの読み取り用スナップショットを公開する
type CellSnapshotPublisher interface {
	Publish(ctx context.Context, resource string, cell model.GridCell, entities []model.Entity) error
}
