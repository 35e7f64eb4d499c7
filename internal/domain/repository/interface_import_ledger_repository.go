package repository

import (
	"context"

	"Travel-App/internal/domain/model"
)

// ImportLedgerRepository 処理済みグリッドセルの台帳
// MarkProcessedはセル内の全スポットが永続化または除外された後にのみ呼ぶこと
type ImportLedgerRepository interface {
	IsProcessed(ctx context.Context, resource string, cell model.GridCell) (bool, error)
	// MarkProcessed 同じセルの二重登録はエラーにしない
	MarkProcessed(ctx context.Context, resource string, cell model.GridCell, stats model.CellStats) error
	List(ctx context.Context, resource string, limit int) ([]model.ImportLedgerEntry, error)
}
