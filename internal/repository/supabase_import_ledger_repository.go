package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	postgrest "github.com/supabase-community/postgrest-go"

	"Travel-App/internal/database"
	"Travel-App/internal/domain/model"
	"Travel-App/internal/domain/repository"
)

const importLedgerTable = "import_ledger"

// ledgerRow PostgRESTとやり取りする台帳の行
type ledgerRow struct {
	ID           uint       `json:"id,omitempty"`
	Resource     string     `json:"resource"`
	MinLat       float64    `json:"min_lat"`
	MaxLat       float64    `json:"max_lat"`
	MinLon       float64    `json:"min_lon"`
	MaxLon       float64    `json:"max_lon"`
	PlacesFound  int        `json:"places_found"`
	PlacesStored int        `json:"places_stored"`
	ImportedAt   *time.Time `json:"imported_at,omitempty"`
}

type SupabaseImportLedgerRepository struct {
	client *database.SupabaseClient
}

func NewSupabaseImportLedgerRepository(client *database.SupabaseClient) repository.ImportLedgerRepository {
	return &SupabaseImportLedgerRepository{
		client: client,
	}
}

func (r *SupabaseImportLedgerRepository) IsProcessed(ctx context.Context, resource string, cell model.GridCell) (bool, error) {
	data, _, err := r.client.GetClient().From(importLedgerTable).Select("id", "", false).
		Eq("resource", resource).
		Eq("min_lat", formatCoord(cell.MinLat)).
		Eq("max_lat", formatCoord(cell.MaxLat)).
		Eq("min_lon", formatCoord(cell.MinLon)).
		Eq("max_lon", formatCoord(cell.MaxLon)).
		Limit(1, "").
		Execute()
	if err != nil {
		return false, &model.PersistenceError{Op: "ledger_is_processed", Cause: err}
	}

	var rows []ledgerRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return false, fmt.Errorf("台帳データのJSONアンマーシャル失敗: %w", err)
	}
	return len(rows) > 0, nil
}

// MarkProcessed on_conflictで同一セルの再登録を吸収する
func (r *SupabaseImportLedgerRepository) MarkProcessed(ctx context.Context, resource string, cell model.GridCell, stats model.CellStats) error {
	row := ledgerRow{
		Resource:     resource,
		MinLat:       cell.MinLat,
		MaxLat:       cell.MaxLat,
		MinLon:       cell.MinLon,
		MaxLon:       cell.MaxLon,
		PlacesFound:  stats.PlacesFound,
		PlacesStored: stats.PlacesStored,
	}
	_, _, err := r.client.GetClient().From(importLedgerTable).
		Insert(row, true, "resource,min_lat,max_lat,min_lon,max_lon", "minimal", "").
		Execute()
	if err != nil {
		return &model.PersistenceError{Op: "ledger_mark_processed", Cause: err}
	}
	return nil
}

func (r *SupabaseImportLedgerRepository) List(ctx context.Context, resource string, limit int) ([]model.ImportLedgerEntry, error) {
	query := r.client.GetClient().From(importLedgerTable).Select("*", "", false)
	if resource != "" {
		query = query.Eq("resource", resource)
	}
	query = query.Order("imported_at", &postgrest.OrderOpts{Ascending: false})
	if limit > 0 {
		query = query.Limit(limit, "")
	}

	data, _, err := query.Execute()
	if err != nil {
		return nil, fmt.Errorf("台帳データの取得失敗: %w", err)
	}

	var rows []ledgerRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("台帳データのJSONアンマーシャル失敗: %w", err)
	}

	entries := make([]model.ImportLedgerEntry, 0, len(rows))
	for _, row := range rows {
		entry := model.ImportLedgerEntry{
			ID:           row.ID,
			Resource:     row.Resource,
			MinLat:       row.MinLat,
			MaxLat:       row.MaxLat,
			MinLon:       row.MinLon,
			MaxLon:       row.MaxLon,
			PlacesFound:  row.PlacesFound,
			PlacesStored: row.PlacesStored,
		}
		if row.ImportedAt != nil {
			entry.ImportedAt = *row.ImportedAt
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
