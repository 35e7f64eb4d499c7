package repository

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Travel-App/internal/config"
	"Travel-App/internal/database"
	"Travel-App/internal/domain/model"
)

func newTestSupabase(t *testing.T, handler http.HandlerFunc) *database.SupabaseClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := database.NewSupabaseClient(config.SupabaseSettings{URL: server.URL, AnonKey: "anon"})
	require.NoError(t, err)
	return client
}

func TestSupabaseImportLedgerRepository_IsProcessed(t *testing.T) {
	client := newTestSupabase(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rest/v1/import_ledger", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "eq.open_street_map", q.Get("resource"))
		assert.Equal(t, "eq.48.14", q.Get("min_lat"))
		assert.Equal(t, "eq.11.64", q.Get("max_lon"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":1}]`))
	})
	repo := NewSupabaseImportLedgerRepository(client)

	cell := model.NewGridCell(48.14, 48.24, 11.54, 11.64, model.DefaultGridPrecision)
	processed, err := repo.IsProcessed(context.Background(), model.ResourceOpenStreetMap, cell)

	require.NoError(t, err)
	assert.True(t, processed)
}

func TestSupabaseImportLedgerRepository_MarkProcessed(t *testing.T) {
	var received ledgerRow
	client := newTestSupabase(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "resource,min_lat,max_lat,min_lon,max_lon", r.URL.Query().Get("on_conflict"))
		assert.Contains(t, r.Header.Get("Prefer"), "resolution=merge-duplicates")
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &received))
		w.WriteHeader(http.StatusCreated)
	})
	repo := NewSupabaseImportLedgerRepository(client)

	cell := model.NewGridCell(48.14, 48.24, 11.54, 11.64, model.DefaultGridPrecision)
	err := repo.MarkProcessed(context.Background(), model.ResourceOpenStreetMap, cell, model.CellStats{PlacesFound: 5, PlacesStored: 2})

	require.NoError(t, err)
	assert.Equal(t, model.ResourceOpenStreetMap, received.Resource)
	assert.InDelta(t, 48.24, received.MaxLat, 1e-9)
	assert.Equal(t, 2, received.PlacesStored)
}

func TestSupabaseImportLedgerRepository_ErrorIsPersistenceError(t *testing.T) {
	client := newTestSupabase(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"code":"XX000","message":"boom"}`))
	})
	repo := NewSupabaseImportLedgerRepository(client)

	err := repo.MarkProcessed(context.Background(), model.ResourceOpenStreetMap, model.GridCell{}, model.CellStats{})

	require.Error(t, err)
	assert.True(t, model.IsPersistenceError(err))
}

func TestSupabaseImportLedgerRepository_List(t *testing.T) {
	client := newTestSupabase(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "imported_at.desc.nullslast", r.URL.Query().Get("order"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`[{"id":7,"resource":"open_street_map","min_lat":48.14,"max_lat":48.19,"min_lon":11.54,"max_lon":11.64,"places_found":3,"places_stored":1,"imported_at":"2026-01-02T03:04:05Z"}]`))
	})
	repo := NewSupabaseImportLedgerRepository(client)

	entries, err := repo.List(context.Background(), model.ResourceOpenStreetMap, 10)

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, uint(7), entries[0].ID)
	assert.Equal(t, 3, entries[0].PlacesFound)
	assert.Equal(t, 2026, entries[0].ImportedAt.Year())
}
