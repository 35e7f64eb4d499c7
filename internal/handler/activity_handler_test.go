package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Travel-App/internal/application"
	"Travel-App/internal/domain/model"
	"Travel-App/internal/infrastructure/database"
	"Travel-App/internal/logger"
	"Travel-App/internal/repository"
)

type routerFixture struct {
	router   *gin.Engine
	entities *model.Entity
}

func floatPtr(v float64) *float64 {
	return &v
}

func setupTestRouter(t *testing.T, checks map[string]HealthChecker) routerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	client, err := database.NewSQLiteClient(":memory:", logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, client.AutoMigrate(context.Background()))
	t.Cleanup(func() { _ = client.Close() })

	entities := repository.NewGormEntityRepository(client.DB)
	translations := repository.NewGormTranslationRepository(client.DB)
	ledger := repository.NewGormImportLedgerRepository(client.DB)
	ctx := context.Background()

	// マリエン広場の近くと遠くに1件ずつ
	near, _, err := entities.Upsert(ctx, &model.Entity{
		Name: "Frauenkirche", Images: model.StringList{"http://x/f.jpg"},
		Latitude: floatPtr(48.1386), Longitude: floatPtr(11.5736),
		XID: "N1", DestinationResource: model.ResourceOpenStreetMap,
	})
	require.NoError(t, err)
	_, _, err = entities.Upsert(ctx, &model.Entity{
		Name: "Nymphenburg", Images: model.StringList{"http://x/n.jpg"},
		Latitude: floatPtr(48.1583), Longitude: floatPtr(11.5033),
		XID: "N2", DestinationResource: model.ResourceOpenStreetMap,
	})
	require.NoError(t, err)
	require.NoError(t, translations.Create(ctx, &model.Translation{EntityID: near.ID, Language: "pl", Name: "Kościół Najświętszej Marii Panny"}))
	require.NoError(t, ledger.MarkProcessed(ctx, model.ResourceOpenStreetMap,
		model.NewGridCell(48.1, 48.15, 11.5, 11.6, model.DefaultGridPrecision), model.CellStats{PlacesFound: 2, PlacesStored: 2}))

	router := NewRouter(RouterConfig{
		ActivityHandler: NewActivityHandler(application.NewActivityService(entities, translations, ledger)),
		HealthHandler:   NewHealthHandler(checks),
	})
	return routerFixture{router: router, entities: near}
}

func doGet(router *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestActivityHandler_GetNearby(t *testing.T) {
	f := setupTestRouter(t, nil)

	w := doGet(f.router, "/api/activities/nearby?lat=48.1374&lng=11.5755&radius=1000")

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Activities []model.NearbyActivity `json:"activities"`
		Count      int                    `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "Frauenkirche", body.Activities[0].Entity.Name)
	assert.Greater(t, body.Activities[0].DistanceMeters, 0.0)
	assert.Less(t, body.Activities[0].DistanceMeters, 1000.0)

	// 半径を広げると距離順に2件
	w = doGet(f.router, "/api/activities/nearby?lat=48.1374&lng=11.5755&radius=10000")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, 2, body.Count)
	assert.Equal(t, "Frauenkirche", body.Activities[0].Entity.Name)
	assert.Equal(t, "Nymphenburg", body.Activities[1].Entity.Name)
}

func TestActivityHandler_GetNearbyInvalidParams(t *testing.T) {
	f := setupTestRouter(t, nil)

	tests := []struct {
		name string
		path string
	}{
		{"latなし", "/api/activities/nearby?lng=11.5"},
		{"latが範囲外", "/api/activities/nearby?lat=91&lng=11.5"},
		{"lngが数値でない", "/api/activities/nearby?lat=48&lng=abc"},
		{"radiusが負", "/api/activities/nearby?lat=48&lng=11&radius=-5"},
		{"limitが0", "/api/activities/nearby?lat=48&lng=11&limit=0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doGet(f.router, tt.path)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "invalid_parameter")
		})
	}
}

func TestActivityHandler_GetTranslations(t *testing.T) {
	f := setupTestRouter(t, nil)

	w := doGet(f.router, "/api/activities/"+f.entities.ID+"/translations")

	require.Equal(t, http.StatusOK, w.Code)
	var detail application.ActivityDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, "Frauenkirche", detail.Activity.Name)
	require.Len(t, detail.Translations, 1)
	assert.Equal(t, "pl", detail.Translations[0].Language)

	w = doGet(f.router, "/api/activities/does-not-exist/translations")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestActivityHandler_GetImportedCells(t *testing.T) {
	f := setupTestRouter(t, nil)

	w := doGet(f.router, "/api/import/cells?resource=open_street_map&limit=5")

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Cells []model.ImportLedgerEntry `json:"cells"`
		Count int                       `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, 2, body.Cells[0].PlacesStored)

	w = doGet(f.router, "/api/import/cells?resource=other")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":0`)
}

func TestHealthHandler(t *testing.T) {
	f := setupTestRouter(t, map[string]HealthChecker{"database": func(ctx context.Context) error { return nil }})
	w := doGet(f.router, "/api/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"healthy"`)

	f = setupTestRouter(t, map[string]HealthChecker{"database": func(ctx context.Context) error { return errors.New("connection refused") }})
	w = doGet(f.router, "/api/health")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestRouter_Metrics(t *testing.T) {
	f := setupTestRouter(t, nil)

	w := doGet(f.router, "/metrics")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "go_goroutines"))
}
