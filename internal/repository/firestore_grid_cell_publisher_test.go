package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Travel-App/internal/domain/model"
	"Travel-App/internal/logger"
)

func TestBuildGridCellDocument(t *testing.T) {
	cell := model.NewGridCell(48.14, 48.24, 11.54, 11.64, model.DefaultGridPrecision)
	e := newTestEntity("N1", "Castle", "http://x/y.jpg")
	e.ID = "e1"
	e.Latitude, e.Longitude = floatPtr(48.15), floatPtr(11.58)
	e.ExternalLinks.WebsiteURL = "https://castle.example"
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	doc := BuildGridCellDocument(model.ResourceOpenStreetMap, cell, []model.Entity{*e}, now)

	assert.Equal(t, "open_street_map_48.14:48.24:11.54:11.64", doc.ID)
	assert.Equal(t, cell, doc.Cell)
	require.Len(t, doc.POIs, 1)
	assert.Equal(t, "e1", doc.POIs[0].ID)
	require.NotNil(t, doc.POIs[0].Location)
	assert.InDelta(t, 48.15, doc.POIs[0].Location.Latitude, 1e-9)
	assert.Equal(t, "https://castle.example", doc.POIs[0].GetURL())
	assert.Equal(t, now, doc.PublishedAt)
}

func TestNoopCellSnapshotPublisher(t *testing.T) {
	p := NewNoopCellSnapshotPublisher()
	assert.NoError(t, p.Publish(context.Background(), model.ResourceOpenStreetMap, model.GridCell{}, nil))
}

func TestFirestoreGridCellPublisher_Emulator(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("set FIRESTORE_EMULATOR_HOST to run firestore integration tests")
	}

	ctx := context.Background()
	client, err := firestore.NewClient(ctx, "travel-app-test")
	require.NoError(t, err)
	defer client.Close()

	publisher := NewFirestoreGridCellPublisher(client, logger.NewNop())
	cell := model.NewGridCell(48.14, 48.24, 11.54, 11.64, model.DefaultGridPrecision)
	e := newTestEntity("N1", "Castle", "http://x/y.jpg")
	e.ID = "e1"

	require.NoError(t, publisher.Publish(ctx, model.ResourceOpenStreetMap, cell, []model.Entity{*e}))

	snap, err := client.Collection(gridCellsCollection).Doc(GridCellDocumentID(model.ResourceOpenStreetMap, cell)).Get(ctx)
	require.NoError(t, err)
	var doc model.GridCellDocument
	require.NoError(t, snap.DataTo(&doc))
	assert.Len(t, doc.POIs, 1)
}
