package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"Travel-App/internal/domain/model"
	"Travel-App/internal/infrastructure/database"
	"Travel-App/internal/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	client, err := database.NewSQLiteClient(":memory:", logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, client.AutoMigrate(context.Background()))
	t.Cleanup(func() { _ = client.Close() })
	return client.DB
}

func floatPtr(v float64) *float64 {
	return &v
}

func newTestEntity(xid, name string, images ...string) *model.Entity {
	return &model.Entity{
		Name:                name,
		Description:         name + " description",
		Images:              model.StringList(images),
		Tags:                model.StringList{"Historic"},
		XID:                 xid,
		DestinationResource: model.ResourceOpenStreetMap,
		MigrationData:       map[string]interface{}{"xid": xid},
		Address: &model.Address{
			Street:     "Burgweg 1",
			City:       "Munich",
			Country:    "Germany",
			PostalCode: "80331",
		},
		ExternalLinks: &model.ExternalLinks{WikipediaURL: "https://en.wikipedia.org/wiki/" + name},
	}
}
