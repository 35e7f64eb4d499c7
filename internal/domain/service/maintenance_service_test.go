package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Travel-App/internal/domain/model"
	domainrepo "Travel-App/internal/domain/repository"
	"Travel-App/internal/infrastructure/database"
	"Travel-App/internal/logger"
	"Travel-App/internal/repository"
)

// fakeReachability はbrokenに含まれないURLを到達可能とみなす
type fakeReachability struct {
	mu     sync.Mutex
	broken map[string]bool
	calls  map[string]int
}

func (p *fakeReachability) IsReachable(ctx context.Context, imageURL string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.calls == nil {
		p.calls = map[string]int{}
	}
	p.calls[imageURL]++
	return !p.broken[imageURL]
}

type maintenanceFixture struct {
	entities     domainrepo.EntityRepository
	translations domainrepo.TranslationRepository
}

func newMaintenanceFixture(t *testing.T) maintenanceFixture {
	t.Helper()
	client, err := database.NewSQLiteClient(":memory:", logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, client.AutoMigrate(context.Background()))
	t.Cleanup(func() { _ = client.Close() })
	return maintenanceFixture{
		entities:     repository.NewGormEntityRepository(client.DB),
		translations: repository.NewGormTranslationRepository(client.DB),
	}
}

func (f maintenanceFixture) insert(t *testing.T, id, xid, name string, createdAt time.Time, images ...string) {
	t.Helper()
	_, _, err := f.entities.Upsert(context.Background(), &model.Entity{
		ID:                  id,
		Name:                name,
		Description:         name + " description",
		Images:              model.StringList(images),
		XID:                 xid,
		DestinationResource: model.ResourceOpenStreetMap,
		MigrationData:       map[string]interface{}{"xid": xid},
		CreatedAt:           createdAt,
	})
	require.NoError(t, err)
}

func TestMaintenanceService_AuditImages(t *testing.T) {
	f := newMaintenanceFixture(t)
	ctx := context.Background()
	now := time.Now()

	f.insert(t, "e1", "N1", "Castle", now, "http://x/ok.jpg", "http://x/broken.jpg")
	f.insert(t, "e2", "N2", "Tower", now, "http://x/broken2.jpg")
	f.insert(t, "e3", "N3", "Bridge", now, "http://x/ok.jpg")
	require.NoError(t, f.translations.Create(ctx, &model.Translation{EntityID: "e2", Language: "pl", Name: "Wieża"}))

	checker := &fakeReachability{broken: map[string]bool{"http://x/broken.jpg": true, "http://x/broken2.jpg": true}}
	svc := NewMaintenanceService(f.entities, checker, 2, 2, logger.NewNop())

	report, err := svc.AuditImages(ctx, model.ResourceOpenStreetMap)

	require.NoError(t, err)
	assert.Equal(t, 3, report.EntitiesChecked)
	assert.Equal(t, 2, report.ImagesDropped)
	assert.Equal(t, 1, report.EntitiesUpdated)
	assert.Equal(t, 1, report.EntitiesDeleted)

	e1, err := f.entities.GetByID(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, model.StringList{"http://x/ok.jpg"}, e1.Images)

	_, err = f.entities.GetByID(ctx, "e2")
	assert.ErrorIs(t, err, model.ErrNotFound)
	exists, err := f.translations.Exists(ctx, "e2", "pl")
	require.NoError(t, err)
	assert.False(t, exists)

	// 2回目は何も変わらない
	report, err = svc.AuditImages(ctx, model.ResourceOpenStreetMap)
	require.NoError(t, err)
	assert.Equal(t, 2, report.EntitiesChecked)
	assert.Zero(t, report.ImagesDropped)
	assert.Zero(t, report.EntitiesUpdated)
	assert.Zero(t, report.EntitiesDeleted)
}

func TestMaintenanceService_AuditImagesChecksEachURLOncePerBatch(t *testing.T) {
	f := newMaintenanceFixture(t)
	now := time.Now()
	f.insert(t, "e1", "N1", "Castle", now, "http://x/shared.jpg")
	f.insert(t, "e2", "N2", "Tower", now, "http://x/shared.jpg")

	checker := &fakeReachability{}
	svc := NewMaintenanceService(f.entities, checker, 10, 4, logger.NewNop())

	_, err := svc.AuditImages(context.Background(), model.ResourceOpenStreetMap)

	require.NoError(t, err)
	assert.Equal(t, 1, checker.calls["http://x/shared.jpg"])
}

func TestMaintenanceService_AuditImagesCancelledDoesNotDelete(t *testing.T) {
	f := newMaintenanceFixture(t)
	f.insert(t, "e1", "N1", "Castle", time.Now(), "http://x/ok.jpg")

	checker := &fakeReachability{}
	svc := NewMaintenanceService(f.entities, checker, 10, 4, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.AuditImages(ctx, model.ResourceOpenStreetMap)
	require.Error(t, err)

	count, err := f.entities.Count(context.Background(), model.ResourceOpenStreetMap)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMaintenanceService_PurgeDuplicates(t *testing.T) {
	f := newMaintenanceFixture(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	// 同一内容で作成日時が異なる3件。最も古いe-cが残る
	f.insert(t, "e-a", "N1", "Castle", base.Add(2*time.Hour), "http://x/a.jpg")
	f.insert(t, "e-b", "N2", "Castle", base.Add(1*time.Hour), "http://x/a.jpg")
	f.insert(t, "e-c", "N3", "Castle", base, "http://x/a.jpg")
	// 画像が違うので重複ではない
	f.insert(t, "e-d", "N4", "Castle", base, "http://x/other.jpg")
	// 作成日時が同じ場合はIDの小さい方が残る
	f.insert(t, "e-f", "N5", "Tower", base, "http://x/t.jpg")
	f.insert(t, "e-e", "N6", "Tower", base, "http://x/t.jpg")

	svc := NewMaintenanceService(f.entities, &fakeReachability{}, 2, 2, logger.NewNop())

	deleted, err := svc.PurgeDuplicates(ctx, model.ResourceOpenStreetMap)

	require.NoError(t, err)
	assert.Equal(t, 3, deleted)

	var remaining []string
	entities, err := f.entities.FindByProvenance(ctx, model.ResourceOpenStreetMap, "", 100)
	require.NoError(t, err)
	for _, e := range entities {
		remaining = append(remaining, e.ID)
	}
	assert.Equal(t, []string{"e-c", "e-d", "e-e"}, remaining)

	// 冪等
	deleted, err = svc.PurgeDuplicates(ctx, model.ResourceOpenStreetMap)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}
