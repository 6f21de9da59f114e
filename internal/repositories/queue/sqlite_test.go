package queue

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verdantlab/ranger/internal/localdb"
	"github.com/verdantlab/ranger/internal/models"
	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := localdb.Open(context.Background(), filepath.Join(t.TempDir(), "queue.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testPayload(photo string) models.QueuePayload {
	single := true
	return models.QueuePayload{
		Photo:    photo,
		Location: &models.Geocoordinate{Latitude: 36.2, Longitude: 59.6},
		IsSingle: &single,
		Birthday: 1756600000,
	}
}

func TestEnqueueAndGet(t *testing.T) {
	db := setupDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	id, err := repo.Enqueue(ctx, models.KindPlantAssigned, testPayload("/tmp/a.jpg"), "0x1f")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	item, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.KindPlantAssigned, item.Kind)
	assert.Equal(t, "0x1f", item.TargetTreeID)
	assert.Equal(t, models.StatusPending, item.Status)
	assert.Equal(t, "/tmp/a.jpg", item.Payload.Photo)
	assert.Equal(t, int64(1756600000), item.Payload.Birthday)
	require.NotNil(t, item.Payload.Location)
	assert.InDelta(t, 36.2, item.Payload.Location.Latitude, 1e-9)
	assert.False(t, item.CreatedAt.IsZero())
}

func TestGet_NotFound(t *testing.T) {
	db := setupDB(t)
	repo := NewSQLiteRepository(db)

	_, err := repo.Get(context.Background(), "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListPending_InsertionOrderAndKindFilter(t *testing.T) {
	db := setupDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	first, err := repo.Enqueue(ctx, models.KindPlantNew, testPayload("1.jpg"), "")
	require.NoError(t, err)
	_, err = repo.Enqueue(ctx, models.KindUpdate, testPayload("2.jpg"), "0x02")
	require.NoError(t, err)
	second, err := repo.Enqueue(ctx, models.KindPlantNew, testPayload("3.jpg"), "")
	require.NoError(t, err)

	items, err := repo.ListPending(ctx, models.KindPlantNew)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, first, items[0].OfflineID)
	assert.Equal(t, second, items[1].OfflineID)

	n, err := repo.CountPending(ctx, models.KindUpdate)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMarkInFlight_ClaimsExclusively(t *testing.T) {
	db := setupDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	id, err := repo.Enqueue(ctx, models.KindPlantNew, testPayload("a.jpg"), "")
	require.NoError(t, err)

	require.NoError(t, repo.MarkInFlight(ctx, id))

	// second claim must fail, and the item must not show up as pending
	err = repo.MarkInFlight(ctx, id)
	require.ErrorIs(t, err, ErrAlreadyInFlight)

	items, err := repo.ListPending(ctx, models.KindPlantNew)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMarkInFlight_NotFound(t *testing.T) {
	db := setupDB(t)
	repo := NewSQLiteRepository(db)

	err := repo.MarkInFlight(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMarkFailed_ReturnsToPendingWithReason(t *testing.T) {
	db := setupDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	id, err := repo.Enqueue(ctx, models.KindUpdate, testPayload("a.jpg"), "0x0a")
	require.NoError(t, err)
	require.NoError(t, repo.MarkInFlight(ctx, id))

	require.NoError(t, repo.MarkFailed(ctx, id, "timeout"))

	item, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, item.Status)
	assert.Equal(t, "timeout", item.LastError)

	// failed item is claimable again
	require.NoError(t, repo.MarkInFlight(ctx, id))
}

func TestMarkSucceeded_RemovesItem(t *testing.T) {
	db := setupDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	id, err := repo.Enqueue(ctx, models.KindPlantNew, testPayload("a.jpg"), "")
	require.NoError(t, err)
	require.NoError(t, repo.MarkInFlight(ctx, id))

	require.NoError(t, repo.MarkSucceeded(ctx, id))

	_, err = repo.Get(ctx, id)
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, repo.MarkSucceeded(ctx, id), ErrNotFound)
}

func TestUpdatePayload_RewritesPayloadKeepsStatus(t *testing.T) {
	db := setupDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	single := false
	payload := testPayload("batch.jpg")
	payload.IsSingle = &single
	payload.NurseryCount = 3

	id, err := repo.Enqueue(ctx, models.KindPlantNew, payload, "")
	require.NoError(t, err)
	require.NoError(t, repo.MarkInFlight(ctx, id))

	payload.NurseryCount = 2
	require.NoError(t, repo.UpdatePayload(ctx, id, payload))

	item, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, item.Payload.NurseryCount)
	assert.Equal(t, models.StatusInFlight, item.Status)

	require.ErrorIs(t, repo.UpdatePayload(ctx, "missing", payload), ErrNotFound)
}

func TestQueue_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "queue.db")

	db, err := localdb.Open(ctx, dsn)
	require.NoError(t, err)
	repo := NewSQLiteRepository(db)

	id, err := repo.Enqueue(ctx, models.KindPlantNew, testPayload("a.jpg"), "")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = localdb.Open(ctx, dsn)
	require.NoError(t, err)
	defer db.Close()

	item, err := NewSQLiteRepository(db).Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, item.Status)
	assert.Equal(t, "a.jpg", item.Payload.Photo)
}

func TestQueue_ReopenRecoversInFlightItem(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "queue.db")

	db, err := localdb.Open(ctx, dsn)
	require.NoError(t, err)
	repo := NewSQLiteRepository(db)

	id, err := repo.Enqueue(ctx, models.KindPlantNew, testPayload("a.jpg"), "")
	require.NoError(t, err)
	require.NoError(t, repo.MarkInFlight(ctx, id))

	// simulate a crash mid-flush: the claimed item never reaches MarkFailed
	require.NoError(t, db.Close())

	db, err = localdb.Open(ctx, dsn)
	require.NoError(t, err)
	defer db.Close()
	repo = NewSQLiteRepository(db)

	items, err := repo.ListPending(ctx, models.KindPlantNew)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, id, items[0].OfflineID)
	assert.Equal(t, models.StatusPending, items[0].Status)
	assert.Equal(t, "interrupted", items[0].LastError)

	// the recovered item is claimable by the next flush
	require.NoError(t, repo.MarkInFlight(ctx, id))
}
