package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verdantlab/ranger/internal/journey"
	"github.com/verdantlab/ranger/internal/localdb"
	"github.com/verdantlab/ranger/internal/models"
	"github.com/verdantlab/ranger/internal/repositories/kv"
	"github.com/verdantlab/ranger/internal/repositories/queue"
	_ "modernc.org/sqlite"
)

func TestEnqueueAndClear_CommitsItemAndSnapshotRemovalTogether(t *testing.T) {
	ctx := context.Background()
	db, err := localdb.Open(ctx, filepath.Join(t.TempDir(), "cli.db"))
	require.NoError(t, err)
	defer db.Close()

	kvRepo := kv.NewSQLiteRepository(db)
	tracker := journey.NewTracker(kvRepo)
	photo := "tree.jpg"
	single := true
	_, err = tracker.SetJourney(ctx, journey.Patch{Photo: &photo, IsSingle: &single})
	require.NoError(t, err)

	payload := models.QueuePayload{Photo: photo, IsSingle: &single, Birthday: 1756600000}
	id, err := enqueueAndClear(ctx, db, tracker, models.KindPlantNew, payload, "")
	require.NoError(t, err)

	item, err := queue.NewSQLiteRepository(db).Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, item.Status)
	assert.Equal(t, photo, item.Payload.Photo)

	// journey is gone both in memory and on disk
	assert.Empty(t, tracker.GetJourney().Photo)
	require.NoError(t, tracker.Load(ctx))
	assert.Empty(t, tracker.GetJourney().Photo)
}
