package journey

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verdantlab/ranger/internal/models"
)

// memStore is an in-memory kv.Repository.
type memStore struct {
	data map[string][]byte
}

func newMemStore() *memStore { return &memStore{data: make(map[string][]byte)} }

func (s *memStore) Get(_ context.Context, key string) ([]byte, error) {
	return s.data[key], nil
}

func (s *memStore) Set(_ context.Context, key string, value []byte) error {
	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *memStore) Remove(_ context.Context, key string) error {
	delete(s.data, key)
	return nil
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestSetJourney_MergesPatchFields(t *testing.T) {
	tr := NewTracker(newMemStore())
	ctx := context.Background()

	_, err := tr.SetJourney(ctx, Patch{Photo: strPtr("a.jpg")})
	require.NoError(t, err)

	j, err := tr.SetJourney(ctx, Patch{
		Location: &models.Geocoordinate{Latitude: 1, Longitude: 2},
	})
	require.NoError(t, err)

	// earlier fields survive later patches
	assert.Equal(t, "a.jpg", j.Photo)
	require.NotNil(t, j.Location)
	assert.Equal(t, 1.0, j.Location.Latitude)
}

func TestSetJourney_PlantAndUpdateTargetsAreExclusive(t *testing.T) {
	tr := NewTracker(newMemStore())
	ctx := context.Background()

	j, err := tr.SetJourney(ctx, Patch{TreeIDToPlant: strPtr("0x0a")})
	require.NoError(t, err)
	assert.Equal(t, "0x0a", j.TreeIDToPlant)
	assert.Empty(t, j.TreeIDToUpdate)

	j, err = tr.SetJourney(ctx, Patch{TreeIDToUpdate: strPtr("0x0b")})
	require.NoError(t, err)
	assert.Equal(t, "0x0b", j.TreeIDToUpdate)
	assert.Empty(t, j.TreeIDToPlant, "setting an update target must clear the plant target")

	j, err = tr.SetJourney(ctx, Patch{TreeIDToPlant: strPtr("0x0c")})
	require.NoError(t, err)
	assert.Equal(t, "0x0c", j.TreeIDToPlant)
	assert.Empty(t, j.TreeIDToUpdate, "setting a plant target must clear the update target")
}

func TestSetJourney_IsSingleTriState(t *testing.T) {
	tr := NewTracker(newMemStore())
	ctx := context.Background()

	assert.Nil(t, tr.GetJourney().IsSingle, "unset until a mode is chosen")

	j, err := tr.SetJourney(ctx, Patch{IsSingle: boolPtr(false), NurseryCount: intPtr(5)})
	require.NoError(t, err)
	require.NotNil(t, j.IsSingle)
	assert.False(t, *j.IsSingle)
	assert.Equal(t, 5, j.NurseryCount)
}

func intPtr(n int) *int { return &n }

func TestTracker_SnapshotSurvivesRestart(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()

	tr := NewTracker(store)
	_, err := tr.SetJourney(ctx, Patch{
		Photo:         strPtr("a.jpg"),
		TreeIDToPlant: strPtr("0x2a"),
	})
	require.NoError(t, err)

	// a fresh tracker over the same store restores the journey
	tr2 := NewTracker(store)
	require.NoError(t, tr2.Load(ctx))

	j := tr2.GetJourney()
	assert.Equal(t, "a.jpg", j.Photo)
	assert.Equal(t, "0x2a", j.TreeIDToPlant)
}

func TestClearJourney_ResetsStateAndSnapshot(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()

	tr := NewTracker(store)
	_, err := tr.SetJourney(ctx, Patch{Photo: strPtr("a.jpg")})
	require.NoError(t, err)

	require.NoError(t, tr.ClearJourney(ctx))
	assert.Equal(t, models.Journey{}, tr.GetJourney())

	tr2 := NewTracker(store)
	require.NoError(t, tr2.Load(ctx))
	assert.Equal(t, models.Journey{}, tr2.GetJourney())
}
