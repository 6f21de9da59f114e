// Package journey tracks the in-progress state of a single tree submission.
//
// The tracker owns the journey exclusively: the UI flow merges fields into it
// step by step and either finalizes (enqueue/submit, then Clear) or cancels.
// Snapshots are persisted so a flow interrupted by an app restart can resume,
// but durability of offline intents is the queue's job, not the tracker's.
package journey

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/verdantlab/ranger/internal/models"
	"github.com/verdantlab/ranger/internal/repositories/kv"
)

const snapshotKey = "current_journey"

// Patch is a partial journey; nil fields are left untouched on merge.
type Patch struct {
	Photo          *string
	PhotoLocation  *models.Geocoordinate
	Location       *models.Geocoordinate
	TreeIDToPlant  *string
	TreeIDToUpdate *string
	IsSingle       *bool
	NurseryCount   *int
}

// Tracker holds the current journey and persists an advisory snapshot after
// every mutation.
type Tracker struct {
	mu      sync.Mutex
	current models.Journey
	store   kv.Repository
}

// NewTracker returns a tracker persisting snapshots to store.
func NewTracker(store kv.Repository) *Tracker {
	return &Tracker{store: store}
}

// Load restores the persisted snapshot, if any. Called once at startup.
func (t *Tracker) Load(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	data, err := t.store.Get(ctx, snapshotKey)
	if err != nil {
		return fmt.Errorf("failed to load journey snapshot: %w", err)
	}
	if data == nil {
		return nil
	}
	if err := json.Unmarshal(data, &t.current); err != nil {
		return fmt.Errorf("failed to decode journey snapshot: %w", err)
	}
	return nil
}

// SetJourney merges the patch into the current journey, last write wins per
// field. Setting a plant target clears an update target and vice versa, so
// the two are never set at once. No validation happens here; callers
// validate before handing the journey to the upload pipeline.
func (t *Tracker) SetJourney(ctx context.Context, p Patch) (models.Journey, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if p.Photo != nil {
		t.current.Photo = *p.Photo
	}
	if p.PhotoLocation != nil {
		loc := *p.PhotoLocation
		t.current.PhotoLocation = &loc
	}
	if p.Location != nil {
		loc := *p.Location
		t.current.Location = &loc
	}
	if p.TreeIDToPlant != nil {
		t.current.TreeIDToPlant = *p.TreeIDToPlant
		t.current.TreeIDToUpdate = ""
	}
	if p.TreeIDToUpdate != nil {
		t.current.TreeIDToUpdate = *p.TreeIDToUpdate
		t.current.TreeIDToPlant = ""
	}
	if p.IsSingle != nil {
		v := *p.IsSingle
		t.current.IsSingle = &v
	}
	if p.NurseryCount != nil {
		t.current.NurseryCount = *p.NurseryCount
	}

	if err := t.persist(ctx); err != nil {
		return t.current, err
	}
	return t.current, nil
}

// GetJourney returns a snapshot of the current journey.
func (t *Tracker) GetJourney() models.Journey {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// ClearJourney resets the journey and removes the persisted snapshot.
func (t *Tracker) ClearJourney(ctx context.Context) error {
	return t.ClearJourneyIn(ctx, t.store)
}

// ClearJourneyIn is ClearJourney through an alternate store handle, so the
// snapshot removal can join a caller's transaction.
func (t *Tracker) ClearJourneyIn(ctx context.Context, store kv.Repository) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.current = models.Journey{}
	if err := store.Remove(ctx, snapshotKey); err != nil {
		return fmt.Errorf("failed to remove journey snapshot: %w", err)
	}
	return nil
}

func (t *Tracker) persist(ctx context.Context) error {
	data, err := json.Marshal(t.current)
	if err != nil {
		return fmt.Errorf("failed to encode journey snapshot: %w", err)
	}
	if err := t.store.Set(ctx, snapshotKey, data); err != nil {
		return fmt.Errorf("failed to persist journey snapshot: %w", err)
	}
	return nil
}
