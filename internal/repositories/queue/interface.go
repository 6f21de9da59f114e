// Package queue stores pending plant/update intents durably so that a
// submission captured offline survives process restarts until its
// transaction is confirmed.
package queue

import (
	"context"
	"errors"

	"github.com/verdantlab/ranger/internal/models"
)

var (
	// ErrAlreadyInFlight is returned by MarkInFlight when another flush has
	// already claimed the item. Callers skip the item; the error is never
	// surfaced to the user.
	ErrAlreadyInFlight = errors.New("item already in flight")

	// ErrNotFound is returned when no item exists for the given offline id.
	ErrNotFound = errors.New("queue item not found")
)

// Repository is the durable offline queue. All state transitions go through
// the exclusive Mark* operations; MarkInFlight is the only concurrency guard
// in the system.
type Repository interface {
	// Enqueue appends a pending item and returns its freshly generated
	// offline id. The item is persisted before Enqueue returns.
	Enqueue(ctx context.Context, kind models.QueueKind, payload models.QueuePayload, targetTreeID string) (string, error)

	// ListPending returns pending items of the given kind in insertion order.
	ListPending(ctx context.Context, kind models.QueueKind) ([]models.QueueItem, error)

	// Get returns a single item by offline id.
	Get(ctx context.Context, offlineID string) (*models.QueueItem, error)

	// MarkInFlight transitions pending -> in_flight. It fails with
	// ErrAlreadyInFlight if the item is already claimed.
	MarkInFlight(ctx context.Context, offlineID string) error

	// MarkSucceeded removes the item permanently.
	MarkSucceeded(ctx context.Context, offlineID string) error

	// MarkFailed returns the item to pending and records the failure reason.
	// The item is never dropped on failure.
	MarkFailed(ctx context.Context, offlineID string, reason string) error

	// UpdatePayload rewrites the stored payload without touching the status.
	// The orchestrator uses it to record partial progress inside a batch item.
	UpdatePayload(ctx context.Context, offlineID string, payload models.QueuePayload) error

	// CountPending returns the number of pending items of the given kind.
	CountPending(ctx context.Context, kind models.QueueKind) (int, error)
}
