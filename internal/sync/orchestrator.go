// Package sync drives queued submissions through the two-phase commit:
// content upload, then transaction submission. It is the only place where
// pipeline failures are translated into queue transitions, so no failure can
// leave an item stuck in flight.
package sync

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync/atomic"

	"github.com/verdantlab/ranger/internal/chain"
	"github.com/verdantlab/ranger/internal/logging"
	"github.com/verdantlab/ranger/internal/models"
	"github.com/verdantlab/ranger/internal/repositories/queue"
	"github.com/verdantlab/ranger/internal/upload"
)

// Uploader is the content upload half of the pipeline.
type Uploader interface {
	UploadSubmission(ctx context.Context, sub upload.Context) (string, error)
}

// Notifier receives user-facing progress events. Implementations belong to
// the UI layer; NopNotifier is used where nothing listens.
type Notifier interface {
	SubmissionConfirmed(item models.QueueItem, receipt models.Receipt)
	SubmissionFailed(item models.QueueItem, reason string)
	FlushFinished(kind models.QueueKind, confirmed, failed int)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) SubmissionConfirmed(models.QueueItem, models.Receipt)  {}
func (NopNotifier) SubmissionFailed(models.QueueItem, string)             {}
func (NopNotifier) FlushFinished(models.QueueKind, int, int)              {}

// Orchestrator flushes the offline queue when triggered by connectivity or
// by an explicit user action. Items are processed strictly in insertion
// order, one at a time; per-item exclusivity is guaranteed solely by the
// queue's MarkInFlight transition.
type Orchestrator struct {
	queue     queue.Repository
	uploader  Uploader
	submitter chain.Submitter
	notifier  Notifier
	log       logging.Logger

	useRelay  atomic.Bool
	minimized atomic.Bool
}

// NewOrchestrator wires the two pipelines to the durable queue.
func NewOrchestrator(q queue.Repository, up Uploader, sub chain.Submitter, n Notifier, log logging.Logger) *Orchestrator {
	if n == nil {
		n = NopNotifier{}
	}
	return &Orchestrator{queue: q, uploader: up, submitter: sub, notifier: n, log: log}
}

// SetUseRelay switches between gasless relay and direct submission. Read at
// each submission attempt, so disabling the relay takes effect on the next
// retry.
func (o *Orchestrator) SetUseRelay(v bool) { o.useRelay.Store(v) }

// UseRelay reports the current strategy.
func (o *Orchestrator) UseRelay() bool { return o.useRelay.Load() }

// Minimize hides progress UI without pausing the flush.
func (o *Orchestrator) Minimize() { o.minimized.Store(true) }

// Restore re-shows progress UI.
func (o *Orchestrator) Restore() { o.minimized.Store(false) }

// Minimized reports whether progress UI is hidden.
func (o *Orchestrator) Minimized() bool { return o.minimized.Load() }

// FlushAll processes every pending item of the given kind in queue order.
// A failing item is returned to pending and processing continues with the
// next one; the error count is reported through the notifier.
func (o *Orchestrator) FlushAll(ctx context.Context, kind models.QueueKind) error {
	items, err := o.queue.ListPending(ctx, kind)
	if err != nil {
		return fmt.Errorf("failed to list pending items: %w", err)
	}

	var confirmed, failed int
	for _, item := range items {
		ok, err := o.flushItem(ctx, item)
		if err != nil {
			failed++
			continue
		}
		if ok {
			confirmed++
		}
	}

	o.notifier.FlushFinished(kind, confirmed, failed)
	return nil
}

// FlushOne processes a single queued item by offline id.
func (o *Orchestrator) FlushOne(ctx context.Context, offlineID string) error {
	item, err := o.queue.Get(ctx, offlineID)
	if err != nil {
		return err
	}
	_, err = o.flushItem(ctx, *item)
	return err
}

// flushItem runs one item through upload and submission. The returned bool
// is false when the item was skipped because another flush already claimed
// it. Any failure past MarkInFlight ends in MarkFailed: the item is never
// left in flight.
func (o *Orchestrator) flushItem(ctx context.Context, item models.QueueItem) (ok bool, err error) {
	if err := o.queue.MarkInFlight(ctx, item.OfflineID); err != nil {
		if errors.Is(err, queue.ErrAlreadyInFlight) {
			o.log.Info(ctx, "item already claimed by another flush", "offline_id", item.OfflineID)
			return false, nil
		}
		return false, err
	}

	defer func() {
		if err == nil {
			return
		}
		reason := failureReason(err)
		if mfErr := o.queue.MarkFailed(ctx, item.OfflineID, reason); mfErr != nil {
			o.log.Error(ctx, "failed to release item", "offline_id", item.OfflineID, "error", mfErr)
		}
		o.notifier.SubmissionFailed(item, reason)
	}()

	metaHash, err := o.uploader.UploadSubmission(ctx, submissionContext(item))
	if err != nil {
		o.log.Error(ctx, "content upload failed", "offline_id", item.OfflineID, "error", err)
		return false, err
	}

	receipt, err := o.submit(ctx, item, metaHash)
	if err != nil {
		o.log.Error(ctx, "transaction failed", "offline_id", item.OfflineID, "error", err)
		return false, err
	}

	if err = o.queue.MarkSucceeded(ctx, item.OfflineID); err != nil {
		return false, err
	}

	o.log.Info(ctx, "submission confirmed",
		"offline_id", item.OfflineID, "tx_hash", receipt.TxHash)
	o.notifier.SubmissionConfirmed(item, *receipt)
	return true, nil
}

// submit builds and sends the transaction(s) for the item. A nursery batch
// anchors one plantTree transaction per seedling, sequentially; the last
// receipt is returned. Progress inside a batch is written back to the queue
// after every confirmed seedling, so a retry after a mid-batch failure plants
// only the remainder instead of duplicating confirmed trees.
func (o *Orchestrator) submit(ctx context.Context, item models.QueueItem, metaHash string) (*models.Receipt, error) {
	useRelay := o.useRelay.Load()

	switch item.Kind {
	case models.KindPlantAssigned:
		treeID, err := chain.Hex2Dec(item.TargetTreeID)
		if err != nil {
			return nil, &chain.ChainError{Detail: err.Error()}
		}
		return o.submitter.Submit(ctx, chain.PlantAssignedTree(treeID, metaHash, item.Payload.Birthday), useRelay)

	case models.KindUpdate:
		treeID, err := chain.Hex2Dec(item.TargetTreeID)
		if err != nil {
			return nil, &chain.ChainError{Detail: err.Error()}
		}
		return o.submitter.Submit(ctx, chain.UpdateTree(treeID, metaHash), useRelay)

	default:
		count := 1
		if item.Payload.IsSingle != nil && !*item.Payload.IsSingle && item.Payload.NurseryCount > 1 {
			count = item.Payload.NurseryCount
		}
		var receipt *models.Receipt
		for remaining := count; remaining > 0; remaining-- {
			rec, err := o.submitter.Submit(ctx, chain.PlantTree(metaHash, item.Payload.Birthday), useRelay)
			if err != nil {
				return nil, err
			}
			receipt = rec
			if remaining > 1 {
				item.Payload.NurseryCount = remaining - 1
				if err := o.queue.UpdatePayload(ctx, item.OfflineID, item.Payload); err != nil {
					return nil, fmt.Errorf("failed to record batch progress: %w", err)
				}
			}
		}
		return receipt, nil
	}
}

// SubmitWithdraw sends a withdrawal through the same relay/direct decision
// the queue flush uses. Withdrawals are not queued; they only make sense
// online.
func (o *Orchestrator) SubmitWithdraw(ctx context.Context, amount *big.Int) (*models.Receipt, error) {
	return o.submitter.Submit(ctx, chain.Withdraw(amount), o.useRelay.Load())
}

func submissionContext(item models.QueueItem) upload.Context {
	nursery := item.Payload.IsSingle != nil && !*item.Payload.IsSingle
	return upload.Context{
		Kind:          item.Kind,
		TargetTreeID:  item.TargetTreeID,
		Photo:         item.Payload.Photo,
		Location:      item.Payload.Location,
		PhotoLocation: item.Payload.PhotoLocation,
		Birthday:      item.Payload.Birthday,
		Nursery:       nursery,
	}
}

// failureReason extracts the text stored with the queue item. Chain errors
// keep just their detail so the UI shows the node's message, not the
// wrapping.
func failureReason(err error) string {
	var ce *chain.ChainError
	if errors.As(err, &ce) {
		return ce.Detail
	}
	return err.Error()
}
