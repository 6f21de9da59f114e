package sync

import (
	"context"
	"sync"
	"time"

	"github.com/verdantlab/ranger/internal/logging"
	"github.com/verdantlab/ranger/internal/models"
)

// Connectivity is the "is online" signal the orchestrator consumes. The
// callback fires on every state flip with the new state.
type Connectivity interface {
	Subscribe(fn func(online bool)) (unsubscribe func())
}

// Probe checks reachability of some backend; nil means online.
type Probe func(ctx context.Context) error

// Watcher polls a probe on an interval and notifies subscribers when the
// online state flips. It implements Connectivity.
type Watcher struct {
	probe    Probe
	interval time.Duration
	log      logging.Logger

	mu     sync.Mutex
	subs   map[int]func(bool)
	nextID int
	online bool
}

// NewWatcher returns a watcher probing every interval. The initial state is
// offline until the first successful probe.
func NewWatcher(probe Probe, interval time.Duration, log logging.Logger) *Watcher {
	return &Watcher{
		probe:    probe,
		interval: interval,
		log:      log,
		subs:     make(map[int]func(bool)),
	}
}

func (w *Watcher) Subscribe(fn func(online bool)) func() {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := w.nextID
	w.nextID++
	w.subs[id] = fn

	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.subs, id)
	}
}

// Run polls until ctx is cancelled. Probes get their own short timeout so a
// hanging network call cannot stall the loop.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.check(ctx)
	for {
		select {
		case <-ticker.C:
			w.check(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) check(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	err := w.probe(probeCtx)
	cancel()

	online := err == nil

	w.mu.Lock()
	flipped := online != w.online
	w.online = online
	var subs []func(bool)
	if flipped {
		for _, fn := range w.subs {
			subs = append(subs, fn)
		}
	}
	w.mu.Unlock()

	if !flipped {
		return
	}
	w.log.Info(ctx, "connectivity changed", "online", online)
	for _, fn := range subs {
		fn(online)
	}
}

// Start subscribes the orchestrator to the connectivity signal: every
// offline-to-online flip triggers a background flush of all kinds. The
// returned unsubscribe detaches the trigger; a flush already running keeps
// going regardless.
func (o *Orchestrator) Start(ctx context.Context, conn Connectivity) (unsubscribe func()) {
	return conn.Subscribe(func(online bool) {
		if !online {
			return
		}
		go func() {
			for _, kind := range []models.QueueKind{
				models.KindPlantNew, models.KindPlantAssigned, models.KindUpdate,
			} {
				if err := o.FlushAll(ctx, kind); err != nil {
					o.log.Error(ctx, "automatic flush failed", "kind", string(kind), "error", err)
				}
			}
		}()
	})
}
