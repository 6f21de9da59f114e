package sync

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verdantlab/ranger/internal/logging"
	"github.com/verdantlab/ranger/internal/models"
)

func watcherLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestWatcher_NotifiesOnFlipOnly(t *testing.T) {
	var online atomic.Bool
	probe := func(context.Context) error {
		if online.Load() {
			return nil
		}
		return errors.New("unreachable")
	}

	w := NewWatcher(probe, time.Millisecond, watcherLogger())

	var mu sync.Mutex
	var events []bool
	w.Subscribe(func(v bool) {
		mu.Lock()
		events = append(events, v)
		mu.Unlock()
	})

	ctx := context.Background()

	w.check(ctx)
	w.check(ctx) // still offline, no event

	online.Store(true)
	w.check(ctx)
	w.check(ctx) // still online, no event

	online.Store(false)
	w.check(ctx)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{true, false}, events)
}

func TestWatcher_Unsubscribe(t *testing.T) {
	w := NewWatcher(func(context.Context) error { return nil }, time.Millisecond, watcherLogger())

	var calls atomic.Int32
	unsubscribe := w.Subscribe(func(bool) { calls.Add(1) })

	w.check(context.Background())
	require.Equal(t, int32(1), calls.Load())

	unsubscribe()
	w.online = false // force the next check to flip again
	w.check(context.Background())
	assert.Equal(t, int32(1), calls.Load())
}

// fakeConn lets the test fire connectivity flips directly.
type fakeConn struct {
	mu  sync.Mutex
	fns []func(bool)
}

func (c *fakeConn) Subscribe(fn func(online bool)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fns = append(c.fns, fn)
	return func() {}
}

func (c *fakeConn) fire(online bool) {
	c.mu.Lock()
	fns := append(([]func(bool))(nil), c.fns...)
	c.mu.Unlock()
	for _, fn := range fns {
		fn(online)
	}
}

func TestOrchestratorStart_FlushesOnReconnect(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	enqueue(t, f, models.KindPlantNew, "", singlePayload("a.jpg"))
	enqueue(t, f, models.KindUpdate, "0x1f", singlePayload("b.jpg"))

	conn := &fakeConn{}
	unsubscribe := f.orch.Start(ctx, conn)
	defer unsubscribe()

	conn.fire(false) // going offline must not flush
	conn.fire(true)

	require.Eventually(t, func() bool {
		n1, err := f.repo.CountPending(ctx, models.KindPlantNew)
		require.NoError(t, err)
		n2, err := f.repo.CountPending(ctx, models.KindUpdate)
		require.NoError(t, err)
		return n1 == 0 && n2 == 0
	}, 2*time.Second, 10*time.Millisecond, "reconnect must drain the queue")

	assert.Len(t, f.submitter.calls, 2)
}
