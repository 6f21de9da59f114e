// Package cli is the interactive front end of the ranger client: it owns the
// journey flow, the offline queue commands, and the connectivity watcher
// that triggers automatic flushes.
package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/verdantlab/ranger/internal/chain"
	"github.com/verdantlab/ranger/internal/config"
	"github.com/verdantlab/ranger/internal/filex"
	"github.com/verdantlab/ranger/internal/ipfs"
	"github.com/verdantlab/ranger/internal/journey"
	"github.com/verdantlab/ranger/internal/localdb"
	"github.com/verdantlab/ranger/internal/logging"
	"github.com/verdantlab/ranger/internal/repositories/kv"
	"github.com/verdantlab/ranger/internal/repositories/queue"
	ranger "github.com/verdantlab/ranger/internal/sync"
	"github.com/verdantlab/ranger/internal/upload"

	_ "modernc.org/sqlite"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config  *config.Config
	log     logging.Logger
	db      *sql.DB
	tracker *journey.Tracker
	queue   queue.Repository
	orch    *ranger.Orchestrator
	watcher *ranger.Watcher
	direct  *chain.DirectClient
	Mode    Mode
	reader  *bufio.Reader
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	// Relative paths for local state resolve into a data subdirectory so the
	// queue database and the keystore survive restarts from the same cwd.
	dataDir, err := filex.EnsureSubdDir("data")
	if err != nil {
		return nil, err
	}
	if !filepath.IsAbs(c.DatabaseDSN) {
		c.DatabaseDSN = filepath.Join(dataDir, c.DatabaseDSN)
	}
	if !filepath.IsAbs(c.KeystorePath) {
		c.KeystorePath = filepath.Join(dataDir, c.KeystorePath)
	}

	db, err := localdb.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	kvRepo := kv.NewSQLiteRepository(db)
	queueRepo := queue.NewSQLiteRepository(db)

	tracker := journey.NewTracker(kvRepo)
	if err := tracker.Load(ctx); err != nil {
		return nil, err
	}

	signer, err := unlockSigner(c, os.Stdout)
	if err != nil {
		return nil, err
	}

	direct := chain.NewDirectClient(c.ChainRPCAddr, c.ContractAddr, signer)

	var relay *chain.RelayClient
	if c.RelayConfigured() {
		relay = chain.NewRelayClient(chain.RelayConfig{
			URL:       c.RelayURL,
			AppID:     c.RelayAppID,
			APISecret: c.RelayAPISecret,
			Contract:  c.ContractAddr,
		}, signer)
	}
	submitter := chain.NewPipeline(relay, direct, log)

	store, err := contentStore(ctx, c)
	if err != nil {
		return nil, err
	}
	uploader := upload.NewPipeline(store, direct, c.IPFSGatewayURL, log)

	app := &App{
		config:  c,
		log:     log,
		db:      db,
		tracker: tracker,
		queue:   queueRepo,
		direct:  direct,
		Mode:    ModeOffline,
		reader:  bufio.NewReader(os.Stdin),
	}

	notifier := &printNotifier{}
	app.orch = ranger.NewOrchestrator(queueRepo, uploader, submitter, notifier, log)
	notifier.orch = app.orch
	app.orch.SetUseRelay(c.UseRelay && c.RelayConfigured())
	app.watcher = ranger.NewWatcher(direct.Ping, c.OnlineCheckInterval, log)

	return app, nil
}

func contentStore(ctx context.Context, c *config.Config) (ipfs.ContentStore, error) {
	switch c.StorageBackend {
	case config.StorageS3:
		return ipfs.NewS3Store(ctx, c.S3)
	default:
		return ipfs.NewHTTPStore(c.IPFSAddURL), nil
	}
}

func (a *App) setMode(mode Mode) {
	if a.Mode != mode {
		a.Mode = mode
		fmt.Printf("Switched to %s mode\n", mode)
	}
}

// Run starts the connectivity watcher, attaches the automatic flush trigger,
// and enters the command loop.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.watcher.Run(ctx)

	unsubscribeFlush := a.orch.Start(ctx, a.watcher)
	defer unsubscribeFlush()

	unsubscribeMode := a.watcher.Subscribe(func(online bool) {
		if online {
			a.setMode(ModeOnline)
		} else {
			a.setMode(ModeOffline)
		}
	})
	defer unsubscribeMode()

	a.Root(ctx)
}

// flushInBackground fires a non-blocking flush of every kind, the same path
// the connectivity trigger takes.
func (a *App) flushInBackground(ctx context.Context) {
	go func() {
		for _, kind := range allKinds() {
			if err := a.orch.FlushAll(ctx, kind); err != nil {
				a.log.Error(ctx, "flush failed", "kind", string(kind), "error", err)
			}
		}
	}()
}
