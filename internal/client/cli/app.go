// Package cli is the interactive surface of fieldsync: a small REPL over
// the local cache, the mutation façade, and the sync runner, plus the
// background goroutines that keep the cache fresh (sync ticker, online
// watcher).
package cli

import (
	"bufio"
	"context"
	"database/sql"
	"os"
	stdsync "sync"
	"time"

	"github.com/sitetrackr/fieldsync/internal/client/api"
	"github.com/sitetrackr/fieldsync/internal/client/config"
	"github.com/sitetrackr/fieldsync/internal/client/mutations"
	"github.com/sitetrackr/fieldsync/internal/client/query"
	"github.com/sitetrackr/fieldsync/internal/client/store"
	"github.com/sitetrackr/fieldsync/internal/client/sync"
	"github.com/sitetrackr/fieldsync/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// App wires the whole client together for the REPL.
type App struct {
	config    *config.Config
	db        *sql.DB
	client    api.Client
	muts      *mutations.Service
	runner    *sync.Runner
	bootstrap *sync.Bootstrap
	status    *sync.Broadcaster
	cache     *query.MemoryCache
	log       logging.Logger
	reader    *bufio.Reader

	modeMu stdsync.RWMutex
	mode   Mode
}

func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	db, err := store.Open(ctx, c.DatabasePath)
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	a := &App{
		config: c,
		db:     db,
		client: api.NewHTTPClient(c.ServerEndpointAddr, c.APIToken, nil),
		status: sync.NewBroadcaster(),
		cache:  query.NewMemoryCache(),
		log:    log,
		reader: bufio.NewReader(os.Stdin),
		mode:   ModeOffline,
	}

	a.muts = mutations.NewService(db, log, c.MaxAttachmentBytes)
	a.runner = sync.NewRunner(db, a.client, a.Online, a.status, log)
	a.bootstrap = sync.NewBootstrap(db, a.client, log, c.BootstrapTTL, c.BootstrapPageSize, c.BootstrapPages)

	return a, nil
}

// Online reports the mode maintained by the online status watcher.
func (a *App) Online() bool {
	a.modeMu.RLock()
	defer a.modeMu.RUnlock()
	return a.mode == ModeOnline
}

func (a *App) setMode(ctx context.Context, mode Mode) {
	a.modeMu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.modeMu.Unlock()

	if changed {
		printlnFn("Switched to " + string(mode) + " mode")
		// coming back online is the moment queued work can drain
		if mode == ModeOnline {
			go func() { _ = a.runner.Run(ctx) }()
		}
	}
}

// queryOpts builds the shared environment for cache-first reads.
func (a *App) queryOpts() query.Options {
	return query.Options{
		Online: a.Online,
		Cache:  a.cache,
		TTL:    time.Minute,
		Log:    a.log,
	}
}

// StartOnlineStatusWatcher probes the server every interval and flips the
// mode on reachability changes. An offline→online edge triggers a sync run.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := a.client.Ping(pctx)
			cancel()

			if err != nil {
				a.setMode(ctx, ModeOffline)
			} else {
				a.setMode(ctx, ModeOnline)
			}

		case <-ctx.Done():
			return
		}
	}
}

// StartSyncTicker runs a sync cycle every interval. The runner itself
// no-ops while offline or mid-cycle.
func (a *App) StartSyncTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = a.runner.Run(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Run is the REPL entrypoint; it blocks until the user exits or ctx ends.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)
	go a.StartSyncTicker(ctx, a.config.SyncInterval)

	// best-effort cache warm before the first prompt
	go a.bootstrap.Run(ctx)

	printlnFn("fieldsync CLI (type 'help' for commands)")
	runREPL(ctx, a, a.promptStatus, bufio.NewScanner(os.Stdin))
}

func (a *App) promptStatus() string {
	a.modeMu.RLock()
	mode := a.mode
	a.modeMu.RUnlock()
	return string(mode) + " " + string(a.status.Current())
}

func (a *App) Close() {
	a.cache.Close()
	_ = a.db.Close()
}
