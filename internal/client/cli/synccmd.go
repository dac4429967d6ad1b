package cli

import (
	"context"
	"fmt"

	"github.com/sitetrackr/fieldsync/internal/client/repositories/syncstate"
	"github.com/sitetrackr/fieldsync/internal/client/store"
)

// Sync runs one cycle now.
func (a *App) Sync(ctx context.Context) error {
	if !a.Online() {
		printlnFn("Offline. Queued changes will sync when the server is reachable.")
		return nil
	}
	if err := a.runner.Run(ctx); err != nil {
		printlnFn("Sync failed:", err.Error())
		return err
	}
	printlnFn("Sync complete.")
	return nil
}

// Bootstrap seeds the local cache with reference data and recent tickets
// and sites.
func (a *App) Bootstrap(ctx context.Context) error {
	a.bootstrap.Run(ctx)
	printlnFn("Bootstrap finished.")
	return nil
}

// Status prints connectivity, runner state, queue counters, and the pull
// cursor.
func (a *App) Status(ctx context.Context) error {
	repos := store.NewRepositories(a.db)

	pending, err := repos.Outbox.CountPending(ctx)
	if err != nil {
		return err
	}
	failed, err := repos.Outbox.CountFailed(ctx)
	if err != nil {
		return err
	}
	cursor, err := repos.SyncState.Get(ctx, syncstate.KeyLastSyncCursor)
	if err != nil {
		return err
	}

	a.modeMu.RLock()
	mode := a.mode
	a.modeMu.RUnlock()

	printlnFn("Mode:     ", string(mode))
	printlnFn("Sync:     ", string(a.status.Current()))
	printlnFn(fmt.Sprintf("Queue:     %d pending, %d failed", pending, failed))
	if cursor != nil {
		printlnFn("Cursor:   ", string(cursor))
	} else {
		printlnFn("Cursor:    (never pulled)")
	}
	return nil
}
