package sync

import (
	"context"
	"database/sql"
	stdsync "sync"
	"time"

	"github.com/sitetrackr/fieldsync/internal/client/api"
	"github.com/sitetrackr/fieldsync/internal/client/repositories/syncstate"
	"github.com/sitetrackr/fieldsync/internal/client/store"
	"github.com/sitetrackr/fieldsync/internal/logging"
)

// Bootstrap seeds the local cache for first-time offline use: all reference
// data plus the most recently updated pages of tickets and sites. It is
// best-effort: a collection that fails to fetch is logged and skipped,
// never surfaced to the caller.
type Bootstrap struct {
	db       *sql.DB
	client   api.Client
	log      logging.Logger
	ttl      time.Duration
	pageSize int
	pages    int
	now      func() time.Time
}

func NewBootstrap(db *sql.DB, client api.Client, log logging.Logger, ttl time.Duration, pageSize, pages int) *Bootstrap {
	return &Bootstrap{
		db: db, client: client, log: log,
		ttl: ttl, pageSize: pageSize, pages: pages,
		now: time.Now,
	}
}

// Run seeds the cache unless a bootstrap already completed within the TTL
// window. Collections are fetched concurrently; whatever succeeded is
// persisted and the bootstrap time is stamped regardless, so repeated calls
// inside the window stay cheap.
func (b *Bootstrap) Run(ctx context.Context) {
	repos := store.NewRepositories(b.db)

	if raw, err := repos.SyncState.Get(ctx, syncstate.KeyLastBootstrapAt); err == nil && raw != nil {
		if at, perr := time.Parse(time.RFC3339, string(raw)); perr == nil && b.now().Sub(at) < b.ttl {
			b.log.Debug(ctx, "bootstrap skipped, within ttl window", "at", string(raw))
			return
		}
	}

	type outcome struct {
		collection string
		err        error
	}

	var wg stdsync.WaitGroup
	outcomes := make(chan outcome, 5)

	seed := func(collection string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes <- outcome{collection, fn(ctx)}
		}()
	}

	seed("templates", func(ctx context.Context) error {
		ts, err := b.client.ListTemplates(ctx)
		if err != nil {
			return err
		}
		return repos.Reference.UpsertTemplates(ctx, ts)
	})
	seed("siteOwners", func(ctx context.Context) error {
		os, err := b.client.ListSiteOwners(ctx)
		if err != nil {
			return err
		}
		return repos.Reference.ReplaceSiteOwners(ctx, os)
	})
	seed("fieldDefs", func(ctx context.Context) error {
		fs, err := b.client.ListFieldDefs(ctx)
		if err != nil {
			return err
		}
		return repos.Reference.ReplaceFieldDefs(ctx, fs)
	})
	seed("tickets", func(ctx context.Context) error {
		for page := 1; page <= b.pages; page++ {
			ts, err := b.client.ListTickets(ctx, page, b.pageSize)
			if err != nil {
				return err
			}
			if err := repos.Tickets.UpsertSummaries(ctx, ts); err != nil {
				return err
			}
			if len(ts) < b.pageSize {
				break
			}
		}
		return nil
	})
	seed("sites", func(ctx context.Context) error {
		for page := 1; page <= b.pages; page++ {
			ss, err := b.client.ListSites(ctx, page, b.pageSize)
			if err != nil {
				return err
			}
			if err := repos.Sites.UpsertAll(ctx, ss); err != nil {
				return err
			}
			if len(ss) < b.pageSize {
				break
			}
		}
		return nil
	})

	wg.Wait()
	close(outcomes)

	for o := range outcomes {
		if o.err != nil {
			b.log.Warn(ctx, "bootstrap collection failed", "collection", o.collection, "error", o.err)
		}
	}

	stamp := b.now().UTC().Format(time.RFC3339)
	if err := repos.SyncState.Set(ctx, syncstate.KeyLastBootstrapAt, []byte(stamp)); err != nil {
		b.log.Warn(ctx, "failed to record bootstrap time", "error", err)
	}
}
