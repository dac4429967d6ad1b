package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sitetrackr/fieldsync/internal/client/models"
	"github.com/sitetrackr/fieldsync/internal/client/repositories/syncstate"
	"github.com/sitetrackr/fieldsync/internal/client/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBootstrap_SeedsEverything(t *testing.T) {
	ctx := context.Background()

	db, err := store.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	repos := store.NewRepositories(db)

	client := &fakeClient{
		templates:  []models.Template{{ID: "tpl1", Name: "Inspection"}},
		siteOwners: []models.SiteOwner{{ID: "o1", Name: "Acme"}},
		fieldDefs:  []models.FieldDef{{ID: "f1", Key: "roofType", Kind: "select"}},
		tickets:    []models.TicketSummary{{ID: "t1", Title: "Leak", UpdatedAt: "2026-08-29T10:00:00Z"}},
		sites:      []models.Site{{ID: "s1", Name: "Plant A"}},
	}

	b := NewBootstrap(db, client, testLogger(), 5*time.Minute, 50, 2)
	b.Run(ctx)

	ts, err := repos.Reference.ListTemplates(ctx)
	require.NoError(t, err)
	assert.Len(t, ts, 1)

	os, err := repos.Reference.ListSiteOwners(ctx)
	require.NoError(t, err)
	assert.Len(t, os, 1)

	fs, err := repos.Reference.ListFieldDefs(ctx)
	require.NoError(t, err)
	assert.Len(t, fs, 1)

	summaries, err := repos.Tickets.ListSummaries(ctx)
	require.NoError(t, err)
	assert.Len(t, summaries, 1)

	ss, err := repos.Sites.List(ctx)
	require.NoError(t, err)
	assert.Len(t, ss, 1)

	at, err := repos.SyncState.Get(ctx, syncstate.KeyLastBootstrapAt)
	require.NoError(t, err)
	require.NotNil(t, at)
	_, err = time.Parse(time.RFC3339, string(at))
	assert.NoError(t, err)
}

func TestBootstrap_TTLGate(t *testing.T) {
	ctx := context.Background()

	db, err := store.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	repos := store.NewRepositories(db)

	recent := time.Now().UTC().Add(-time.Minute).Format(time.RFC3339)
	require.NoError(t, repos.SyncState.Set(ctx, syncstate.KeyLastBootstrapAt, []byte(recent)))

	client := &fakeClient{templates: []models.Template{{ID: "tpl1"}}}
	b := NewBootstrap(db, client, testLogger(), 5*time.Minute, 50, 2)
	b.Run(ctx)

	ts, err := repos.Reference.ListTemplates(ctx)
	require.NoError(t, err)
	assert.Empty(t, ts, "bootstrap inside the ttl window must not fetch")
}

func TestBootstrap_ExpiredTTLRuns(t *testing.T) {
	ctx := context.Background()

	db, err := store.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	repos := store.NewRepositories(db)

	old := time.Now().UTC().Add(-time.Hour).Format(time.RFC3339)
	require.NoError(t, repos.SyncState.Set(ctx, syncstate.KeyLastBootstrapAt, []byte(old)))

	client := &fakeClient{templates: []models.Template{{ID: "tpl1"}}}
	b := NewBootstrap(db, client, testLogger(), 5*time.Minute, 50, 2)
	b.Run(ctx)

	ts, err := repos.Reference.ListTemplates(ctx)
	require.NoError(t, err)
	assert.Len(t, ts, 1)
}

func TestBootstrap_PartialFailureSeedsTheRest(t *testing.T) {
	ctx := context.Background()

	db, err := store.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	repos := store.NewRepositories(db)

	client := &fakeClient{
		templatesErr: errors.New("boom"),
		siteOwners:   []models.SiteOwner{{ID: "o1", Name: "Acme"}},
		tickets:      []models.TicketSummary{{ID: "t1", UpdatedAt: "2026-08-29T10:00:00Z"}},
	}

	b := NewBootstrap(db, client, testLogger(), 5*time.Minute, 50, 2)
	b.Run(ctx) // must not panic or surface the error

	os, err := repos.Reference.ListSiteOwners(ctx)
	require.NoError(t, err)
	assert.Len(t, os, 1)

	summaries, err := repos.Tickets.ListSummaries(ctx)
	require.NoError(t, err)
	assert.Len(t, summaries, 1)
}
