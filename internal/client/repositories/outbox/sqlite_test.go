package outbox

import (
	"context"
	"database/sql"
	"testing"

	"github.com/sitetrackr/fieldsync/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE outbox (
  id TEXT PRIMARY KEY,
  entity TEXT NOT NULL,
  entity_id TEXT NOT NULL,
  op TEXT NOT NULL,
  payload BLOB NOT NULL,
  base_updated_at TEXT NOT NULL DEFAULT '',
  depends_on TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'pending',
  created_at INTEGER NOT NULL,
  error TEXT NOT NULL DEFAULT ''
);
`)
	require.NoError(t, err)

	return db
}

func item(id string, entity models.OutboxEntity, createdAt int64) *models.OutboxItem {
	return &models.OutboxItem{
		ID:        id,
		Entity:    entity,
		EntityID:  "e-" + id,
		Op:        models.OpUpdate,
		Payload:   []byte(`{"patch":{}}`),
		Status:    models.OutboxPending,
		CreatedAt: createdAt,
	}
}

func TestEnqueueAndGetByID(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	in := &models.OutboxItem{
		ID:            "op1",
		Entity:        models.EntityTicket,
		EntityID:      "T1",
		Op:            models.OpUpdate,
		Payload:       []byte(`{"patch":{"status":"COMPLETED"}}`),
		BaseUpdatedAt: "2024-01-01T00:00:00Z",
	}
	require.NoError(t, r.Enqueue(ctx, in))
	assert.NotZero(t, in.CreatedAt, "enqueue stamps CreatedAt")
	assert.Equal(t, models.OutboxPending, in.Status)

	got, err := r.GetByID(ctx, "op1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, in.EntityID, got.EntityID)
	assert.Equal(t, in.BaseUpdatedAt, got.BaseUpdatedAt)
	assert.JSONEq(t, string(in.Payload), string(got.Payload))

	missing, err := r.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListPending_FIFOOrder(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	// enqueued out of id order on purpose
	require.NoError(t, r.Enqueue(ctx, item("c", models.EntityTicket, 300)))
	require.NoError(t, r.Enqueue(ctx, item("a", models.EntityTicket, 100)))
	require.NoError(t, r.Enqueue(ctx, item("b", models.EntityVisit, 200)))

	got, err := r.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
	assert.Equal(t, "c", got[2].ID)
}

func TestListPending_IncludesSendingExcludesFailed(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Enqueue(ctx, item("p", models.EntityTicket, 1)))
	require.NoError(t, r.Enqueue(ctx, item("s", models.EntityTicket, 2)))
	require.NoError(t, r.Enqueue(ctx, item("f", models.EntityTicket, 3)))
	require.NoError(t, r.MarkSending(ctx, "s"))
	require.NoError(t, r.MarkFailed(ctx, "f", "CONFLICT"))

	got, err := r.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "p", got[0].ID)
	assert.Equal(t, "s", got[1].ID)
	assert.Equal(t, models.OutboxSending, got[1].Status)

	failed, err := r.ListFailed(ctx)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "f", failed[0].ID)
	assert.Equal(t, "CONFLICT", failed[0].Error)
}

func TestListPendingByEntity(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Enqueue(ctx, item("t1", models.EntityTicket, 1)))
	require.NoError(t, r.Enqueue(ctx, item("v1", models.EntityVisit, 2)))
	require.NoError(t, r.Enqueue(ctx, item("t2", models.EntityTicket, 3)))

	got, err := r.ListPendingByEntity(ctx, models.EntityTicket)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "t1", got[0].ID)
	assert.Equal(t, "t2", got[1].ID)
}

func TestListReadyUploads_GatedByDependsOn(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	create := item("meta", models.EntityAttachment, 1)
	create.Op = models.OpCreate
	require.NoError(t, r.Enqueue(ctx, create))

	upload := item("up", models.EntityAttachmentUpload, 2)
	upload.Op = models.OpUpload
	upload.DependsOn = "meta"
	require.NoError(t, r.Enqueue(ctx, upload))

	// metadata item still queued: upload is not ready
	ready, err := r.ListReadyUploads(ctx)
	require.NoError(t, err)
	assert.Empty(t, ready)

	// metadata confirmed and removed: upload becomes ready
	require.NoError(t, r.Remove(ctx, "meta"))
	ready, err = r.ListReadyUploads(ctx)
	require.NoError(t, err)
	require.Len(t, ready, 1)
	assert.Equal(t, "up", ready[0].ID)
}

func TestListReadyUploads_FailedUploadNotReturned(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	upload := item("up", models.EntityAttachmentUpload, 1)
	upload.Op = models.OpUpload
	require.NoError(t, r.Enqueue(ctx, upload))
	require.NoError(t, r.MarkFailed(ctx, "up", "blob unavailable locally"))

	ready, err := r.ListReadyUploads(ctx)
	require.NoError(t, err)
	assert.Empty(t, ready)
}

func TestRestore_KeepsCreatedAt(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Enqueue(ctx, item("x", models.EntityTicket, 42)))
	require.NoError(t, r.MarkSending(ctx, "x"))
	require.NoError(t, r.Restore(ctx, "x"))

	got, err := r.GetByID(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, models.OutboxPending, got.Status)
	assert.Equal(t, int64(42), got.CreatedAt, "transport-level restore must not reorder the queue")
}

func TestReset_RefreshesCreatedAtAndClearsError(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Enqueue(ctx, item("x", models.EntityTicket, 42)))
	require.NoError(t, r.MarkFailed(ctx, "x", "CONFLICT"))
	require.NoError(t, r.Reset(ctx, "x"))

	got, err := r.GetByID(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, models.OutboxPending, got.Status)
	assert.Empty(t, got.Error)
	assert.Greater(t, got.CreatedAt, int64(42), "explicit retry goes to the back of the queue")

	// resetting a non-failed item is an error
	require.Error(t, r.Reset(ctx, "x"))
}

func TestRemoveClearAndCounts(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Enqueue(ctx, item("a", models.EntityTicket, 1)))
	require.NoError(t, r.Enqueue(ctx, item("b", models.EntityTicket, 2)))
	require.NoError(t, r.Enqueue(ctx, item("c", models.EntityTicket, 3)))
	require.NoError(t, r.MarkFailed(ctx, "c", "NOT_FOUND"))

	n, err := r.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = r.CountFailed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, r.Remove(ctx, "a"))
	n, err = r.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, r.Clear(ctx))
	n, err = r.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	n, err = r.CountFailed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
