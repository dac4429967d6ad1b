package tickets

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
CREATE TABLE tickets (
  id TEXT PRIMARY KEY,
  site_id TEXT NOT NULL DEFAULT '',
  title TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT '',
  priority TEXT NOT NULL DEFAULT '',
  updated_at TEXT NOT NULL DEFAULT '',
  detail BLOB
);
`)
	require.NoError(t, err)

	return db
}

func TestUpsertSummary_PreservesDetail(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	full := &models.Ticket{
		TicketSummary: models.TicketSummary{ID: "t1", Title: "Leak", Status: "OPEN", UpdatedAt: "2024-01-01T00:00:00Z"},
		Description:   "water on floor",
	}
	require.NoError(t, r.SaveDetail(ctx, full))

	// a fresher summary from pull-sync overwrites columns but keeps the document
	require.NoError(t, r.UpsertSummary(ctx, &models.TicketSummary{
		ID: "t1", Title: "Leak", Status: "IN_PROGRESS", UpdatedAt: "2024-01-02T00:00:00Z",
	}))

	got, err := r.GetDetail(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "water on floor", got.Description)

	list, err := r.ListSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "IN_PROGRESS", list[0].Status)
	assert.Equal(t, "2024-01-02T00:00:00Z", list[0].UpdatedAt)
}

func TestGetDetail_SummaryOnlyRowIsNil(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.UpsertSummary(ctx, &models.TicketSummary{ID: "t1", Title: "x"}))

	got, err := r.GetDetail(ctx, "t1")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = r.GetDetail(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListSummaries_MostRecentFirst(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.UpsertSummaries(ctx, []models.TicketSummary{
		{ID: "old", UpdatedAt: "2024-01-01T00:00:00Z"},
		{ID: "new", UpdatedAt: "2024-03-01T00:00:00Z"},
		{ID: "mid", UpdatedAt: "2024-02-01T00:00:00Z"},
	}))

	list, err := r.ListSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "new", list[0].ID)
	assert.Equal(t, "mid", list[1].ID)
	assert.Equal(t, "old", list[2].ID)
}

func TestSaveDetail_RoundTripsVisitsAndAttachments(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	full := &models.Ticket{
		TicketSummary: models.TicketSummary{ID: "t1", Title: "Inspect"},
		Visits: []models.Visit{
			{ID: "v1", TicketID: "t1", TechnicianName: "Sam"},
		},
		Attachments: []models.Attachment{
			{ID: "a1", Filename: "photo.jpg", Status: models.AttachmentPending},
		},
	}
	require.NoError(t, r.SaveDetail(ctx, full))

	got, err := r.GetDetail(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Visits, 1)
	assert.Equal(t, "Sam", got.Visits[0].TechnicianName)
	require.Len(t, got.Attachments, 1)
	assert.Equal(t, models.AttachmentPending, got.Attachments[0].Status)
}
