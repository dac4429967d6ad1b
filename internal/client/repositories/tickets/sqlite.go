package tickets

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sitetrackr/fieldsync/internal/client/models"
	"github.com/sitetrackr/fieldsync/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) UpsertSummary(ctx context.Context, s *models.TicketSummary) error {
	query := `INSERT INTO tickets (id, site_id, title, status, priority, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET site_id = excluded.site_id,
			title = excluded.title,
			status = excluded.status,
			priority = excluded.priority,
			updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query, s.ID, s.SiteID, s.Title, s.Status, s.Priority, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert ticket summary: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpsertSummaries(ctx context.Context, ss []models.TicketSummary) error {
	for i := range ss {
		if err := r.UpsertSummary(ctx, &ss[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteRepository) ListSummaries(ctx context.Context) ([]models.TicketSummary, error) {
	query := `SELECT id, site_id, title, status, priority, updated_at FROM tickets ORDER BY updated_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select ticket summaries: %w", err)
	}
	defer rows.Close()

	var result []models.TicketSummary
	for rows.Next() {
		var s models.TicketSummary
		if err := rows.Scan(&s.ID, &s.SiteID, &s.Title, &s.Status, &s.Priority, &s.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) GetDetail(ctx context.Context, id string) (*models.Ticket, error) {
	var detail []byte
	err := r.db.QueryRowContext(ctx, `SELECT detail FROM tickets WHERE id = ?`, id).Scan(&detail)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket detail: %w", err)
	}
	if len(detail) == 0 {
		return nil, nil
	}
	t := &models.Ticket{}
	if err := json.Unmarshal(detail, t); err != nil {
		return nil, fmt.Errorf("failed to decode ticket detail: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) SaveDetail(ctx context.Context, t *models.Ticket) error {
	detail, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode ticket detail: %w", err)
	}
	query := `INSERT INTO tickets (id, site_id, title, status, priority, updated_at, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET site_id = excluded.site_id,
			title = excluded.title,
			status = excluded.status,
			priority = excluded.priority,
			updated_at = excluded.updated_at,
			detail = excluded.detail`
	_, err = r.db.ExecContext(ctx, query, t.ID, t.SiteID, t.Title, t.Status, t.Priority, t.UpdatedAt, detail)
	if err != nil {
		return fmt.Errorf("failed to save ticket detail: %w", err)
	}
	return nil
}
