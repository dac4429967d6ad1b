package visits

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

func (r *SQLiteRepository) Upsert(ctx context.Context, v *models.Visit) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode visit: %w", err)
	}
	query := `INSERT INTO visits (id, ticket_id, started_at, data)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET ticket_id = excluded.ticket_id,
			started_at = excluded.started_at,
			data = excluded.data`
	_, err = r.db.ExecContext(ctx, query, v.ID, v.TicketID, v.StartedAt, data)
	if err != nil {
		return fmt.Errorf("failed to upsert visit: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Visit, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx, `SELECT data FROM visits WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get visit: %w", err)
	}
	v := &models.Visit{}
	if err := json.Unmarshal(data, v); err != nil {
		return nil, fmt.Errorf("failed to decode visit: %w", err)
	}
	return v, nil
}

func (r *SQLiteRepository) ListByTicket(ctx context.Context, ticketID string) ([]models.Visit, error) {
	query := `SELECT data FROM visits WHERE ticket_id = ? ORDER BY started_at DESC`
	rows, err := r.db.QueryContext(ctx, query, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to select visits: %w", err)
	}
	defer rows.Close()

	var result []models.Visit
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var v models.Visit
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("failed to decode visit: %w", err)
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
