package sites

import (
	"context"
	"database/sql"
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

func (r *SQLiteRepository) Upsert(ctx context.Context, s *models.Site) error {
	query := `INSERT INTO sites (id, owner_id, name, address, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET owner_id = excluded.owner_id,
			name = excluded.name,
			address = excluded.address,
			updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query, s.ID, s.OwnerID, s.Name, s.Address, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert site: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpsertAll(ctx context.Context, ss []models.Site) error {
	for i := range ss {
		if err := r.Upsert(ctx, &ss[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Site, error) {
	s := &models.Site{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, name, address, updated_at FROM sites WHERE id = ?`, id).
		Scan(&s.ID, &s.OwnerID, &s.Name, &s.Address, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get site: %w", err)
	}
	return s, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.Site, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, name, address, updated_at FROM sites ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to select sites: %w", err)
	}
	defer rows.Close()

	var result []models.Site
	for rows.Next() {
		var s models.Site
		if err := rows.Scan(&s.ID, &s.OwnerID, &s.Name, &s.Address, &s.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
