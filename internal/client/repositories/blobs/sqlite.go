package blobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

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

func (r *SQLiteRepository) Put(ctx context.Context, b *models.AttachmentBlob) error {
	if b.CreatedAt == 0 {
		b.CreatedAt = time.Now().UnixMilli()
	}
	query := `INSERT INTO attachment_blobs (id, mime_type, size_bytes, data, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET mime_type = excluded.mime_type,
			size_bytes = excluded.size_bytes,
			data = excluded.data`
	_, err := r.db.ExecContext(ctx, query, b.ID, b.MimeType, b.SizeBytes, b.Data, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to store attachment blob: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.AttachmentBlob, error) {
	b := &models.AttachmentBlob{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, mime_type, size_bytes, data, created_at FROM attachment_blobs WHERE id = ?`, id).
		Scan(&b.ID, &b.MimeType, &b.SizeBytes, &b.Data, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attachment blob: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM attachment_blobs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete attachment blob: %w", err)
	}
	return nil
}
