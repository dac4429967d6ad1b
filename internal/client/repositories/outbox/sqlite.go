package outbox

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

const itemColumns = `id, entity, entity_id, op, payload, base_updated_at, depends_on, status, created_at, error`

func (r *SQLiteRepository) Enqueue(ctx context.Context, item *models.OutboxItem) error {
	if item.CreatedAt == 0 {
		item.CreatedAt = time.Now().UnixMilli()
	}
	if item.Status == "" {
		item.Status = models.OutboxPending
	}
	query := `INSERT INTO outbox (` + itemColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		item.ID, item.Entity, item.EntityID, item.Op, []byte(item.Payload),
		item.BaseUpdatedAt, item.DependsOn, item.Status, item.CreatedAt, item.Error)
	if err != nil {
		return fmt.Errorf("failed to enqueue outbox item: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.OutboxItem, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM outbox WHERE id = ?`, id)
	item, err := scanItem(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox item: %w", err)
	}
	return item, nil
}

func (r *SQLiteRepository) ListPending(ctx context.Context) ([]*models.OutboxItem, error) {
	query := `SELECT ` + itemColumns + ` FROM outbox
		WHERE status IN ('pending', 'sending')
		ORDER BY created_at, rowid`
	return r.list(ctx, query)
}

func (r *SQLiteRepository) ListPendingByEntity(ctx context.Context, entity models.OutboxEntity) ([]*models.OutboxItem, error) {
	query := `SELECT ` + itemColumns + ` FROM outbox
		WHERE status IN ('pending', 'sending') AND entity = ?
		ORDER BY created_at, rowid`
	return r.list(ctx, query, entity)
}

func (r *SQLiteRepository) ListReadyUploads(ctx context.Context) ([]*models.OutboxItem, error) {
	// an upload is ready once the item it depends on has left the queue
	query := `SELECT ` + itemColumns + ` FROM outbox o
		WHERE o.entity = ? AND o.status = 'pending'
		  AND (o.depends_on = '' OR NOT EXISTS (SELECT 1 FROM outbox d WHERE d.id = o.depends_on))
		ORDER BY o.created_at, o.rowid`
	return r.list(ctx, query, models.EntityAttachmentUpload)
}

func (r *SQLiteRepository) ListFailed(ctx context.Context) ([]*models.OutboxItem, error) {
	query := `SELECT ` + itemColumns + ` FROM outbox WHERE status = 'failed' ORDER BY created_at, rowid`
	return r.list(ctx, query)
}

func (r *SQLiteRepository) MarkSending(ctx context.Context, id string) error {
	return r.setStatus(ctx, id, `UPDATE outbox SET status='sending' WHERE id=? AND status='pending'`)
}

func (r *SQLiteRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE outbox SET status='failed', error=? WHERE id=?`, reason, id)
	if err != nil {
		return fmt.Errorf("failed to mark outbox item failed: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Restore(ctx context.Context, id string) error {
	return r.setStatus(ctx, id, `UPDATE outbox SET status='pending' WHERE id=? AND status='sending'`)
}

func (r *SQLiteRepository) Reset(ctx context.Context, id string) error {
	query := `UPDATE outbox SET status='pending', error='', created_at=? WHERE id=? AND status='failed'`
	res, err := r.db.ExecContext(ctx, query, time.Now().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("failed to reset outbox item: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra != 1 {
		return fmt.Errorf("outbox item %s is not failed", id)
	}
	return nil
}

func (r *SQLiteRepository) Remove(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM outbox WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("failed to remove outbox item: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM outbox`)
	if err != nil {
		return fmt.Errorf("failed to clear outbox: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) CountPending(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM outbox WHERE status IN ('pending', 'sending')`)
}

func (r *SQLiteRepository) CountFailed(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM outbox WHERE status = 'failed'`)
}

func (r *SQLiteRepository) setStatus(ctx context.Context, id string, query string) error {
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to update outbox item status: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) count(ctx context.Context, query string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count outbox items: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]*models.OutboxItem, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select outbox items: %w", err)
	}
	defer rows.Close()

	var result []*models.OutboxItem
	for rows.Next() {
		item, err := scanItem(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanItem(scan func(dest ...any) error) (*models.OutboxItem, error) {
	item := &models.OutboxItem{}
	var payload []byte
	err := scan(&item.ID, &item.Entity, &item.EntityID, &item.Op, &payload,
		&item.BaseUpdatedAt, &item.DependsOn, &item.Status, &item.CreatedAt, &item.Error)
	if err != nil {
		return nil, err
	}
	item.Payload = payload
	return item, nil
}
