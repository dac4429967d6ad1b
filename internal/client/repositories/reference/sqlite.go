package reference

import (
	"context"
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

func (r *SQLiteRepository) UpsertTemplates(ctx context.Context, ts []models.Template) error {
	query := `INSERT INTO templates (id, name, fields, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name,
			fields = excluded.fields,
			updated_at = excluded.updated_at`
	for _, t := range ts {
		if _, err := r.db.ExecContext(ctx, query, t.ID, t.Name, []byte(t.Fields), t.UpdatedAt); err != nil {
			return fmt.Errorf("failed to upsert template: %w", err)
		}
	}
	return nil
}

func (r *SQLiteRepository) ListTemplates(ctx context.Context) ([]models.Template, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, fields, updated_at FROM templates ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to select templates: %w", err)
	}
	defer rows.Close()

	var result []models.Template
	for rows.Next() {
		var t models.Template
		var fields []byte
		if err := rows.Scan(&t.ID, &t.Name, &fields, &t.UpdatedAt); err != nil {
			return nil, err
		}
		t.Fields = fields
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) ReplaceSiteOwners(ctx context.Context, os []models.SiteOwner) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM site_owners`); err != nil {
		return fmt.Errorf("failed to clear site owners: %w", err)
	}
	for _, o := range os {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO site_owners (id, name) VALUES (?, ?)`, o.ID, o.Name); err != nil {
			return fmt.Errorf("failed to insert site owner: %w", err)
		}
	}
	return nil
}

func (r *SQLiteRepository) ListSiteOwners(ctx context.Context) ([]models.SiteOwner, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM site_owners ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to select site owners: %w", err)
	}
	defer rows.Close()

	var result []models.SiteOwner
	for rows.Next() {
		var o models.SiteOwner
		if err := rows.Scan(&o.ID, &o.Name); err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) ReplaceFieldDefs(ctx context.Context, fs []models.FieldDef) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM field_defs`); err != nil {
		return fmt.Errorf("failed to clear field defs: %w", err)
	}
	for _, f := range fs {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO field_defs (id, key, label, kind, options) VALUES (?, ?, ?, ?, ?)`,
			f.ID, f.Key, f.Label, f.Kind, []byte(f.Options)); err != nil {
			return fmt.Errorf("failed to insert field def: %w", err)
		}
	}
	return nil
}

func (r *SQLiteRepository) ListFieldDefs(ctx context.Context) ([]models.FieldDef, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, key, label, kind, options FROM field_defs ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to select field defs: %w", err)
	}
	defer rows.Close()

	var result []models.FieldDef
	for rows.Next() {
		var f models.FieldDef
		var options []byte
		if err := rows.Scan(&f.ID, &f.Key, &f.Label, &f.Kind, &options); err != nil {
			return nil, err
		}
		f.Options = options
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
