// Package reference stores cached reference data seeded by bootstrap:
// ticket templates, site owners, and site field definitions.
package reference

import (
	"context"

	"github.com/sitetrackr/fieldsync/internal/client/models"
)

type Repository interface {
	UpsertTemplates(ctx context.Context, ts []models.Template) error
	ListTemplates(ctx context.Context) ([]models.Template, error)

	// ReplaceSiteOwners swaps the whole cached collection. Site owners only
	// arrive via bootstrap, never incrementally.
	ReplaceSiteOwners(ctx context.Context, os []models.SiteOwner) error
	ListSiteOwners(ctx context.Context) ([]models.SiteOwner, error)

	// ReplaceFieldDefs swaps the whole cached collection.
	ReplaceFieldDefs(ctx context.Context, fs []models.FieldDef) error
	ListFieldDefs(ctx context.Context) ([]models.FieldDef, error)
}
