// Package sites stores cached site summaries.
package sites

import (
	"context"

	"github.com/sitetrackr/fieldsync/internal/client/models"
)

type Repository interface {
	Upsert(ctx context.Context, s *models.Site) error
	UpsertAll(ctx context.Context, ss []models.Site) error
	GetByID(ctx context.Context, id string) (*models.Site, error)
	List(ctx context.Context) ([]models.Site, error)
}
