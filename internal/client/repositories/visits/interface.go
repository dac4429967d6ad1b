// Package visits stores visit records in a flat table keyed by id, so a
// visit can be looked up independently of the ticket detail document it is
// also embedded in.
package visits

import (
	"context"

	"github.com/sitetrackr/fieldsync/internal/client/models"
)

type Repository interface {
	// Upsert inserts or replaces a visit row.
	Upsert(ctx context.Context, v *models.Visit) error

	// GetByID returns a visit, or nil when it is not cached.
	GetByID(ctx context.Context, id string) (*models.Visit, error)

	// ListByTicket returns all cached visits for a ticket, newest first
	// (StartedAt descending).
	ListByTicket(ctx context.Context, ticketID string) ([]models.Visit, error)
}
