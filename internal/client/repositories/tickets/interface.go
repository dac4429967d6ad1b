// Package tickets stores cached ticket snapshots: list-view summaries for
// every known ticket, plus a full detail document for tickets the user has
// opened. Snapshots are not authoritative and are always overwritable by a
// fresher server copy.
package tickets

import (
	"context"

	"github.com/sitetrackr/fieldsync/internal/client/models"
)

type Repository interface {
	// UpsertSummary inserts or refreshes a summary row. The cached detail
	// document, if any, is left in place.
	UpsertSummary(ctx context.Context, s *models.TicketSummary) error

	// UpsertSummaries bulk-upserts pull-sync results.
	UpsertSummaries(ctx context.Context, ss []models.TicketSummary) error

	// ListSummaries returns all cached summaries, most recently updated first.
	ListSummaries(ctx context.Context) ([]models.TicketSummary, error)

	// GetDetail returns the cached detail document, or nil when only a
	// summary (or nothing) is cached for the id.
	GetDetail(ctx context.Context, id string) (*models.Ticket, error)

	// SaveDetail stores a detail document and refreshes the summary columns
	// from it.
	SaveDetail(ctx context.Context, t *models.Ticket) error
}
