// Package outbox persists the append-only journal of mutation intents that
// have not yet been acknowledged by the server.
package outbox

import (
	"context"

	"github.com/sitetrackr/fieldsync/internal/client/models"
)

// Repository describes the operations the mutation façade and the sync
// runner need against the outbox table.
type Repository interface {
	// Enqueue creates and persists a new pending item. Local write only,
	// always succeeds barring storage errors.
	Enqueue(ctx context.Context, item *models.OutboxItem) error

	// GetByID returns one item, or nil when it does not exist.
	GetByID(ctx context.Context, id string) (*models.OutboxItem, error)

	// ListPending returns items with status pending or sending in replay
	// order (CreatedAt ascending).
	ListPending(ctx context.Context) ([]*models.OutboxItem, error)

	// ListPendingByEntity is ListPending scoped to one entity kind.
	ListPendingByEntity(ctx context.Context, entity models.OutboxEntity) ([]*models.OutboxItem, error)

	// ListReadyUploads returns pending attachment_upload items whose
	// DependsOn item no longer exists, i.e. whose metadata-registration
	// phase has completed.
	ListReadyUploads(ctx context.Context) ([]*models.OutboxItem, error)

	// ListFailed returns failed items in replay order.
	ListFailed(ctx context.Context) ([]*models.OutboxItem, error)

	// MarkSending flips an item to sending for the duration of a sync attempt.
	MarkSending(ctx context.Context, id string) error

	// MarkFailed records a rejection with its reason.
	MarkFailed(ctx context.Context, id string, reason string) error

	// Restore flips a sending item back to pending after a transport-level
	// failure. CreatedAt is kept so replay order is preserved.
	Restore(ctx context.Context, id string) error

	// Reset flips a failed item back to pending on explicit user retry,
	// refreshing CreatedAt (the retried item goes to the back of the queue).
	Reset(ctx context.Context, id string) error

	// Remove deletes an item (successful replay, or operator discard).
	Remove(ctx context.Context, id string) error

	// Clear drops the whole queue. Manual operator action.
	Clear(ctx context.Context) error

	CountPending(ctx context.Context) (int, error)
	CountFailed(ctx context.Context) (int, error)
}
