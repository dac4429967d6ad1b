// Package syncstate stores the handful of key/value records that track sync
// progress across restarts.
package syncstate

import "context"

// Well-known keys.
const (
	KeyClientID        = "clientId"        // stable per-install identifier sent with every batch apply
	KeyLastSyncCursor  = "lastSyncCursor"  // opaque server-issued pull cursor
	KeyLastBootstrapAt = "lastBootstrapAt" // RFC3339, gates bootstrap re-runs
)

type Repository interface {
	// Get returns the value for key, or nil when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
