// Package blobs stores the raw bytes of locally-added attachments until
// their upload is confirmed. Blobs are not re-derivable: once lost, the
// corresponding upload is terminal until the user re-adds the file.
package blobs

import (
	"context"

	"github.com/sitetrackr/fieldsync/internal/client/models"
)

type Repository interface {
	// Put stores a blob keyed by the attachment's client-generated id.
	Put(ctx context.Context, b *models.AttachmentBlob) error

	// Get returns a blob, or nil when it no longer exists.
	Get(ctx context.Context, id string) (*models.AttachmentBlob, error)

	// Delete removes a blob after a successful upload.
	Delete(ctx context.Context, id string) error
}
