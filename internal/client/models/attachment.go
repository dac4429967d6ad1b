package models

// AttachmentStatus is the upload state surfaced to callers on a cached
// attachment. It reflects outbox progress, not a property of the server
// record itself: PENDING while metadata/bytes are still queued, READY after
// the server confirms the upload, FAILED when either phase is rejected.
type AttachmentStatus string

const (
	AttachmentPending AttachmentStatus = "PENDING"
	AttachmentReady   AttachmentStatus = "READY"
	AttachmentFailed  AttachmentStatus = "FAILED"
)

// AttachmentScope says whether an attachment hangs off a ticket or a visit.
type AttachmentScope string

const (
	ScopeTicket AttachmentScope = "ticket"
	ScopeVisit  AttachmentScope = "visit"
)

// Attachment is the metadata object embedded in ticket/visit snapshots.
type Attachment struct {
	ID        string           `json:"id"`
	Filename  string           `json:"filename"`
	MimeType  string           `json:"mimeType"`
	SizeBytes int64            `json:"sizeBytes"`
	URL       string           `json:"url,omitempty"`
	Status    AttachmentStatus `json:"status"`
	CreatedAt string           `json:"createdAt,omitempty"`
}

// AttachmentBlob holds the raw bytes of a locally-added attachment awaiting
// upload. Deleted once the upload succeeds; if it is lost before that, the
// upload is terminal until the user re-adds the file.
type AttachmentBlob struct {
	ID        string
	MimeType  string
	SizeBytes int64
	Data      []byte
	CreatedAt int64
}

// AttachmentCreatePayload is the outbox payload of an attachment/create
// operation (server-side metadata registration).
type AttachmentCreatePayload struct {
	Scope     AttachmentScope `json:"scope"`
	ParentID  string          `json:"parentId"`
	Filename  string          `json:"filename"`
	MimeType  string          `json:"mimeType"`
	SizeBytes int64           `json:"sizeBytes"`
}

// AttachmentUploadPayload is the outbox payload of an
// attachment_upload/upload operation (byte-content PUT). Scope and ParentID
// duplicate the create payload so the cached attachment can be located even
// after the create item has left the queue.
type AttachmentUploadPayload struct {
	AttachmentID string          `json:"attachmentId"`
	MimeType     string          `json:"mimeType"`
	Scope        AttachmentScope `json:"scope"`
	ParentID     string          `json:"parentId"`
}
