// Package api talks to the SiteTrackr sync surface: the changes feed, the
// batch apply endpoint, the two-phase attachment endpoints, and the read
// endpoints used by bootstrap and cache-first queries.
//
// The package provides a transport-agnostic contract (Client) and an HTTP
// implementation (HTTPClient). Transport-level failures map to sentinel
// errors so callers can tell "the server rejected this" from "the server
// was unreachable" with errors.Is.
package api

import (
	"context"
	"encoding/json"

	"github.com/sitetrackr/fieldsync/internal/client/models"
)

// MaxApplyOps is the server's cap on operations per apply call.
const MaxApplyOps = 100

// Per-operation error codes returned by the apply endpoint.
const (
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeTicketNotFound   = "TICKET_NOT_FOUND"
	CodeInvalidTimeRange = "INVALID_TIME_RANGE"
	CodeInvalidPayload   = "INVALID_PAYLOAD"
	CodeInternalError    = "INTERNAL_ERROR"

	// CodeNoResponse is assigned client-side when a submitted op is missing
	// from the apply response.
	CodeNoResponse = "NO_RESPONSE"
)

// ApplyOp is one operation in a batch apply request.
type ApplyOp struct {
	ID            string          `json:"id"`
	Entity        string          `json:"entity"`
	EntityID      string          `json:"entityId"`
	Op            string          `json:"op"`
	BaseUpdatedAt string          `json:"baseUpdatedAt,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// ApplyResult is the per-operation outcome of a batch apply.
type ApplyResult struct {
	OpID            string `json:"opId"`
	OK              bool   `json:"ok"`
	Entity          string `json:"entity"`
	EntityID        string `json:"entityId"`
	ServerUpdatedAt string `json:"serverUpdatedAt,omitempty"`
	Error           string `json:"error,omitempty"`
}

// ApplyResponse is the body of a batch apply response.
type ApplyResponse struct {
	Results []ApplyResult `json:"results"`
}

// ChangesResponse is the body of one incremental pull. Cursor is an opaque
// server-issued marker to pass as `since` on the next pull.
type ChangesResponse struct {
	Cursor  string           `json:"cursor"`
	Changes models.ChangeSet `json:"changes"`
}

// AttachmentInput registers attachment metadata server-side. ID is the
// client-generated id the server adopts as canonical.
type AttachmentInput struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	MimeType  string `json:"mimeType"`
	SizeBytes int64  `json:"sizeBytes"`
}

// Client is the transport contract consumed by the sync runner, bootstrap,
// and the cache-first read path.
type Client interface {
	// Ping probes server reachability (used by the online watcher).
	Ping(ctx context.Context) error

	// Changes fetches entities changed since the cursor. An empty since
	// means "all", bounded by server-side caps.
	Changes(ctx context.Context, since string) (*ChangesResponse, error)

	// Apply submits up to MaxApplyOps queued mutations in one batch.
	Apply(ctx context.Context, clientID string, ops []ApplyOp) (*ApplyResponse, error)

	// CreateTicketAttachment / CreateVisitAttachment register attachment
	// metadata; the server answers with the canonical record (url, status).
	CreateTicketAttachment(ctx context.Context, ticketID string, in AttachmentInput) (*models.Attachment, error)
	CreateVisitAttachment(ctx context.Context, visitID string, in AttachmentInput) (*models.Attachment, error)

	// UploadAttachment PUTs the raw bytes of a registered attachment and
	// returns the record with status READY.
	UploadAttachment(ctx context.Context, id string, mimeType string, data []byte) (*models.Attachment, error)

	// Reference and entity reads used by bootstrap and cache-first queries.
	ListTemplates(ctx context.Context) ([]models.Template, error)
	ListSiteOwners(ctx context.Context) ([]models.SiteOwner, error)
	ListFieldDefs(ctx context.Context) ([]models.FieldDef, error)
	ListTickets(ctx context.Context, page, pageSize int) ([]models.TicketSummary, error)
	ListSites(ctx context.Context, page, pageSize int) ([]models.Site, error)
	GetTicket(ctx context.Context, id string) (*models.Ticket, error)
	GetSite(ctx context.Context, id string) (*models.Site, error)
}
