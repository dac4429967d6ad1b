package models

import "encoding/json"

// OutboxEntity identifies the kind of record an outbox item targets.
type OutboxEntity string

const (
	EntityTicket           OutboxEntity = "ticket"
	EntityVisit            OutboxEntity = "visit"
	EntityAttachment       OutboxEntity = "attachment"
	EntityAttachmentUpload OutboxEntity = "attachment_upload"
)

// OutboxOp is the mutation kind carried by an outbox item.
type OutboxOp string

const (
	OpCreate OutboxOp = "create"
	OpUpdate OutboxOp = "update"
	OpUpload OutboxOp = "upload"
)

// OutboxStatus is the lifecycle state of a queued mutation.
type OutboxStatus string

const (
	OutboxPending OutboxStatus = "pending"
	OutboxSending OutboxStatus = "sending"
	OutboxFailed  OutboxStatus = "failed"
)

// OutboxItem is one durable mutation intent awaiting server acknowledgment.
//
// Exactly one item represents one intent. Items are replayed oldest-first
// (CreatedAt ascending) so multiple edits to the same entity reach the
// server in the order the user made them. An item is removed on success,
// or marked failed with the rejection reason; failed items wait for an
// operator to retry or discard them.
type OutboxItem struct {
	ID       string
	Entity   OutboxEntity
	EntityID string
	Op       OutboxOp
	Payload  json.RawMessage

	// BaseUpdatedAt is the last-known server timestamp of the target,
	// captured before the optimistic local write. The server rejects the
	// operation with CONFLICT when it is stale.
	BaseUpdatedAt string

	// DependsOn links a staged operation to the item that must complete
	// first: an attachment_upload carries the id of its attachment/create
	// item, and is not attempted while that item still exists.
	DependsOn string

	Status    OutboxStatus
	CreatedAt int64 // unix milliseconds, replay order
	Error     string
}
