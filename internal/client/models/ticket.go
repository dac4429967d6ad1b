// Package models defines client-side data models used by the fieldsync
// engine: cached entity snapshots, outbox items, and sync payloads.
//
// Timestamps received from the server (UpdatedAt, baseUpdatedAt, the pull
// cursor) are kept as opaque RFC3339 strings so they round-trip exactly in
// optimistic-concurrency checks.
package models

import "encoding/json"

// TicketSummary is the list-view projection of a ticket, as returned by the
// pull-sync changes feed and the paged ticket listing.
type TicketSummary struct {
	ID        string `json:"id"`
	SiteID    string `json:"siteId"`
	Title     string `json:"title"`
	Status    string `json:"status"`
	Priority  string `json:"priority"`
	UpdatedAt string `json:"updatedAt"`
}

// Ticket is the full cached detail snapshot. Visits are embedded here and
// additionally stored in a flat table for independent lookup by id.
type Ticket struct {
	TicketSummary
	Description  string         `json:"description"`
	CustomFields map[string]any `json:"customFields,omitempty"`
	Visits       []Visit        `json:"visits,omitempty"`
	Attachments  []Attachment   `json:"attachments,omitempty"`
}

// ApplyPatch merges a partial patch into the ticket in place. Known top-level
// fields are overwritten; the "customFields" key is merged key-by-key.
// Unknown keys are ignored.
func (t *Ticket) ApplyPatch(patch map[string]any) {
	for k, v := range patch {
		switch k {
		case "title":
			if s, ok := v.(string); ok {
				t.Title = s
			}
		case "status":
			if s, ok := v.(string); ok {
				t.Status = s
			}
		case "priority":
			if s, ok := v.(string); ok {
				t.Priority = s
			}
		case "description":
			if s, ok := v.(string); ok {
				t.Description = s
			}
		case "customFields":
			m, ok := v.(map[string]any)
			if !ok {
				continue
			}
			if t.CustomFields == nil {
				t.CustomFields = make(map[string]any, len(m))
			}
			for fk, fv := range m {
				t.CustomFields[fk] = fv
			}
		}
	}
}

// TicketPatchPayload is the outbox payload of a ticket/update operation.
type TicketPatchPayload struct {
	Patch map[string]any `json:"patch"`
}

// MarshalPayload is a small helper for building outbox payloads.
func MarshalPayload(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		// all payload types are plain data, marshalling cannot fail
		panic(err)
	}
	return b
}
