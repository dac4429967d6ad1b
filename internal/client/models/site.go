package models

import "encoding/json"

// Site is a cached site summary.
type Site struct {
	ID        string `json:"id"`
	OwnerID   string `json:"ownerId"`
	Name      string `json:"name"`
	Address   string `json:"address,omitempty"`
	UpdatedAt string `json:"updatedAt"`
}

// Template is a cached ticket template (reference data).
type Template struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Fields    json.RawMessage `json:"fields,omitempty"`
	UpdatedAt string          `json:"updatedAt"`
}

// SiteOwner is a cached site owner (reference data).
type SiteOwner struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FieldDef is a cached custom field definition for sites (reference data).
type FieldDef struct {
	ID      string          `json:"id"`
	Key     string          `json:"key"`
	Label   string          `json:"label"`
	Kind    string          `json:"kind"`
	Options json.RawMessage `json:"options,omitempty"`
}

// ChangeSet is the payload of one incremental pull: summaries changed since
// the cursor, to be bulk-upserted into the local cache.
type ChangeSet struct {
	Tickets   []TicketSummary `json:"tickets"`
	Sites     []Site          `json:"sites"`
	Templates []Template      `json:"templates"`
}
