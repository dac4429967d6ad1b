package models

// Visit is a technician visit against a ticket. Created offline with a
// client-generated id which the server adopts on replay; replay is
// idempotent because the server treats an existing row with the same id as
// success.
type Visit struct {
	ID             string       `json:"id"`
	TicketID       string       `json:"ticketId"`
	TechnicianID   string       `json:"technicianId"`
	TechnicianName string       `json:"technicianName"`
	StartedAt      string       `json:"startedAt"`
	EndedAt        string       `json:"endedAt,omitempty"`
	Notes          string       `json:"notes,omitempty"`
	Attachments    []Attachment `json:"attachments,omitempty"`
	UpdatedAt      string       `json:"updatedAt,omitempty"`
}
