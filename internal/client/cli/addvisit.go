package cli

import (
	"context"
	"os"

	"github.com/sitetrackr/fieldsync/internal/client/mutations"
)

// AddVisit records a technician visit on a ticket.
func (a *App) AddVisit(ctx context.Context, ticketID string) error {
	techID, err := GetSimpleText(a.reader, "Technician id:", os.Stdout)
	if err != nil {
		return err
	}
	techName, err := GetSimpleText(a.reader, "Technician name:", os.Stdout)
	if err != nil {
		return err
	}
	notes, err := GetMultiline(a.reader, "Notes:", os.Stdout)
	if err != nil {
		return err
	}

	v, err := a.muts.CreateVisit(ctx, mutations.CreateVisitInput{
		TicketID:       ticketID,
		TechnicianID:   techID,
		TechnicianName: techName,
		Notes:          notes,
	})
	if err != nil {
		printlnFn("Cannot add visit:", err.Error())
		return err
	}

	printlnFn("Visit", v.ID, "queued.")
	return nil
}
