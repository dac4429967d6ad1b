package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/sitetrackr/fieldsync/internal/client/store"
)

// editableFields are the ticket fields the edit command accepts.
var editableFields = map[string]bool{
	"title":       true,
	"status":      true,
	"priority":    true,
	"description": true,
}

// Edit prompts for one field/value pair and queues the ticket patch. Works
// offline: the change is applied to the cache immediately and pushed on the
// next sync cycle.
func (a *App) Edit(ctx context.Context, id string) error {
	repos := store.NewRepositories(a.db)

	// baseUpdatedAt is captured before the local mutation so the server
	// can detect a stale write
	baseUpdatedAt := ""
	if detail, err := repos.Tickets.GetDetail(ctx, id); err == nil && detail != nil {
		baseUpdatedAt = detail.UpdatedAt
	} else {
		summaries, err := repos.Tickets.ListSummaries(ctx)
		if err != nil {
			return err
		}
		for _, s := range summaries {
			if s.ID == id {
				baseUpdatedAt = s.UpdatedAt
				break
			}
		}
	}
	if baseUpdatedAt == "" {
		printlnFn("Ticket not cached:", id)
		return fmt.Errorf("ticket %s not cached", id)
	}

	field, err := GetSimpleText(a.reader, "Field (title/status/priority/description):", os.Stdout)
	if err != nil {
		return err
	}
	if !editableFields[field] {
		printlnFn("Unknown field:", field)
		return fmt.Errorf("unknown field %q", field)
	}

	value, err := GetSimpleText(a.reader, "New value:", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.muts.UpdateTicket(ctx, id, map[string]any{field: value}, baseUpdatedAt); err != nil {
		printlnFn("Edit failed:", err.Error())
		return err
	}

	printlnFn("Queued. The change syncs automatically when online.")
	return nil
}
