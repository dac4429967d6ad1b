package cli

import (
	"context"
	"fmt"

	"github.com/sitetrackr/fieldsync/internal/client/models"
	"github.com/sitetrackr/fieldsync/internal/client/query"
	"github.com/sitetrackr/fieldsync/internal/client/store"
)

// Show prints a ticket's detail snapshot, fetching it when not yet cached.
func (a *App) Show(ctx context.Context, id string) error {
	repos := store.NewRepositories(a.db)

	detail, err := query.CacheFirst(ctx, a.queryOpts(), "ticket:"+id,
		func(ctx context.Context) (*models.Ticket, bool, error) {
			t, err := repos.Tickets.GetDetail(ctx, id)
			return t, t != nil, err
		},
		func(ctx context.Context) (*models.Ticket, error) {
			return a.client.GetTicket(ctx, id)
		},
		func(ctx context.Context, t *models.Ticket) error {
			return repos.Tickets.SaveDetail(ctx, t)
		},
	)
	if err != nil {
		printlnFn("Cannot show ticket:", err.Error())
		return err
	}

	printlnFn(fmt.Sprintf("%s  [%s/%s]  %s", detail.ID, detail.Status, detail.Priority, detail.Title))
	printlnFn("Site:", detail.SiteID, " Updated:", detail.UpdatedAt)
	if detail.Description != "" {
		printlnFn(detail.Description)
	}

	if len(detail.Visits) > 0 {
		printlnFn("Visits:")
		for _, v := range detail.Visits {
			printlnFn(fmt.Sprintf("  %s  %s  %s  %s", v.ID, v.TechnicianName, v.StartedAt, v.Notes))
		}
	}
	if len(detail.Attachments) > 0 {
		printlnFn("Attachments:")
		for _, at := range detail.Attachments {
			printlnFn(fmt.Sprintf("  %s  %s  [%s]  %s", at.ID, at.Filename, at.Status, at.URL))
		}
	}
	return nil
}
