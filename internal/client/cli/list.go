package cli

import (
	"context"
	"fmt"

	"github.com/sitetrackr/fieldsync/internal/client/models"
	"github.com/sitetrackr/fieldsync/internal/client/query"
	"github.com/sitetrackr/fieldsync/internal/client/store"
)

// List prints the cached ticket list, refreshing it in the background when
// online.
func (a *App) List(ctx context.Context) error {
	repos := store.NewRepositories(a.db)

	summaries, err := query.CacheFirst(ctx, a.queryOpts(), "tickets:list",
		func(ctx context.Context) ([]models.TicketSummary, bool, error) {
			ss, err := repos.Tickets.ListSummaries(ctx)
			return ss, len(ss) > 0, err
		},
		func(ctx context.Context) ([]models.TicketSummary, error) {
			return a.client.ListTickets(ctx, 1, a.config.BootstrapPageSize)
		},
		func(ctx context.Context, ss []models.TicketSummary) error {
			return repos.Tickets.UpsertSummaries(ctx, ss)
		},
	)
	if err != nil {
		printlnFn("Cannot list tickets:", err.Error())
		return err
	}

	if len(summaries) == 0 {
		printlnFn("No tickets cached yet. Try 'bootstrap'.")
		return nil
	}

	for _, s := range summaries {
		printlnFn(fmt.Sprintf("%s  [%s/%s]  %s", s.ID, s.Status, s.Priority, s.Title))
	}
	return nil
}
