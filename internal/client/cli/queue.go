package cli

import (
	"context"
	"fmt"

	"github.com/sitetrackr/fieldsync/internal/client/store"
)

// Queue prints the outbox: everything waiting for the server, and
// everything the server rejected with its error text.
func (a *App) Queue(ctx context.Context) error {
	repos := store.NewRepositories(a.db)

	pending, err := repos.Outbox.ListPending(ctx)
	if err != nil {
		return err
	}
	failed, err := repos.Outbox.ListFailed(ctx)
	if err != nil {
		return err
	}

	if len(pending) == 0 && len(failed) == 0 {
		printlnFn("Queue is empty.")
		return nil
	}

	if len(pending) > 0 {
		printlnFn("Pending:")
		for _, item := range pending {
			printlnFn(fmt.Sprintf("  %s  %s/%s  %s  [%s]", item.ID, item.Entity, item.Op, item.EntityID, item.Status))
		}
	}
	if len(failed) > 0 {
		printlnFn("Failed:")
		for _, item := range failed {
			printlnFn(fmt.Sprintf("  %s  %s/%s  %s  error: %s", item.ID, item.Entity, item.Op, item.EntityID, item.Error))
		}
	}
	return nil
}

// Retry re-queues a failed attachment by attachment id.
func (a *App) Retry(ctx context.Context, attachmentID string) error {
	if err := a.muts.RetryAttachmentUpload(ctx, attachmentID); err != nil {
		printlnFn("Retry failed:", err.Error())
		return err
	}
	printlnFn("Attachment re-queued. Run 'sync' or wait for the next cycle.")
	return nil
}

// Discard drops an outbox item by id. The optimistic local change, if any,
// stays until the next pull overwrites it with the server state.
func (a *App) Discard(ctx context.Context, itemID string) error {
	repos := store.NewRepositories(a.db)

	item, err := repos.Outbox.GetByID(ctx, itemID)
	if err != nil {
		return err
	}
	if item == nil {
		printlnFn("No such outbox item:", itemID)
		return fmt.Errorf("outbox item %s not found", itemID)
	}

	if err := repos.Outbox.Remove(ctx, itemID); err != nil {
		return err
	}
	printlnFn("Discarded", itemID)
	return nil
}
