package sync

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sitetrackr/fieldsync/internal/client/api"
	"github.com/sitetrackr/fieldsync/internal/client/models"
	"github.com/sitetrackr/fieldsync/internal/client/mutations"
	"github.com/sitetrackr/fieldsync/internal/client/repositories/syncstate"
	"github.com/sitetrackr/fieldsync/internal/client/store"
	"github.com/sitetrackr/fieldsync/internal/dbx"
	"github.com/sitetrackr/fieldsync/internal/logging"
)

// Runner executes sync cycles. A cycle is four strictly ordered phases:
// attachment metadata registration, attachment byte upload, batch push of
// ticket/visit operations, incremental pull. Phase order is load-bearing:
// the server issues attachment urls only after metadata registration, and
// the pull runs last so the server-confirmed state of a just-pushed change
// immediately supersedes the optimistic local copy.
type Runner struct {
	db     *sql.DB
	client api.Client
	online func() bool
	status *Broadcaster
	log    logging.Logger

	running atomic.Bool
}

func NewRunner(db *sql.DB, client api.Client, online func() bool, status *Broadcaster, log logging.Logger) *Runner {
	return &Runner{db: db, client: client, online: online, status: status, log: log}
}

// Run executes one sync cycle. While offline it is a silent no-op that
// leaves outbox state, cursor, cache, and status untouched. A cycle already
// in flight makes Run a no-op too; overlapping runs are never allowed.
func (r *Runner) Run(ctx context.Context) error {
	if !r.online() {
		r.log.Debug(ctx, "skipping sync, offline")
		return nil
	}
	if !r.running.CompareAndSwap(false, true) {
		r.log.Debug(ctx, "skipping sync, already running")
		return nil
	}
	defer r.running.Store(false)

	r.status.Set(StatusSyncing)

	if err := r.cycle(ctx); err != nil {
		r.status.Set(StatusError)
		r.log.Error(ctx, "sync cycle failed", "error", err)
		return err
	}

	r.status.Set(StatusIdle)
	return nil
}

func (r *Runner) cycle(ctx context.Context) error {
	if err := r.recoverStaleSending(ctx); err != nil {
		return err
	}
	if err := r.pushAttachmentCreates(ctx); err != nil {
		return err
	}
	if err := r.pushReadyUploads(ctx); err != nil {
		return err
	}
	if err := r.pushBatch(ctx); err != nil {
		return err
	}
	return r.pull(ctx)
}

// recoverStaleSending restores items a crashed process left in sending.
// Within one process the re-entrancy guard makes overlapping cycles
// impossible, so anything sending at cycle start is an orphan.
func (r *Runner) recoverStaleSending(ctx context.Context) error {
	repos := store.NewRepositories(r.db)

	items, err := repos.Outbox.ListPending(ctx)
	if err != nil {
		return err
	}
	for _, item := range items {
		if item.Status != models.OutboxSending {
			continue
		}
		r.log.Warn(ctx, "restoring orphaned outbox item", "item", item.ID)
		if err := repos.Outbox.Restore(ctx, item.ID); err != nil {
			return err
		}
	}
	return nil
}

// pushAttachmentCreates registers attachment metadata server-side, one item
// at a time. A reachable server rejecting an item is terminal: the item and
// its dependent upload are marked failed and the cached attachment flips to
// FAILED. An unreachable server aborts the cycle with every touched item
// restored to pending.
func (r *Runner) pushAttachmentCreates(ctx context.Context) error {
	repos := store.NewRepositories(r.db)

	items, err := repos.Outbox.ListPendingByEntity(ctx, models.EntityAttachment)
	if err != nil {
		return err
	}

	for _, item := range items {
		var p models.AttachmentCreatePayload
		if err := json.Unmarshal(item.Payload, &p); err != nil {
			return fmt.Errorf("outbox item %s: %w", item.ID, err)
		}

		if err := repos.Outbox.MarkSending(ctx, item.ID); err != nil {
			return err
		}

		in := api.AttachmentInput{
			ID:        item.EntityID,
			Filename:  p.Filename,
			MimeType:  p.MimeType,
			SizeBytes: p.SizeBytes,
		}

		var rec *models.Attachment
		switch p.Scope {
		case models.ScopeTicket:
			rec, err = r.client.CreateTicketAttachment(ctx, p.ParentID, in)
		case models.ScopeVisit:
			rec, err = r.client.CreateVisitAttachment(ctx, p.ParentID, in)
		default:
			err = fmt.Errorf("unknown attachment scope %q", p.Scope)
		}

		if errors.Is(err, api.ErrUnavailable) {
			if rerr := repos.Outbox.Restore(ctx, item.ID); rerr != nil {
				return rerr
			}
			return err
		}
		if err != nil {
			if ferr := r.failAttachment(ctx, item, p.Scope, p.ParentID, err); ferr != nil {
				return ferr
			}
			continue
		}

		err = dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			repos := store.NewRepositories(tx)
			if err := mutations.UpdateCachedAttachment(ctx, repos, p.Scope, p.ParentID, item.EntityID, func(a *models.Attachment) {
				a.URL = rec.URL
				if rec.Status != "" {
					a.Status = rec.Status
				}
			}); err != nil {
				return err
			}
			return repos.Outbox.Remove(ctx, item.ID)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// pushReadyUploads PUTs the bytes of every upload whose metadata phase has
// completed. An upload whose blob has vanished fails immediately instead of
// retrying forever.
func (r *Runner) pushReadyUploads(ctx context.Context) error {
	repos := store.NewRepositories(r.db)

	items, err := repos.Outbox.ListReadyUploads(ctx)
	if err != nil {
		return err
	}

	for _, item := range items {
		var p models.AttachmentUploadPayload
		if err := json.Unmarshal(item.Payload, &p); err != nil {
			return fmt.Errorf("outbox item %s: %w", item.ID, err)
		}

		blob, err := repos.Blobs.Get(ctx, item.EntityID)
		if err != nil {
			return err
		}
		if blob == nil {
			if ferr := r.failAttachment(ctx, item, p.Scope, p.ParentID, mutations.ErrBlobUnavailable); ferr != nil {
				return ferr
			}
			continue
		}

		if err := repos.Outbox.MarkSending(ctx, item.ID); err != nil {
			return err
		}

		rec, err := r.client.UploadAttachment(ctx, item.EntityID, p.MimeType, blob.Data)
		if errors.Is(err, api.ErrUnavailable) {
			if rerr := repos.Outbox.Restore(ctx, item.ID); rerr != nil {
				return rerr
			}
			return err
		}
		if err != nil {
			if ferr := r.failAttachment(ctx, item, p.Scope, p.ParentID, err); ferr != nil {
				return ferr
			}
			continue
		}

		err = dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			repos := store.NewRepositories(tx)
			if err := mutations.UpdateCachedAttachment(ctx, repos, p.Scope, p.ParentID, item.EntityID, func(a *models.Attachment) {
				a.Status = models.AttachmentReady
				if rec.URL != "" {
					a.URL = rec.URL
				}
			}); err != nil {
				return err
			}
			if err := repos.Blobs.Delete(ctx, item.EntityID); err != nil {
				return err
			}
			return repos.Outbox.Remove(ctx, item.ID)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// failAttachment records a terminal attachment failure: the item itself,
// any still-queued sibling for the same attachment (an upload cannot
// proceed without its metadata), and the cached status.
func (r *Runner) failAttachment(ctx context.Context, item *models.OutboxItem, scope models.AttachmentScope, parentID string, cause error) error {
	reason := failureReason(cause)
	r.log.Warn(ctx, "attachment operation rejected",
		"item", item.ID, "attachment", item.EntityID, "reason", reason)

	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repos := store.NewRepositories(tx)

		if err := repos.Outbox.MarkFailed(ctx, item.ID, reason); err != nil {
			return err
		}

		if item.Entity == models.EntityAttachment {
			uploads, err := repos.Outbox.ListPendingByEntity(ctx, models.EntityAttachmentUpload)
			if err != nil {
				return err
			}
			for _, u := range uploads {
				if u.EntityID != item.EntityID {
					continue
				}
				if err := repos.Outbox.MarkFailed(ctx, u.ID, reason); err != nil {
					return err
				}
			}
		}

		return mutations.UpdateCachedAttachment(ctx, repos, scope, parentID, item.EntityID, func(a *models.Attachment) {
			a.Status = models.AttachmentFailed
		})
	})
}

// pushBatch submits queued ticket and visit operations in one apply call,
// oldest first. Per-operation rejections are terminal (failed, with the
// server's code); a batch that never reached the server restores every
// submitted item to pending for automatic retry next cycle.
func (r *Runner) pushBatch(ctx context.Context) error {
	repos := store.NewRepositories(r.db)

	all, err := repos.Outbox.ListPending(ctx)
	if err != nil {
		return err
	}

	var batch []*models.OutboxItem
	for _, item := range all {
		if item.Status != models.OutboxPending {
			continue
		}
		if item.Entity != models.EntityTicket && item.Entity != models.EntityVisit {
			continue
		}
		batch = append(batch, item)
		if len(batch) == api.MaxApplyOps {
			break
		}
	}
	if len(batch) == 0 {
		return nil
	}

	clientID, err := r.clientID(ctx, repos)
	if err != nil {
		return err
	}

	ops := make([]api.ApplyOp, 0, len(batch))
	for _, item := range batch {
		if err := repos.Outbox.MarkSending(ctx, item.ID); err != nil {
			return err
		}
		ops = append(ops, api.ApplyOp{
			ID:            item.ID,
			Entity:        string(item.Entity),
			EntityID:      item.EntityID,
			Op:            string(item.Op),
			BaseUpdatedAt: item.BaseUpdatedAt,
			Payload:       item.Payload,
		})
	}

	resp, err := r.client.Apply(ctx, clientID, ops)
	if err != nil {
		for _, item := range batch {
			if rerr := repos.Outbox.Restore(ctx, item.ID); rerr != nil {
				return rerr
			}
		}
		return err
	}

	results := make(map[string]api.ApplyResult, len(resp.Results))
	for _, res := range resp.Results {
		results[res.OpID] = res
	}

	for _, item := range batch {
		res, found := results[item.ID]
		switch {
		case !found:
			if err := repos.Outbox.MarkFailed(ctx, item.ID, api.CodeNoResponse); err != nil {
				return err
			}
		case res.OK:
			if err := r.acknowledge(ctx, item, res); err != nil {
				return err
			}
		default:
			r.log.Warn(ctx, "operation rejected by server",
				"item", item.ID, "entity", item.Entity, "reason", res.Error)
			if err := repos.Outbox.MarkFailed(ctx, item.ID, res.Error); err != nil {
				return err
			}
		}
	}
	return nil
}

// acknowledge removes a confirmed item and, for tickets, stamps the
// server-confirmed updatedAt onto the cached copy so the next edit's
// baseUpdatedAt is not immediately stale.
func (r *Runner) acknowledge(ctx context.Context, item *models.OutboxItem, res api.ApplyResult) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repos := store.NewRepositories(tx)

		if item.Entity == models.EntityTicket && res.ServerUpdatedAt != "" {
			detail, err := repos.Tickets.GetDetail(ctx, item.EntityID)
			if err != nil {
				return err
			}
			if detail != nil {
				detail.UpdatedAt = res.ServerUpdatedAt
				if err := repos.Tickets.SaveDetail(ctx, detail); err != nil {
					return err
				}
			}
		}

		return repos.Outbox.Remove(ctx, item.ID)
	})
}

// pull fetches changes since the persisted cursor (an unbounded first pull
// when none) and bulk-upserts the returned summaries before persisting the
// new cursor, in one transaction.
func (r *Runner) pull(ctx context.Context) error {
	repos := store.NewRepositories(r.db)

	cur, err := repos.SyncState.Get(ctx, syncstate.KeyLastSyncCursor)
	if err != nil {
		return err
	}

	resp, err := r.client.Changes(ctx, string(cur))
	if err != nil {
		return err
	}

	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repos := store.NewRepositories(tx)

		if err := repos.Tickets.UpsertSummaries(ctx, resp.Changes.Tickets); err != nil {
			return err
		}
		if err := repos.Sites.UpsertAll(ctx, resp.Changes.Sites); err != nil {
			return err
		}
		if err := repos.Reference.UpsertTemplates(ctx, resp.Changes.Templates); err != nil {
			return err
		}
		return repos.SyncState.Set(ctx, syncstate.KeyLastSyncCursor, []byte(resp.Cursor))
	})
}

// clientID returns the stable per-install identifier, minting one on first
// use.
func (r *Runner) clientID(ctx context.Context, repos *store.Repositories) (string, error) {
	v, err := repos.SyncState.Get(ctx, syncstate.KeyClientID)
	if err != nil {
		return "", err
	}
	if v != nil {
		return string(v), nil
	}

	id := uuid.NewString()
	if err := repos.SyncState.Set(ctx, syncstate.KeyClientID, []byte(id)); err != nil {
		return "", err
	}
	return id, nil
}

// failureReason maps an error to the reason recorded on a failed item: the
// server's application code when it sent one, the error text otherwise.
func failureReason(err error) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.Code != "" {
		return apiErr.Code
	}
	return err.Error()
}
