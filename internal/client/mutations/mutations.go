// Package mutations is the write path for UI/CLI code: every operation
// applies the optimistic change to the local cache and enqueues the
// corresponding outbox entry in one transaction, so a reader never observes
// one without the other.
package mutations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sitetrackr/fieldsync/internal/client/models"
	"github.com/sitetrackr/fieldsync/internal/client/store"
	"github.com/sitetrackr/fieldsync/internal/dbx"
	"github.com/sitetrackr/fieldsync/internal/logging"
)

var (
	// ErrAttachmentTooLarge is returned before any local write when the
	// file exceeds the configured ceiling.
	ErrAttachmentTooLarge = errors.New("attachment exceeds size limit")

	// ErrBlobUnavailable means the raw bytes of a pending upload are no
	// longer stored locally; the user has to re-add the file.
	ErrBlobUnavailable = errors.New("attachment content unavailable locally")
)

// Service applies optimistic mutations. All methods are local writes only;
// nothing here talks to the network.
type Service struct {
	db       *sql.DB
	log      logging.Logger
	maxBytes int64
	now      func() time.Time
}

// NewService returns a Service. maxAttachmentBytes caps AddAttachment
// (25 MiB in the default configuration).
func NewService(db *sql.DB, log logging.Logger, maxAttachmentBytes int64) *Service {
	return &Service{db: db, log: log, maxBytes: maxAttachmentBytes, now: time.Now}
}

// UpdateTicket merges a partial patch into the cached ticket detail and
// summary, stamps a local updatedAt, and enqueues a ticket/update op.
// baseUpdatedAt is the server timestamp the caller captured before editing;
// the server uses it to detect a stale write.
func (s *Service) UpdateTicket(ctx context.Context, ticketID string, patch map[string]any, baseUpdatedAt string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repos := store.NewRepositories(tx)

		detail, err := repos.Tickets.GetDetail(ctx, ticketID)
		if err != nil {
			return err
		}
		if detail != nil {
			detail.ApplyPatch(patch)
			detail.UpdatedAt = s.now().UTC().Format(time.RFC3339)
			if err := repos.Tickets.SaveDetail(ctx, detail); err != nil {
				return err
			}
		} else {
			s.log.Debug(ctx, "ticket detail not cached, queueing patch without optimistic update", "ticket", ticketID)
		}

		return repos.Outbox.Enqueue(ctx, &models.OutboxItem{
			ID:            uuid.NewString(),
			Entity:        models.EntityTicket,
			EntityID:      ticketID,
			Op:            models.OpUpdate,
			Payload:       models.MarshalPayload(models.TicketPatchPayload{Patch: patch}),
			BaseUpdatedAt: baseUpdatedAt,
			CreatedAt:     s.now().UnixMilli(),
		})
	})
}

// CreateVisitInput carries the caller-supplied fields of a new visit.
// Technician identity is passed in, not re-derived.
type CreateVisitInput struct {
	TicketID       string
	TechnicianID   string
	TechnicianName string
	StartedAt      string
	EndedAt        string
	Notes          string
}

// CreateVisit synthesizes a client-side id, prepends the visit to the
// cached ticket's visit list, stores it in the flat visits table, and
// enqueues a visit/create op carrying the full record.
func (s *Service) CreateVisit(ctx context.Context, in CreateVisitInput) (*models.Visit, error) {
	if in.StartedAt == "" {
		in.StartedAt = s.now().UTC().Format(time.RFC3339)
	}
	v := &models.Visit{
		ID:             uuid.NewString(),
		TicketID:       in.TicketID,
		TechnicianID:   in.TechnicianID,
		TechnicianName: in.TechnicianName,
		StartedAt:      in.StartedAt,
		EndedAt:        in.EndedAt,
		Notes:          in.Notes,
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repos := store.NewRepositories(tx)

		if err := repos.Visits.Upsert(ctx, v); err != nil {
			return err
		}

		detail, err := repos.Tickets.GetDetail(ctx, in.TicketID)
		if err != nil {
			return err
		}
		if detail != nil {
			detail.Visits = append([]models.Visit{*v}, detail.Visits...)
			if err := repos.Tickets.SaveDetail(ctx, detail); err != nil {
				return err
			}
		}

		return repos.Outbox.Enqueue(ctx, &models.OutboxItem{
			ID:        uuid.NewString(),
			Entity:    models.EntityVisit,
			EntityID:  v.ID,
			Op:        models.OpCreate,
			Payload:   models.MarshalPayload(v),
			CreatedAt: s.now().UnixMilli(),
		})
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// AddAttachmentInput describes a file being attached to a ticket or visit.
type AddAttachmentInput struct {
	Scope    models.AttachmentScope
	ParentID string
	// TicketID of the parent ticket; equals ParentID for ticket scope and
	// names the visit's ticket for visit scope.
	TicketID string
	Filename string
	MimeType string
	Data     []byte
}

// AddAttachment validates the size ceiling, stores the raw bytes, injects a
// PENDING placeholder into the cached parent, and enqueues the two staged
// outbox entries: attachment/create (metadata registration) and
// attachment_upload/upload, linked via DependsOn. The server issues the
// canonical url only after metadata registration, so the upload must never
// run first.
func (s *Service) AddAttachment(ctx context.Context, in AddAttachmentInput) (*models.Attachment, error) {
	if int64(len(in.Data)) > s.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", ErrAttachmentTooLarge, len(in.Data), s.maxBytes)
	}

	att := &models.Attachment{
		ID:        uuid.NewString(),
		Filename:  in.Filename,
		MimeType:  in.MimeType,
		SizeBytes: int64(len(in.Data)),
		Status:    models.AttachmentPending,
		CreatedAt: s.now().UTC().Format(time.RFC3339),
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repos := store.NewRepositories(tx)

		if err := repos.Blobs.Put(ctx, &models.AttachmentBlob{
			ID:        att.ID,
			MimeType:  in.MimeType,
			SizeBytes: att.SizeBytes,
			Data:      in.Data,
			CreatedAt: s.now().UnixMilli(),
		}); err != nil {
			return err
		}

		if err := injectAttachment(ctx, repos, in.Scope, in.ParentID, *att); err != nil {
			return err
		}

		createID := uuid.NewString()
		now := s.now().UnixMilli()
		if err := repos.Outbox.Enqueue(ctx, &models.OutboxItem{
			ID:       createID,
			Entity:   models.EntityAttachment,
			EntityID: att.ID,
			Op:       models.OpCreate,
			Payload: models.MarshalPayload(models.AttachmentCreatePayload{
				Scope:     in.Scope,
				ParentID:  in.ParentID,
				Filename:  in.Filename,
				MimeType:  in.MimeType,
				SizeBytes: att.SizeBytes,
			}),
			CreatedAt: now,
		}); err != nil {
			return err
		}

		return repos.Outbox.Enqueue(ctx, &models.OutboxItem{
			ID:        uuid.NewString(),
			Entity:    models.EntityAttachmentUpload,
			EntityID:  att.ID,
			Op:        models.OpUpload,
			DependsOn: createID,
			Payload: models.MarshalPayload(models.AttachmentUploadPayload{
				AttachmentID: att.ID,
				MimeType:     in.MimeType,
				Scope:        in.Scope,
				ParentID:     in.ParentID,
			}),
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}
	return att, nil
}

// RetryAttachmentUpload resets a failed attachment so the next sync cycle
// attempts it again. It requires the original blob to still exist locally;
// blobs are not re-derivable, so without one the retry fails with
// ErrBlobUnavailable.
func (s *Service) RetryAttachmentUpload(ctx context.Context, attachmentID string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repos := store.NewRepositories(tx)

		blob, err := repos.Blobs.Get(ctx, attachmentID)
		if err != nil {
			return err
		}
		if blob == nil {
			return fmt.Errorf("attachment %s: %w", attachmentID, ErrBlobUnavailable)
		}

		failed, err := repos.Outbox.ListFailed(ctx)
		if err != nil {
			return err
		}

		var scope models.AttachmentScope
		var parentID, createID string
		haveUpload := false
		for _, item := range failed {
			if item.EntityID != attachmentID {
				continue
			}
			if item.Entity == models.EntityAttachmentUpload {
				haveUpload = true
			}
			if err := repos.Outbox.Reset(ctx, item.ID); err != nil {
				return err
			}
		}

		// find the upload's stage link and parent from whatever is queued
		pending, err := repos.Outbox.ListPending(ctx)
		if err != nil {
			return err
		}
		for _, item := range pending {
			if item.EntityID != attachmentID {
				continue
			}
			switch item.Entity {
			case models.EntityAttachment:
				createID = item.ID
				var p models.AttachmentCreatePayload
				if err := unmarshalPayload(item.Payload, &p); err != nil {
					return err
				}
				scope, parentID = p.Scope, p.ParentID
			case models.EntityAttachmentUpload:
				haveUpload = true
				var p models.AttachmentUploadPayload
				if err := unmarshalPayload(item.Payload, &p); err != nil {
					return err
				}
				scope, parentID = p.Scope, p.ParentID
			}
		}

		// the upload step can get dropped when its metadata phase failed
		// terminally; re-enqueue it
		if !haveUpload {
			if scope == "" {
				return fmt.Errorf("attachment %s has no queued operations to retry", attachmentID)
			}
			if err := repos.Outbox.Enqueue(ctx, &models.OutboxItem{
				ID:        uuid.NewString(),
				Entity:    models.EntityAttachmentUpload,
				EntityID:  attachmentID,
				Op:        models.OpUpload,
				DependsOn: createID,
				Payload: models.MarshalPayload(models.AttachmentUploadPayload{
					AttachmentID: attachmentID,
					MimeType:     blob.MimeType,
					Scope:        scope,
					ParentID:     parentID,
				}),
				CreatedAt: s.now().UnixMilli(),
			}); err != nil {
				return err
			}
		}

		if scope != "" {
			return UpdateCachedAttachment(ctx, repos, scope, parentID, attachmentID, func(a *models.Attachment) {
				a.Status = models.AttachmentPending
			})
		}
		return nil
	})
}
