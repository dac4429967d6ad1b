package mutations

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sitetrackr/fieldsync/internal/client/models"
	"github.com/sitetrackr/fieldsync/internal/client/store"
)

func unmarshalPayload(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decoding outbox payload: %w", err)
	}
	return nil
}

// injectAttachment adds an attachment placeholder to the cached parent.
// A parent that is not cached in detail is fine: the next pull brings the
// server view back.
func injectAttachment(ctx context.Context, repos *store.Repositories, scope models.AttachmentScope, parentID string, att models.Attachment) error {
	switch scope {
	case models.ScopeTicket:
		detail, err := repos.Tickets.GetDetail(ctx, parentID)
		if err != nil || detail == nil {
			return err
		}
		detail.Attachments = append(detail.Attachments, att)
		return repos.Tickets.SaveDetail(ctx, detail)

	case models.ScopeVisit:
		visit, err := repos.Visits.GetByID(ctx, parentID)
		if err != nil || visit == nil {
			return err
		}
		visit.Attachments = append(visit.Attachments, att)
		if err := repos.Visits.Upsert(ctx, visit); err != nil {
			return err
		}
		return mergeVisitIntoTicket(ctx, repos, visit)

	default:
		return fmt.Errorf("unknown attachment scope %q", scope)
	}
}

// UpdateCachedAttachment applies fn to the cached copy of an attachment,
// wherever it lives: the ticket's own list for ticket scope, or the visit
// row plus the embedded copy inside the ticket detail for visit scope.
// Missing parents are skipped silently; the cache is best-effort.
func UpdateCachedAttachment(ctx context.Context, repos *store.Repositories, scope models.AttachmentScope, parentID, attachmentID string, fn func(*models.Attachment)) error {
	switch scope {
	case models.ScopeTicket:
		detail, err := repos.Tickets.GetDetail(ctx, parentID)
		if err != nil || detail == nil {
			return err
		}
		if !patchAttachmentList(detail.Attachments, attachmentID, fn) {
			return nil
		}
		return repos.Tickets.SaveDetail(ctx, detail)

	case models.ScopeVisit:
		visit, err := repos.Visits.GetByID(ctx, parentID)
		if err != nil || visit == nil {
			return err
		}
		if !patchAttachmentList(visit.Attachments, attachmentID, fn) {
			return nil
		}
		if err := repos.Visits.Upsert(ctx, visit); err != nil {
			return err
		}
		return mergeVisitIntoTicket(ctx, repos, visit)

	default:
		return fmt.Errorf("unknown attachment scope %q", scope)
	}
}

func patchAttachmentList(list []models.Attachment, id string, fn func(*models.Attachment)) bool {
	for i := range list {
		if list[i].ID == id {
			fn(&list[i])
			return true
		}
	}
	return false
}

// mergeVisitIntoTicket refreshes the embedded copy of a visit inside its
// ticket's cached detail, keeping the two views consistent.
func mergeVisitIntoTicket(ctx context.Context, repos *store.Repositories, visit *models.Visit) error {
	detail, err := repos.Tickets.GetDetail(ctx, visit.TicketID)
	if err != nil || detail == nil {
		return err
	}
	for i := range detail.Visits {
		if detail.Visits[i].ID == visit.ID {
			detail.Visits[i] = *visit
			return repos.Tickets.SaveDetail(ctx, detail)
		}
	}
	return nil
}
