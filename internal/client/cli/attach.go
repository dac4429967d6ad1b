package cli

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/sitetrackr/fieldsync/internal/client/models"
	"github.com/sitetrackr/fieldsync/internal/client/mutations"
)

// Attach stores a file locally and queues its two-phase upload.
//
// Usage: attach ticket <ticketId> <file>
//        attach visit <visitId> <ticketId> <file>
func (a *App) Attach(ctx context.Context, args []string) error {
	var in mutations.AddAttachmentInput

	switch {
	case len(args) == 3 && args[0] == string(models.ScopeTicket):
		in.Scope = models.ScopeTicket
		in.ParentID = args[1]
		in.TicketID = args[1]
		in.Filename = args[2]
	case len(args) == 4 && args[0] == string(models.ScopeVisit):
		in.Scope = models.ScopeVisit
		in.ParentID = args[1]
		in.TicketID = args[2]
		in.Filename = args[3]
	default:
		printlnFn("Usage: attach ticket <ticketId> <file> | attach visit <visitId> <ticketId> <file>")
		return errors.New("bad attach arguments")
	}

	data, err := os.ReadFile(in.Filename)
	if err != nil {
		printlnFn("Cannot read file:", err.Error())
		return err
	}
	in.Data = data

	path := in.Filename
	in.Filename = filepath.Base(path)
	in.MimeType = mime.TypeByExtension(filepath.Ext(path))
	if in.MimeType == "" {
		in.MimeType = "application/octet-stream"
	}

	att, err := a.muts.AddAttachment(ctx, in)
	if err != nil {
		if errors.Is(err, mutations.ErrAttachmentTooLarge) {
			printlnFn(fmt.Sprintf("File too large (limit %d MiB).", a.config.MaxAttachmentBytes>>20))
		} else {
			printlnFn("Cannot attach:", err.Error())
		}
		return err
	}

	printlnFn("Attachment", att.ID, "queued for upload.")
	return nil
}
