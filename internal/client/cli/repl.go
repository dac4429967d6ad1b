package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = func(args ...any) { fmt.Println(args...) }

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	List(ctx context.Context) error
	Show(ctx context.Context, id string) error
	Edit(ctx context.Context, id string) error
	AddVisit(ctx context.Context, ticketID string) error
	Attach(ctx context.Context, args []string) error
	Queue(ctx context.Context) error
	Retry(ctx context.Context, id string) error
	Discard(ctx context.Context, id string) error
	Sync(ctx context.Context) error
	Bootstrap(ctx context.Context) error
	Status(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Commands:
//
//	list              — cached ticket list
//	show <id>         — ticket detail
//	edit <id>         — patch a ticket field
//	addvisit <id>     — record a visit on a ticket
//	attach <scope> <parentId> <ticketId> <file> — attach a file
//	queue             — inspect pending/failed outbox items
//	retry <id>        — retry a failed attachment upload
//	discard <id>      — drop a failed outbox item
//	sync              — run a sync cycle now
//	bootstrap         — seed the local cache
//	status            — connectivity, sync state, queue counters
//	exit | quit       — leave the program
//
// Any errors returned by command handlers are ignored here; handlers print
// their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("fs> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			printlnFn("Available commands: (l)ist, show <id>, edit <id>, addvisit <id>, attach, queue, retry <id>, discard <id>, sync, bootstrap, status, exit")

		case "l", "list":
			_ = a.List(ctx)

		case "show":
			if len(args) == 0 {
				printlnFn("Usage: show <ticket-id>")
				continue
			}
			_ = a.Show(ctx, args[0])

		case "edit":
			if len(args) == 0 {
				printlnFn("Usage: edit <ticket-id>")
				continue
			}
			_ = a.Edit(ctx, args[0])

		case "addvisit":
			if len(args) == 0 {
				printlnFn("Usage: addvisit <ticket-id>")
				continue
			}
			_ = a.AddVisit(ctx, args[0])

		case "attach":
			_ = a.Attach(ctx, args)

		case "queue":
			_ = a.Queue(ctx)

		case "retry":
			if len(args) == 0 {
				printlnFn("Usage: retry <attachment-id>")
				continue
			}
			_ = a.Retry(ctx, args[0])

		case "discard":
			if len(args) == 0 {
				printlnFn("Usage: discard <outbox-item-id>")
				continue
			}
			_ = a.Discard(ctx, args[0])

		case "sync":
			_ = a.Sync(ctx)

		case "bootstrap":
			_ = a.Bootstrap(ctx)

		case "status":
			_ = a.Status(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
