// Package sync drains the outbox against the server and pulls incremental
// changes back: the runner executes one strictly ordered cycle (attachment
// metadata, attachment bytes, batch push, pull), the broadcaster publishes
// the runner's idle/syncing/error state, and bootstrap seeds a fresh cache.
package sync

import "sync"

// Status is the externally visible state of the sync runner.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusSyncing Status = "syncing"
	StatusError   Status = "error"
)

// Broadcaster publishes status transitions to any number of subscribers.
// A subscriber that is slow to read only misses intermediate transitions,
// never the latest one.
type Broadcaster struct {
	mu      sync.Mutex
	current Status
	subs    map[int]chan Status
	next    int
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		current: StatusIdle,
		subs:    make(map[int]chan Status),
	}
}

// Current returns the latest published status.
func (b *Broadcaster) Current() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Set publishes a new status to all subscribers without blocking: each
// subscriber channel holds the most recent value, a stale unread value is
// dropped first.
func (b *Broadcaster) Set(s Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = s
	for _, ch := range b.subs {
		select {
		case <-ch:
		default:
		}
		ch <- s
	}
}

// Subscribe registers a listener. The returned channel immediately carries
// the current status; the returned func unsubscribes.
func (b *Broadcaster) Subscribe() (<-chan Status, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++

	ch := make(chan Status, 1)
	ch <- b.current
	b.subs[id] = ch

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}
