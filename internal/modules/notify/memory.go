// README: In-memory notification queue for tests and redis-less development.
package notify

import (
	"context"
	"sync"
)

type MemQueue struct {
	mu     sync.Mutex
	events []Event
}

func NewMemQueue() *MemQueue {
	return &MemQueue{}
}

func (q *MemQueue) Enqueue(_ context.Context, e Event) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(q.events, e)
	return nil
}

func (q *MemQueue) Dequeue(_ context.Context) (*Event, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.events) == 0 {
		return nil, nil
	}
	e := q.events[0]
	q.events = q.events[1:]
	return &e, nil
}

// Snapshot returns the queued events without consuming them; test helper.
func (q *MemQueue) Snapshot() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Event, len(q.events))
	copy(out, q.events)
	return out
}
