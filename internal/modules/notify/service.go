// README: Notification service: fire-and-forget publish plus dispatch loop.
package notify

import (
	"context"
	"log"
	"time"
)

// Sender delivers one event to its recipient's device(s).
type Sender interface {
	Send(ctx context.Context, e Event) error
}

type Service struct {
	queue       Queue
	sender      Sender
	tickSeconds int
}

func NewService(queue Queue, sender Sender, tickSeconds int) *Service {
	if tickSeconds <= 0 {
		tickSeconds = 2
	}
	return &Service{queue: queue, sender: sender, tickSeconds: tickSeconds}
}

// Publish enqueues an event. Failures are logged and swallowed: the ride's
// state change is the source of truth, a lost notification never rolls it
// back.
func (s *Service) Publish(ctx context.Context, e Event) {
	if err := s.queue.Enqueue(ctx, e); err != nil {
		log.Printf("notify: enqueue %s for %s: %v", e.Kind, e.UserID, err)
	}
}

// RunDispatcher drains the queue on a ticker and hands events to the sender.
// Delivery is at-most-once: a failed send is logged and dropped.
func (s *Service) RunDispatcher(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(s.tickSeconds) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.drain(ctx)
		}
	}
}

func (s *Service) drain(ctx context.Context) {
	for {
		e, err := s.queue.Dequeue(ctx)
		if err != nil {
			log.Printf("notify: dequeue: %v", err)
			return
		}
		if e == nil {
			return
		}
		if err := s.sender.Send(ctx, *e); err != nil {
			log.Printf("notify: send %s to %s: %v", e.Kind, e.UserID, err)
		}
	}
}
