// Package eventstest provides an in-memory publisher for service tests.
package eventstest

import (
	"context"
	"sync"

	"backoffice-system/internal/events"
)

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []events.OrderEvent
}

func (r *Recorder) PublishOrderEvent(_ context.Context, event events.OrderEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *Recorder) Events() []events.OrderEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.OrderEvent(nil), r.events...)
}

func (r *Recorder) Types() []string {
	recorded := r.Events()
	types := make([]string, 0, len(recorded))
	for _, e := range recorded {
		types = append(types, e.EventType)
	}
	return types
}
