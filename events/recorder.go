package events

import (
	"context"
	"sync"
)

// Recorder captures events for test assertions. It implements both
// Publisher (synchronous capture) and Subscriber, so it can stand in for
// the whole notification path or ride on a Bus.
type Recorder struct {
	mu     sync.RWMutex
	events []Event
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Publish records the event.
func (r *Recorder) Publish(ctx context.Context, event Event) {
	r.record(event)
}

// Handle records the event.
func (r *Recorder) Handle(ctx context.Context, event Event) {
	r.record(event)
}

func (r *Recorder) record(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns all recorded events in publish order.
func (r *Recorder) Events() []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := make([]Event, len(r.events))
	copy(events, r.events)
	return events
}

// OfName returns recorded events with the given name, in publish order.
func (r *Recorder) OfName(name string) []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Event
	for _, e := range r.events {
		if e.Name() == name {
			out = append(out, e)
		}
	}
	return out
}

// Reset discards all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
