package events

import (
	"context"
	"sync"

	"github.com/caseline/caseline/logger"
)

// Publisher delivers events to interested consumers. Publishing is
// fire-and-forget: it never blocks the caller on consumer work and never
// reports consumer failures back.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// Subscriber handles events delivered by a Bus.
type Subscriber interface {
	Handle(ctx context.Context, event Event)
}

// SubscriberFunc adapts a function to the Subscriber interface.
type SubscriberFunc func(ctx context.Context, event Event)

// Handle calls the function.
func (f SubscriberFunc) Handle(ctx context.Context, event Event) {
	f(ctx, event)
}

// Nop discards all events.
type Nop struct{}

// NewNop creates a publisher that discards everything.
func NewNop() *Nop {
	return &Nop{}
}

// Publish does nothing.
func (n *Nop) Publish(ctx context.Context, event Event) {}

// Bus fans events out to subscribers, each on its own goroutine. A
// panicking subscriber is logged and never affects the publisher or the
// other subscribers.
type Bus struct {
	logger logger.Logger

	mu   sync.RWMutex
	subs []Subscriber

	wg sync.WaitGroup
}

// NewBus creates an empty bus.
func NewBus(logger logger.Logger) *Bus {
	return &Bus{logger: logger}
}

// Subscribe registers a subscriber for all subsequent events.
func (b *Bus) Subscribe(s Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, s)
}

// Publish dispatches the event to every subscriber asynchronously.
func (b *Bus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	subs := make([]Subscriber, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		b.wg.Add(1)
		go func(s Subscriber) {
			defer b.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error(ctx, "event subscriber panicked", map[string]interface{}{
						"event": event.Name(),
						"panic": r,
					})
				}
			}()
			s.Handle(ctx, event)
		}(s)
	}
}

// Wait blocks until all in-flight deliveries complete. Intended for
// shutdown and tests.
func (b *Bus) Wait() {
	b.wg.Wait()
}
