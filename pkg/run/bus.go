package run

import (
	"sync"

	"go.uber.org/zap"

	"github.com/manroop79/coding-arena/pkg/agent"
)

// Listener receives every event broadcast for a run after the listener
// subscribed. Listeners must be fast and must not call back into the
// registry: Broadcast runs on the appending goroutine, under the
// registry's ordering lock when invoked from AppendEvent.
type Listener func(agent.Event)

type subscription struct {
	id uint64
	fn Listener
}

// Bus is the per-run publish/subscribe fan-out for live events. It keeps
// no history: a listener subscribed after an event was broadcast never
// sees it (history is served separately, from the Registry).
type Bus struct {
	mu     sync.Mutex
	nextID uint64

	// subs preserves registration order per run id.
	subs map[string][]subscription

	logger *zap.Logger
}

// NewBus creates an empty bus.
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{
		subs:   make(map[string][]subscription),
		logger: logger,
	}
}

// Subscribe registers a listener for a run and returns an unsubscribe
// capability that removes exactly that registration. Removing the last
// listener for a run releases the run's listener set. Unsubscribing more
// than once is a no-op.
func (b *Bus) Subscribe(runID string, fn Listener) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs[runID] = append(b.subs[runID], subscription{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		listeners := b.subs[runID]
		for i, sub := range listeners {
			if sub.id == id {
				b.subs[runID] = append(listeners[:i:i], listeners[i+1:]...)
				break
			}
		}
		if len(b.subs[runID]) == 0 {
			delete(b.subs, runID)
		}
	}
}

// Broadcast synchronously invokes every currently registered listener for
// the run, in registration order. A panicking listener is recovered and
// logged so it cannot prevent siblings from receiving the event.
func (b *Bus) Broadcast(runID string, ev agent.Event) {
	b.mu.Lock()
	listeners := make([]subscription, len(b.subs[runID]))
	copy(listeners, b.subs[runID])
	b.mu.Unlock()

	for _, sub := range listeners {
		b.invoke(sub, ev)
	}
}

func (b *Bus) invoke(sub subscription, ev agent.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event listener panicked",
				zap.Uint64("subscription_id", sub.id),
				zap.Any("panic", r),
			)
		}
	}()

	sub.fn(ev)
}

// ListenerCount reports the number of active listeners for a run.
func (b *Bus) ListenerCount(runID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[runID])
}
