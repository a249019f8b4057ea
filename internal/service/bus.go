package service

import "sync"

// Event resources and actions published by State.
const (
	ResourceLayers   = "layers"
	ResourceCategory = "category"

	ActionSeeded  = "seeded"
	ActionToggled = "toggled"
	ActionUpdated = "updated"
)

// Event describes one state change.
type Event struct {
	Resource string
	Action   string
	ID       string // layer ID or category
}

// subscriberBuffer bounds how far a subscriber may lag before events are dropped.
const subscriberBuffer = 16

// EventBus fans events out to subscribers. Publishing never blocks: a
// subscriber whose buffer is full misses the event.
type EventBus struct {
	mu      sync.Mutex
	next    int
	subs    map[int]chan Event
	dropped int
}

func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[int]chan Event)}
}

// Publish delivers e to every subscriber with room for it.
func (b *EventBus) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			b.dropped++
		}
	}
}

// Subscribe registers a subscriber. The returned cancel func unregisters it
// and closes the channel; calling it more than once is safe.
func (b *EventBus) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Dropped reports how many deliveries were skipped because a subscriber lagged.
func (b *EventBus) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
