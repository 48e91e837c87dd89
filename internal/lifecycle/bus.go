package lifecycle

import "sync"

type EventType string

const (
	EventStatusChanged EventType = "status_changed"
	EventDeleted       EventType = "deleted"
)

type Event struct {
	Type      EventType `json:"type"`
	InvoiceID string    `json:"invoice_id"`
	Status    Status    `json:"status,omitempty"`
	// OwnerID scopes delivery; it never goes on the wire.
	OwnerID string `json:"-"`
}

// Bus is a session-scoped publish/subscribe channel. Publish never
// blocks: a subscriber that falls more than subBuffer events behind
// loses the oldest ones and is expected to refetch.
type Bus struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

const subBuffer = 16

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe returns a receive channel and an unsubscribe func. The
// channel is closed on unsubscribe.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	ch := make(chan Event, subBuffer)
	b.subs[id] = ch
	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			// slow subscriber, drop the oldest and retry once
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- e:
			default:
			}
		}
	}
}
