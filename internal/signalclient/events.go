package signalclient

import (
	"sync"

	"github.com/jdunham2/dunhamwordle-sub000/internal/signaling"
)

// Synthetic event types emitted by the client itself, alongside the
// wire message types from the signaling package.
const (
	EventDisconnected signaling.MessageType = "_disconnected"
	EventReconnected  signaling.MessageType = "_reconnected"
)

// Handler receives a dispatched signaling message.
type Handler func(*signaling.Message)

// Subscription identifies one registered handler so it can be removed
// without affecting other handlers for the same event type.
type Subscription struct {
	typ signaling.MessageType
	id  uint64
}

// Bus is a typed publish-subscribe dispatcher for signaling events.
// Handlers are invoked synchronously on the client's read goroutine,
// in subscription order.
type Bus struct {
	mu       sync.Mutex
	nextID   uint64
	handlers map[signaling.MessageType][]busEntry
}

type busEntry struct {
	id uint64
	fn Handler
}

// NewBus creates an empty dispatcher.
func NewBus() *Bus {
	return &Bus{handlers: make(map[signaling.MessageType][]busEntry)}
}

// On registers fn for messages of type typ and returns a token for Off.
func (b *Bus) On(typ signaling.MessageType, fn Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.handlers[typ] = append(b.handlers[typ], busEntry{id: b.nextID, fn: fn})
	return Subscription{typ: typ, id: b.nextID}
}

// Off removes the handler identified by sub. Removing an already-removed
// subscription is a no-op.
func (b *Bus) Off(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entries := b.handlers[sub.typ]
	for i, e := range entries {
		if e.id == sub.id {
			b.handlers[sub.typ] = append(entries[:i], entries[i+1:]...)
			return
		}
	}
}

// Emit delivers msg to every handler registered for its type.
func (b *Bus) Emit(msg *signaling.Message) {
	b.mu.Lock()
	entries := append([]busEntry(nil), b.handlers[msg.Type]...)
	b.mu.Unlock()

	for _, e := range entries {
		e.fn(msg)
	}
}
