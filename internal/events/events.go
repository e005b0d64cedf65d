package events

import "sync"

// Event names published by the store.
const (
	Set         = "set"
	Get         = "get"
	Delete      = "delete"
	QueueRemove = "queueRemove"
	Cleanup     = "cleanup"
	Removed     = "removed"
)

// Handler receives the payload of one emitted event.
type Handler func(payload any)

// Emitter is a named-event publish/subscribe sink.
//
// Emit must be synchronous and must not block on I/O: every handler
// registered for name has returned by the time Emit returns.
type Emitter interface {
	Emit(name string, payload any)
	On(name string, h Handler) (unsubscribe func())
}

// Bus is a concurrency-safe Emitter backed by per-name handler lists.
// Handlers run on the emitting goroutine in registration order.
type Bus struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[string][]subscription
}

type subscription struct {
	id uint64
	h  Handler
}

// NewBus returns an empty Bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]subscription)}
}

// On registers h for name and returns a func that removes it.
// The returned func is safe to call more than once.
func (b *Bus) On(name string, h Handler) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.handlers[name] = append(b.handlers[name], subscription{id: id, h: h})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.off(name, id) })
	}
}

func (b *Bus) off(name string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[name]
	for i, s := range subs {
		if s.id != id {
			continue
		}
		// Copy so an Emit iterating the old slice is unaffected.
		out := make([]subscription, 0, len(subs)-1)
		out = append(out, subs[:i]...)
		out = append(out, subs[i+1:]...)
		if len(out) == 0 {
			delete(b.handlers, name)
		} else {
			b.handlers[name] = out
		}
		return
	}
}

// Emit calls every handler registered for name with payload.
//
// The handler list is snapshotted before dispatch, so handlers may
// subscribe or unsubscribe without deadlocking.
func (b *Bus) Emit(name string, payload any) {
	b.mu.RLock()
	subs := b.handlers[name]
	b.mu.RUnlock()

	for _, s := range subs {
		s.h(payload)
	}
}

// Len reports how many handlers are registered for name.
func (b *Bus) Len(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[name])
}
