package events

import (
	"strings"
	"sync"
)

// Name identifies an event channel on a Bus.
type Name string

// Handler receives a published payload.
type Handler[P any] func(P)

// Subscription is the handle returned by On. Pass it back to Off to remove
// the handler. The zero value is never a live subscription.
type Subscription struct {
	name Name
	id   uint64
}

// Name reports the event the subscription was registered for.
func (s Subscription) Name() Name {
	return s.name
}

// Valid reports whether the handle came from a successful On call.
func (s Subscription) Valid() bool {
	return s.id != 0
}

type registration[P any] struct {
	id      uint64
	handler Handler[P]
}

// Bus is an ordered registration table of handlers keyed by event name.
// Publish is synchronous: every handler runs to completion, in subscription
// order, before Publish returns. The handler list is copied under the lock
// before dispatch, so handlers may subscribe, unsubscribe or publish again
// without affecting the in-flight delivery.
type Bus[P any] struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[Name][]registration[P]
}

// New constructs an empty Bus.
func New[P any]() *Bus[P] {
	return &Bus[P]{handlers: make(map[Name][]registration[P])}
}

// On registers handler for name and returns its subscription handle. A nil
// handler or blank name yields an invalid handle and registers nothing.
func (b *Bus[P]) On(name Name, handler Handler[P]) Subscription {
	if b == nil || handler == nil {
		return Subscription{}
	}
	trimmed := Name(strings.TrimSpace(string(name)))
	if trimmed == "" {
		return Subscription{}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers == nil {
		b.handlers = make(map[Name][]registration[P])
	}
	b.nextID++
	id := b.nextID
	b.handlers[trimmed] = append(b.handlers[trimmed], registration[P]{id: id, handler: handler})
	return Subscription{name: trimmed, id: id}
}

// Off removes the handler behind sub. Unknown or already removed handles are
// ignored.
func (b *Bus[P]) Off(sub Subscription) {
	if b == nil || !sub.Valid() {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	regs := b.handlers[sub.name]
	for idx, reg := range regs {
		if reg.id != sub.id {
			continue
		}
		next := make([]registration[P], 0, len(regs)-1)
		next = append(next, regs[:idx]...)
		next = append(next, regs[idx+1:]...)
		if len(next) == 0 {
			delete(b.handlers, sub.name)
		} else {
			b.handlers[sub.name] = next
		}
		return
	}
}

// Publish delivers payload to every handler registered for name at the time
// of the call.
func (b *Bus[P]) Publish(name Name, payload P) {
	if b == nil {
		return
	}
	b.mu.RLock()
	regs := append([]registration[P](nil), b.handlers[name]...)
	b.mu.RUnlock()

	for _, reg := range regs {
		reg.handler(payload)
	}
}

// Len reports how many handlers are registered for name.
func (b *Bus[P]) Len(name Name) int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[name])
}
