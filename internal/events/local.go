package events

import (
	"context"
	"sync"
)

// Local is a Bus that delivers changes to the subscribers of this process.
// Publish returns after every handler has run.
type Local struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]Handler
	closed   bool
}

var _ Bus = (*Local)(nil)

// NewLocal creates an in-process bus
func NewLocal() *Local {
	return &Local{handlers: map[int]Handler{}}
}

// Publish implements Publisher
func (b *Local) Publish(ctx context.Context, change Change) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return nil
	}
	handlers := make([]Handler, 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, change)
	}
	return nil
}

// Subscribe implements Bus
func (b *Local) Subscribe(handler Handler) (func() error, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.handlers[id] = handler

	return func() error {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers, id)
		return nil
	}, nil
}

// Close implements Bus. Changes published afterwards are dropped.
func (b *Local) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	clear(b.handlers)
	return nil
}
