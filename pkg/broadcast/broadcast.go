// Package broadcast fans values out to any number of listeners.
package broadcast

import (
	"context"
	"sync"
)

// Broadcaster delivers every sent value to every current listener.
// Slow listeners drop values instead of blocking the sender.
type Broadcaster[T any] struct {
	mu        sync.RWMutex
	buffer    int
	listeners map[int]chan T
	nextID    int
	closed    bool
}

// New creates a broadcaster whose listener channels hold buffer values.
func New[T any](buffer int) *Broadcaster[T] {
	if buffer < 1 {
		buffer = 1
	}
	return &Broadcaster[T]{
		buffer:    buffer,
		listeners: make(map[int]chan T),
	}
}

// Send publishes a value (non-blocking, drops for listeners with a full buffer).
// It returns the number of listeners that received it.
func (b *Broadcaster[T]) Send(v T) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	delivered := 0
	for _, ch := range b.listeners {
		select {
		case ch <- v:
			delivered++
		default:
		}
	}
	return delivered
}

// Listen returns a channel plus a cancel function to stop listening.
// The channel is closed when ctx is done, cancel is called, or the
// broadcaster is closed.
func (b *Broadcaster[T]) Listen(ctx context.Context) (<-chan T, context.CancelFunc) {
	listenerCtx, cancel := context.WithCancel(ctx)
	ch := make(chan T, b.buffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, cancel
	}
	id := b.nextID
	b.nextID++
	b.listeners[id] = ch
	b.mu.Unlock()

	go func() {
		<-listenerCtx.Done()
		b.remove(id)
	}()

	return ch, cancel
}

// Listeners returns the number of active listeners.
func (b *Broadcaster[T]) Listeners() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

// Close closes every listener channel. Later sends are dropped.
func (b *Broadcaster[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.listeners {
		close(ch)
		delete(b.listeners, id)
	}
}

func (b *Broadcaster[T]) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.listeners[id]; ok {
		close(ch)
		delete(b.listeners, id)
	}
}
