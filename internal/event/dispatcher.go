// Package event provides a small typed, synchronous event dispatcher.
package event

import (
	"log/slog"
	"sync"
)

// Dispatcher fans a value out to subscribers in subscription order.
// Handlers run synchronously on the publishing goroutine.
type Dispatcher[T any] struct {
	mu     sync.Mutex
	nextID uint64
	subs   []subscription[T]
	logger *slog.Logger
}

type subscription[T any] struct {
	id uint64
	fn func(T)
}

// NewDispatcher creates a dispatcher. A nil logger uses slog.Default.
func NewDispatcher[T any](logger *slog.Logger) *Dispatcher[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher[T]{logger: logger}
}

// Subscribe registers fn and returns a function that removes it.
// Calling the returned function more than once is a no-op.
func (d *Dispatcher[T]) Subscribe(fn func(T)) func() {
	d.mu.Lock()
	d.nextID++
	id := d.nextID
	d.subs = append(d.subs, subscription[T]{id: id, fn: fn})
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { d.remove(id) })
	}
}

func (d *Dispatcher[T]) remove(id uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, s := range d.subs {
		if s.id == id {
			d.subs = append(d.subs[:i:i], d.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers v to every current subscriber. A panicking handler is
// logged and does not stop delivery to the remaining handlers.
func (d *Dispatcher[T]) Publish(v T) {
	d.mu.Lock()
	subs := make([]subscription[T], len(d.subs))
	copy(subs, d.subs)
	d.mu.Unlock()

	for _, s := range subs {
		d.deliver(s, v)
	}
}

func (d *Dispatcher[T]) deliver(s subscription[T], v T) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("event handler panicked", "subscriber", s.id, "panic", r)
		}
	}()
	s.fn(v)
}

// Len returns the number of current subscribers.
func (d *Dispatcher[T]) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.subs)
}
