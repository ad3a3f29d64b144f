package util

import "sync"

// Latest carries the most recent value from any number of producers to a
// single consumer. Send never blocks; values not yet taken are overwritten.
type Latest[T any] struct {
	mu      sync.Mutex
	value   T
	pending bool
	notify  chan struct{} // capacity 1
}

func NewLatest[T any]() *Latest[T] {
	return &Latest[T]{notify: make(chan struct{}, 1)}
}

// Send replaces the pending value and wakes the consumer.
func (l *Latest[T]) Send(v T) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.value = v
	l.pending = true
	select {
	case l.notify <- struct{}{}:
	default:
	}
}

// Channel fires after at least one Send. Use it in select, then call Take.
func (l *Latest[T]) Channel() <-chan struct{} {
	return l.notify
}

// Take returns the pending value, if any, and clears it.
func (l *Latest[T]) Take() (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.value, l.pending
	var zero T
	l.value = zero
	l.pending = false
	return v, ok
}
