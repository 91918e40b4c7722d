package common

import "sync"

// Latest is a single-slot mailbox between one producer and one consumer. A
// new value overwrites an unconsumed one; Take reports whether anything
// arrived since the previous Take.
type Latest[T any] struct {
	mu      sync.Mutex
	v       T
	ready   bool
	dropped uint64
}

func (l *Latest[T]) Publish(v T) {
	l.mu.Lock()
	if l.ready {
		l.dropped++
	}
	l.v = v
	l.ready = true
	l.mu.Unlock()
}

func (l *Latest[T]) Take() (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	v, ok := l.v, l.ready
	l.ready = false
	return v, ok
}

// Dropped counts values overwritten before they were taken.
func (l *Latest[T]) Dropped() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropped
}
