package engine

import (
	"sync"
	"sync/atomic"
)

// Lifecycle is the process-wide "theater active" flag.
//
// It starts active, theaters Join before they start and Leave once they have
// drained, and it flips to inactive exactly once, when the last theater leaves
// (or Close is called). After that it is read-only.
type Lifecycle struct {
	members atomic.Int32
	active  atomic.Bool
	once    sync.Once
	done    chan struct{}
}

// NewLifecycle creates an active lifecycle.
func NewLifecycle() *Lifecycle {
	l := &Lifecycle{done: make(chan struct{})}
	l.active.Store(true)
	return l
}

// Join registers one more theater that must leave before the flag flips.
func (l *Lifecycle) Join() {
	l.members.Add(1)
}

// Leave unregisters a theater; the last one out closes the lifecycle.
func (l *Lifecycle) Leave() {
	if l.members.Add(-1) <= 0 {
		l.Close()
	}
}

// Close flips the flag to inactive. Safe to call more than once.
func (l *Lifecycle) Close() {
	l.once.Do(func() {
		l.active.Store(false)
		close(l.done)
	})
}

// Active reports whether any theater is still running.
func (l *Lifecycle) Active() bool {
	return l.active.Load()
}

// Done is closed when the lifecycle becomes inactive.
func (l *Lifecycle) Done() <-chan struct{} {
	return l.done
}
