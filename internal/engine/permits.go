package engine

import (
	"context"
	"fmt"
)

// Permits is a counting admission gate. It bounds how many goroutines may be
// attempting an operation at once, independent of whether that operation can
// logically proceed.
//
//	Acquire: slots <- struct{}{}  (blocks when every permit is taken)
//	Release: <-slots
type Permits struct {
	slots chan struct{}
}

// NewPermits creates a pool of n permits. n must be positive.
func NewPermits(n int) *Permits {
	if n <= 0 {
		panic(fmt.Sprintf("Permits: size must be positive, got %d", n))
	}
	return &Permits{slots: make(chan struct{}, n)}
}

// Acquire blocks until a permit is available.
func (p *Permits) Acquire() {
	p.slots <- struct{}{}
}

// AcquireContext blocks until a permit is available or ctx is done.
func (p *Permits) AcquireContext(ctx context.Context) error {
	select {
	case p.slots <- struct{}{}:
		return nil
	default:
	}

	select {
	case p.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a permit. Releasing more than was acquired is a programming error.
func (p *Permits) Release() {
	select {
	case <-p.slots:
	default:
		panic("Permits: release without matching acquire")
	}
}

// InUse reports how many permits are currently held.
func (p *Permits) InUse() int {
	return len(p.slots)
}

// Size reports the pool size.
func (p *Permits) Size() int {
	return cap(p.slots)
}
