package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tjena007/Ticketing-System/internal/infra"
)

// ErrWouldBlock is returned by the context-aware operations when the caller gave up waiting.
var ErrWouldBlock = errors.New("multi-cell buffer: would block")

// MultiCellBuffer is a fixed-capacity FIFO shared by many writers and readers.
//
// Two independent layers control contention:
//   - write/read Permits bound how many goroutines may be inside an operation at once;
//   - mu with the notFull/notEmpty conditions gates the logical state (full/empty).
//
// The permit counts and the element count routinely disagree. Both layers are required.
type MultiCellBuffer[T any] struct {
	cells []T
	head  int // next read index
	tail  int // next write index
	count int

	mu       sync.Mutex
	notFull  *sync.Cond
	notEmpty *sync.Cond

	write *Permits
	read  *Permits

	metrics *infra.Metrics
}

// NewMultiCellBuffer creates a buffer of the given capacity guarded by
// writePermits concurrent writers and readPermits concurrent readers.
func NewMultiCellBuffer[T any](capacity, writePermits, readPermits int) *MultiCellBuffer[T] {
	if capacity <= 0 {
		panic(fmt.Sprintf("MultiCellBuffer: capacity must be positive, got %d", capacity))
	}
	b := &MultiCellBuffer[T]{
		cells:   make([]T, capacity), // Fixed size allocation
		write:   NewPermits(writePermits),
		read:    NewPermits(readPermits),
		metrics: &infra.Metrics{},
	}
	b.notFull = sync.NewCond(&b.mu)
	b.notEmpty = sync.NewCond(&b.mu)
	return b
}

// WithMetrics reports condition waits to m.
func (b *MultiCellBuffer[T]) WithMetrics(m *infra.Metrics) *MultiCellBuffer[T] {
	if m != nil {
		b.metrics = m
	}
	return b
}

// Put blocks until a cell is free, then enqueues item. It never drops items.
func (b *MultiCellBuffer[T]) Put(item T) {
	// Background is never done, so PutContext cannot fail here.
	_ = b.PutContext(context.Background(), item)
}

// Take blocks until an item is available, then removes and returns the oldest one.
func (b *MultiCellBuffer[T]) Take() T {
	item, _ := b.TakeContext(context.Background())
	return item
}

// PutContext is Put with a bounded wait. When ctx is done before the item is
// stored, it returns an error wrapping ErrWouldBlock and the buffer is unchanged.
func (b *MultiCellBuffer[T]) PutContext(ctx context.Context, item T) error {
	if err := b.write.AcquireContext(ctx); err != nil {
		return wouldBlock(err)
	}
	defer b.write.Release()

	b.mu.Lock()
	stop := b.wakeWhenDone(ctx)
	defer stop()

	for b.count == len(b.cells) {
		if err := ctx.Err(); err != nil {
			b.mu.Unlock()
			return wouldBlock(err)
		}
		slog.Debug("MONITOR: write waiting", slog.Int("elements", b.count))
		b.metrics.RecordBufferWait()
		b.notFull.Wait()
	}

	b.cells[b.tail] = item
	b.tail = (b.tail + 1) % len(b.cells)
	b.count++
	slog.Debug("WRITING: multi-cell buffer", slog.Int("elements", b.count))
	b.mu.Unlock()

	// Signal outside the lock; the permit is released last by the deferred call.
	b.notEmpty.Signal()
	return nil
}

// TakeContext is Take with a bounded wait. When ctx is done before an item is
// available, it returns the zero value and an error wrapping ErrWouldBlock.
func (b *MultiCellBuffer[T]) TakeContext(ctx context.Context) (T, error) {
	var zero T
	if err := b.read.AcquireContext(ctx); err != nil {
		return zero, wouldBlock(err)
	}
	defer b.read.Release()

	b.mu.Lock()
	stop := b.wakeWhenDone(ctx)
	defer stop()

	for b.count == 0 {
		if err := ctx.Err(); err != nil {
			b.mu.Unlock()
			return zero, wouldBlock(err)
		}
		slog.Debug("MONITOR: read waiting")
		b.metrics.RecordBufferWait()
		b.notEmpty.Wait()
	}

	item := b.cells[b.head]
	b.cells[b.head] = zero // drop the reference, the item now belongs to the reader
	b.head = (b.head + 1) % len(b.cells)
	b.count--
	slog.Debug("READING: multi-cell buffer", slog.Int("elements", b.count))
	b.mu.Unlock()

	b.notFull.Signal()
	return item, nil
}

// Len returns the number of enqueued items.
func (b *MultiCellBuffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Cap returns the fixed capacity.
func (b *MultiCellBuffer[T]) Cap() int {
	return len(b.cells)
}

// wakeWhenDone arranges for condition waiters to re-check once ctx is done.
// Must be called with mu held; the returned stop func is safe to call without it.
func (b *MultiCellBuffer[T]) wakeWhenDone(ctx context.Context) func() bool {
	if ctx.Done() == nil {
		return func() bool { return false }
	}
	return context.AfterFunc(ctx, func() {
		b.mu.Lock()
		b.notFull.Broadcast()
		b.notEmpty.Broadcast()
		b.mu.Unlock()
	})
}

func wouldBlock(err error) error {
	return fmt.Errorf("%w: %w", ErrWouldBlock, err)
}
