package buffer

import (
	"context"
	"sync"
	"time"

	"github.com/kimit0310/MoBI-Physio-API/errors"
)

// circularBuffer is a fixed-size ring with configurable overflow
// behavior. Statistics are unconditional; Prometheus metrics attach
// only when requested via options.
type circularBuffer[T any] struct {
	mu       sync.RWMutex
	items    []T
	capacity int
	size     int
	head     int // next write position
	tail     int // next read position
	stats    *Statistics
	metrics  *bufferMetrics
	opts     *bufferOptions[T]

	// Block policy coordination
	notEmpty *sync.Cond
	notFull  *sync.Cond
	closed   bool
}

func newCircularBuffer[T any](capacity int, opts *bufferOptions[T]) (*circularBuffer[T], error) {
	if capacity <= 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Buffer", "newCircularBuffer",
			"capacity must be positive")
	}

	var metrics *bufferMetrics
	if opts.metricsReg != nil && opts.metricsPrefix != "" {
		var err error
		metrics, err = newBufferMetrics(opts.metricsReg, opts.metricsPrefix)
		if err != nil {
			return nil, errors.WrapTransient(err, "Buffer", "newCircularBuffer",
				"metrics registration")
		}
	}

	cb := &circularBuffer[T]{
		items:    make([]T, capacity),
		capacity: capacity,
		stats:    NewStatistics(),
		metrics:  metrics,
		opts:     opts,
	}

	cb.notEmpty = sync.NewCond(&cb.mu)
	cb.notFull = sync.NewCond(&cb.mu)

	return cb, nil
}

// Write adds an item, resolving a full buffer per the overflow policy.
func (cb *circularBuffer[T]) Write(item T) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.closed {
		return errors.WrapInvalid(errors.ErrAlreadyStopped, "Buffer", "Write", "buffer closed")
	}

	if cb.size == cb.capacity {
		switch cb.opts.overflowPolicy {
		case DropOldest:
			dropped := cb.items[cb.tail]
			cb.tail = (cb.tail + 1) % cb.capacity
			cb.size--

			cb.recordDrop()
			if cb.opts.dropCallback != nil {
				// Runs after the lock is released
				defer cb.opts.dropCallback(dropped)
			}

		case DropNewest:
			cb.recordDrop()
			if cb.opts.dropCallback != nil {
				defer cb.opts.dropCallback(item)
			}
			return nil

		case Block:
			for cb.size == cb.capacity && !cb.closed {
				cb.notFull.Wait()
			}
			if cb.closed {
				return errors.WrapInvalid(errors.ErrAlreadyStopped, "Buffer", "Write",
					"buffer closed during blocking wait")
			}
		}
	}

	cb.append(item)
	cb.notEmpty.Signal()

	return nil
}

// append stores the item and updates tracking. Caller holds the lock.
func (cb *circularBuffer[T]) append(item T) {
	cb.items[cb.head] = item
	cb.head = (cb.head + 1) % cb.capacity
	cb.size++

	cb.stats.Write()
	cb.stats.UpdateSize(int64(cb.size))
	if cb.metrics != nil {
		cb.metrics.recordWrite(cb.size, cb.capacity)
	}
}

// recordDrop tracks one overflow eviction. Caller holds the lock.
func (cb *circularBuffer[T]) recordDrop() {
	cb.stats.Overflow()
	cb.stats.Drop()
	if cb.metrics != nil {
		cb.metrics.recordOverflow()
		cb.metrics.recordDrop()
	}
}

// Read removes and returns the oldest item.
func (cb *circularBuffer[T]) Read() (T, bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	var zero T
	if cb.size == 0 {
		return zero, false
	}

	item := cb.items[cb.tail]
	cb.items[cb.tail] = zero // release for GC
	cb.tail = (cb.tail + 1) % cb.capacity
	cb.size--

	cb.stats.Read()
	cb.stats.UpdateSize(int64(cb.size))
	if cb.metrics != nil {
		cb.metrics.recordRead(cb.size, cb.capacity)
	}

	cb.notFull.Signal()

	return item, true
}

// ReadBatch removes and returns up to max items, oldest first.
func (cb *circularBuffer[T]) ReadBatch(max int) []T {
	if max <= 0 {
		return nil
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.size == 0 {
		return nil
	}

	count := max
	if count > cb.size {
		count = cb.size
	}

	result := make([]T, count)
	var zero T
	for i := 0; i < count; i++ {
		result[i] = cb.items[cb.tail]
		cb.items[cb.tail] = zero
		cb.tail = (cb.tail + 1) % cb.capacity
		cb.size--
		cb.stats.Read()
	}

	cb.stats.UpdateSize(int64(cb.size))
	if cb.metrics != nil {
		cb.metrics.updateSize(cb.size, cb.capacity)
	}

	// One signal per freed slot so every waiting writer gets a chance
	for i := 0; i < count; i++ {
		cb.notFull.Signal()
	}

	return result
}

// Peek returns the oldest item without removing it.
func (cb *circularBuffer[T]) Peek() (T, bool) {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	var zero T
	if cb.size == 0 {
		return zero, false
	}

	cb.stats.Peek()
	if cb.metrics != nil {
		cb.metrics.recordPeek()
	}

	return cb.items[cb.tail], true
}

func (cb *circularBuffer[T]) Size() int {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.size
}

// Capacity is immutable after construction, no lock needed.
func (cb *circularBuffer[T]) Capacity() int {
	return cb.capacity
}

func (cb *circularBuffer[T]) IsFull() bool {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.size == cb.capacity
}

func (cb *circularBuffer[T]) IsEmpty() bool {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.size == 0
}

// Clear removes every buffered item. Items pass through the drop
// callback so counters stay honest.
func (cb *circularBuffer[T]) Clear() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.opts.dropCallback != nil {
		cleared := make([]T, cb.size)
		for i := 0; i < cb.size; i++ {
			cleared[i] = cb.items[(cb.tail+i)%cb.capacity]
		}
		defer func() {
			for _, item := range cleared {
				cb.opts.dropCallback(item)
			}
		}()
	}

	var zero T
	for i := 0; i < cb.capacity; i++ {
		cb.items[i] = zero
	}
	cb.head = 0
	cb.tail = 0
	cb.size = 0

	cb.stats.UpdateSize(0)
	if cb.metrics != nil {
		cb.metrics.updateSize(0, cb.capacity)
	}

	cb.notFull.Broadcast()
}

func (cb *circularBuffer[T]) Stats() *Statistics {
	return cb.stats
}

// Close marks the buffer closed and wakes every blocked writer and
// reader. Idempotent.
func (cb *circularBuffer[T]) Close() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.closed {
		return nil
	}
	cb.closed = true

	cb.notEmpty.Broadcast()
	cb.notFull.Broadcast()

	return nil
}

// WriteWithTimeout bounds a Block-policy write. Other policies never
// block, so it falls through to Write.
func (cb *circularBuffer[T]) WriteWithTimeout(item T, timeout time.Duration) error {
	if cb.opts.overflowPolicy != Block {
		return cb.Write(item)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return cb.WriteWithContext(ctx, item)
}

// WriteWithContext is a Block-policy write that honors cancellation.
func (cb *circularBuffer[T]) WriteWithContext(ctx context.Context, item T) error {
	if cb.opts.overflowPolicy != Block {
		return cb.Write(item)
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.closed {
		return errors.WrapInvalid(errors.ErrAlreadyStopped, "Buffer", "WriteWithContext",
			"buffer closed")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	// A watcher goroutine broadcasts when the context ends so the Wait
	// below can observe the cancellation. Broadcast is safe without the
	// mutex. The done channel stops the watcher when the write returns.
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			cb.notFull.Broadcast()
		case <-done:
		}
	}()

	for cb.size == cb.capacity && !cb.closed {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		cb.notFull.Wait()

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	if cb.closed {
		return errors.WrapInvalid(errors.ErrAlreadyStopped, "Buffer", "WriteWithContext",
			"buffer closed during wait")
	}

	cb.append(item)
	cb.notEmpty.Signal()

	return nil
}
