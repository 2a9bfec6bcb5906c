// Package buffer provides thread-safe circular buffers with
// configurable overflow policies, built-in statistics, and optional
// Prometheus metrics.
//
// # Overview
//
// Bounded buffers decouple producers from consumers wherever the
// sample pipeline must not stall: the simulated hub queues decoded
// frames the way the hardware's fixed transmit queue does, and the
// live-view sink queues outbound payloads per viewer. Buffers are
// generic, pre-allocated, and safe for concurrent producers and
// consumers.
//
// # Quick Start
//
//	buf, err := buffer.NewCircularBuffer[int](1000)
//	if err != nil {
//		return err
//	}
//
//	err = buf.Write(42)
//	value, ok := buf.Read()
//
// With overflow policy and metrics:
//
//	buf, err := buffer.NewCircularBuffer[[]byte](5000,
//		buffer.WithOverflowPolicy[[]byte](buffer.DropOldest),
//		buffer.WithMetrics[[]byte](registry, "viewer_queue"),
//	)
//
// # Overflow Policies
//
// Three behaviors when the buffer is at capacity:
//
//   - DropOldest: evict the oldest item to make room (default)
//   - DropNewest: reject the incoming item
//   - Block: Write waits for space
//
// Live streams use DropOldest: a fresh sample is worth more than a
// stale one, and the drop shows up as a sequence gap the consumer can
// detect. Block exists for pipelines where loss is unacceptable; use
// WriteWithContext to bound the wait:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
//	defer cancel()
//	err := buf.WriteWithContext(ctx, frame)
//
// # Observability
//
// Statistics are always on: every operation bumps an atomic counter
// and buf.Stats() exposes totals plus derived values (throughput, drop
// rate, utilization). They carry no dependencies, so they work in
// tests and minimal deployments.
//
// Prometheus metrics are opt-in via WithMetrics and track operations
// independently of Statistics. The duplication is deliberate:
// Statistics stay available when metrics are disabled, and reading
// counters back out of Prometheus is roughly an order of magnitude
// slower than an atomic load. The combined overhead is a few
// nanoseconds per operation.
//
// # Thread Safety
//
//   - Multiple producers and consumers may operate concurrently
//   - Counters are atomic, internal state is behind a sync.RWMutex
//   - The Block policy waits on a sync.Cond and is released by Close
//
// # Performance
//
// Write, Read, and Peek are O(1); ReadBatch is O(n) in the batch size.
// The backing array is allocated once at construction, so steady-state
// operation does not allocate.
package buffer
