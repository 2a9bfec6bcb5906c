package buffer

import (
	"github.com/kimit0310/MoBI-Physio-API/metric"
)

// Option configures a buffer at construction time.
type Option[T any] func(*bufferOptions[T])

// bufferOptions is the resolved configuration a constructor works from.
// Stats counters are always kept; Prometheus export is opt-in.
type bufferOptions[T any] struct {
	overflowPolicy OverflowPolicy
	dropCallback   DropCallback[T]

	// set together by WithMetrics; prefix becomes the component label
	metricsReg    *metric.MetricsRegistry
	metricsPrefix string
}

// WithOverflowPolicy sets what happens when the buffer is full. The
// default is DropOldest.
func WithOverflowPolicy[T any](policy OverflowPolicy) Option[T] {
	return func(opts *bufferOptions[T]) {
		opts.overflowPolicy = policy
	}
}

// WithMetrics exports the buffer's counters as Prometheus metrics
// labeled with prefix. A nil registry or empty prefix leaves metrics
// off.
func WithMetrics[T any](registry *metric.MetricsRegistry, prefix string) Option[T] {
	return func(opts *bufferOptions[T]) {
		if registry != nil && prefix != "" {
			opts.metricsReg = registry
			opts.metricsPrefix = prefix
		}
	}
}

// WithDropCallback registers a function to run with each dropped item.
func WithDropCallback[T any](callback DropCallback[T]) Option[T] {
	return func(opts *bufferOptions[T]) {
		opts.dropCallback = callback
	}
}

func applyOptions[T any](options ...Option[T]) *bufferOptions[T] {
	opts := &bufferOptions[T]{
		overflowPolicy: DropOldest,
	}
	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}
	return opts
}
