package buffer

// Buffer is a bounded FIFO queue parameterized by item type.
type Buffer[T any] interface {
	// Write adds an item. When the buffer is full the overflow policy
	// decides whether the oldest item is dropped, the new item is
	// dropped, or the call blocks.
	Write(item T) error

	// Read removes and returns the oldest item. Returns false when the
	// buffer is empty.
	Read() (T, bool)

	// ReadBatch removes and returns up to max items, oldest first.
	ReadBatch(max int) []T

	// Peek returns the oldest item without removing it.
	Peek() (T, bool)

	// Size returns the current number of buffered items.
	Size() int

	// Capacity returns the maximum number of items the buffer holds.
	Capacity() int

	// IsFull reports whether the buffer is at capacity.
	IsFull() bool

	// IsEmpty reports whether the buffer holds no items.
	IsEmpty() bool

	// Clear removes all buffered items.
	Clear()

	// Stats returns the buffer's running statistics.
	Stats() *Statistics

	// Close shuts the buffer down. Blocked writers are released and
	// further operations fail.
	Close() error
}

// OverflowPolicy defines how Write behaves at capacity.
type OverflowPolicy int

const (
	// DropOldest evicts the oldest item to make room. The default, and
	// the right choice for live streams where fresh samples matter
	// more than old ones.
	DropOldest OverflowPolicy = iota

	// DropNewest discards the incoming item when full.
	DropNewest

	// Block makes Write wait until space is available.
	Block
)

// String returns a human-readable policy name.
func (p OverflowPolicy) String() string {
	switch p {
	case DropOldest:
		return "DropOldest"
	case DropNewest:
		return "DropNewest"
	case Block:
		return "Block"
	default:
		return "Unknown"
	}
}

// DropCallback observes items evicted by the overflow policy.
type DropCallback[T any] func(item T)

// NewCircularBuffer creates a circular buffer with the given capacity.
// Behavior beyond capacity is set via functional options. Returns an
// error for non-positive capacities or when metrics registration fails.
func NewCircularBuffer[T any](capacity int, options ...Option[T]) (Buffer[T], error) {
	opts := applyOptions(options...)
	return newCircularBuffer(capacity, opts)
}
