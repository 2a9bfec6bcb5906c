package buffer

import (
	"sync"
	"sync/atomic"
	"time"
)

// Statistics tracks a buffer's running counters. Counter updates are
// atomic so the hot path never takes a lock.
type Statistics struct {
	writes    atomic.Int64
	reads     atomic.Int64
	peeks     atomic.Int64
	overflows atomic.Int64
	drops     atomic.Int64

	mu          sync.RWMutex
	startTime   time.Time
	currentSize int64
	maxSize     int64
	memoryUsage int64
}

// NewStatistics creates a statistics tracker starting now
func NewStatistics() *Statistics {
	return &Statistics{startTime: time.Now()}
}

// Write records one write
func (s *Statistics) Write() { s.writes.Add(1) }

// Read records one read
func (s *Statistics) Read() { s.reads.Add(1) }

// Peek records one peek
func (s *Statistics) Peek() { s.peeks.Add(1) }

// Overflow records a write that found the buffer full
func (s *Statistics) Overflow() { s.overflows.Add(1) }

// Drop records an item evicted or discarded by the overflow policy
func (s *Statistics) Drop() { s.drops.Add(1) }

// UpdateSize records the buffer's current size and tracks the high
// water mark.
func (s *Statistics) UpdateSize(size int64) {
	s.mu.Lock()
	s.currentSize = size
	if size > s.maxSize {
		s.maxSize = size
	}
	s.mu.Unlock()
}

// UpdateMemoryUsage records the estimated memory footprint in bytes
func (s *Statistics) UpdateMemoryUsage(usage int64) {
	s.mu.Lock()
	s.memoryUsage = usage
	s.mu.Unlock()
}

// Writes returns the total write count
func (s *Statistics) Writes() int64 { return s.writes.Load() }

// Reads returns the total read count
func (s *Statistics) Reads() int64 { return s.reads.Load() }

// Peeks returns the total peek count
func (s *Statistics) Peeks() int64 { return s.peeks.Load() }

// Overflows returns the total overflow count
func (s *Statistics) Overflows() int64 { return s.overflows.Load() }

// Drops returns the total dropped-item count
func (s *Statistics) Drops() int64 { return s.drops.Load() }

// CurrentSize returns the number of items in the buffer
func (s *Statistics) CurrentSize() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentSize
}

// MaxSize returns the most items the buffer has held
func (s *Statistics) MaxSize() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxSize
}

// MemoryUsage returns the estimated memory footprint in bytes
func (s *Statistics) MemoryUsage() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.memoryUsage
}

// Throughput returns average writes per second since start
func (s *Statistics) Throughput() float64 {
	return perSecond(s.Writes(), s.Uptime())
}

// ReadThroughput returns average reads per second since start
func (s *Statistics) ReadThroughput() float64 {
	return perSecond(s.Reads(), s.Uptime())
}

func perSecond(count int64, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0.0
	}
	return float64(count) / elapsed.Seconds()
}

// DropRate returns the fraction of writes that dropped an item,
// 0.0 to 1.0.
func (s *Statistics) DropRate() float64 {
	return fraction(s.Drops(), s.Writes())
}

// OverflowRate returns the fraction of writes that found the buffer
// full, 0.0 to 1.0.
func (s *Statistics) OverflowRate() float64 {
	return fraction(s.Overflows(), s.Writes())
}

func fraction(part, whole int64) float64 {
	if whole == 0 {
		return 0.0
	}
	return float64(part) / float64(whole)
}

// Utilization returns current fill level relative to capacity,
// 0.0 to 1.0.
func (s *Statistics) Utilization(capacity int64) float64 {
	if capacity == 0 {
		return 0.0
	}
	return float64(s.CurrentSize()) / float64(capacity)
}

// Uptime returns how long the buffer has been tracked
func (s *Statistics) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Since(s.startTime)
}

// Reset zeroes every counter and restarts the clock
func (s *Statistics) Reset() {
	s.writes.Store(0)
	s.reads.Store(0)
	s.peeks.Store(0)
	s.overflows.Store(0)
	s.drops.Store(0)

	s.mu.Lock()
	s.startTime = time.Now()
	s.currentSize = 0
	s.maxSize = 0
	s.memoryUsage = 0
	s.mu.Unlock()
}

// StatsSummary is a point-in-time snapshot of every statistic
type StatsSummary struct {
	Writes         int64         `json:"writes"`
	Reads          int64         `json:"reads"`
	Peeks          int64         `json:"peeks"`
	Overflows      int64         `json:"overflows"`
	Drops          int64         `json:"drops"`
	CurrentSize    int64         `json:"current_size"`
	MaxSize        int64         `json:"max_size"`
	MemoryUsage    int64         `json:"memory_usage"`
	Throughput     float64       `json:"throughput"`
	ReadThroughput float64       `json:"read_throughput"`
	DropRate       float64       `json:"drop_rate"`
	OverflowRate   float64       `json:"overflow_rate"`
	Uptime         time.Duration `json:"uptime"`
}

// Summary captures a snapshot of every statistic
func (s *Statistics) Summary() StatsSummary {
	return StatsSummary{
		Writes:         s.Writes(),
		Reads:          s.Reads(),
		Peeks:          s.Peeks(),
		Overflows:      s.Overflows(),
		Drops:          s.Drops(),
		CurrentSize:    s.CurrentSize(),
		MaxSize:        s.MaxSize(),
		MemoryUsage:    s.MemoryUsage(),
		Throughput:     s.Throughput(),
		ReadThroughput: s.ReadThroughput(),
		DropRate:       s.DropRate(),
		OverflowRate:   s.OverflowRate(),
		Uptime:         s.Uptime(),
	}
}
