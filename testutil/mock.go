// Package testutil provides shared test fakes and canned device
// fixtures for bridge tests. Everything here runs in-process; no
// hardware, broker, or server required.
package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/kimit0310/MoBI-Physio-API/device"
)

// MockSink is a device.Sink that records everything pushed to it.
// Behavior is overridable per call through the exported Func fields;
// call counts and captured data are available for verification.
type MockSink struct {
	mu sync.Mutex

	// Overridable behavior
	OpenFunc  func(ctx context.Context, info device.StreamInfo) error
	PushFunc  func(ctx context.Context, sample device.Sample) error
	CloseFunc func() error

	// State tracking
	Opened bool
	Closed bool

	// Call counts for verification
	OpenCalls  int
	PushCalls  int
	CloseCalls int

	info    device.StreamInfo
	samples []device.Sample
}

var _ device.Sink = (*MockSink)(nil)

// NewMockSink creates a mock sink that accepts everything.
func NewMockSink() *MockSink {
	return &MockSink{}
}

// Open records the stream identity the sink was opened with.
func (m *MockSink) Open(ctx context.Context, info device.StreamInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.OpenCalls++
	if m.OpenFunc != nil {
		if err := m.OpenFunc(ctx, info); err != nil {
			return err
		}
	}
	m.Opened = true
	m.info = info
	return nil
}

// Push records the sample.
func (m *MockSink) Push(ctx context.Context, sample device.Sample) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PushCalls++
	if m.PushFunc != nil {
		if err := m.PushFunc(ctx, sample); err != nil {
			return err
		}
	}
	m.samples = append(m.samples, sample)
	return nil
}

// Close marks the sink closed.
func (m *MockSink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CloseCalls++
	m.Closed = true
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Info returns the stream identity from the last Open.
func (m *MockSink) Info() device.StreamInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.info
}

// Samples returns a copy of every sample pushed so far.
func (m *MockSink) Samples() []device.Sample {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]device.Sample, len(m.samples))
	copy(out, m.samples)
	return out
}

// SampleCount returns how many samples have been pushed so far.
func (m *MockSink) SampleCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.samples)
}

// IsOpened reports whether Open has succeeded.
func (m *MockSink) IsOpened() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Opened
}

// IsClosed reports whether Close has been called.
func (m *MockSink) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Closed
}

// MockError is a generic error for testing error paths.
type MockError struct {
	Message string
	Code    string
}

func (e *MockError) Error() string {
	return e.Message
}

// NewMockError creates a new mock error.
func NewMockError(message, code string) error {
	return &MockError{
		Message: message,
		Code:    code,
	}
}

// Common test errors
var (
	ErrMockFailed     = errors.New("mock operation failed")
	ErrMockTimeout    = errors.New("mock operation timed out")
	ErrMockConnection = errors.New("mock connection error")
)
