package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kimit0310/MoBI-Physio-API/device"
)

// ConnectAndDiscover drives a fresh session through connect and
// discovery, failing the test on any error.
func ConnectAndDiscover(t *testing.T, s *device.Session) device.ChannelMap {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.Connect(ctx))
	channels, err := s.Discover(ctx)
	require.NoError(t, err)
	return channels
}

// RunToStreamingReady drives a fresh session up to StreamingReady:
// connect, discover, open sinks.
func RunToStreamingReady(t *testing.T, s *device.Session) device.ChannelMap {
	t.Helper()
	channels := ConnectAndDiscover(t, s)
	require.NoError(t, s.SetupStreaming(context.Background()))
	require.Equal(t, device.StreamingReady, s.State())
	return channels
}

// WaitForSamples blocks until the sink has recorded at least n samples
// or the deadline passes, then returns what was captured.
func WaitForSamples(t *testing.T, sink *MockSink, n int, deadline time.Duration) []device.Sample {
	t.Helper()
	require.Eventually(t, func() bool {
		return sink.SampleCount() >= n
	}, deadline, time.Millisecond, "expected at least %d samples", n)
	return sink.Samples()
}
