// Package testutil provides shared test fakes and canned fixtures for
// bridge tests. Everything runs in-process; no hardware, broker, or
// server required.
//
// # Mock Implementations
//
// MockSink - recording device.Sink:
//   - Thread-safe for concurrent use
//   - Captures the stream identity and every pushed sample
//   - Per-call behavior overridable through OpenFunc/PushFunc/CloseFunc
//   - Call counts for verification
//
// # Fixtures
//
// Canned device data with deterministic values: TestAddr, a channel
// map covering single- and multi-valued kinds, matching stream
// identity and port signatures, packed-word helpers (PackSpO2,
// PackACC), and frame/sample generators.
//
// # Session Helpers
//
// ConnectAndDiscover and RunToStreamingReady drive a session through
// the standard lifecycle steps, failing the test on the first error.
// WaitForSamples polls a MockSink until enough samples arrive:
//
//	sink := testutil.NewMockSink()
//	session, _ := device.NewSession(device.SessionDeps{
//		Config: cfg,
//		Dialer: hub,
//		Sinks:  []device.Sink{sink},
//	})
//	testutil.RunToStreamingReady(t, session)
//	go func() { _ = session.StartAcquisition(ctx) }()
//	samples := testutil.WaitForSamples(t, sink, 10, time.Second)
//
// All mock types are safe for concurrent use, so acquisition loops can
// push from their own goroutine while the test polls.
package testutil
