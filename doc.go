// Package mobiphysio bridges wireless biosignal acquisition hardware to
// real-time streaming transports.
//
// # Overview
//
// MoBI-Physio-API connects to a biosignalsplux hub over its serial-style
// wireless link, discovers which sensors are plugged into which ports,
// builds a typed channel schema, and streams labeled samples to one or
// more sinks. The recorded path (NATS JetStream, files) and the
// monitoring path (WebSocket live view, MQTT) run side by side off the
// same acquisition loop.
//
// # Architecture
//
//	┌─────────────────────────────────────┐
//	│            Bridge                   │  Session lifecycle
//	│  (connect, discover, stream, stop)  │  Health + metrics
//	└──────────────────┬──────────────────┘
//	                   │ drives
//	┌──────────────────▼──────────────────┐
//	│          Device Session             │  Frame decoding
//	│  (handshake, schema, acquisition)   │  Sensor classification
//	└──────────────────┬──────────────────┘
//	                   │ fans out to
//	┌──────────────────▼──────────────────┐
//	│              Sinks                  │  natssink, filesink,
//	│   (Open / Push / Close contract)    │  wssink, mqttsink
//	└─────────────────────────────────────┘
//
// The session owns the wire protocol: it connects to the hub, reads the
// port signature to learn the sensor layout, applies any operator
// channel overrides, derives the output schema, and runs the
// acquisition loop that decodes frames into samples. The bridge wraps
// one session as a managed component with health reporting, Prometheus
// metrics, and port discovery. Sinks are interchangeable consumers of
// the same Sample stream.
//
// # Packages
//
// Acquisition:
//   - device: session state machine, sensor classification, channel
//     schema, frame decoding, the Sink and Dialer contracts
//   - plux: Bluetooth RFCOMM dialer for real biosignalsplux hubs
//   - simdevice: in-process simulated hub for tests and demos
//   - bridge: session-as-component wrapper with health and metrics
//
// Transports:
//   - sink/natssink: JetStream publishing plus KV stream registry
//   - sink/filesink: JSON Lines session recordings
//   - sink/wssink: WebSocket live view for dashboards
//   - sink/mqttsink: MQTT publishing for IoT consumers
//
// Infrastructure:
//   - component: discovery, ports, config schema generation
//   - config: file/env configuration loading and validation
//   - natsclient: NATS connection management
//   - metric: Prometheus registry and scrape endpoint
//   - health: component health aggregation
//   - errors: classified error handling (transient, fatal, invalid)
//
// Utilities:
//   - pkg/buffer: bounded generic buffers with overflow policies
//   - pkg/retry: retry policies with backoff
//   - pkg/timestamp: time utilities
//
// # Usage
//
// Minimal session, simulated hub to an in-memory sink:
//
//	hub, _ := simdevice.NewHub(simdevice.DefaultProfile(), logger)
//
//	session, _ := device.NewSession(device.SessionDeps{
//	    Config: device.SessionConfig{Addr: "sim", SampleRate: 1000},
//	    Dialer: hub,
//	    Sinks:  []device.Sink{sink},
//	    Logger: logger,
//	})
//
//	_ = session.Connect(ctx)
//	_, _ = session.Discover(ctx)
//	_ = session.SetupStreaming(ctx)
//	_ = session.StartAcquisition(ctx)
//
// The mobiphysio binary wires the same pieces from configuration:
//
//	# Stream a real device to NATS and the live view
//	mobiphysio --config configs/example.yaml
//
//	# No hardware handy
//	mobiphysio --simulate
//
//	# List reachable devices
//	mobiphysio --discover
//
// # Design
//
// Sinks never gate acquisition. The session pushes to every sink on
// each sample; a sink that cannot keep up drops or retries according to
// its own policy, and the acquisition loop keeps the hub's queue
// drained. Errors are classified at the point they occur so callers can
// tell a retryable publish failure from a misconfigured channel map.
//
// Testability follows from explicit dependencies: the Dialer and Sink
// interfaces isolate the hardware and the transports, simdevice stands
// in for the hub, and integration tests run real brokers (NATS via
// testcontainers, MQTT via an embedded mochi server).
package mobiphysio
