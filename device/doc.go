// Package device drives wireless biosignal acquisition hubs through a
// strict session lifecycle and turns their raw frame streams into
// timestamped, channel-labeled samples for downstream sinks.
//
// The package is transport-agnostic: it speaks to hardware through the
// RawLink and Dialer interfaces, so the same Session runs against the
// vendor Bluetooth driver (package plux) or the in-process simulator
// (package simdevice). Delivery is equally abstract through the Sink
// interface, implemented by the JetStream, MQTT, websocket and file
// sinks under sink/.
//
// # Session Lifecycle
//
// A Session moves through a fixed set of states:
//
//	idle → connected → discovered → streaming-ready → streaming → closed
//	                                                            ↘ failed
//
// Each lifecycle operation requires a specific state and rejects calls
// out of phase with InvalidStateError, leaving the session untouched:
//
//	session, err := device.NewSession(device.SessionDeps{
//	    Config: device.SessionConfig{Addr: "00:07:80:4D:2E:76"},
//	    Dialer: dialer,
//	    Sinks:  []device.Sink{natsSink, fileSink},
//	    Logger: logger,
//	})
//	if err != nil {
//	    return err
//	}
//
//	if err := session.Connect(ctx); err != nil {
//	    return err // *device.TimeoutError after the connect budget
//	}
//	if _, err := session.Discover(ctx); err != nil {
//	    return err // session stays connected, safe to retry
//	}
//	if err := session.SetupStreaming(ctx); err != nil {
//	    return err // session stays discovered
//	}
//	// Blocks until the link closes, Stop is called, or a fault trips.
//	err = session.StartAcquisition(ctx)
//
// Stop may be called from any goroutine at any point in the lifecycle;
// it signals the acquisition loop during streaming and tears the
// session down inline otherwise.
//
// # Connecting
//
// Connect dials at a fixed cadence (default every 2s) until a link
// comes up or the total budget (default 60s) runs out. Exhaustion is
// terminal: the session moves to failed and the caller receives a
// *TimeoutError carrying the address, elapsed time and attempt count.
// The error unwraps to errors.ErrConnectionTimeout, so a supervisor
// that retries whole sessions can classify it as transient.
//
// # Discovery and Classification
//
// Discover reads one Signature per hardware port and classifies each
// seated sensor with three tiers of evidence, strongest first:
//
//  1. the vendor-reported sensor type code,
//  2. recognizable markers in the product identifier string,
//  3. the electrical fingerprint (baseline level and noise RMS).
//
// A seated sensor that matches nothing, or matches ambiguously, is
// recorded as Unknown rather than guessed at: its port still streams,
// raw and unlabeled. Absent ports are omitted entirely. An empty
// result is an error (errors.ErrNoSensors) and the session stays
// connected.
//
// Classification can be corrected two ways: per-port overrides in
// SessionConfig merge into the discovered map, and OverrideChannels
// replaces the map wholesale (valid from Connected or Discovered,
// bypassing Discover entirely). Both paths validate port range and
// sensor kinds before anything is written.
//
// # Output Schema
//
// BuildSchema expands the discovered channel map deterministically:
// ports in ascending order, multi-valued kinds expanded in suffix
// order, indices dense from zero. A hub with EMG on port 1 and SpO2 on
// port 3 always yields
//
//	0 EMG      (port 1)
//	1 SpO2_RED (port 3)
//	2 SpO2_IR  (port 3)
//
// SpO2 ports deliver RED and IR packed as the low and high 16 bits of
// one raw word; accelerometers deliver X, Y and Z packed as three
// consecutive bytes. SensorType.Expand owns that unpacking, so frame
// conversion never special-cases sensor kinds.
//
// # Streaming
//
// StartAcquisition starts the device at the configured sample rate and
// runs the acquisition loop in the calling goroutine. Every raw frame
// is converted to a Sample (device sequence counter, Unix millisecond
// timestamp derived from the monotonic clock, one value per schema
// channel) and pushed to every sink with a small bounded retry.
//
// Samples that fail conversion or delivery are dropped and counted; a
// configurable run of consecutive drops (default 100) trips a
// streaming fault, which tears the session down into failed. A link
// that simply closes mid-stream (device powered off, out of range) is
// an orderly end: logged, session closed, nil return.
//
// # Error Handling
//
// The package follows the classified-error conventions of the errors
// package. Lifecycle misuse unwraps to errors.ErrInvalidState, connect
// exhaustion to errors.ErrConnectionTimeout, signature read failures
// to errors.ErrLinkRead, duplicate stream identities to
// errors.ErrStreamExists, and streaming faults to
// errors.ErrStreamingFault:
//
//	err := session.SetupStreaming(ctx)
//	if errors.Is(err, errs.ErrStreamExists) {
//	    // another bridge already publishes this stream name
//	}
//
// # Thread Safety
//
// Session is safe for concurrent use. Lifecycle operations are
// serialized by an internal mutex; Stop and Stats may be called from
// any goroutine while another runs the lifecycle. The acquisition loop
// itself runs lock-free over state captured when streaming starts.
package device
