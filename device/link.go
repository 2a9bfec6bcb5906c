package device

import "context"

// HardwareChannel is a 1-based physical port number on the acquisition hub.
type HardwareChannel int

// Signature is the electrical and identity fingerprint read from one
// hardware port during discovery. Fields the hub does not report carry
// their documented absent markers so classification can skip them.
type Signature struct {
	// Port is the 1-based hardware port the signature was read from.
	Port HardwareChannel

	// Present reports whether a sensor is physically seated on the port.
	Present bool

	// VendorCode is the hub-reported sensor type code, or -1 when the
	// hub firmware does not report one.
	VendorCode int

	// ProductID is the free-form product identifier string the sensor
	// reports, empty when unavailable.
	ProductID string

	// BaselineMicrovolts is the mean signal level observed on the port
	// during the signature read, in microvolts.
	BaselineMicrovolts float64

	// NoiseRMS is the RMS noise observed on the port during the
	// signature read, in microvolts.
	NoiseRMS float64
}

// Frame is one raw acquisition frame as delivered by the device link:
// a device-assigned sequence counter and one raw value per started
// hardware port, in ascending port order.
type Frame struct {
	Seq    uint32
	Values []float64
}

// RawLink is an open transport to an acquisition hub. Implementations
// wrap a vendor driver or a simulator; Session owns the lifecycle and
// is the only caller.
//
// Frames returns the channel raw frames arrive on once Start has been
// called. The implementation closes the channel when the link goes
// down or after Stop; Err reports the terminal error afterwards, nil
// for an orderly stop.
type RawLink interface {
	// Ports reports how many hardware ports the hub exposes.
	Ports() int

	// Signatures reads the per-port fingerprints used for discovery.
	Signatures(ctx context.Context) ([]Signature, error)

	// Start begins acquisition at the given sample rate on the given
	// ports, which must be sorted ascending.
	Start(ctx context.Context, sampleRate int, ports []HardwareChannel) error

	// Stop ends acquisition but keeps the link open.
	Stop(ctx context.Context) error

	// Frames returns the raw frame stream. Closed on link loss or Stop.
	Frames() <-chan Frame

	// Err returns the terminal stream error after Frames is closed.
	Err() error

	// Close releases the link. Safe to call more than once.
	Close() error
}

// Dialer establishes links to acquisition hubs. A single dial attempt
// should honor ctx and return promptly on cancellation; retry cadence
// and the overall connect budget belong to the caller. A failed
// attempt must release any partially opened handle before returning,
// so the caller can retry without leaking.
type Dialer interface {
	Dial(ctx context.Context, addr string) (RawLink, error)
}
