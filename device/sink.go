package device

import "context"

// StreamInfo is the identity and shape of one outgoing stream,
// announced to every sink before the first sample.
type StreamInfo struct {
	// Name is the stream name, unique per source.
	Name string `json:"name"`

	// Type is the content class of the stream (e.g. "Physiological").
	Type string `json:"type"`

	// SourceID identifies the originating device, typically its address.
	SourceID string `json:"source_id"`

	// SampleRate is the nominal acquisition rate in Hz.
	SampleRate int `json:"sample_rate"`

	// Channels is the ordered output channel schema.
	Channels []OutputChannel `json:"channels"`
}

// Sink receives the converted sample stream. Implementations publish
// to a transport (JetStream, MQTT, websocket) or record to disk.
//
// Open announces the stream before any samples and may reject it, for
// example when the stream identity is already registered elsewhere.
// Push delivers one sample; transient delivery errors should be
// returned rather than retried internally, the session owns the retry
// budget. Close flushes and releases the sink.
type Sink interface {
	Open(ctx context.Context, info StreamInfo) error
	Push(ctx context.Context, sample Sample) error
	Close() error
}
