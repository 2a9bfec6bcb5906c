package component

import "fmt"

// NATSPort - NATS publish target (JetStream subject plus identity bucket)
type NATSPort struct {
	Subject string `json:"subject"`
	Stream  string `json:"stream,omitempty"` // owning JetStream stream, when applicable
	Bucket  string `json:"bucket,omitempty"` // KV bucket for stream identity entries
}

// ResourceID keys NATS ports by subject.
func (n NATSPort) ResourceID() string {
	return fmt.Sprintf("nats:%s", n.Subject)
}

// IsExclusive is false, any number of subscribers can share a subject.
func (n NATSPort) IsExclusive() bool {
	return false
}

// Type returns the port type tag used in serialized port configs.
func (n NATSPort) Type() string {
	return "nats"
}
