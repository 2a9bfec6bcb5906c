package component

import "fmt"

// MQTTPort - MQTT publish target
type MQTTPort struct {
	Broker string `json:"broker"` // host:port
	Topic  string `json:"topic"`
	QoS    int    `json:"qos"`
}

// ResourceID keys MQTT ports by broker and topic.
func (m MQTTPort) ResourceID() string {
	return fmt.Sprintf("mqtt:%s/%s", m.Broker, m.Topic)
}

// IsExclusive is false, brokers multiplex publishers per topic.
func (m MQTTPort) IsExclusive() bool {
	return false
}

// Type returns the port type tag used in serialized port configs.
func (m MQTTPort) Type() string {
	return "mqtt"
}
