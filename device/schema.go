package device

import (
	"fmt"
	"sort"
)

// ChannelMap records which sensor kind is seated on which hardware
// port. It is the output of discovery and the input to schema building.
type ChannelMap map[HardwareChannel]SensorType

// Ports returns the mapped hardware ports in ascending order.
func (m ChannelMap) Ports() []HardwareChannel {
	ports := make([]HardwareChannel, 0, len(m))
	for port := range m {
		ports = append(ports, port)
	}
	sort.Slice(ports, func(i, j int) bool { return ports[i] < ports[j] })
	return ports
}

// Clone returns an independent copy of the map.
func (m ChannelMap) Clone() ChannelMap {
	out := make(ChannelMap, len(m))
	for port, t := range m {
		out[port] = t
	}
	return out
}

// Validate checks that every entry names a supported, classified sensor
// kind on a port the hub actually has. Used on manual overrides from
// configuration, where typos would otherwise surface as runtime
// conversion errors.
func (m ChannelMap) Validate(maxPort int) error {
	for port, t := range m {
		if port < 1 || int(port) > maxPort {
			return fmt.Errorf("channel map: port %d out of range 1..%d", port, maxPort)
		}
		if !t.Valid() || t == Unknown {
			return fmt.Errorf("channel map: port %d: unsupported sensor type %s", port, t)
		}
	}
	return nil
}

// OutputChannel describes one labeled output channel of the stream.
type OutputChannel struct {
	// Index is the dense 0-based position of the channel in each sample.
	Index int `json:"index"`

	// Name is the channel label, derived from the sensor kind and the
	// per-value suffix for multi-valued kinds.
	Name string `json:"name"`

	// Source is the hardware port the channel's values come from.
	Source HardwareChannel `json:"source"`

	// Type is the sensor kind driving the channel.
	Type SensorType `json:"-"`
}

// BuildSchema expands a channel map into the ordered output channel
// list: ports ascending, multi-valued kinds expanded in suffix order,
// indices dense from zero. The same map always yields the same schema.
func BuildSchema(m ChannelMap) []OutputChannel {
	schema := make([]OutputChannel, 0, len(m))
	for _, port := range m.Ports() {
		t := m[port]
		for _, name := range t.ChannelNames() {
			schema = append(schema, OutputChannel{
				Index:  len(schema),
				Name:   name,
				Source: port,
				Type:   t,
			})
		}
	}
	return schema
}
