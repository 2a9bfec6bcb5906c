package component

import "fmt"

// NetworkPort - TCP/UDP listener bindings (metrics server, health endpoint)
type NetworkPort struct {
	Protocol string `json:"protocol"` // "tcp", "udp"
	Host     string `json:"host"`     // "0.0.0.0", "localhost"
	Port     int    `json:"port"`     // 9090, 8081
}

// ResourceID keys network ports by protocol, host and port.
func (n NetworkPort) ResourceID() string {
	return fmt.Sprintf("%s:%s:%d", n.Protocol, n.Host, n.Port)
}

// IsExclusive is true, a listener binding belongs to one component.
func (n NetworkPort) IsExclusive() bool {
	return true
}

// Type returns the port type tag used in serialized port configs.
func (n NetworkPort) Type() string {
	return "network"
}

// DevicePort - a physical acquisition device link, addressed by MAC
type DevicePort struct {
	Addr string `json:"addr"` // canonical colon-separated MAC
}

// ResourceID keys device ports by MAC address.
func (d DevicePort) ResourceID() string {
	return fmt.Sprintf("device:%s", d.Addr)
}

// IsExclusive is true: one session owns the raw link at a time.
func (d DevicePort) IsExclusive() bool {
	return true
}

// Type returns the port type tag used in serialized port configs.
func (d DevicePort) Type() string {
	return "device"
}
