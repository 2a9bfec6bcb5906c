package component

import "fmt"

// WebSocketPort - live-view WebSocket endpoint served by a sink
type WebSocketPort struct {
	Addr string `json:"addr"` // listen address, host:port
	Path string `json:"path"` // endpoint path, e.g. /ws
}

// ResourceID keys WebSocket ports by listen address and path.
func (w WebSocketPort) ResourceID() string {
	return fmt.Sprintf("ws:%s%s", w.Addr, w.Path)
}

// IsExclusive is true, the listen address is exclusively bound.
func (w WebSocketPort) IsExclusive() bool {
	return true
}

// Type returns the port type tag used in serialized port configs.
func (w WebSocketPort) Type() string {
	return "websocket"
}
