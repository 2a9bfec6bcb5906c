package component

import (
	"encoding/json"
	"testing"
)

func TestDirection(t *testing.T) {
	tests := []struct {
		name      string
		direction Direction
		expected  string
	}{
		{"input direction", DirectionInput, "input"},
		{"output direction", DirectionOutput, "output"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if string(tt.direction) != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, string(tt.direction))
			}
		})
	}
}

func TestPortConfigs(t *testing.T) {
	tests := []struct {
		name        string
		config      Portable
		resourceID  string
		isExclusive bool
		portType    string
	}{
		{
			name:        "TCP metrics listener",
			config:      NetworkPort{Protocol: "tcp", Host: "0.0.0.0", Port: 9090},
			resourceID:  "tcp:0.0.0.0:9090",
			isExclusive: true,
			portType:    "network",
		},
		{
			name:        "device link",
			config:      DevicePort{Addr: "00:07:80:4D:2E:76"},
			resourceID:  "device:00:07:80:4D:2E:76",
			isExclusive: true,
			portType:    "device",
		},
		{
			name:        "NATS subject",
			config:      NATSPort{Subject: "biosignals.physio.samples", Stream: "BIOSIGNALS"},
			resourceID:  "nats:biosignals.physio.samples",
			isExclusive: false,
			portType:    "nats",
		},
		{
			name:        "MQTT topic",
			config:      MQTTPort{Broker: "localhost:1883", Topic: "physio/samples", QoS: 1},
			resourceID:  "mqtt:localhost:1883/physio/samples",
			isExclusive: false,
			portType:    "mqtt",
		},
		{
			name:        "WebSocket endpoint",
			config:      WebSocketPort{Addr: "0.0.0.0:8765", Path: "/ws"},
			resourceID:  "ws:0.0.0.0:8765/ws",
			isExclusive: true,
			portType:    "websocket",
		},
		{
			name:        "file recorder",
			config:      FilePort{Path: "/data/session.jsonl"},
			resourceID:  "file:/data/session.jsonl",
			isExclusive: true,
			portType:    "file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.config.ResourceID() != tt.resourceID {
				t.Errorf("Expected ResourceID %s, got %s", tt.resourceID, tt.config.ResourceID())
			}
			if tt.config.IsExclusive() != tt.isExclusive {
				t.Errorf("Expected IsExclusive %t, got %t", tt.isExclusive, tt.config.IsExclusive())
			}
			if tt.config.Type() != tt.portType {
				t.Errorf("Expected Type %s, got %s", tt.portType, tt.config.Type())
			}
		})
	}
}

func TestPortJSONRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		port Port
	}{
		{
			name: "device input port",
			port: Port{
				Name:        "device",
				Direction:   DirectionInput,
				Required:    true,
				Description: "Biosignal acquisition device",
				Config:      DevicePort{Addr: "00:07:80:4D:2E:76"},
			},
		},
		{
			name: "nats output port",
			port: Port{
				Name:        "samples",
				Direction:   DirectionOutput,
				Required:    false,
				Description: "Sample stream",
				Config:      NATSPort{Subject: "biosignals.physio.samples", Bucket: "stream_identity"},
			},
		},
		{
			name: "mqtt output port",
			port: Port{
				Name:      "mqtt",
				Direction: DirectionOutput,
				Config:    MQTTPort{Broker: "localhost:1883", Topic: "physio/samples", QoS: 1},
			},
		},
		{
			name: "websocket output port",
			port: Port{
				Name:      "live",
				Direction: DirectionOutput,
				Config:    WebSocketPort{Addr: "0.0.0.0:8765", Path: "/ws"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.port)
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}

			var decoded Port
			if err := json.Unmarshal(data, &decoded); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}

			if decoded.Name != tt.port.Name {
				t.Errorf("Expected Name %s, got %s", tt.port.Name, decoded.Name)
			}
			if decoded.Direction != tt.port.Direction {
				t.Errorf("Expected Direction %s, got %s", tt.port.Direction, decoded.Direction)
			}
			if decoded.Config == nil {
				t.Fatal("Expected Config to survive round trip")
			}
			if decoded.Config.ResourceID() != tt.port.Config.ResourceID() {
				t.Errorf("Expected ResourceID %s, got %s",
					tt.port.Config.ResourceID(), decoded.Config.ResourceID())
			}
			if decoded.Config.Type() != tt.port.Config.Type() {
				t.Errorf("Expected Type %s, got %s",
					tt.port.Config.Type(), decoded.Config.Type())
			}
		})
	}
}

func TestPortUnmarshalUnknownType(t *testing.T) {
	data := []byte(`{
		"name": "bad",
		"direction": "output",
		"config": {"type": "carrier-pigeon", "data": {}}
	}`)

	var port Port
	if err := json.Unmarshal(data, &port); err == nil {
		t.Error("Expected error for unknown config type")
	}
}

func TestPortUnmarshalNoConfig(t *testing.T) {
	data := []byte(`{"name": "bare", "direction": "input"}`)

	var port Port
	if err := json.Unmarshal(data, &port); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if port.Config != nil {
		t.Error("Expected nil Config when omitted")
	}
}
