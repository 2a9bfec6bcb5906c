package component

import (
	"encoding/json"
	"fmt"

	"github.com/kimit0310/MoBI-Physio-API/errors"
)

// Direction for data flow
type Direction string

// Direction constants for port data flow
const (
	DirectionInput  Direction = "input"
	DirectionOutput Direction = "output"
)

// Port describes any I/O interface
type Port struct {
	Name        string    `json:"name"`
	Direction   Direction `json:"direction"`
	Required    bool      `json:"required"`
	Description string    `json:"description"`
	Config      Portable  `json:"config"`
}

// Portable interface - minimal, no Get prefix (Go idiomatic)
type Portable interface {
	ResourceID() string // Unique identifier for conflict detection
	IsExclusive() bool  // Whether multiple components can share
	Type() string       // Port type identifier
}

// decodePort unmarshals a tagged port config payload into its concrete type.
func decodePort[T Portable](kind string, data json.RawMessage) (Portable, error) {
	var cfg T
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "Port", "UnmarshalJSON", kind+" config unmarshaling")
	}
	return cfg, nil
}

// portDecoders maps the wire type tag to the concrete Portable it decodes
// into. New port types must be added here or round-tripping breaks.
var portDecoders = map[string]func(string, json.RawMessage) (Portable, error){
	"network":   decodePort[NetworkPort],
	"device":    decodePort[DevicePort],
	"nats":      decodePort[NATSPort],
	"file":      decodePort[FilePort],
	"mqtt":      decodePort[MQTTPort],
	"websocket": decodePort[WebSocketPort],
}

// portAlias sheds Port's marshaling methods so the wrappers below can reuse
// the default struct encoding without recursing.
type portAlias Port

// MarshalJSON wraps the Portable config with its type tag so it can be
// reconstructed on the way back in.
func (p Port) MarshalJSON() ([]byte, error) {
	wrapper := struct {
		portAlias
		Config json.RawMessage `json:"config"`
	}{
		portAlias: (portAlias)(p),
	}

	if p.Config != nil {
		tagged := struct {
			Type string `json:"type"`
			Data any    `json:"data"`
		}{
			Type: p.Config.Type(),
			Data: p.Config,
		}

		raw, err := json.Marshal(tagged)
		if err != nil {
			return nil, errors.Wrap(err, "Port", "MarshalJSON", "config marshaling")
		}
		wrapper.Config = raw
	}

	return json.Marshal(wrapper)
}

// UnmarshalJSON reconstructs the typed Portable config from its type tag.
func (p *Port) UnmarshalJSON(data []byte) error {
	temp := struct {
		*portAlias
		Config json.RawMessage `json:"config"`
	}{
		portAlias: (*portAlias)(p),
	}

	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}

	if len(temp.Config) == 0 {
		return nil
	}

	var tagged struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(temp.Config, &tagged); err != nil {
		return errors.Wrap(err, "Port", "UnmarshalJSON", "config wrapper unmarshaling")
	}

	decode, ok := portDecoders[tagged.Type]
	if !ok {
		return errors.WrapInvalid(
			fmt.Errorf("unknown config type: %s", tagged.Type),
			"Port",
			"UnmarshalJSON",
			"config type validation",
		)
	}

	cfg, err := decode(tagged.Type, tagged.Data)
	if err != nil {
		return err
	}
	p.Config = cfg

	return nil
}
