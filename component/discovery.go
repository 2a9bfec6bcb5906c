package component

import (
	"time"
)

// Discoverable is the inspection surface every component exposes. The
// management layer uses it to enumerate ports, render config schemas and
// poll health without knowing the concrete component type. Both the bridge
// and every sink implement it.
type Discoverable interface {
	// Meta identifies the component.
	Meta() Metadata

	// InputPorts lists the ports the component consumes data on.
	InputPorts() []Port

	// OutputPorts lists the ports the component produces data on.
	OutputPorts() []Port

	// ConfigSchema describes the component's configuration parameters.
	ConfigSchema() ConfigSchema

	// Health reports the component's current health.
	Health() HealthStatus

	// DataFlow reports throughput and error metrics.
	DataFlow() FlowMetrics
}

// Metadata identifies a component to the management layer.
type Metadata struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // "bridge", "sink"
	Description string `json:"description"`
	Version     string `json:"version"`
}

// ConfigSchema lists a component's configuration properties and which of
// them are required. Schemas are generated from struct tags, see
// GenerateConfigSchema.
type ConfigSchema struct {
	Properties map[string]PropertySchema `json:"properties"`
	Required   []string                  `json:"required"`
}

// PropertySchema describes one configuration property.
type PropertySchema struct {
	Type        string   `json:"type"` // "string", "int", "bool", "float", "duration", "enum", "array", "object"
	Description string   `json:"description"`
	Default     any      `json:"default,omitempty"`
	Enum        []string `json:"enum,omitempty"`     // Valid string values
	Minimum     *int     `json:"minimum,omitempty"`  // For numeric types
	Maximum     *int     `json:"maximum,omitempty"`  // For numeric types
	Category    string   `json:"category,omitempty"` // "basic" or "advanced" for UI organization
}

// HealthStatus is a point-in-time health snapshot of a component.
type HealthStatus struct {
	Healthy    bool          `json:"healthy"`
	LastCheck  time.Time     `json:"last_check"`
	ErrorCount int           `json:"error_count"`
	LastError  string        `json:"last_error,omitempty"`
	Uptime     time.Duration `json:"uptime"`
}

// FlowMetrics summarizes recent data flow through a component.
type FlowMetrics struct {
	MessagesPerSecond float64   `json:"messages_per_second"`
	BytesPerSecond    float64   `json:"bytes_per_second"`
	ErrorRate         float64   `json:"error_rate"`
	LastActivity      time.Time `json:"last_activity"`
}
