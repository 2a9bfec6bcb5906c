package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Sink type constants
const (
	SinkTypeNATS      = "nats"
	SinkTypeMQTT      = "mqtt"
	SinkTypeFile      = "file"
	SinkTypeWebSocket = "websocket"
)

// SinkConfigs holds sink instance configurations.
// The map key is the instance name (e.g., "jetstream-main").
// Sinks are only created if they have an entry here with enabled=true.
type SinkConfigs map[string]SinkConfig

// SinkConfig is one sink instance: its type, whether it runs, and its
// type-specific settings. The raw config is decoded by the sink itself
// via component.SafeUnmarshal.
type SinkConfig struct {
	Type    string          `json:"type"`
	Enabled bool            `json:"enabled"`
	Config  json.RawMessage `json:"config,omitempty"`
}

// Validate checks the sink entry
func (s *SinkConfig) Validate() error {
	switch s.Type {
	case SinkTypeNATS, SinkTypeMQTT, SinkTypeFile, SinkTypeWebSocket:
		return nil
	case "":
		return errors.New("type is required")
	default:
		return fmt.Errorf("unknown sink type %q", s.Type)
	}
}

// Config represents the complete bridge configuration: the device to
// acquire from, the NATS connection, the set of sinks, and the ambient
// metrics/logging settings.
type Config struct {
	Device  DeviceConfig  `json:"device"`
	NATS    NATSConfig    `json:"nats"`
	Sinks   SinkConfigs   `json:"sinks"`
	Metrics MetricsConfig `json:"metrics"`
	Log     LogConfig     `json:"log"`
}

// DeviceConfig defines the acquisition device and session tuning
type DeviceConfig struct {
	// Addr is the device MAC address; ignored when Simulate is set.
	Addr     string `json:"addr"`
	Simulate bool   `json:"simulate"`

	SampleRate           int           `json:"sample_rate,omitempty"`
	ConnectTimeout       time.Duration `json:"connect_timeout,omitempty"`
	ConnectRetryInterval time.Duration `json:"connect_retry_interval,omitempty"`
	MaxConsecutiveDrops  int           `json:"max_consecutive_drops,omitempty"`

	StreamName string `json:"stream_name,omitempty"`
	StreamType string `json:"stream_type,omitempty"`
	SourceID   string `json:"source_id,omitempty"`

	// Channels forces sensor kinds per hardware port, bypassing
	// auto-detection. Keys are port numbers, values are sensor kind
	// names (EMG, ECG, EDA, RSP, SpO2, ACC).
	Channels map[int]string `json:"channels,omitempty"`
}

// NATSConfig defines NATS connection settings
type NATSConfig struct {
	URLs          []string      `json:"urls,omitempty"`
	MaxReconnects int           `json:"max_reconnects,omitempty"`
	ReconnectWait time.Duration `json:"reconnect_wait,omitempty"`
	Username      string        `json:"username,omitempty"`
	Password      string        `json:"password,omitempty"`
	Token         string        `json:"token,omitempty"`
}

// MetricsConfig defines the Prometheus endpoint settings
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Port    int    `json:"port,omitempty"`
	Path    string `json:"path,omitempty"`
}

// LogConfig defines logging output settings
type LogConfig struct {
	Level  string `json:"level,omitempty"`  // debug, info, warn, error
	Format string `json:"format,omitempty"` // text, json, pretty
}

// SafeConfig provides thread-safe access to configuration
type SafeConfig struct {
	mu     sync.RWMutex
	config *Config
}

// NewSafeConfig creates a new thread-safe config wrapper
func NewSafeConfig(cfg *Config) *SafeConfig {
	if cfg == nil {
		cfg = &Config{}
	}
	return &SafeConfig{
		config: cfg,
	}
}

// Get returns a deep copy of the current configuration
func (sc *SafeConfig) Get() *Config {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.config.Clone()
}

// Update atomically updates the configuration after validation
func (sc *SafeConfig) Update(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}

	// Validate before updating
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.config = cfg
	return nil
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	if c == nil {
		return &Config{}
	}

	// Use JSON marshaling/unmarshaling for deep copy
	data, err := json.Marshal(c)
	if err != nil {
		// Fallback to shallow copy if marshaling fails
		copied := *c
		return &copied
	}

	var clone Config
	if err := json.Unmarshal(data, &clone); err != nil {
		// Fallback to shallow copy if unmarshaling fails
		copied := *c
		return &copied
	}

	return &clone
}

// Redacted returns a deep copy with credentials masked, safe for
// logging and for the startup config dump.
func (c *Config) Redacted() *Config {
	clone := c.Clone()
	if clone.NATS.Password != "" {
		clone.NATS.Password = "[REDACTED]"
	}
	if clone.NATS.Token != "" {
		clone.NATS.Token = "[REDACTED]"
	}
	for name, sink := range clone.Sinks {
		sink.Config = redactRawCredentials(sink.Config)
		clone.Sinks[name] = sink
	}
	return clone
}

// redactRawCredentials masks credential-shaped keys inside a raw sink
// config. Unparseable payloads are returned as-is; validation reports
// those separately.
func redactRawCredentials(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return raw
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return raw
	}
	changed := false
	for key := range m {
		switch strings.ToLower(key) {
		case "password", "token", "secret":
			m[key] = "[REDACTED]"
			changed = true
		}
	}
	if !changed {
		return raw
	}
	out, err := json.Marshal(m)
	if err != nil {
		return raw
	}
	return out
}

// Validate checks if the config is valid. Field paths in errors follow
// the JSON structure (e.g. "device.addr").
func (c *Config) Validate() error {
	if !c.Device.Simulate && c.Device.Addr == "" {
		return errors.New("device.addr is required unless device.simulate is set")
	}

	if c.Device.SampleRate < 0 {
		return fmt.Errorf("device.sample_rate must be positive, got %d", c.Device.SampleRate)
	}
	if c.Device.SampleRate > 4000 {
		return fmt.Errorf("device.sample_rate %d exceeds hardware maximum 4000", c.Device.SampleRate)
	}
	if c.Device.ConnectTimeout < 0 {
		return errors.New("device.connect_timeout cannot be negative")
	}
	if c.Device.ConnectRetryInterval < 0 {
		return errors.New("device.connect_retry_interval cannot be negative")
	}
	if c.Device.MaxConsecutiveDrops < 0 {
		return errors.New("device.max_consecutive_drops cannot be negative")
	}
	for port := range c.Device.Channels {
		if port < 1 {
			return fmt.Errorf("device.channels: port %d out of range", port)
		}
	}

	if c.NATS.ReconnectWait < 0 {
		return errors.New("nats.reconnect_wait cannot be negative")
	}

	for name, sink := range c.Sinks {
		if name == "" {
			return errors.New("sink instance name cannot be empty")
		}
		if err := sink.Validate(); err != nil {
			return fmt.Errorf("sinks.%s: %w", name, err)
		}
	}

	if c.Metrics.Enabled {
		if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port %d out of range (1-65535)", c.Metrics.Port)
		}
		if c.Metrics.Path != "" && !strings.HasPrefix(c.Metrics.Path, "/") {
			return fmt.Errorf("metrics.path %q must start with /", c.Metrics.Path)
		}
	}

	if err := validateLogLevel(c.Log.Level); err != nil {
		return err
	}
	if err := validateLogFormat(c.Log.Format); err != nil {
		return err
	}

	return nil
}

func validateLogLevel(level string) error {
	switch level {
	case "", "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("log.level %q invalid (debug, info, warn, error)", level)
	}
}

func validateLogFormat(format string) error {
	switch format {
	case "", "text", "json", "pretty":
		return nil
	default:
		return fmt.Errorf("log.format %q invalid (text, json, pretty)", format)
	}
}

// EnabledSinks returns the names of enabled sinks, sorted for stable
// startup order
func (c *Config) EnabledSinks() []string {
	var names []string
	for name, sink := range c.Sinks {
		if sink.Enabled {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// SaveToFile saves the configuration to a JSON file
func (c *Config) SaveToFile(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	// Use secure file writing with validation
	return safeWriteFile(path, data)
}

// String returns a JSON representation of the config with credentials
// redacted
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c.Redacted(), "", "  ")
	return string(data)
}
