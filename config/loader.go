package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with layers and overrides
type Loader struct {
	layers     []string
	validation bool
	envPrefix  string
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{
		layers:     []string{},
		validation: false,
		envPrefix:  "MOBIPHYSIO",
	}
}

// AddLayer adds a configuration file layer
func (l *Loader) AddLayer(path string) {
	l.layers = append(l.layers, path)
}

// EnableValidation enables or disables configuration validation
func (l *Loader) EnableValidation(enable bool) {
	l.validation = enable
}

// LoadFile loads configuration from a single file
func (l *Loader) LoadFile(path string) (*Config, error) {
	l.layers = []string{path}
	return l.Load()
}

// Load loads and merges all configuration layers
func (l *Loader) Load() (*Config, error) {
	// Start with defaults
	cfg := l.getDefaults()

	// Load each layer and merge using map-based approach
	for _, path := range l.layers {
		rawConfig, err := l.loadRawMap(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		cfg = l.mergeFromMap(cfg, rawConfig)
	}

	// Apply environment overrides
	l.applyEnvOverrides(cfg)

	// Validate if enabled
	if l.validation {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// getDefaults returns default configuration. Session-level defaults
// (sample rate, timeouts) are left zero here; the device session applies
// its own when unset.
func (l *Loader) getDefaults() *Config {
	return &Config{
		NATS: NATSConfig{
			URLs:          []string{"nats://localhost:4222"},
			MaxReconnects: -1,
			ReconnectWait: 2 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
			Path:    "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// loadRawMap loads a configuration file into a generic map. YAML and
// JSON are both accepted; duration strings like "30s" are normalized to
// nanoseconds so they unmarshal into time.Duration fields.
func (l *Loader) loadRawMap(path string) (map[string]any, error) {
	// Use secure file reading with validation
	data, err := safeReadFile(path)
	if err != nil {
		return nil, err
	}

	var rawConfig map[string]any
	if isYAMLPath(path) {
		if err := yaml.Unmarshal(data, &rawConfig); err != nil {
			return nil, err
		}
		rawConfig = normalizeYAMLMap(rawConfig)
	} else {
		// Validate JSON depth to prevent DoS
		if err := validateJSONDepth(data); err != nil {
			return nil, fmt.Errorf("invalid JSON structure: %w", err)
		}
		if err := json.Unmarshal(data, &rawConfig); err != nil {
			return nil, err
		}
	}

	// Convert duration strings
	normalizeDurations(rawConfig)

	return rawConfig, nil
}

func isYAMLPath(path string) bool {
	return strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml")
}

// normalizeYAMLMap rewrites nested yaml maps so the result round-trips
// through encoding/json. yaml.v3 already decodes mapping keys as
// strings; this recurses into values.
func normalizeYAMLMap(m map[string]any) map[string]any {
	for k, v := range m {
		m[k] = normalizeYAMLValue(v)
	}
	return m
}

func normalizeYAMLValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return normalizeYAMLMap(val)
	case []any:
		for i, item := range val {
			val[i] = normalizeYAMLValue(item)
		}
		return val
	default:
		return v
	}
}

// durationKey reports whether a config key holds a duration. Matching is
// by key shape so sink configs get the same treatment as top-level
// fields (connect_timeout, reconnect_wait, heartbeat_interval, ...).
func durationKey(key string) bool {
	return key == "timeout" ||
		strings.HasSuffix(key, "_timeout") ||
		strings.HasSuffix(key, "_interval") ||
		strings.HasSuffix(key, "_wait")
}

// normalizeDurations walks the raw map converting duration strings to
// nanosecond integers in place
func normalizeDurations(m map[string]any) {
	for k, v := range m {
		switch val := v.(type) {
		case map[string]any:
			normalizeDurations(val)
		case string:
			if durationKey(k) {
				if d, err := parseDurationWithDays(val); err == nil {
					m[k] = d.Nanoseconds()
				}
			}
		}
	}
}

// parseDurationWithDays parses durations that may include days (e.g., "14d")
func parseDurationWithDays(s string) (time.Duration, error) {
	if strings.HasSuffix(s, "d") {
		days := strings.TrimSuffix(s, "d")
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, err
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

// mergeFromMap merges configuration from a raw map, only overriding fields present in the map
func (l *Loader) mergeFromMap(base *Config, override map[string]any) *Config {
	if override == nil {
		return base
	}

	// Marshal the base config to JSON then to map
	baseJSON, err := json.Marshal(base)
	if err != nil {
		return base
	}

	var baseMap map[string]any
	if err := json.Unmarshal(baseJSON, &baseMap); err != nil {
		return base
	}

	// Deep merge the maps
	mergedMap := l.deepMergeMaps(baseMap, override)

	// Convert back to Config
	mergedJSON, err := json.Marshal(mergedMap)
	if err != nil {
		return base
	}

	var merged Config
	if err := json.Unmarshal(mergedJSON, &merged); err != nil {
		return base
	}

	return &merged
}

// deepMergeMaps recursively merges two maps, with override taking precedence
func (l *Loader) deepMergeMaps(base, override map[string]any) map[string]any {
	result := make(map[string]any)

	// Copy base values
	for k, v := range base {
		result[k] = v
	}

	// Override with values from override map
	for k, v := range override {
		if v == nil {
			continue
		}

		// If both base and override have maps at this key, merge them
		if baseMap, baseOk := base[k].(map[string]any); baseOk {
			if overrideMap, overrideOk := v.(map[string]any); overrideOk {
				result[k] = l.deepMergeMaps(baseMap, overrideMap)
				continue
			}
		}

		// Otherwise, override takes precedence
		result[k] = v
	}

	return result
}

// applyEnvOverrides applies environment variable overrides
func (l *Loader) applyEnvOverrides(cfg *Config) {
	// Device overrides
	if val := l.getenv("DEVICE_ADDR"); val != "" {
		cfg.Device.Addr = val
	}
	if val := l.getenv("DEVICE_SIMULATE"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Device.Simulate = b
		}
	}
	if val := l.getenv("DEVICE_SAMPLE_RATE"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Device.SampleRate = n
		}
	}
	if val := l.getenv("DEVICE_SOURCE_ID"); val != "" {
		cfg.Device.SourceID = val
	}

	// NATS overrides
	if val := l.getenv("NATS_URLS"); val != "" {
		cfg.NATS.URLs = strings.Split(val, ",")
	}
	if val := l.getenv("NATS_USERNAME"); val != "" {
		cfg.NATS.Username = val
	}
	if val := l.getenv("NATS_PASSWORD"); val != "" {
		cfg.NATS.Password = val
	}
	if val := l.getenv("NATS_TOKEN"); val != "" {
		cfg.NATS.Token = val
	}

	// Metrics overrides
	if val := l.getenv("METRICS_PORT"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Metrics.Port = n
		}
	}

	// Log overrides
	if val := l.getenv("LOG_LEVEL"); val != "" {
		cfg.Log.Level = val
	}
	if val := l.getenv("LOG_FORMAT"); val != "" {
		cfg.Log.Format = val
	}
}

// getenv reads a prefixed environment variable, rejecting malformed
// values rather than propagating them into the config
func (l *Loader) getenv(suffix string) string {
	key := l.envPrefix + "_" + suffix
	val := os.Getenv(key)
	if err := validateEnvVar(key, val); err != nil {
		return ""
	}
	return val
}

// UnmarshalJSON implements custom JSON unmarshaling for DeviceConfig so
// duration fields accept both "60s" strings and nanosecond numbers.
func (d *DeviceConfig) UnmarshalJSON(data []byte) error {
	type Alias DeviceConfig
	aux := &struct {
		ConnectTimeout       any `json:"connect_timeout,omitempty"`
		ConnectRetryInterval any `json:"connect_retry_interval,omitempty"`
		*Alias
	}{
		Alias: (*Alias)(d),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	if d.ConnectTimeout, err = durationValue(aux.ConnectTimeout); err != nil {
		return fmt.Errorf("connect_timeout: %w", err)
	}
	if d.ConnectRetryInterval, err = durationValue(aux.ConnectRetryInterval); err != nil {
		return fmt.Errorf("connect_retry_interval: %w", err)
	}
	return nil
}

// UnmarshalJSON implements custom JSON unmarshaling for NATSConfig so
// reconnect_wait accepts both "2s" strings and nanosecond numbers.
func (n *NATSConfig) UnmarshalJSON(data []byte) error {
	type Alias NATSConfig
	aux := &struct {
		ReconnectWait any `json:"reconnect_wait,omitempty"`
		*Alias
	}{
		Alias: (*Alias)(n),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	if n.ReconnectWait, err = durationValue(aux.ReconnectWait); err != nil {
		return fmt.Errorf("reconnect_wait: %w", err)
	}
	return nil
}

// durationValue converts a decoded JSON value (string or number) into a
// time.Duration
func durationValue(v any) (time.Duration, error) {
	switch val := v.(type) {
	case nil:
		return 0, nil
	case string:
		return parseDurationWithDays(val)
	case float64:
		return time.Duration(val), nil
	default:
		return 0, fmt.Errorf("unsupported duration value %v (%T)", v, v)
	}
}
