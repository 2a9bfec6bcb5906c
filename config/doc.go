// Package config provides configuration management for the bridge.
//
// This package handles loading and validation of bridge configuration
// from JSON or YAML files and environment variables.
//
// # Core Components
//
// Config: Main configuration structure containing the device session
// settings, NATS connection details, sink instance definitions, and
// metrics/logging settings.
//
// SafeConfig: Thread-safe wrapper using RWMutex and deep cloning to
// prevent concurrent access issues and accidental mutations.
//
// Loader: Loads configuration with layer merging (base + overrides) and
// environment variable substitution for flexible deployment scenarios.
//
// # Basic Usage
//
// Loading configuration from files with layer merging:
//
//	loader := config.NewLoader()
//	loader.AddLayer("config/base.yaml")
//	loader.AddLayer("config/lab-7.yaml") // Overrides base
//	loader.EnableValidation(true)
//
//	cfg, err := loader.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//
// # Sink Configuration
//
// Sinks are declared as named instances. Each entry carries a type, an
// enabled flag, and a raw type-specific config that the sink decodes
// itself via component.SafeUnmarshal:
//
//	sinks:
//	  jetstream-main:
//	    type: nats
//	    enabled: true
//	    config:
//	      stream: PHYSIO
//	      subject_prefix: physio.samples
//	  recorder:
//	    type: file
//	    enabled: false
//	    config:
//	      directory: /data/recordings
//
// # Environment Variable Overrides
//
// Configuration values can be overridden using environment variables:
//
//	# Override device address
//	export MOBIPHYSIO_DEVICE_ADDR="00:07:80:4D:2E:76"
//
//	# Override NATS URLs (comma-separated)
//	export MOBIPHYSIO_NATS_URLS="nats://server1:4222,nats://server2:4222"
//
// # Durations
//
// Duration fields accept Go duration strings ("30s", "2m") in both JSON
// and YAML, plus a "d" suffix for days. Keys named timeout, *_timeout,
// *_interval, or *_wait are normalized, including inside sink configs.
//
// # Security
//
// The package includes security validation:
//   - File size limits (10MB max) to prevent memory exhaustion
//   - JSON depth validation (100 levels max) to prevent DoS attacks
//   - Path validation to prevent directory traversal
//   - Regular file checks (no symlinks or device files)
//
// Credentials never reach logs: String() and Redacted() mask passwords
// and tokens, including credential-shaped keys inside raw sink configs.
package config
