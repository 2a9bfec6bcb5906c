package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigPath      string
	DeviceAddr      string
	Simulate        bool
	Discover        bool
	LogLevel        string
	LogFormat       string
	Debug           bool
	ShutdownTimeout time.Duration
	ShowVersion     bool
	ShowHelp        bool
	Validate        bool
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	// Define flags with environment variable fallback
	flag.StringVar(&cfg.ConfigPath, "config",
		getEnv("MOBIPHYSIO_CONFIG", ""),
		"Path to configuration file, empty runs on defaults (env: MOBIPHYSIO_CONFIG)")

	flag.StringVar(&cfg.ConfigPath, "c",
		getEnv("MOBIPHYSIO_CONFIG", ""),
		"Path to configuration file, empty runs on defaults (env: MOBIPHYSIO_CONFIG)")

	flag.StringVar(&cfg.DeviceAddr, "device",
		getEnv("MOBIPHYSIO_DEVICE_ADDR", ""),
		"Device MAC address, overrides the config file (env: MOBIPHYSIO_DEVICE_ADDR)")

	flag.BoolVar(&cfg.Simulate, "simulate",
		getEnvBool("MOBIPHYSIO_DEVICE_SIMULATE", false),
		"Stream from the simulated hub instead of hardware (env: MOBIPHYSIO_DEVICE_SIMULATE)")

	flag.BoolVar(&cfg.Discover, "discover", false,
		"Scan for devices, print their addresses and exit")

	flag.StringVar(&cfg.LogLevel, "log-level",
		getEnv("MOBIPHYSIO_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: MOBIPHYSIO_LOG_LEVEL)")

	flag.StringVar(&cfg.LogFormat, "log-format",
		getEnv("MOBIPHYSIO_LOG_FORMAT", "text"),
		"Log format: json, text, pretty (env: MOBIPHYSIO_LOG_FORMAT)")

	flag.BoolVar(&cfg.Debug, "debug",
		getEnvBool("MOBIPHYSIO_DEBUG", false),
		"Enable debug mode (env: MOBIPHYSIO_DEBUG)")

	flag.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout",
		getEnvDuration("MOBIPHYSIO_SHUTDOWN_TIMEOUT", 10*time.Second),
		"Graceful shutdown timeout (env: MOBIPHYSIO_SHUTDOWN_TIMEOUT)")

	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	flag.BoolVar(&cfg.ShowVersion, "v", false, "Show version information")
	flag.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	flag.BoolVar(&cfg.ShowHelp, "h", false, "Show help information")
	flag.BoolVar(&cfg.Validate, "validate", false, "Validate configuration and exit")

	flag.Usage = func() {
		printDetailedHelp()
	}

	flag.Parse()

	// Override log level if debug is set
	if cfg.Debug {
		cfg.LogLevel = "debug"
	}

	return cfg
}

func validateFlags(cfg *CLIConfig) error {
	// Skip validation for special flags
	if cfg.ShowVersion || cfg.ShowHelp {
		return nil
	}

	if cfg.ConfigPath != "" {
		if _, err := os.Stat(cfg.ConfigPath); err != nil {
			return fmt.Errorf("config file not found: %s", cfg.ConfigPath)
		}
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}

	validFormats := []string{"json", "text", "pretty"}
	if !contains(validFormats, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}

	if cfg.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid shutdown timeout: %s", cfg.ShutdownTimeout)
	}

	return nil
}

func printDetailedHelp() {
	_, _ = fmt.Fprintf(os.Stderr, `%s - Biosignal acquisition bridge

Usage: %s [options]

Options:
`, appName, os.Args[0])
	flag.PrintDefaults()
	_, _ = fmt.Fprintf(os.Stderr, `
Examples:
  # Stream from a device to the sinks in the config file
  %s --config=/path/to/config.yaml --device=00:07:80:4D:2E:76

  # Try the pipeline without hardware
  %s --simulate --log-format=pretty

  # Find devices in range
  %s --discover

  # Validate configuration only
  %s --config=/path/to/config.yaml --validate

Version: %s
Build: %s
`, os.Args[0], os.Args[0], os.Args[0], os.Args[0], Version, BuildTime)
}

// Environment variable helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Utility function to check if slice contains string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
