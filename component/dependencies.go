package component

import (
	"log/slog"

	"github.com/kimit0310/MoBI-Physio-API/metric"
	"github.com/kimit0310/MoBI-Physio-API/natsclient"
)

// Dependencies provides the external collaborators components receive at
// construction time. Components take this struct rather than individual
// fields so wiring stays uniform across the bridge and the sinks.
type Dependencies struct {
	NATSClient      *natsclient.Client      // NATS client for messaging (can be nil when no NATS sink is configured)
	MetricsRegistry *metric.MetricsRegistry // Metrics registry for Prometheus (can be nil)
	Logger          *slog.Logger            // Structured logger (can be nil, defaults to slog.Default())
}

// GetLogger returns the configured logger, falling back to slog.Default.
func (d *Dependencies) GetLogger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// GetLoggerWithComponent returns the logger tagged with the component name.
func (d *Dependencies) GetLoggerWithComponent(componentName string) *slog.Logger {
	return d.GetLogger().With("component", componentName)
}
