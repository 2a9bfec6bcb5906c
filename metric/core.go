package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all platform-level metrics (not sink-specific)
type Metrics struct {
	// Acquisition metrics
	SessionState   *prometheus.GaugeVec
	FramesReceived *prometheus.CounterVec
	FramesDropped  *prometheus.CounterVec
	SamplesPushed  *prometheus.CounterVec
	PushDuration   *prometheus.HistogramVec
	ErrorsTotal    *prometheus.CounterVec
	HealthStatus   *prometheus.GaugeVec

	// NATS metrics
	NATSConnected      prometheus.Gauge
	NATSRTT            prometheus.Gauge
	NATSReconnects     prometheus.Counter
	NATSCircuitBreaker prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all platform metrics
func NewMetrics() *Metrics {
	return &Metrics{
		// Acquisition metrics
		SessionState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "mobiphysio",
				Subsystem: "session",
				Name:      "state",
				Help:      "Acquisition session state (0=idle, 1=connected, 2=discovered, 3=streaming_ready, 4=streaming, 5=closed, 6=failed)",
			},
			[]string{"component"},
		),

		FramesReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mobiphysio",
				Subsystem: "frames",
				Name:      "received_total",
				Help:      "Total number of raw frames read from the device link",
			},
			[]string{"component"},
		),

		FramesDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mobiphysio",
				Subsystem: "frames",
				Name:      "dropped_total",
				Help:      "Total number of frames dropped before delivery",
			},
			[]string{"component", "reason"},
		),

		SamplesPushed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mobiphysio",
				Subsystem: "samples",
				Name:      "pushed_total",
				Help:      "Total number of samples delivered to sinks",
			},
			[]string{"component", "sink"},
		),

		PushDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "mobiphysio",
				Subsystem: "samples",
				Name:      "push_duration_seconds",
				Help:      "Sink push duration in seconds",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"component", "sink"},
		),

		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mobiphysio",
				Subsystem: "errors",
				Name:      "total",
				Help:      "Total number of errors",
			},
			[]string{"component", "type"},
		),

		HealthStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "mobiphysio",
				Subsystem: "health",
				Name:      "status",
				Help:      "Health check status (0=unhealthy, 1=healthy)",
			},
			[]string{"component"},
		),

		// NATS metrics
		NATSConnected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "mobiphysio",
				Subsystem: "nats",
				Name:      "connected",
				Help:      "NATS connection status (0=disconnected, 1=connected)",
			},
		),

		NATSRTT: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "mobiphysio",
				Subsystem: "nats",
				Name:      "rtt_milliseconds",
				Help:      "NATS round-trip time in milliseconds",
			},
		),

		NATSReconnects: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "mobiphysio",
				Subsystem: "nats",
				Name:      "reconnects_total",
				Help:      "Total number of NATS reconnections",
			},
		),

		NATSCircuitBreaker: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "mobiphysio",
				Subsystem: "nats",
				Name:      "circuit_breaker",
				Help:      "NATS circuit breaker status (0=closed, 1=open, 2=half-open)",
			},
		),
	}
}

// RecordSessionState updates the session state metric
func (c *Metrics) RecordSessionState(component string, state int) {
	c.SessionState.WithLabelValues(component).Set(float64(state))
}

// RecordFrameReceived increments the received frame counter
func (c *Metrics) RecordFrameReceived(component string) {
	c.FramesReceived.WithLabelValues(component).Inc()
}

// RecordFrameDropped increments the dropped frame counter
func (c *Metrics) RecordFrameDropped(component, reason string) {
	c.FramesDropped.WithLabelValues(component, reason).Inc()
}

// AddFramesReceived adds a batch delta to the received frame counter.
// Used by components that snapshot cumulative counters periodically
// instead of instrumenting the hot path.
func (c *Metrics) AddFramesReceived(component string, n float64) {
	c.FramesReceived.WithLabelValues(component).Add(n)
}

// AddFramesDropped adds a batch delta to the dropped frame counter
func (c *Metrics) AddFramesDropped(component, reason string, n float64) {
	c.FramesDropped.WithLabelValues(component, reason).Add(n)
}

// AddSamplesPushed adds a batch delta to the pushed sample counter
func (c *Metrics) AddSamplesPushed(component, sink string, n float64) {
	c.SamplesPushed.WithLabelValues(component, sink).Add(n)
}

// RecordSamplePushed increments the pushed sample counter
func (c *Metrics) RecordSamplePushed(component, sink string) {
	c.SamplesPushed.WithLabelValues(component, sink).Inc()
}

// RecordPushDuration records sink push time
func (c *Metrics) RecordPushDuration(component, sink string, duration time.Duration) {
	c.PushDuration.WithLabelValues(component, sink).Observe(duration.Seconds())
}

// RecordError increments error counter
func (c *Metrics) RecordError(component, errorType string) {
	c.ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

// RecordHealthStatus updates health check status
func (c *Metrics) RecordHealthStatus(component string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	c.HealthStatus.WithLabelValues(component).Set(value)
}

// RecordNATSStatus updates NATS connection status
func (c *Metrics) RecordNATSStatus(connected bool) {
	value := 0.0
	if connected {
		value = 1.0
	}
	c.NATSConnected.Set(value)
}

// RecordNATSRTT updates NATS round-trip time
func (c *Metrics) RecordNATSRTT(rtt time.Duration) {
	c.NATSRTT.Set(float64(rtt.Milliseconds()))
}

// RecordNATSReconnect increments reconnection counter
func (c *Metrics) RecordNATSReconnect() {
	c.NATSReconnects.Inc()
}

// RecordCircuitBreakerState updates circuit breaker status
func (c *Metrics) RecordCircuitBreakerState(state int) {
	c.NATSCircuitBreaker.Set(float64(state))
}
