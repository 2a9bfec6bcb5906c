package metric

import (
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/kimit0310/MoBI-Physio-API/errors"
)

// MetricsRegistrar is what sinks and other components see when they want
// to hang their own metrics off the process registry.
type MetricsRegistrar interface {
	RegisterCounter(serviceName, metricName string, counter prometheus.Counter) error
	RegisterGauge(serviceName, metricName string, gauge prometheus.Gauge) error
	RegisterHistogram(serviceName, metricName string, histogram prometheus.Histogram) error
	RegisterCounterVec(serviceName, metricName string, counterVec *prometheus.CounterVec) error
	RegisterGaugeVec(serviceName, metricName string, gaugeVec *prometheus.GaugeVec) error
	RegisterHistogramVec(serviceName, metricName string, histogramVec *prometheus.HistogramVec) error
	Unregister(serviceName, metricName string) bool
}

// MetricsRegistry owns the process-wide Prometheus registry. Core bridge
// metrics register at construction; sinks add theirs under a
// serviceName.metricName key so they can be unregistered on shutdown.
type MetricsRegistry struct {
	prometheusRegistry *prometheus.Registry
	Metrics            *Metrics
	registeredMetrics  map[string]prometheus.Collector
	mu                 sync.RWMutex
}

// NewMetricsRegistry creates a registry preloaded with the core bridge
// metrics plus Go runtime and process collectors.
func NewMetricsRegistry() *MetricsRegistry {
	r := &MetricsRegistry{
		prometheusRegistry: prometheus.NewRegistry(),
		Metrics:            NewMetrics(),
		registeredMetrics:  make(map[string]prometheus.Collector),
	}

	r.prometheusRegistry.MustRegister(
		r.Metrics.SessionState,
		r.Metrics.FramesReceived,
		r.Metrics.FramesDropped,
		r.Metrics.SamplesPushed,
		r.Metrics.PushDuration,
		r.Metrics.ErrorsTotal,
		r.Metrics.HealthStatus,
		r.Metrics.NATSConnected,
		r.Metrics.NATSRTT,
		r.Metrics.NATSReconnects,
		r.Metrics.NATSCircuitBreaker,
	)

	r.prometheusRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// PrometheusRegistry returns the underlying Prometheus registry, for the
// HTTP handler that serves scrapes.
func (r *MetricsRegistry) PrometheusRegistry() *prometheus.Registry {
	return r.prometheusRegistry
}

// CoreMetrics returns the bridge's own metrics set.
func (r *MetricsRegistry) CoreMetrics() *Metrics {
	return r.Metrics
}

// register tracks a collector under serviceName.metricName and adds it to
// the Prometheus registry. A key collision, or a name collision inside
// Prometheus itself, comes back as an invalid error; other registration
// failures are fatal.
func (r *MetricsRegistry) register(method, serviceName, metricName string, collector prometheus.Collector) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := serviceName + "." + metricName

	if _, exists := r.registeredMetrics[key]; exists {
		return errors.WrapInvalid(
			fmt.Errorf("metric %s already registered for service %s", metricName, serviceName),
			"MetricsRegistry", method, "duplicate metric registration")
	}

	if err := r.prometheusRegistry.Register(collector); err != nil {
		var alreadyRegErr prometheus.AlreadyRegisteredError
		if stderrors.As(err, &alreadyRegErr) {
			return errors.WrapInvalid(err, "MetricsRegistry", method,
				fmt.Sprintf("prometheus conflict for metric %s", metricName))
		}
		return errors.WrapFatal(err, "MetricsRegistry", method,
			"prometheus registration")
	}

	r.registeredMetrics[key] = collector
	return nil
}

// RegisterCounter registers a counter metric for a service.
func (r *MetricsRegistry) RegisterCounter(serviceName, metricName string, counter prometheus.Counter) error {
	return r.register("RegisterCounter", serviceName, metricName, counter)
}

// RegisterGauge registers a gauge metric for a service.
func (r *MetricsRegistry) RegisterGauge(serviceName, metricName string, gauge prometheus.Gauge) error {
	return r.register("RegisterGauge", serviceName, metricName, gauge)
}

// RegisterHistogram registers a histogram metric for a service.
func (r *MetricsRegistry) RegisterHistogram(serviceName, metricName string, histogram prometheus.Histogram) error {
	return r.register("RegisterHistogram", serviceName, metricName, histogram)
}

// RegisterCounterVec registers a labeled counter for a service.
func (r *MetricsRegistry) RegisterCounterVec(serviceName, metricName string, counterVec *prometheus.CounterVec) error {
	return r.register("RegisterCounterVec", serviceName, metricName, counterVec)
}

// RegisterGaugeVec registers a labeled gauge for a service.
func (r *MetricsRegistry) RegisterGaugeVec(serviceName, metricName string, gaugeVec *prometheus.GaugeVec) error {
	return r.register("RegisterGaugeVec", serviceName, metricName, gaugeVec)
}

// RegisterHistogramVec registers a labeled histogram for a service.
func (r *MetricsRegistry) RegisterHistogramVec(
	serviceName, metricName string, histogramVec *prometheus.HistogramVec) error {
	return r.register("RegisterHistogramVec", serviceName, metricName, histogramVec)
}

// Unregister removes a metric registered under serviceName.metricName.
// It reports whether anything was removed.
func (r *MetricsRegistry) Unregister(serviceName, metricName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := serviceName + "." + metricName

	collector, exists := r.registeredMetrics[key]
	if !exists {
		return false
	}

	if !r.prometheusRegistry.Unregister(collector) {
		return false
	}
	delete(r.registeredMetrics, key)
	return true
}
