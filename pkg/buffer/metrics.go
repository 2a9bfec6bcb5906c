package buffer

import (
	"github.com/kimit0310/MoBI-Physio-API/metric"
	"github.com/prometheus/client_golang/prometheus"
)

// bufferMetrics mirrors a buffer's activity into Prometheus. Counters
// track operations, the two gauges track fill level.
type bufferMetrics struct {
	writes    prometheus.Counter
	reads     prometheus.Counter
	peeks     prometheus.Counter
	overflows prometheus.Counter
	drops     prometheus.Counter

	size        prometheus.Gauge
	utilization prometheus.Gauge
}

func bufferCounter(prefix, name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   "mobiphysio",
		Subsystem:   "buffer",
		Name:        name,
		ConstLabels: prometheus.Labels{"component": prefix},
		Help:        help,
	})
}

func bufferGauge(prefix, name, help string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   "mobiphysio",
		Subsystem:   "buffer",
		Name:        name,
		ConstLabels: prometheus.Labels{"component": prefix},
		Help:        help,
	})
}

// newBufferMetrics builds the metric set for one buffer and registers it
// under prefix so it can be unregistered with the owning component.
func newBufferMetrics(registry *metric.MetricsRegistry, prefix string) (*bufferMetrics, error) {
	m := &bufferMetrics{
		writes:      bufferCounter(prefix, "writes_total", "Total number of buffer write operations"),
		reads:       bufferCounter(prefix, "reads_total", "Total number of buffer read operations"),
		peeks:       bufferCounter(prefix, "peeks_total", "Total number of buffer peek operations"),
		overflows:   bufferCounter(prefix, "overflows_total", "Total number of buffer overflow events"),
		drops:       bufferCounter(prefix, "drops_total", "Total number of items dropped due to overflow"),
		size:        bufferGauge(prefix, "size", "Current number of items in buffer"),
		utilization: bufferGauge(prefix, "utilization", "Buffer utilization as a fraction (0.0 to 1.0)"),
	}

	counters := map[string]prometheus.Counter{
		"buffer_writes":    m.writes,
		"buffer_reads":     m.reads,
		"buffer_peeks":     m.peeks,
		"buffer_overflows": m.overflows,
		"buffer_drops":     m.drops,
	}
	for name, c := range counters {
		if err := registry.RegisterCounter(prefix, name, c); err != nil {
			return nil, err
		}
	}
	if err := registry.RegisterGauge(prefix, "buffer_size", m.size); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge(prefix, "buffer_utilization", m.utilization); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *bufferMetrics) recordWrite(size, capacity int) {
	m.writes.Inc()
	m.updateSize(size, capacity)
}

func (m *bufferMetrics) recordRead(size, capacity int) {
	m.reads.Inc()
	m.updateSize(size, capacity)
}

func (m *bufferMetrics) recordPeek() {
	m.peeks.Inc()
}

func (m *bufferMetrics) recordOverflow() {
	m.overflows.Inc()
}

func (m *bufferMetrics) recordDrop() {
	m.drops.Inc()
}

func (m *bufferMetrics) updateSize(size, capacity int) {
	m.size.Set(float64(size))
	m.utilization.Set(float64(size) / float64(capacity))
}
