package metric

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatheredNames returns the set of metric family names currently visible
// in the registry's Prometheus output.
func gatheredNames(t *testing.T, registry *MetricsRegistry) map[string]bool {
	t.Helper()

	families, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	return names
}

func TestNewMetricsRegistry(t *testing.T) {
	registry := NewMetricsRegistry()

	assert.NotNil(t, registry)
	assert.NotNil(t, registry.PrometheusRegistry())
	assert.NotNil(t, registry.CoreMetrics())
}

func TestMetricsRegistry_RegisterScalarMetrics(t *testing.T) {
	registry := NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_counter", Help: "A test counter",
	})
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "test_gauge", Help: "A test gauge",
	})
	histogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: "test_histogram", Help: "A test histogram", Buckets: prometheus.DefBuckets,
	})

	require.NoError(t, registry.RegisterCounter("test-sink", "test_counter", counter))
	require.NoError(t, registry.RegisterGauge("test-sink", "test_gauge", gauge))
	require.NoError(t, registry.RegisterHistogram("test-sink", "test_histogram", histogram))

	counter.Inc()
	gauge.Set(42.0)
	histogram.Observe(1.5)

	names := gatheredNames(t, registry)
	for _, want := range []string{"test_counter", "test_gauge", "test_histogram"} {
		assert.True(t, names[want], "%s should be gatherable after registration", want)
	}
}

func TestMetricsRegistry_RegisterVecMetrics(t *testing.T) {
	registry := NewMetricsRegistry()

	counterVec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "test_counter_vec", Help: "A labeled counter",
	}, []string{"channel"})
	gaugeVec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "test_gauge_vec", Help: "A labeled gauge",
	}, []string{"channel"})
	histogramVec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: "test_histogram_vec", Help: "A labeled histogram",
	}, []string{"channel"})

	require.NoError(t, registry.RegisterCounterVec("test-sink", "test_counter_vec", counterVec))
	require.NoError(t, registry.RegisterGaugeVec("test-sink", "test_gauge_vec", gaugeVec))
	require.NoError(t, registry.RegisterHistogramVec("test-sink", "test_histogram_vec", histogramVec))

	// Vec metrics only gather once a label combination exists
	counterVec.WithLabelValues("ecg").Inc()
	gaugeVec.WithLabelValues("eda").Set(1)
	histogramVec.WithLabelValues("ecg").Observe(0.5)

	names := gatheredNames(t, registry)
	for _, want := range []string{"test_counter_vec", "test_gauge_vec", "test_histogram_vec"} {
		assert.True(t, names[want], "%s should be gatherable after registration", want)
	}
}

func TestMetricsRegistry_PreventDuplicateRegistration(t *testing.T) {
	registry := NewMetricsRegistry()

	counter1 := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "duplicate_counter", Help: "First counter",
	})
	counter2 := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "duplicate_counter", Help: "First counter",
	})

	require.NoError(t, registry.RegisterCounter("sink1", "duplicate_counter", counter1))

	// Different registry key, same Prometheus name: the conflict surfaces
	// from Prometheus itself.
	err := registry.RegisterCounter("sink2", "duplicate_counter", counter2)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "prometheus conflict")

	// Same registry key again: caught by our own tracking.
	err = registry.RegisterCounter("sink1", "duplicate_counter", counter1)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestMetricsRegistry_UnregisterMetric(t *testing.T) {
	registry := NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "unregister_counter", Help: "A counter to unregister",
	})

	require.NoError(t, registry.RegisterCounter("test-sink", "unregister_counter", counter))
	assert.True(t, gatheredNames(t, registry)["unregister_counter"])

	assert.True(t, registry.Unregister("test-sink", "unregister_counter"))
	assert.False(t, gatheredNames(t, registry)["unregister_counter"])

	// Unregistering twice, or unregistering something never registered, is a no-op
	assert.False(t, registry.Unregister("test-sink", "unregister_counter"))
	assert.False(t, registry.Unregister("test-sink", "never_registered"))
}

func TestMetricsRegistry_ThreadSafety(t *testing.T) {
	registry := NewMetricsRegistry()

	var wg sync.WaitGroup
	const writers = 10

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()

			name := fmt.Sprintf("concurrent_counter_%d", id)
			counter := prometheus.NewCounter(prometheus.CounterOpts{
				Name: name, Help: "A concurrent counter",
			})
			assert.NoError(t, registry.RegisterCounter("concurrent-sink", name, counter))
		}(i)
	}
	wg.Wait()

	names := gatheredNames(t, registry)
	for i := 0; i < writers; i++ {
		assert.True(t, names[fmt.Sprintf("concurrent_counter_%d", i)])
	}
}

func TestMetricsRegistrar_Interface(t *testing.T) {
	var registrar MetricsRegistrar = NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "interface_counter", Help: "Counter registered through interface",
	})
	require.NoError(t, registrar.RegisterCounter("interface-sink", "interface_counter", counter))
	assert.True(t, registrar.Unregister("interface-sink", "interface_counter"))
}

func TestMetricsRegistry_CoreMetricsInitialization(t *testing.T) {
	registry := NewMetricsRegistry()
	coreMetrics := registry.CoreMetrics()

	// Vec metrics need at least one labeled observation before they gather
	coreMetrics.RecordSessionState("bridge", 4)
	coreMetrics.RecordFrameReceived("bridge")
	coreMetrics.RecordFrameDropped("bridge", "malformed")
	coreMetrics.RecordSamplePushed("bridge", "nats")
	coreMetrics.RecordPushDuration("bridge", "nats", time.Millisecond)
	coreMetrics.RecordError("bridge", "connection")
	coreMetrics.RecordHealthStatus("bridge", true)

	names := gatheredNames(t, registry)

	for _, want := range []string{
		"mobiphysio_session_state",
		"mobiphysio_frames_received_total",
		"mobiphysio_frames_dropped_total",
		"mobiphysio_samples_pushed_total",
		"mobiphysio_samples_push_duration_seconds",
		"mobiphysio_errors_total",
		"mobiphysio_health_status",
		"mobiphysio_nats_connected",
		"mobiphysio_nats_rtt_milliseconds",
		"mobiphysio_nats_reconnects_total",
		"mobiphysio_nats_circuit_breaker",
	} {
		assert.True(t, names[want], "core metric %s should be initialized", want)
	}
}

func TestMetricsRegistry_NoSinkMetricsInCore(t *testing.T) {
	registry := NewMetricsRegistry()

	names := gatheredNames(t, registry)

	// Sink-specific metrics register when the sink is constructed, not here
	for _, sinkMetric := range []string{
		"mobiphysio_ws_clients_connected",
		"mobiphysio_file_bytes_written_total",
		"mobiphysio_mqtt_publishes_total",
	} {
		assert.False(t, names[sinkMetric],
			"sink metric %s should not be in the core registry", sinkMetric)
	}
}

func TestMetricsRegistry_GetCoreMetrics(t *testing.T) {
	coreMetrics := NewMetricsRegistry().CoreMetrics()
	require.NotNil(t, coreMetrics)

	assert.NotNil(t, coreMetrics.SessionState)
	assert.NotNil(t, coreMetrics.FramesReceived)
	assert.NotNil(t, coreMetrics.FramesDropped)
	assert.NotNil(t, coreMetrics.SamplesPushed)
	assert.NotNil(t, coreMetrics.PushDuration)
	assert.NotNil(t, coreMetrics.ErrorsTotal)
	assert.NotNil(t, coreMetrics.HealthStatus)
	assert.NotNil(t, coreMetrics.NATSConnected)
	assert.NotNil(t, coreMetrics.NATSRTT)
	assert.NotNil(t, coreMetrics.NATSReconnects)
	assert.NotNil(t, coreMetrics.NATSCircuitBreaker)
}

func TestCoreMetrics_RecordMethods(t *testing.T) {
	registry := NewMetricsRegistry()
	coreMetrics := registry.CoreMetrics()

	coreMetrics.RecordSessionState("bridge", 4)
	coreMetrics.RecordFrameReceived("bridge")
	coreMetrics.RecordFrameDropped("bridge", "push_failed")
	coreMetrics.RecordSamplePushed("bridge", "file")
	coreMetrics.RecordPushDuration("bridge", "file", 100*time.Microsecond)
	coreMetrics.RecordError("bridge", "connection")
	coreMetrics.RecordHealthStatus("bridge", true)
	coreMetrics.RecordNATSStatus(true)
	coreMetrics.RecordNATSRTT(50 * time.Millisecond)
	coreMetrics.RecordNATSReconnect()
	coreMetrics.RecordCircuitBreakerState(0)

	families, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)
	assert.Greater(t, len(families), 0)
}
