// Package metric provides Prometheus-based metrics collection and an HTTP
// server for monitoring the acquisition bridge.
//
// The package offers a centralized metrics registry managing both core
// platform metrics (session state, frame flow, NATS health) and custom
// sink-specific metrics. It includes an HTTP server exposing metrics in
// Prometheus format for monitoring system integration.
//
// # Architecture
//
// The package follows a three-layer design:
//
//  1. Core Metrics: Platform-level metrics automatically registered (Metrics type)
//  2. Registry: Extensible registration for sink-specific metrics (MetricsRegistrar interface)
//  3. HTTP Server: Metrics endpoint with health checks (Server type)
//
// This separates infrastructure concerns (core metrics) from transport
// concerns (sink-specific metrics) while providing a unified metrics
// endpoint for monitoring systems.
//
// # Basic Usage
//
// Setting up metrics collection and the HTTP server:
//
//	registry := metric.NewMetricsRegistry()
//	server := metric.NewServer(9090, "/metrics", registry)
//
//	go func() {
//	    if err := server.Start(); err != nil && err != http.ErrServerClosed {
//	        log.Printf("Metrics server error: %v", err)
//	    }
//	}()
//
//	// Record core platform metrics
//	coreMetrics := registry.CoreMetrics()
//	coreMetrics.RecordSessionState("bridge", 4) // 4 = streaming
//	coreMetrics.RecordFrameReceived("bridge")
//	coreMetrics.RecordNATSStatus(true)
//
// The metrics server exposes Prometheus-formatted metrics at
// http://localhost:9090/metrics and a health check at
// http://localhost:9090/health.
//
// # Core Metrics
//
// The package automatically registers core platform metrics tracking:
//
//   - Session lifecycle: session_state (0=idle, 1=connected, 2=discovered,
//     3=streaming_ready, 4=streaming, 5=closed, 6=failed)
//   - Frame flow: frames_received_total, frames_dropped_total
//   - Sample delivery: samples_pushed_total, samples_push_duration_seconds
//   - NATS connectivity: nats_connected, nats_rtt_milliseconds,
//     nats_reconnects_total, nats_circuit_breaker
//   - Error tracking: errors_total, health_status
//
// All core metrics use the namespace "mobiphysio":
//   - mobiphysio_session_state{component="..."}
//   - mobiphysio_frames_received_total{component="..."}
//   - mobiphysio_samples_pushed_total{component="...",sink="..."}
//   - mobiphysio_nats_connected
//
// # Sink-Specific Metrics
//
// Sinks register custom metrics through the registry:
//
//	clientsConnected := prometheus.NewGauge(prometheus.GaugeOpts{
//	    Namespace: "mobiphysio",
//	    Subsystem: "ws",
//	    Name:      "clients_connected",
//	    Help:      "Number of connected WebSocket clients",
//	})
//	err := registry.RegisterGauge("ws-sink", "clients_connected", clientsConnected)
//
// Registration methods return errors for duplicate registration (same
// sink/metric pair) and Prometheus-level name conflicts. Vector variants
// (RegisterCounterVec, RegisterGaugeVec, RegisterHistogramVec) cover
// labeled metrics.
//
// # MetricsRegistrar Interface
//
// Components take the MetricsRegistrar interface for dependency injection:
//
//	type WSSink struct {
//	    metrics metric.MetricsRegistrar
//	}
//
// This enables testing with mock registrars and keeps sinks decoupled from
// the concrete registry.
//
// # Thread Safety
//
// All registry operations are thread-safe:
//   - Registration methods use mutex protection
//   - Metric recording is lock-free (Prometheus guarantee)
//   - CoreMetrics() returns a thread-safe shared instance
//   - PrometheusRegistry() is safe for concurrent access
package metric
