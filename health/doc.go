// Package health tracks the health of bridge components and rolls them
// up into one process-wide indicator.
//
// A component is healthy, degraded, or unhealthy. Degraded covers the
// middle ground binary models miss: a sink dropping samples under
// backpressure still moves data and should not look the same as a sink
// whose connection is gone.
//
// The Monitor holds the current Status per component (the device
// session, each sink, the metrics server) and stamps updates with the
// current time:
//
//	monitor := health.NewMonitor()
//	monitor.UpdateHealthy("device-session", "Streaming at 1000 Hz")
//	monitor.UpdateDegraded("live-view", "2 slow clients dropping samples")
//	monitor.UpdateUnhealthy("jetstream-main", "Connection lost")
//
// AggregateHealth reduces the tracked statuses to the worst one seen:
// any unhealthy component makes the bridge unhealthy, any degraded one
// (with none unhealthy) makes it degraded, otherwise the bridge is
// healthy. The component statuses ride along as sub-statuses so the
// report says which component pulled the level down.
//
//	bridgeHealth := monitor.AggregateHealth("bridge")
//	if bridgeHealth.IsUnhealthy() {
//	    log.Printf("Bridge unhealthy: %s", bridgeHealth.Message)
//	}
//
// FromComponentHealth converts the component.HealthStatus a sink
// reports through its Discoverable interface into a Status for the
// monitor.
//
// Status is a value type; WithMetrics and WithSubStatus return copies.
// Monitor methods are safe for concurrent use. Nothing here returns an
// error: health is the observability output of error handling, not a
// step in error propagation.
package health
