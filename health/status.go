package health

import (
	"time"

	"github.com/kimit0310/MoBI-Physio-API/component"
)

// Wire values for Status.Status. Degraded means running but below full
// capability, for example a session still acquiring while a sink fails.
const (
	stateHealthy   = "healthy"
	stateDegraded  = "degraded"
	stateUnhealthy = "unhealthy"
)

// Status is the health report for one component or a rollup of several.
type Status struct {
	Component   string    `json:"component"`
	Healthy     bool      `json:"healthy"` // true only for "healthy"
	Status      string    `json:"status"`  // healthy, degraded, or unhealthy
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	SubStatuses []Status  `json:"sub_statuses,omitempty"`
	Metrics     *Metrics  `json:"metrics,omitempty"`
}

// Metrics carries the counters a health report can attach.
type Metrics struct {
	Uptime           time.Duration `json:"uptime"`
	ErrorCount       int           `json:"error_count"`
	SamplesDelivered int64         `json:"samples_delivered,omitempty"`
	LastActivity     time.Time     `json:"last_activity,omitempty"`
}

// IsHealthy returns true if the status is healthy.
func (s Status) IsHealthy() bool {
	return s.Status == stateHealthy
}

// IsDegraded returns true if the status is degraded.
func (s Status) IsDegraded() bool {
	return s.Status == stateDegraded
}

// IsUnhealthy returns true if the status is unhealthy.
func (s Status) IsUnhealthy() bool {
	return s.Status == stateUnhealthy
}

// WithMetrics returns a copy of the status with metrics attached.
func (s Status) WithMetrics(metrics *Metrics) Status {
	s.Metrics = metrics
	return s
}

// WithSubStatus returns a copy with one more sub-status. The slice is
// reallocated so the original and the copy never share backing storage.
func (s Status) WithSubStatus(subStatus Status) Status {
	subs := make([]Status, len(s.SubStatuses), len(s.SubStatuses)+1)
	copy(subs, s.SubStatuses)
	s.SubStatuses = append(subs, subStatus)
	return s
}

// FromComponentHealth converts a component.HealthStatus into a Status,
// carrying its counters along as metrics.
func FromComponentHealth(name string, ch component.HealthStatus) Status {
	state := stateUnhealthy
	if ch.Healthy {
		state = stateHealthy
	}

	message := "Component healthy"
	if ch.LastError != "" {
		message = ch.LastError
	}

	return Status{
		Component: name,
		Healthy:   ch.Healthy,
		Status:    state,
		Message:   message,
		Timestamp: time.Now(),
		Metrics: &Metrics{
			Uptime:       ch.Uptime,
			ErrorCount:   ch.ErrorCount,
			LastActivity: ch.LastCheck,
		},
	}
}
