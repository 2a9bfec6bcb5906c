package health

import "time"

// NewHealthy reports a component as healthy
func NewHealthy(component, message string) Status {
	return newStatus(component, stateHealthy, true, message)
}

// NewUnhealthy reports a component as unhealthy
func NewUnhealthy(component, message string) Status {
	return newStatus(component, stateUnhealthy, false, message)
}

// NewDegraded reports a component as degraded. Degraded components are
// still running but not at full capability, for example a session that
// keeps acquiring while one of its sinks is failing.
func NewDegraded(component, message string) Status {
	return newStatus(component, stateDegraded, false, message)
}

func newStatus(component, status string, healthy bool, message string) Status {
	return Status{
		Component: component,
		Healthy:   healthy,
		Status:    status,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// IsStale reports whether the status has not been refreshed within
// maxAge. A stale status means the component stopped reporting, which
// callers should treat as at least as bad as degraded.
func (s Status) IsStale(maxAge time.Duration) bool {
	if maxAge <= 0 {
		return false
	}
	return time.Since(s.Timestamp) > maxAge
}

// Aggregate folds sub-statuses into one rollup. Any unhealthy
// sub-status makes the rollup unhealthy; otherwise any degraded
// sub-status makes it degraded; an empty set counts as healthy.
func Aggregate(component string, subStatuses []Status) Status {
	if len(subStatuses) == 0 {
		return NewHealthy(component, "No sub-components to aggregate")
	}

	worst := stateHealthy
	for _, sub := range subStatuses {
		switch {
		case sub.IsUnhealthy():
			worst = stateUnhealthy
		case sub.IsDegraded() && worst == stateHealthy:
			worst = stateDegraded
		}
	}

	var rollup Status
	switch worst {
	case stateUnhealthy:
		rollup = NewUnhealthy(component, "One or more sub-components are unhealthy")
	case stateDegraded:
		rollup = NewDegraded(component, "One or more sub-components are degraded")
	default:
		rollup = NewHealthy(component, "All sub-components are healthy")
	}

	rollup.SubStatuses = make([]Status, len(subStatuses))
	copy(rollup.SubStatuses, subStatuses)

	return rollup
}
