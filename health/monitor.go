package health

import (
	"sync"
	"time"
)

// Monitor tracks the health of the running pipeline's components. It is
// safe for concurrent use; the bridge watcher writes while HTTP
// handlers and tests read.
type Monitor struct {
	mu       sync.RWMutex
	statuses map[string]Status
}

// NewMonitor creates an empty monitor
func NewMonitor() *Monitor {
	return &Monitor{statuses: make(map[string]Status)}
}

// Update records the latest status for a named component. The stored
// status always carries the component name it was filed under, and a
// zero timestamp is stamped with the current time.
func (m *Monitor) Update(name string, status Status) {
	status.Component = name
	if status.Timestamp.IsZero() {
		status.Timestamp = time.Now()
	}

	m.mu.Lock()
	m.statuses[name] = status
	m.mu.Unlock()
}

// UpdateHealthy records a component as healthy
func (m *Monitor) UpdateHealthy(name, message string) {
	m.Update(name, NewHealthy(name, message))
}

// UpdateUnhealthy records a component as unhealthy
func (m *Monitor) UpdateUnhealthy(name, message string) {
	m.Update(name, NewUnhealthy(name, message))
}

// UpdateDegraded records a component as degraded
func (m *Monitor) UpdateDegraded(name, message string) {
	m.Update(name, NewDegraded(name, message))
}

// Get returns the latest status for a component, if one was recorded
func (m *Monitor) Get(name string) (Status, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status, ok := m.statuses[name]
	return status, ok
}

// GetAll returns a snapshot of every recorded status
func (m *Monitor) GetAll() map[string]Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := make(map[string]Status, len(m.statuses))
	for name, status := range m.statuses {
		snapshot[name] = status
	}
	return snapshot
}

// Remove drops a component from monitoring, such as a sink that was
// shut down mid-session.
func (m *Monitor) Remove(name string) {
	m.mu.Lock()
	delete(m.statuses, name)
	m.mu.Unlock()
}

// AggregateHealth rolls every recorded status into one system status
func (m *Monitor) AggregateHealth(systemName string) Status {
	m.mu.RLock()
	subStatuses := make([]Status, 0, len(m.statuses))
	for _, status := range m.statuses {
		subStatuses = append(subStatuses, status)
	}
	m.mu.RUnlock()

	return Aggregate(systemName, subStatuses)
}

// ListComponents returns the names of every monitored component
func (m *Monitor) ListComponents() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.statuses))
	for name := range m.statuses {
		names = append(names, name)
	}
	return names
}

// Count returns the number of monitored components
func (m *Monitor) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.statuses)
}

// Clear drops every recorded status
func (m *Monitor) Clear() {
	m.mu.Lock()
	m.statuses = make(map[string]Status)
	m.mu.Unlock()
}
