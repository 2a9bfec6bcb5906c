package health

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestNewMonitor(t *testing.T) {
	monitor := NewMonitor()

	if monitor == nil {
		t.Fatal("NewMonitor() returned nil")
	}
	if monitor.Count() != 0 {
		t.Errorf("New monitor should have 0 components, got %d", monitor.Count())
	}
}

func TestMonitor_Update(t *testing.T) {
	monitor := NewMonitor()

	monitor.Update("bridge", Status{Status: "healthy", Healthy: true, Message: "streaming"})

	status, ok := monitor.Get("bridge")
	if !ok {
		t.Fatal("Expected bridge status to exist")
	}
	if status.Component != "bridge" {
		t.Errorf("Update should stamp the component name, got %s", status.Component)
	}
	if status.Timestamp.IsZero() {
		t.Error("Update should stamp a zero timestamp")
	}
}

func TestMonitor_Update_KeepsTimestamp(t *testing.T) {
	monitor := NewMonitor()

	stamped := time.Now().Add(-time.Minute)
	monitor.Update("bridge", Status{Status: "healthy", Timestamp: stamped})

	status, _ := monitor.Get("bridge")
	if !status.Timestamp.Equal(stamped) {
		t.Error("Update should keep a non-zero timestamp as reported")
	}
}

func TestMonitor_Update_Overwrites(t *testing.T) {
	monitor := NewMonitor()

	monitor.UpdateHealthy("natssink", "publishing")
	monitor.UpdateUnhealthy("natssink", "publish failed")

	status, _ := monitor.Get("natssink")
	if !status.IsUnhealthy() {
		t.Error("Second update should replace the first")
	}
	if monitor.Count() != 1 {
		t.Errorf("Expected 1 component after overwrite, got %d", monitor.Count())
	}
}

func TestMonitor_ConvenienceUpdates(t *testing.T) {
	monitor := NewMonitor()

	monitor.UpdateHealthy("session", "streaming")
	monitor.UpdateDegraded("wssink", "viewer falling behind")
	monitor.UpdateUnhealthy("filesink", "disk full")

	for name, want := range map[string]string{
		"session":  "healthy",
		"wssink":   "degraded",
		"filesink": "unhealthy",
	} {
		status, ok := monitor.Get(name)
		if !ok {
			t.Fatalf("Expected %s status to exist", name)
		}
		if status.Status != want {
			t.Errorf("Expected %s status %s, got %s", name, want, status.Status)
		}
	}
}

func TestMonitor_Get_Missing(t *testing.T) {
	monitor := NewMonitor()

	if _, ok := monitor.Get("nope"); ok {
		t.Error("Get on an unknown component should report not found")
	}
}

func TestMonitor_GetAll_IsSnapshot(t *testing.T) {
	monitor := NewMonitor()
	monitor.UpdateHealthy("session", "streaming")

	snapshot := monitor.GetAll()
	if len(snapshot) != 1 {
		t.Fatalf("Expected 1 status in snapshot, got %d", len(snapshot))
	}

	// Mutating the snapshot must not touch the monitor
	delete(snapshot, "session")
	if monitor.Count() != 1 {
		t.Error("GetAll should return a copy, not the internal map")
	}
}

func TestMonitor_Remove(t *testing.T) {
	monitor := NewMonitor()
	monitor.UpdateHealthy("session", "streaming")
	monitor.UpdateHealthy("natssink", "publishing")

	monitor.Remove("natssink")

	if _, ok := monitor.Get("natssink"); ok {
		t.Error("Removed component should not be found")
	}
	if monitor.Count() != 1 {
		t.Errorf("Expected 1 component after remove, got %d", monitor.Count())
	}

	// Removing an unknown component is a no-op
	monitor.Remove("nope")
	if monitor.Count() != 1 {
		t.Error("Removing an unknown component should change nothing")
	}
}

func TestMonitor_AggregateHealth(t *testing.T) {
	monitor := NewMonitor()

	rollup := monitor.AggregateHealth("pipeline")
	if !rollup.IsHealthy() {
		t.Error("Empty monitor should aggregate to healthy")
	}

	monitor.UpdateHealthy("session", "streaming")
	monitor.UpdateHealthy("natssink", "publishing")
	rollup = monitor.AggregateHealth("pipeline")
	if !rollup.IsHealthy() {
		t.Errorf("All-healthy monitor should aggregate to healthy, got %s", rollup.Status)
	}

	monitor.UpdateUnhealthy("natssink", "publish failed")
	rollup = monitor.AggregateHealth("pipeline")
	if !rollup.IsUnhealthy() {
		t.Errorf("Monitor with an unhealthy component should aggregate to unhealthy, got %s",
			rollup.Status)
	}
	if len(rollup.SubStatuses) != 2 {
		t.Errorf("Expected 2 sub-statuses, got %d", len(rollup.SubStatuses))
	}
}

func TestMonitor_ListComponents(t *testing.T) {
	monitor := NewMonitor()
	monitor.UpdateHealthy("session", "streaming")
	monitor.UpdateHealthy("natssink", "publishing")

	names := monitor.ListComponents()
	if len(names) != 2 {
		t.Fatalf("Expected 2 names, got %d", len(names))
	}

	seen := map[string]bool{}
	for _, name := range names {
		seen[name] = true
	}
	if !seen["session"] || !seen["natssink"] {
		t.Errorf("Expected session and natssink in %v", names)
	}
}

func TestMonitor_Clear(t *testing.T) {
	monitor := NewMonitor()
	monitor.UpdateHealthy("session", "streaming")
	monitor.UpdateHealthy("natssink", "publishing")

	monitor.Clear()

	if monitor.Count() != 0 {
		t.Errorf("Expected 0 components after Clear, got %d", monitor.Count())
	}

	// Monitor stays usable after Clear
	monitor.UpdateHealthy("session", "streaming")
	if monitor.Count() != 1 {
		t.Error("Monitor should accept updates after Clear")
	}
}

func TestMonitor_ConcurrentAccess(t *testing.T) {
	monitor := NewMonitor()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			name := fmt.Sprintf("sink-%d", n)
			for j := 0; j < 50; j++ {
				monitor.UpdateHealthy(name, "publishing")
				monitor.Get(name)
				monitor.GetAll()
				monitor.AggregateHealth("pipeline")
			}
		}(i)
	}
	wg.Wait()

	if monitor.Count() != 8 {
		t.Errorf("Expected 8 components after concurrent updates, got %d", monitor.Count())
	}
}
