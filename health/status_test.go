package health

import (
	"testing"
	"time"

	"github.com/kimit0310/MoBI-Physio-API/component"
)

func TestStatus_Predicates(t *testing.T) {
	tests := []struct {
		status        string
		wantHealthy   bool
		wantDegraded  bool
		wantUnhealthy bool
	}{
		{"healthy", true, false, false},
		{"degraded", false, true, false},
		{"unhealthy", false, false, true},
		{"", false, false, false},
	}

	for _, tt := range tests {
		name := tt.status
		if name == "" {
			name = "empty"
		}
		t.Run(name, func(t *testing.T) {
			s := Status{Status: tt.status}
			if got := s.IsHealthy(); got != tt.wantHealthy {
				t.Errorf("IsHealthy() = %v, want %v", got, tt.wantHealthy)
			}
			if got := s.IsDegraded(); got != tt.wantDegraded {
				t.Errorf("IsDegraded() = %v, want %v", got, tt.wantDegraded)
			}
			if got := s.IsUnhealthy(); got != tt.wantUnhealthy {
				t.Errorf("IsUnhealthy() = %v, want %v", got, tt.wantUnhealthy)
			}
		})
	}
}

func TestStatus_WithMetrics(t *testing.T) {
	original := Status{Component: "bridge", Status: "healthy", Message: "streaming"}

	result := original.WithMetrics(&Metrics{
		Uptime:           time.Hour,
		ErrorCount:       5,
		SamplesDelivered: 120000,
	})

	if original.Metrics != nil {
		t.Error("WithMetrics should not modify the original status")
	}
	if result.Metrics == nil {
		t.Fatal("WithMetrics should return a status carrying metrics")
	}
	if result.Metrics.Uptime != time.Hour {
		t.Errorf("Uptime = %v, want %v", result.Metrics.Uptime, time.Hour)
	}
	if result.Metrics.ErrorCount != 5 {
		t.Errorf("ErrorCount = %d, want 5", result.Metrics.ErrorCount)
	}
	if result.Metrics.SamplesDelivered != 120000 {
		t.Errorf("SamplesDelivered = %d, want 120000", result.Metrics.SamplesDelivered)
	}
}

func TestStatus_WithSubStatus(t *testing.T) {
	original := Status{Component: "pipeline", Status: "healthy", Message: "all sinks publishing"}

	result := original.WithSubStatus(Status{
		Component: "natssink",
		Status:    "unhealthy",
		Message:   "publish failed",
	})

	if len(original.SubStatuses) != 0 {
		t.Error("WithSubStatus should not modify the original status")
	}
	if len(result.SubStatuses) != 1 {
		t.Fatalf("Expected 1 sub-status, got %d", len(result.SubStatuses))
	}
	if result.SubStatuses[0].Component != "natssink" {
		t.Errorf("sub-status component = %s, want natssink", result.SubStatuses[0].Component)
	}
}

func TestFromComponentHealth(t *testing.T) {
	tests := []struct {
		name            string
		componentName   string
		componentHealth component.HealthStatus
		wantStatus      string
		wantMessage     string
	}{
		{
			name:          "healthy component",
			componentName: "bridge",
			componentHealth: component.HealthStatus{
				Healthy:   true,
				LastCheck: time.Now(),
				Uptime:    time.Hour,
			},
			wantStatus:  "healthy",
			wantMessage: "Component healthy",
		},
		{
			name:          "unhealthy component with error",
			componentName: "natssink",
			componentHealth: component.HealthStatus{
				Healthy:    false,
				LastCheck:  time.Now(),
				ErrorCount: 3,
				LastError:  "device connection lost",
				Uptime:     time.Minute,
			},
			wantStatus:  "unhealthy",
			wantMessage: "device connection lost",
		},
		{
			name:          "unhealthy component without error message",
			componentName: "wssink",
			componentHealth: component.HealthStatus{
				Healthy:    false,
				LastCheck:  time.Now(),
				ErrorCount: 1,
				Uptime:     time.Second,
			},
			wantStatus:  "unhealthy",
			wantMessage: "Component healthy", // fallback when LastError is empty
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FromComponentHealth(tt.componentName, tt.componentHealth)

			if result.Component != tt.componentName {
				t.Errorf("Component = %s, want %s", result.Component, tt.componentName)
			}
			if result.Status != tt.wantStatus {
				t.Errorf("Status = %s, want %s", result.Status, tt.wantStatus)
			}
			if result.Message != tt.wantMessage {
				t.Errorf("Message = %s, want %s", result.Message, tt.wantMessage)
			}
			if result.Timestamp.IsZero() {
				t.Error("Timestamp should be set")
			}

			if result.Metrics == nil {
				t.Fatal("Metrics should be set")
			}
			if result.Metrics.Uptime != tt.componentHealth.Uptime {
				t.Errorf("Uptime = %v, want %v", result.Metrics.Uptime, tt.componentHealth.Uptime)
			}
			if result.Metrics.ErrorCount != tt.componentHealth.ErrorCount {
				t.Errorf("ErrorCount = %d, want %d", result.Metrics.ErrorCount, tt.componentHealth.ErrorCount)
			}
		})
	}
}
