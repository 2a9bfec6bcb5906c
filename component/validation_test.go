package component

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/kimit0310/MoBI-Physio-API/errors"
)

func TestValidatePortNumber(t *testing.T) {
	tests := []struct {
		port    int
		wantErr bool
	}{
		{1, false},
		{9090, false},
		{65535, false},
		{0, true},
		{-1, true},
		{65536, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("port_%d", tt.port), func(t *testing.T) {
			err := ValidatePortNumber(tt.port)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePortNumber(%d) error = %v, wantErr %v", tt.port, err, tt.wantErr)
			}
			if err != nil && !errors.IsInvalid(err) {
				t.Errorf("Expected Invalid classification, got %v", err)
			}
		})
	}
}

func TestConfigValidatorRejectsOversizedInput(t *testing.T) {
	validator := NewConfigValidator()

	big := json.RawMessage(`"` + strings.Repeat("a", MaxJSONSize) + `"`)
	if err := validator.ValidateConfig(big); err == nil {
		t.Error("Expected error for oversized config")
	}
}

func TestConfigValidatorDeepValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		wantErr bool
	}{
		{"empty config", "", false},
		{"simple object", `{"device_addr": "00:07:80:4D:2E:76", "sample_rate": 1000}`, false},
		{"nested within limits", `{"sinks": {"nats": {"subject": "biosignals"}}}`, false},
		{"null byte in string", "{\"addr\": \"bad\x00value\"}", true},
		{"control character", `{"addr": "badvalue"}`, true},
		{"newlines allowed", `{"note": "line1\nline2"}`, false},
		{"long string rejected", `{"s": "` + strings.Repeat("x", MaxStringLength+1) + `"}`, true},
		{"malformed JSON", `{"unterminated`, true},
	}

	validator := NewConfigValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateConfig(json.RawMessage(tt.config))
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigValidatorExcessiveDepth(t *testing.T) {
	nested := strings.Repeat(`{"a":`, 15) + `1` + strings.Repeat(`}`, 15)
	validator := NewConfigValidator()
	if err := validator.ValidateConfig(json.RawMessage(nested)); err == nil {
		t.Error("Expected error for deeply nested config")
	}
}

type validatableConfig struct {
	SampleRate int `json:"sample_rate"`
}

func (c *validatableConfig) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive")
	}
	return nil
}

func TestSafeUnmarshal(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		var cfg validatableConfig
		err := SafeUnmarshal(json.RawMessage(`{"sample_rate": 1000}`), &cfg)
		if err != nil {
			t.Fatalf("SafeUnmarshal failed: %v", err)
		}
		if cfg.SampleRate != 1000 {
			t.Errorf("Expected 1000, got %d", cfg.SampleRate)
		}
	})

	t.Run("empty config keeps defaults", func(t *testing.T) {
		cfg := validatableConfig{SampleRate: 500}
		if err := SafeUnmarshal(nil, &cfg); err != nil {
			t.Fatalf("SafeUnmarshal failed: %v", err)
		}
		if cfg.SampleRate != 500 {
			t.Errorf("Expected defaults preserved, got %d", cfg.SampleRate)
		}
	})

	t.Run("non-pointer target", func(t *testing.T) {
		var cfg validatableConfig
		if err := SafeUnmarshal(json.RawMessage(`{}`), cfg); err == nil {
			t.Error("Expected error for non-pointer target")
		}
	})

	t.Run("struct validation runs", func(t *testing.T) {
		var cfg validatableConfig
		err := SafeUnmarshal(json.RawMessage(`{"sample_rate": -5}`), &cfg)
		if err == nil {
			t.Error("Expected Validate() failure to propagate")
		}
	})
}

func TestValidateNetworkConfig(t *testing.T) {
	tests := []struct {
		name     string
		port     int
		bindAddr string
		wantErr  bool
	}{
		{"valid bind", 9090, "0.0.0.0", false},
		{"wildcard bind", 8081, "*", false},
		{"empty bind", 8081, "", false},
		{"bad port", 0, "0.0.0.0", true},
		{"bad address", 9090, "not-an-ip", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNetworkConfig(tt.port, tt.bindAddr)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateNetworkConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
