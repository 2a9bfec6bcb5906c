package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig writes a config file into the working directory so the
// loader's path validation accepts it, and removes it on cleanup.
func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(".", name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Cleanup(func() { _ = os.Remove(path) })
	return path
}

func TestLoaderDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"nats://localhost:4222"}, cfg.NATS.URLs)
	assert.Equal(t, -1, cfg.NATS.MaxReconnects)
	assert.Equal(t, 2*time.Second, cfg.NATS.ReconnectWait)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 9090, cfg.Metrics.Port)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoaderJSONFile(t *testing.T) {
	path := writeConfig(t, "loader_test_config.json", `{
		"device": {
			"addr": "00:07:80:4D:2E:76",
			"sample_rate": 500,
			"connect_timeout": "30s",
			"channels": {"1": "EMG", "3": "ECG"}
		},
		"nats": {"reconnect_wait": "5s"},
		"sinks": {
			"jetstream-main": {
				"type": "nats",
				"enabled": true,
				"config": {"stream": "PHYSIO", "heartbeat_interval": "10s"}
			}
		}
	}`)

	loader := NewLoader()
	loader.EnableValidation(true)
	cfg, err := loader.LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "00:07:80:4D:2E:76", cfg.Device.Addr)
	assert.Equal(t, 500, cfg.Device.SampleRate)
	assert.Equal(t, 30*time.Second, cfg.Device.ConnectTimeout)
	assert.Equal(t, map[int]string{1: "EMG", 3: "ECG"}, cfg.Device.Channels)
	assert.Equal(t, 5*time.Second, cfg.NATS.ReconnectWait)

	sink, ok := cfg.Sinks["jetstream-main"]
	require.True(t, ok)
	assert.Equal(t, SinkTypeNATS, sink.Type)
	assert.True(t, sink.Enabled)
	// Duration strings inside sink configs are normalized to
	// nanoseconds so the sink's own unmarshal sees time.Duration.
	assert.Contains(t, string(sink.Config), "10000000000")
}

func TestLoaderYAMLFile(t *testing.T) {
	path := writeConfig(t, "loader_test_config.yaml", `
device:
  simulate: true
  sample_rate: 1000
  connect_retry_interval: 2s
log:
  level: debug
  format: pretty
sinks:
  live-view:
    type: websocket
    enabled: true
    config:
      addr: ":8081"
      path: /ws
      ping_interval: 30s
`)

	loader := NewLoader()
	loader.EnableValidation(true)
	cfg, err := loader.LoadFile(path)
	require.NoError(t, err)

	assert.True(t, cfg.Device.Simulate)
	assert.Equal(t, 2*time.Second, cfg.Device.ConnectRetryInterval)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "pretty", cfg.Log.Format)

	sink := cfg.Sinks["live-view"]
	assert.Equal(t, SinkTypeWebSocket, sink.Type)
	assert.Contains(t, string(sink.Config), "30000000000")
}

func TestLoaderLayerMerge(t *testing.T) {
	base := writeConfig(t, "loader_test_base.json", `{
		"device": {"addr": "00:07:80:4D:2E:76", "sample_rate": 1000},
		"log": {"level": "info"}
	}`)
	override := writeConfig(t, "loader_test_override.json", `{
		"device": {"sample_rate": 2000},
		"log": {"level": "debug"}
	}`)

	loader := NewLoader()
	loader.AddLayer(base)
	loader.AddLayer(override)
	cfg, err := loader.Load()
	require.NoError(t, err)

	// Override wins where present, base survives where not
	assert.Equal(t, 2000, cfg.Device.SampleRate)
	assert.Equal(t, "00:07:80:4D:2E:76", cfg.Device.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoaderEnvOverrides(t *testing.T) {
	t.Setenv("MOBIPHYSIO_DEVICE_ADDR", "AA:BB:CC:DD:EE:FF")
	t.Setenv("MOBIPHYSIO_NATS_URLS", "nats://a:4222,nats://b:4222")
	t.Setenv("MOBIPHYSIO_NATS_PASSWORD", "envpass")
	t.Setenv("MOBIPHYSIO_LOG_LEVEL", "warn")
	t.Setenv("MOBIPHYSIO_METRICS_PORT", "9191")
	t.Setenv("MOBIPHYSIO_DEVICE_SIMULATE", "true")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, "AA:BB:CC:DD:EE:FF", cfg.Device.Addr)
	assert.True(t, cfg.Device.Simulate)
	assert.Equal(t, []string{"nats://a:4222", "nats://b:4222"}, cfg.NATS.URLs)
	assert.Equal(t, "envpass", cfg.NATS.Password)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 9191, cfg.Metrics.Port)
}

func TestLoaderRejectsBadFiles(t *testing.T) {
	loader := NewLoader()

	_, err := loader.LoadFile("does_not_exist.json")
	assert.Error(t, err)

	bad := writeConfig(t, "loader_test_bad.json", `{"device": `)
	_, err = loader.LoadFile(bad)
	assert.Error(t, err)

	txt := writeConfig(t, "loader_test_bad.txt", `device:`)
	_, err = loader.LoadFile(txt)
	assert.Error(t, err)
}

func TestLoaderValidationFailure(t *testing.T) {
	path := writeConfig(t, "loader_test_invalid.json", `{
		"log": {"level": "verbose"}
	}`)

	loader := NewLoader()
	loader.EnableValidation(true)
	_, err := loader.LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")
}

func TestParseDurationWithDays(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"30s", 30 * time.Second, false},
		{"2m", 2 * time.Minute, false},
		{"14d", 14 * 24 * time.Hour, false},
		{"xd", 0, true},
		{"soon", 0, true},
	}

	for _, tt := range tests {
		got, err := parseDurationWithDays(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
		} else {
			require.NoError(t, err, tt.in)
			assert.Equal(t, tt.want, got, tt.in)
		}
	}
}

func TestDurationKey(t *testing.T) {
	assert.True(t, durationKey("timeout"))
	assert.True(t, durationKey("connect_timeout"))
	assert.True(t, durationKey("ping_interval"))
	assert.True(t, durationKey("reconnect_wait"))
	assert.False(t, durationKey("addr"))
	assert.False(t, durationKey("stream"))
	assert.False(t, durationKey("intervals"))
}
