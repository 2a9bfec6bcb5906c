package natssink

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kimit0310/MoBI-Physio-API/device"
	"github.com/kimit0310/MoBI-Physio-API/errors"
	"github.com/kimit0310/MoBI-Physio-API/natsclient"
)

func testStreamInfo(name string) device.StreamInfo {
	return device.StreamInfo{
		Name:       name,
		Type:       "Physiological",
		SourceID:   "00:07:80:58:9B:3F",
		SampleRate: 1000,
		Channels: []device.OutputChannel{
			{Index: 0, Name: "ECG", Source: 1, Type: device.ECG},
			{Index: 1, Name: "EDA", Source: 2, Type: device.EDA},
		},
	}
}

func TestNew_RequiresClient(t *testing.T) {
	_, err := New(DefaultConfig(), Deps{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrMissingConfig)
}

func TestNew_AppliesDefaults(t *testing.T) {
	client, err := natsclient.NewClient("nats://localhost:4222")
	require.NoError(t, err)

	sink, err := New(Config{}, Deps{Client: client})
	require.NoError(t, err)

	assert.Equal(t, "PHYSIO", sink.cfg.Stream)
	assert.Equal(t, "physio.samples", sink.cfg.SubjectPrefix)
	assert.Equal(t, "streams", sink.cfg.Bucket)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(_ *Config) {},
		},
		{
			name:    "empty stream",
			mutate:  func(c *Config) { c.Stream = "" },
			wantErr: "stream name is required",
		},
		{
			name:    "empty subject prefix",
			mutate:  func(c *Config) { c.SubjectPrefix = "" },
			wantErr: "subject prefix is required",
		},
		{
			name:    "wildcard in subject prefix",
			mutate:  func(c *Config) { c.SubjectPrefix = "physio.>" },
			wantErr: "wildcards",
		},
		{
			name:    "empty bucket",
			mutate:  func(c *Config) { c.Bucket = "" },
			wantErr: "bucket name is required",
		},
		{
			name:    "negative heartbeat",
			mutate:  func(c *Config) { c.HeartbeatInterval = -time.Second },
			wantErr: "cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSink_PushBeforeOpen(t *testing.T) {
	client, err := natsclient.NewClient("nats://localhost:4222")
	require.NoError(t, err)

	sink, err := New(DefaultConfig(), Deps{Client: client})
	require.NoError(t, err)

	err = sink.Push(context.Background(), device.Sample{Seq: 1, Values: []float64{1}})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNotStarted)
}

func TestSink_OpenAfterClose(t *testing.T) {
	client, err := natsclient.NewClient("nats://localhost:4222")
	require.NoError(t, err)

	sink, err := New(DefaultConfig(), Deps{Client: client})
	require.NoError(t, err)

	require.NoError(t, sink.Close())

	err = sink.Open(context.Background(), testStreamInfo("closed-sink"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrSinkClosed)

	err = sink.Push(context.Background(), device.Sample{Seq: 1, Values: []float64{1}})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrSinkClosed)
}

func TestSink_CloseIdempotent(t *testing.T) {
	client, err := natsclient.NewClient("nats://localhost:4222")
	require.NoError(t, err)

	sink, err := New(DefaultConfig(), Deps{Client: client})
	require.NoError(t, err)

	assert.NoError(t, sink.Close())
	assert.NoError(t, sink.Close())
}

func TestSubjectToken(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"plain name", "biosignalsplux", "biosignalsplux"},
		{"keeps dashes and underscores", "ecg-run_2", "ecg-run_2"},
		{"replaces spaces", "my stream", "my_stream"},
		{"replaces dots and wildcards", "a.b*c>d", "a_b_c_d"},
		{"empty name gets placeholder", "", "stream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, subjectToken(tt.in))
		})
	}
}

func TestSink_EndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testClient := natsclient.NewTestClient(t, natsclient.WithJetStream(), natsclient.WithKV())
	client := testClient.Client
	ctx := context.Background()

	cfg := DefaultConfig()
	cfg.HeartbeatInterval = 0

	sink, err := New(cfg, Deps{Client: client})
	require.NoError(t, err)

	info := testStreamInfo("e2e-run")
	require.NoError(t, sink.Open(ctx, info))
	assert.Equal(t, "physio.samples.e2e-run", sink.Subject())

	// Registry entry should carry the identity
	bucket, err := client.GetKeyValueBucket(ctx, cfg.Bucket)
	require.NoError(t, err)
	raw, err := bucket.Get(ctx, "e2e-run")
	require.NoError(t, err)

	var entry registryEntry
	require.NoError(t, json.Unmarshal(raw.Value(), &entry))
	assert.Equal(t, "e2e-run", entry.Name)
	assert.Equal(t, "Physiological", entry.Type)
	assert.Equal(t, 1000, entry.SampleRate)
	assert.Len(t, entry.Channels, 2)
	assert.Equal(t, "physio.samples.e2e-run", entry.Subject)
	assert.NotZero(t, entry.CreatedAt)

	// Push a few samples and verify they land in the stream
	for i := uint32(1); i <= 3; i++ {
		err := sink.Push(ctx, device.Sample{
			Seq:       i,
			Timestamp: time.Now().UnixMilli(),
			Values:    []float64{1.0, 2.0},
		})
		require.NoError(t, err)
	}

	stream, err := client.GetStream(ctx, cfg.Stream)
	require.NoError(t, err)
	streamInfo, err := stream.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), streamInfo.State.Msgs)

	// A second producer with the same stream name must be rejected
	dup, err := New(cfg, Deps{Client: client})
	require.NoError(t, err)
	err = dup.Open(ctx, info)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrStreamExists)

	// Closing releases the identity, allowing the name to be reclaimed
	require.NoError(t, sink.Close())
	_, err = bucket.Get(ctx, "e2e-run")
	require.Error(t, err)

	fresh, err := New(cfg, Deps{Client: client})
	require.NoError(t, err)
	require.NoError(t, fresh.Open(ctx, info))
	require.NoError(t, fresh.Close())
}

func TestSink_HeartbeatRefreshesLastSeen(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testClient := natsclient.NewTestClient(t, natsclient.WithJetStream(), natsclient.WithKV())
	client := testClient.Client
	ctx := context.Background()

	cfg := DefaultConfig()
	cfg.HeartbeatInterval = 50 * time.Millisecond

	sink, err := New(cfg, Deps{Client: client})
	require.NoError(t, err)

	require.NoError(t, sink.Open(ctx, testStreamInfo("heartbeat-run")))
	defer func() { _ = sink.Close() }()

	bucket, err := client.GetKeyValueBucket(ctx, cfg.Bucket)
	require.NoError(t, err)

	raw, err := bucket.Get(ctx, "heartbeat-run")
	require.NoError(t, err)
	var before registryEntry
	require.NoError(t, json.Unmarshal(raw.Value(), &before))

	// Wait for at least one heartbeat tick
	require.Eventually(t, func() bool {
		raw, err := bucket.Get(ctx, "heartbeat-run")
		if err != nil {
			return false
		}
		var after registryEntry
		if err := json.Unmarshal(raw.Value(), &after); err != nil {
			return false
		}
		return after.LastSeen > before.LastSeen
	}, 2*time.Second, 25*time.Millisecond, "heartbeat should advance last_seen")
}
