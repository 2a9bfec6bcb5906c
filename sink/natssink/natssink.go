package natssink

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/kimit0310/MoBI-Physio-API/device"
	"github.com/kimit0310/MoBI-Physio-API/errors"
	"github.com/kimit0310/MoBI-Physio-API/natsclient"
	"github.com/kimit0310/MoBI-Physio-API/pkg/timestamp"
)

// Config holds configuration for the NATS sink
type Config struct {
	// Stream is the JetStream stream name that owns the sample subjects.
	Stream string `json:"stream" yaml:"stream"`

	// SubjectPrefix is prepended to the stream token to form the
	// publish subject, e.g. physio.samples.<name>.
	SubjectPrefix string `json:"subject_prefix" yaml:"subject_prefix"`

	// Bucket is the KV bucket holding stream identity entries.
	Bucket string `json:"bucket" yaml:"bucket"`

	// HeartbeatInterval refreshes the identity entry's last_seen field.
	// Zero disables the heartbeat.
	HeartbeatInterval time.Duration `json:"heartbeat_interval" yaml:"heartbeat_interval"`
}

// DefaultConfig returns default configuration for the NATS sink
func DefaultConfig() Config {
	return Config{
		Stream:            "PHYSIO",
		SubjectPrefix:     "physio.samples",
		Bucket:            "streams",
		HeartbeatInterval: 10 * time.Second,
	}
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.Stream == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "stream name is required")
	}
	if c.SubjectPrefix == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "subject prefix is required")
	}
	if strings.ContainsAny(c.SubjectPrefix, " \t*>") {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"subject prefix must not contain wildcards or whitespace")
	}
	if c.Bucket == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "bucket name is required")
	}
	if c.HeartbeatInterval < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"heartbeat interval cannot be negative")
	}
	return nil
}

// Deps carries the collaborators the sink needs.
type Deps struct {
	Client *natsclient.Client
	Logger *slog.Logger
}

// registryEntry is the identity record stored per stream in the KV
// bucket. last_seen is refreshed by the heartbeat while the sink is open.
type registryEntry struct {
	device.StreamInfo
	Subject   string `json:"subject"`
	CreatedAt int64  `json:"created_at"`
	LastSeen  int64  `json:"last_seen"`
}

// Sink publishes samples to a JetStream subject derived from the stream
// name. Open claims the stream identity with a KV Create; a conflict
// means another producer already owns the name and the open is rejected.
type Sink struct {
	cfg    Config
	client *natsclient.Client
	logger *slog.Logger

	opened atomic.Bool
	closed atomic.Bool

	// Set once during Open, read-only afterwards.
	subject  string
	key      string
	registry *natsclient.KVStore

	published atomic.Int64

	heartbeatStop chan struct{}
	heartbeatDone chan struct{}
	closeOnce     sync.Once
	closeErr      error
}

var _ device.Sink = (*Sink)(nil)

// New creates a NATS sink from configuration. Zero-valued config fields
// fall back to defaults; the client must already be managed by the caller
// and is not closed by the sink.
func New(cfg Config, deps Deps) (*Sink, error) {
	if deps.Client == nil {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "Sink", "New", "NATS client required")
	}

	defaults := DefaultConfig()
	if cfg.Stream == "" {
		cfg.Stream = defaults.Stream
	}
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = defaults.SubjectPrefix
	}
	if cfg.Bucket == "" {
		cfg.Bucket = defaults.Bucket
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default().With("component", "natssink")
	}

	return &Sink{
		cfg:           cfg,
		client:        deps.Client,
		logger:        logger,
		heartbeatStop: make(chan struct{}),
		heartbeatDone: make(chan struct{}),
	}, nil
}

// Open ensures the JetStream stream exists, then claims the stream
// identity in the registry bucket. A name already present in the bucket
// belongs to another producer and yields ErrStreamExists.
func (s *Sink) Open(ctx context.Context, info device.StreamInfo) error {
	if s.closed.Load() {
		return errors.WrapInvalid(errors.ErrSinkClosed, "Sink", "Open", "sink already closed")
	}
	if s.opened.Load() {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Sink", "Open", "sink already open")
	}

	if _, err := s.client.CreateStream(ctx, jetstream.StreamConfig{
		Name:     s.cfg.Stream,
		Subjects: []string{s.cfg.SubjectPrefix + ".>"},
	}); err != nil {
		if !stderrors.Is(err, jetstream.ErrStreamNameAlreadyInUse) {
			return errors.WrapTransient(err, "Sink", "Open", "ensure stream")
		}
		// Stream exists with a different config, reuse it as-is.
		if _, err := s.client.GetStream(ctx, s.cfg.Stream); err != nil {
			return errors.WrapTransient(err, "Sink", "Open", "lookup existing stream")
		}
	}

	bucket, err := s.client.CreateKeyValueBucket(ctx, jetstream.KeyValueConfig{
		Bucket:      s.cfg.Bucket,
		Description: "Stream identity registry",
		History:     5,
	})
	if err != nil {
		return errors.WrapTransient(err, "Sink", "Open", "ensure registry bucket")
	}
	s.registry = s.client.NewKVStore(bucket)

	key := subjectToken(info.Name)
	now := timestamp.Now()
	entry := registryEntry{
		StreamInfo: info,
		Subject:    s.cfg.SubjectPrefix + "." + key,
		CreatedAt:  now,
		LastSeen:   now,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return errors.WrapInvalid(err, "Sink", "Open", "marshal identity entry")
	}

	if _, err := s.registry.Create(ctx, key, data); err != nil {
		if natsclient.IsKVConflictError(err) {
			return errors.WrapInvalid(errors.ErrStreamExists, "Sink", "Open",
				fmt.Sprintf("stream %q", info.Name))
		}
		return errors.WrapTransient(err, "Sink", "Open", "register stream identity")
	}

	s.subject = entry.Subject
	s.key = key
	s.opened.Store(true)

	if s.cfg.HeartbeatInterval > 0 {
		go s.heartbeatLoop()
	} else {
		close(s.heartbeatDone)
	}

	s.logger.Info("stream registered",
		"stream", info.Name,
		"subject", s.subject,
		"bucket", s.cfg.Bucket,
		"channels", len(info.Channels),
		"sample_rate", info.SampleRate)

	return nil
}

// Push publishes one sample to the stream subject with JetStream
// acknowledgment. Delivery failures are returned as transient errors;
// the caller owns the retry budget.
func (s *Sink) Push(ctx context.Context, sample device.Sample) error {
	if s.closed.Load() {
		return errors.WrapInvalid(errors.ErrSinkClosed, "Sink", "Push", "sink closed")
	}
	if !s.opened.Load() {
		return errors.WrapInvalid(errors.ErrNotStarted, "Sink", "Push", "sink not open")
	}

	data, err := json.Marshal(sample)
	if err != nil {
		return errors.WrapInvalid(err, "Sink", "Push", "marshal sample")
	}

	if err := s.client.PublishToStream(ctx, s.subject, data); err != nil {
		return errors.WrapTransient(err, "Sink", "Push", "publish sample")
	}

	s.published.Add(1)
	return nil
}

// Close stops the heartbeat and releases the stream identity so the
// name can be claimed again. The shared NATS client stays open.
func (s *Sink) Close() error {
	s.closeOnce.Do(func() {
		wasOpen := s.opened.Load()
		s.closed.Store(true)

		if wasOpen {
			close(s.heartbeatStop)
			<-s.heartbeatDone

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.registry.Delete(ctx, s.key); err != nil {
				s.closeErr = errors.WrapTransient(err, "Sink", "Close", "release stream identity")
				s.logger.Warn("failed to release stream identity",
					"key", s.key,
					"error", err)
			}
		}

		s.logger.Info("nats sink closed",
			"subject", s.subject,
			"samples_published", s.published.Load())
	})
	return s.closeErr
}

// heartbeatLoop refreshes the identity entry so stale registrations can
// be distinguished from live ones by their last_seen age.
func (s *Sink) heartbeatLoop() {
	defer close(s.heartbeatDone)

	ticker := time.NewTicker(s.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.heartbeatStop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := s.registry.UpdateJSON(ctx, s.key, func(entry map[string]any) error {
				entry["last_seen"] = timestamp.Now()
				return nil
			})
			cancel()
			if err != nil {
				s.logger.Warn("registry heartbeat failed",
					"key", s.key,
					"error", err)
			}
		}
	}
}

// Subject returns the publish subject chosen at Open, empty before that.
func (s *Sink) Subject() string {
	if !s.opened.Load() {
		return ""
	}
	return s.subject
}

// subjectToken maps a stream name onto a single NATS subject token,
// replacing separator and wildcard characters.
func subjectToken(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "stream"
	}
	return b.String()
}
