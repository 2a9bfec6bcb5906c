// Package bridge runs a device acquisition session as a managed
// component: one device in, converted samples fanned out to the
// configured sinks, with health, flow metrics, and Prometheus counters
// exposed along the way.
package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kimit0310/MoBI-Physio-API/component"
	"github.com/kimit0310/MoBI-Physio-API/device"
	"github.com/kimit0310/MoBI-Physio-API/errors"
	"github.com/kimit0310/MoBI-Physio-API/metric"
)

// Config holds configuration for the bridge component
type Config struct {
	// DeviceAddr is the device MAC address to dial.
	DeviceAddr string `json:"device_addr" schema:"required,type:string,description:Device MAC address,category:basic"`

	// SampleRate is the acquisition rate in Hz.
	SampleRate int `json:"sample_rate" schema:"type:int,description:Acquisition rate in Hz,min:1,max:4000,default:1000,category:basic"`

	// ConnectTimeout bounds the total dial budget across retries.
	ConnectTimeout time.Duration `json:"connect_timeout" schema:"type:duration,description:Total connect budget,default:60s"`

	// ConnectRetryInterval is the cadence between dial attempts.
	ConnectRetryInterval time.Duration `json:"connect_retry_interval" schema:"type:duration,description:Delay between dial attempts,default:2s"`

	// MaxConsecutiveDrops trips the streaming fault once that many
	// samples in a row fail conversion or delivery.
	MaxConsecutiveDrops int `json:"max_consecutive_drops" schema:"type:int,description:Consecutive drop fault threshold,min:1,default:100"`

	StreamName string `json:"stream_name" schema:"type:string,description:Outgoing stream name,default:biosignalsplux,category:basic"`
	StreamType string `json:"stream_type" schema:"type:string,description:Stream content class,default:Physiological"`
	SourceID   string `json:"source_id" schema:"type:string,description:Device identity in stream announcements"`

	// Channels forces sensor kinds per hardware port, overriding
	// auto-detection. Keys are port numbers, values sensor kind names.
	Channels map[int]string `json:"channels,omitempty" schema:"type:object,description:Manual channel overrides by port"`

	// StatsInterval is the cadence of periodic throughput logs and
	// Prometheus counter updates. Zero disables the loop.
	StatsInterval time.Duration `json:"stats_interval" schema:"type:duration,description:Cadence of throughput reporting,default:10s"`
}

// DefaultConfig returns sensible defaults for the bridge
func DefaultConfig() Config {
	return Config{
		SampleRate:           1000,
		ConnectTimeout:       60 * time.Second,
		ConnectRetryInterval: 2 * time.Second,
		MaxConsecutiveDrops:  100,
		StreamName:           "biosignalsplux",
		StreamType:           "Physiological",
		StatsInterval:        10 * time.Second,
	}
}

// Validate implements component.Validatable
func (c *Config) Validate() error {
	if c.DeviceAddr == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Bridge", "Validate",
			"device_addr is required")
	}
	if c.SampleRate < 0 || c.SampleRate > 4000 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Bridge", "Validate",
			fmt.Sprintf("sample_rate %d out of range (1-4000)", c.SampleRate))
	}
	if c.StatsInterval < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Bridge", "Validate",
			"stats_interval cannot be negative")
	}
	for port, kind := range c.Channels {
		if port < 1 {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Bridge", "Validate",
				fmt.Sprintf("channel override port %d out of range", port))
		}
		if _, err := device.ParseSensorType(kind); err != nil {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Bridge", "Validate",
				fmt.Sprintf("channel override port %d: %v", port, err))
		}
	}
	return nil
}

// bridgeSchema is generated once from Config struct tags
var bridgeSchema = component.GenerateConfigSchema(reflect.TypeOf(Config{}))

// Deps holds runtime dependencies for the bridge component
type Deps struct {
	Name            string        // Instance name
	Config          Config        // Business logic configuration
	Dialer          device.Dialer // Device link factory
	Sinks           []device.Sink // Delivery targets, already constructed
	OutputPorts     []component.Port
	MetricsRegistry *metric.MetricsRegistry
	Logger          *slog.Logger
}

// Bridge drives one acquisition session end to end. Start launches the
// pipeline (connect, discover, announce, stream) in a background
// goroutine and returns; Stop signals the session and waits for the
// pipeline to drain.
type Bridge struct {
	name   string
	cfg    Config
	dialer device.Dialer
	sinks  []device.Sink
	ports  []component.Port
	core   *metric.Metrics
	logger *slog.Logger
	base   *slog.Logger // untagged, handed to the session so it tags itself

	mu       sync.RWMutex
	session  *device.Session
	lastErr  string
	done     chan struct{}
	running  atomic.Bool
	started  time.Time
	lastSeen atomic.Value // time.Time of last observed sample progress

	wg sync.WaitGroup
}

// Ensure Bridge implements all required interfaces
var _ component.Discoverable = (*Bridge)(nil)
var _ component.LifecycleComponent = (*Bridge)(nil)

// New creates a bridge component
func New(deps Deps) (*Bridge, error) {
	if deps.Dialer == nil {
		return nil, errors.WrapInvalid(fmt.Errorf("nil dialer"), "Bridge", "New",
			"device dialer is required")
	}
	if len(deps.Sinks) == 0 {
		return nil, errors.WrapInvalid(fmt.Errorf("no sinks"), "Bridge", "New",
			"at least one sink is required")
	}
	if err := deps.Config.Validate(); err != nil {
		return nil, err
	}

	base := deps.Logger
	if base == nil {
		base = slog.Default()
	}
	logger := base.With("component", "bridge", "addr", deps.Config.DeviceAddr)

	var core *metric.Metrics
	if deps.MetricsRegistry != nil {
		core = deps.MetricsRegistry.CoreMetrics()
	}

	b := &Bridge{
		name:   deps.Name,
		cfg:    deps.Config,
		dialer: deps.Dialer,
		sinks:  append([]device.Sink(nil), deps.Sinks...),
		ports:  append([]component.Port(nil), deps.OutputPorts...),
		core:   core,
		logger: logger,
		base:   base,
	}
	b.lastSeen.Store(time.Time{})
	return b, nil
}

// overrideMap converts the configured channel overrides into a device
// channel map
func (b *Bridge) overrideMap() (device.ChannelMap, error) {
	if len(b.cfg.Channels) == 0 {
		return nil, nil
	}
	m := make(device.ChannelMap, len(b.cfg.Channels))
	for port, kind := range b.cfg.Channels {
		t, err := device.ParseSensorType(kind)
		if err != nil {
			return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Bridge", "overrideMap",
				fmt.Sprintf("port %d: %v", port, err))
		}
		m[device.HardwareChannel(port)] = t
	}
	return m, nil
}

// Initialize builds the device session. The link is not dialed yet;
// that happens in Start.
func (b *Bridge) Initialize() error {
	overrides, err := b.overrideMap()
	if err != nil {
		return err
	}

	session, err := device.NewSession(device.SessionDeps{
		Config: device.SessionConfig{
			Addr:                 b.cfg.DeviceAddr,
			SampleRate:           b.cfg.SampleRate,
			ConnectTimeout:       b.cfg.ConnectTimeout,
			ConnectRetryInterval: b.cfg.ConnectRetryInterval,
			MaxConsecutiveDrops:  b.cfg.MaxConsecutiveDrops,
			StreamName:           b.cfg.StreamName,
			StreamType:           b.cfg.StreamType,
			SourceID:             b.cfg.SourceID,
			Overrides:            overrides,
		},
		Dialer: b.dialer,
		Sinks:  b.sinks,
		Logger: b.base,
	})
	if err != nil {
		return errors.Wrap(err, "Bridge", "Initialize", "creating device session")
	}

	b.mu.Lock()
	b.session = session
	b.mu.Unlock()
	return nil
}

// Start launches the acquisition pipeline in the background. It returns
// once the goroutines are up; pipeline failures surface through Health
// and the logs. Idempotent while running.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.session == nil {
		b.mu.Unlock()
		return errors.WrapInvalid(errors.ErrNotStarted, "Bridge", "Start",
			"Initialize must run before Start")
	}
	if b.running.Load() {
		b.mu.Unlock()
		return nil // Already running, idempotent
	}
	done := make(chan struct{})
	b.done = done
	b.started = time.Now()
	b.running.Store(true)
	session := b.session
	b.mu.Unlock()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer close(done)
		defer b.running.Store(false)
		b.run(ctx, session)
	}()

	if b.cfg.StatsInterval > 0 {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			b.statsLoop(session, done)
		}()
	}

	return nil
}

// run walks the session through its lifecycle and blocks in the
// acquisition loop until it ends
func (b *Bridge) run(ctx context.Context, session *device.Session) {
	steps := []struct {
		name string
		op   func() error
	}{
		{"connect", func() error { return session.Connect(ctx) }},
		{"discover", func() error {
			_, err := session.Discover(ctx)
			return err
		}},
		{"setup-streaming", func() error { return session.SetupStreaming(ctx) }},
	}

	for _, step := range steps {
		if err := step.op(); err != nil {
			b.fail(step.name, err)
			session.Stop()
			return
		}
	}

	b.logger.Info("bridge streaming",
		"stream", b.cfg.StreamName, "sinks", len(b.sinks), "channels", len(session.Schema()))

	if err := session.StartAcquisition(ctx); err != nil && ctx.Err() == nil {
		b.fail("acquisition", err)
		return
	}

	stats := session.Stats()
	b.logger.Info("bridge finished",
		"state", stats.State,
		"frames", stats.FramesReceived,
		"samples", stats.SamplesPushed,
		"dropped", stats.SamplesDropped)
}

// fail records a pipeline error for Health and the error counter
func (b *Bridge) fail(stage string, err error) {
	b.logger.Error("bridge pipeline failed", "stage", stage, "error", err)
	b.mu.Lock()
	b.lastErr = err.Error()
	b.mu.Unlock()
	if b.core != nil {
		b.core.RecordError(b.componentLabel(), stage)
	}
}

// statsLoop periodically logs throughput and feeds the Prometheus
// counters with deltas from the session's cumulative counters.
func (b *Bridge) statsLoop(session *device.Session, done <-chan struct{}) {
	ticker := time.NewTicker(b.cfg.StatsInterval)
	defer ticker.Stop()

	var prev device.Stats
	for {
		select {
		case <-done:
			b.publishStats(session.Stats(), &prev)
			return
		case <-ticker.C:
			stats := session.Stats()
			b.publishStats(stats, &prev)
			b.logger.Debug("session throughput",
				"state", stats.State,
				"frames", stats.FramesReceived,
				"samples", stats.SamplesPushed,
				"dropped", stats.SamplesDropped,
				"push_errors", stats.PushErrors)
		}
	}
}

// publishStats pushes counter deltas since the previous snapshot
func (b *Bridge) publishStats(stats device.Stats, prev *device.Stats) {
	if stats.SamplesPushed > prev.SamplesPushed {
		b.lastSeen.Store(time.Now())
	}

	if b.core != nil {
		label := b.componentLabel()
		b.core.RecordSessionState(label, int(b.sessionState()))
		if d := stats.FramesReceived - prev.FramesReceived; d > 0 {
			b.core.AddFramesReceived(label, float64(d))
		}
		if d := stats.SamplesDropped - prev.SamplesDropped; d > 0 {
			b.core.AddFramesDropped(label, "drop", float64(d))
		}
		if d := stats.SamplesPushed - prev.SamplesPushed; d > 0 {
			b.core.AddSamplesPushed(label, "all", float64(d))
		}
		b.core.RecordHealthStatus(label, b.Health().Healthy)
	}

	*prev = stats
}

func (b *Bridge) componentLabel() string {
	if b.name != "" {
		return b.name
	}
	return "bridge"
}

func (b *Bridge) sessionState() device.State {
	b.mu.RLock()
	session := b.session
	b.mu.RUnlock()
	if session == nil {
		return device.Idle
	}
	return session.State()
}

// Stop signals the session and waits up to timeout for the pipeline to
// drain. Safe to call more than once.
func (b *Bridge) Stop(timeout time.Duration) error {
	b.mu.RLock()
	session := b.session
	done := b.done
	b.mu.RUnlock()

	if session != nil {
		session.Stop()
	}
	if done == nil {
		return nil // Never started
	}

	finished := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-time.After(timeout):
		return errors.WrapTransient(fmt.Errorf("pipeline still draining"),
			"Bridge", "Stop", fmt.Sprintf("timeout after %s", timeout))
	}
}

// Meta returns the component metadata
func (b *Bridge) Meta() component.Metadata {
	name := b.name
	if name == "" {
		name = "bridge"
	}
	return component.Metadata{
		Name:        name,
		Type:        "bridge",
		Description: fmt.Sprintf("Biosignal bridge streaming %s from %s to %d sinks", b.cfg.StreamName, b.cfg.DeviceAddr, len(b.sinks)),
		Version:     "1.0.0",
	}
}

// InputPorts returns the input ports for this component
func (b *Bridge) InputPorts() []component.Port {
	return []component.Port{
		{
			Name:        "device",
			Direction:   component.DirectionInput,
			Required:    true,
			Description: fmt.Sprintf("Acquisition device at %s", b.cfg.DeviceAddr),
			Config: component.DevicePort{
				Addr: b.cfg.DeviceAddr,
			},
		},
	}
}

// OutputPorts returns the output ports this bridge delivers to. The
// port list is supplied at construction by whoever assembled the sinks.
func (b *Bridge) OutputPorts() []component.Port {
	return append([]component.Port(nil), b.ports...)
}

// ConfigSchema returns the configuration schema for this component
func (b *Bridge) ConfigSchema() component.ConfigSchema {
	return bridgeSchema
}

// Health returns the current health status of the component
func (b *Bridge) Health() component.HealthStatus {
	b.mu.RLock()
	lastErr := b.lastErr
	session := b.session
	started := b.started
	b.mu.RUnlock()

	var stats device.Stats
	state := device.Idle
	if session != nil {
		stats = session.Stats()
		state = session.State()
	}

	healthy := b.running.Load() && state != device.Failed && lastErr == ""

	var uptime time.Duration
	if !started.IsZero() {
		uptime = time.Since(started)
	}

	return component.HealthStatus{
		Healthy:    healthy,
		LastCheck:  time.Now(),
		ErrorCount: int(stats.PushErrors + stats.FramesMalformed),
		LastError:  lastErr,
		Uptime:     uptime,
	}
}

// DataFlow returns the current data flow metrics
func (b *Bridge) DataFlow() component.FlowMetrics {
	b.mu.RLock()
	session := b.session
	started := b.started
	b.mu.RUnlock()

	var stats device.Stats
	width := 0
	if session != nil {
		stats = session.Stats()
		width = len(session.Schema())
	}

	var samplesPerSecond, bytesPerSecond, errorRate float64
	if !started.IsZero() {
		if uptime := time.Since(started).Seconds(); uptime > 0 {
			samplesPerSecond = float64(stats.SamplesPushed) / uptime
			// Samples carry float64 values per output channel.
			bytesPerSecond = samplesPerSecond * float64(width) * 8
		}
	}
	if stats.FramesReceived > 0 {
		errorRate = float64(stats.SamplesDropped) / float64(stats.FramesReceived)
	}

	lastActivity, _ := b.lastSeen.Load().(time.Time)

	return component.FlowMetrics{
		MessagesPerSecond: samplesPerSecond,
		BytesPerSecond:    bytesPerSecond,
		ErrorRate:         errorRate,
		LastActivity:      lastActivity,
	}
}

// Done returns a channel closed when the acquisition pipeline has
// finished, whether by Stop, a device disconnect, or a fault. Nil
// before Start.
func (b *Bridge) Done() <-chan struct{} {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.done
}

// Session exposes the underlying device session for direct inspection,
// nil before Initialize.
func (b *Bridge) Session() *device.Session {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.session
}
