package device

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	errs "github.com/kimit0310/MoBI-Physio-API/errors"
	"github.com/kimit0310/MoBI-Physio-API/pkg/retry"
)

// State is the session lifecycle phase. Transitions only move forward
// (Idle through Streaming) or terminal (Closed, Failed); an operation
// called out of phase is rejected with InvalidStateError and leaves
// the state untouched.
type State int

const (
	// Idle is the initial state, before Connect.
	Idle State = iota
	// Connected means a device link is up but ports are unexamined.
	Connected
	// Discovered means sensor classification produced a channel map.
	Discovered
	// StreamingReady means all sinks accepted the stream announcement.
	StreamingReady
	// Streaming means the acquisition loop is delivering samples.
	Streaming
	// Closed is the orderly terminal state.
	Closed
	// Failed is the terminal state after an unrecoverable fault.
	Failed
)

// String returns the lowercase state name used in logs and health payloads.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Connected:
		return "connected"
	case Discovered:
		return "discovered"
	case StreamingReady:
		return "streaming-ready"
	case Streaming:
		return "streaming"
	case Closed:
		return "closed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// SessionConfig carries the tunable parameters of one acquisition session.
type SessionConfig struct {
	// Addr is the device address to dial (MAC or simulator address).
	Addr string

	// SampleRate is the acquisition rate in Hz. Defaults to 1000.
	SampleRate int

	// ConnectTimeout bounds the total time Connect may spend dialing,
	// across all attempts. Defaults to 60s.
	ConnectTimeout time.Duration

	// ConnectRetryInterval is the fixed cadence between dial attempts.
	// Defaults to 2s.
	ConnectRetryInterval time.Duration

	// MaxConsecutiveDrops is how many samples in a row may fail
	// conversion or delivery before the session declares a streaming
	// fault. Defaults to 100.
	MaxConsecutiveDrops int

	// PushRetry bounds per-sink delivery retries for one sample.
	// Defaults to 3 attempts at a fixed 10ms interval.
	PushRetry retry.Config

	// StreamName is the outgoing stream name. Defaults to "biosignalsplux".
	StreamName string

	// StreamType is the outgoing stream content class. Defaults to
	// "Physiological".
	StreamType string

	// SourceID identifies the device in stream announcements.
	// Defaults to Addr.
	SourceID string

	// Overrides forces sensor kinds per hardware port, taking
	// precedence over discovery and adding ports presence detection
	// missed. Optional.
	Overrides ChannelMap
}

func (c *SessionConfig) setDefaults() {
	if c.SampleRate == 0 {
		c.SampleRate = 1000
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 60 * time.Second
	}
	if c.ConnectRetryInterval == 0 {
		c.ConnectRetryInterval = 2 * time.Second
	}
	if c.MaxConsecutiveDrops == 0 {
		c.MaxConsecutiveDrops = 100
	}
	if c.PushRetry.MaxAttempts == 0 {
		c.PushRetry = retry.Fixed(3, 10*time.Millisecond)
	}
	if c.StreamName == "" {
		c.StreamName = "biosignalsplux"
	}
	if c.StreamType == "" {
		c.StreamType = "Physiological"
	}
	if c.SourceID == "" {
		c.SourceID = c.Addr
	}
}

// SessionDeps contains all dependencies for creating a session
type SessionDeps struct {
	Config SessionConfig
	Dialer Dialer
	Sinks  []Sink
	Logger *slog.Logger
}

// Session drives one device from dial to teardown: connect with a
// bounded retry budget, discover and classify seated sensors, announce
// the stream to every sink, then pump converted samples until the link
// closes, a fault trips, or Stop is called.
//
// Methods are safe for concurrent use. The lifecycle operations are
// meant to be called in order by one goroutine while Stop may arrive
// from another at any time.
type Session struct {
	cfg    SessionConfig
	dialer Dialer
	sinks  []Sink
	logger *slog.Logger

	mu       sync.Mutex
	state    State
	link     RawLink
	channels ChannelMap
	schema   []OutputChannel
	opened   []Sink

	stop     chan struct{}
	stopOnce sync.Once

	framesReceived   atomic.Uint64
	framesMalformed  atomic.Uint64
	samplesPushed    atomic.Uint64
	samplesDropped   atomic.Uint64
	pushErrors       atomic.Uint64
	consecutiveDrops atomic.Uint64
}

// NewSession creates a session with explicit dependencies
func NewSession(deps SessionDeps) (*Session, error) {
	if deps.Dialer == nil {
		return nil, errs.WrapInvalid(fmt.Errorf("dialer cannot be nil"), "Session", "NewSession", "dialer dependency is required")
	}
	if len(deps.Sinks) == 0 {
		return nil, errs.WrapInvalid(fmt.Errorf("sinks cannot be empty"), "Session", "NewSession", "at least one sink is required")
	}

	cfg := deps.Config
	cfg.setDefaults()
	if cfg.Addr == "" {
		return nil, errs.WrapInvalid(errs.ErrMissingConfig, "Session", "NewSession", "device address is required")
	}
	if cfg.SampleRate < 0 {
		return nil, errs.WrapInvalid(errs.ErrInvalidConfig, "Session", "NewSession", fmt.Sprintf("sample rate must be positive, got %d", cfg.SampleRate))
	}
	if cfg.ConnectRetryInterval > cfg.ConnectTimeout {
		return nil, errs.WrapInvalid(errs.ErrInvalidConfig, "Session", "NewSession", "connect retry interval exceeds connect timeout")
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	// Every session log line carries the component and address context;
	// individual calls do not repeat them.
	logger = logger.With("component", "session", "addr", cfg.Addr)

	return &Session{
		cfg:    cfg,
		dialer: deps.Dialer,
		sinks:  append([]Sink(nil), deps.Sinks...),
		logger: logger,
		state:  Idle,
		stop:   make(chan struct{}),
	}, nil
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Channels returns a copy of the channel map produced by discovery,
// nil before Discover has run.
func (s *Session) Channels() ChannelMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.channels == nil {
		return nil
	}
	return s.channels.Clone()
}

// Schema returns a copy of the output channel schema, nil before
// Discover has run.
func (s *Session) Schema() []OutputChannel {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.schema == nil {
		return nil
	}
	return append([]OutputChannel(nil), s.schema...)
}

// Connect dials the device at a fixed cadence until a link comes up or
// the connect budget runs out. On success the session moves to
// Connected; on exhaustion it moves to Failed and returns a
// *TimeoutError. Requires Idle.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.state != Idle {
		st := s.state
		s.mu.Unlock()
		return &InvalidStateError{Op: "Session.Connect", State: st}
	}
	s.mu.Unlock()

	// started precedes the deadline so Elapsed on exhaustion is never
	// short of the configured budget.
	started := time.Now()
	dialCtx, cancel := context.WithTimeout(ctx, s.cfg.ConnectTimeout)
	defer cancel()

	// Abort in-flight dialing when Stop arrives mid-connect.
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-s.stop:
			cancel()
		case <-watchDone:
		}
	}()

	s.logger.Info("connecting to device", "timeout", s.cfg.ConnectTimeout)

	// The budget is elapsed time, not an attempt count: a dialer that
	// fails instantly still gets redialed at the cadence until the
	// deadline passes, so Elapsed on the timeout error covers the full
	// configured window.
	var (
		link     RawLink
		lastErr  error
		attempts int
	)
	for {
		attempts++
		l, derr := s.dialer.Dial(dialCtx, s.cfg.Addr)
		if derr == nil {
			link = l
			break
		}
		lastErr = derr
		s.logger.Debug("dial attempt failed", "attempt", attempts, "error", derr)
		if retry.IsNonRetryable(derr) || dialCtx.Err() != nil {
			break
		}
		select {
		case <-dialCtx.Done():
		case <-time.After(s.cfg.ConnectRetryInterval):
		}
		if dialCtx.Err() != nil {
			break
		}
	}

	if link == nil {
		s.mu.Lock()
		if s.state == Idle {
			s.state = Failed
		}
		s.mu.Unlock()
		if retry.IsNonRetryable(lastErr) {
			// The dialer ruled out retrying (no driver registered,
			// unsupported platform); not a timeout.
			s.logger.Error("device connect failed", "error", lastErr)
			return errs.Wrap(lastErr, "Session", "Connect", "dialing device")
		}
		terr := &TimeoutError{Addr: s.cfg.Addr, Elapsed: time.Since(started), Attempts: attempts, Err: lastErr}
		s.logger.Error("device connect failed", "attempts", attempts, "elapsed", terr.Elapsed)
		return terr
	}

	s.mu.Lock()
	if s.state != Idle {
		// Stop raced the dial; the session is already terminal.
		st := s.state
		s.mu.Unlock()
		if closeErr := link.Close(); closeErr != nil {
			s.logger.Warn("closing link after aborted connect", "error", closeErr)
		}
		return &InvalidStateError{Op: "Session.Connect", State: st}
	}
	s.link = link
	s.state = Connected
	s.mu.Unlock()

	s.logger.Info("device connected", "attempts", attempts, "elapsed", time.Since(started).Round(time.Millisecond))
	return nil
}

// Discover reads per-port signatures, classifies each seated sensor
// and builds the output schema. Absent ports are omitted; a seated
// sensor that cannot be classified is recorded as Unknown and streams
// its raw values. Configured overrides win over classification.
// Requires Connected, or Discovered to re-probe; a failed signature
// read or an empty result leaves the state and any previously stored
// channel map untouched, so the caller may retry. On success the stored
// map and schema are replaced and the session is Discovered.
func (s *Session) Discover(ctx context.Context) (ChannelMap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Connected && s.state != Discovered {
		return nil, &InvalidStateError{Op: "Session.Discover", State: s.state}
	}

	sigs, err := s.link.Signatures(ctx)
	if err != nil {
		return nil, errs.WrapTransient(errs.ErrLinkRead, "Session", "Discover",
			fmt.Sprintf("reading port signatures from %s: %v", s.cfg.Addr, err))
	}

	m := make(ChannelMap)
	for _, sig := range sigs {
		if !sig.Present {
			continue
		}
		t := Classify(sig)
		if t == Unknown {
			s.logger.Warn("sensor not classified, recording as Unknown",
				"port", sig.Port, "vendor_code", sig.VendorCode, "product_id", sig.ProductID)
		}
		m[sig.Port] = t
	}

	if len(s.cfg.Overrides) > 0 {
		if err := s.cfg.Overrides.Validate(s.link.Ports()); err != nil {
			return nil, errs.WrapInvalid(errs.ErrInvalidConfig, "Session", "Discover", err.Error())
		}
		for port, t := range s.cfg.Overrides {
			m[port] = t
		}
	}

	if len(m) == 0 {
		return nil, errs.WrapInvalid(errs.ErrNoSensors, "Session", "Discover",
			fmt.Sprintf("no populated sensor ports on %s", s.cfg.Addr))
	}

	s.channels = m
	s.schema = BuildSchema(m)
	s.state = Discovered
	s.logger.Info("sensor discovery complete", "ports", len(m), "channels", len(s.schema))
	return m.Clone(), nil
}

// OverrideChannels replaces the channel map wholesale, bypassing or
// correcting classification. The map is validated against the hub's
// port count before anything is written. Allowed while Connected (in
// place of Discover) or Discovered (replacing its result); streaming
// setup seals the map. On success the session is Discovered.
func (s *Session) OverrideChannels(m ChannelMap) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Connected && s.state != Discovered {
		return &InvalidStateError{Op: "Session.OverrideChannels", State: s.state}
	}
	if len(m) == 0 {
		return errs.WrapInvalid(errs.ErrNoSensors, "Session", "OverrideChannels", "channel map cannot be empty")
	}
	if err := m.Validate(s.link.Ports()); err != nil {
		return errs.WrapInvalid(errs.ErrInvalidConfig, "Session", "OverrideChannels", err.Error())
	}

	s.channels = m.Clone()
	s.schema = BuildSchema(s.channels)
	s.state = Discovered
	s.logger.Info("channel map overridden", "ports", len(m), "channels", len(s.schema))
	return nil
}

// SetupStreaming announces the stream to every configured sink. If any
// sink rejects, the ones already opened are closed again and the
// session stays Discovered. On success the session moves to
// StreamingReady. Requires Discovered.
func (s *Session) SetupStreaming(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Discovered {
		return &InvalidStateError{Op: "Session.SetupStreaming", State: s.state}
	}

	info := StreamInfo{
		Name:       s.cfg.StreamName,
		Type:       s.cfg.StreamType,
		SourceID:   s.cfg.SourceID,
		SampleRate: s.cfg.SampleRate,
		Channels:   append([]OutputChannel(nil), s.schema...),
	}

	opened := make([]Sink, 0, len(s.sinks))
	for _, sink := range s.sinks {
		if err := sink.Open(ctx, info); err != nil {
			for i := len(opened) - 1; i >= 0; i-- {
				if closeErr := opened[i].Close(); closeErr != nil {
					s.logger.Warn("closing sink after failed setup", "sink", fmt.Sprintf("%T", opened[i]), "error", closeErr)
				}
			}
			if errors.Is(err, errs.ErrStreamExists) {
				return errs.WrapInvalid(errs.ErrStreamExists, "Session", "SetupStreaming",
					fmt.Sprintf("stream %q from %s: %v", info.Name, info.SourceID, err))
			}
			return errs.WrapTransient(errs.ErrSinkOpen, "Session", "SetupStreaming",
				fmt.Sprintf("sink %T: %v", sink, err))
		}
		opened = append(opened, sink)
	}

	s.opened = opened
	s.state = StreamingReady
	s.logger.Info("streaming ready", "stream", info.Name, "sinks", len(opened))
	return nil
}

// StartAcquisition starts the device at the configured sample rate and
// runs the acquisition loop in the calling goroutine until the link
// closes, Stop is called, ctx is cancelled, or consecutive drops trip
// the fault threshold. Requires StreamingReady.
//
// A closed link and a Stop both end the session orderly (Closed, nil
// return apart from ctx errors); a fault moves it to Failed and
// returns the fault.
func (s *Session) StartAcquisition(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StreamingReady {
		st := s.state
		s.mu.Unlock()
		return &InvalidStateError{Op: "Session.StartAcquisition", State: st}
	}
	link := s.link
	sinks := append([]Sink(nil), s.opened...)
	conv := newFrameConverter(s.channels)
	ports := s.channels.Ports()
	s.state = Streaming
	s.mu.Unlock()

	if err := link.Start(ctx, s.cfg.SampleRate, ports); err != nil {
		werr := errs.WrapTransient(errs.ErrLinkRead, "Session", "StartAcquisition",
			fmt.Sprintf("starting acquisition at %d Hz: %v", s.cfg.SampleRate, err))
		s.release(werr)
		return werr
	}

	s.logger.Info("acquisition started",
		"sample_rate", s.cfg.SampleRate, "ports", len(ports), "channels", conv.width)

	return s.acquireLoop(ctx, link, sinks, conv)
}

func (s *Session) acquireLoop(ctx context.Context, link RawLink, sinks []Sink, conv *frameConverter) error {
	frames := link.Frames()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("acquisition cancelled", "samples", s.samplesPushed.Load())
			s.release(nil)
			return ctx.Err()

		case <-s.stop:
			s.logger.Info("acquisition stopped", "samples", s.samplesPushed.Load())
			s.release(nil)
			return nil

		case frame, ok := <-frames:
			if !ok {
				if err := link.Err(); err != nil {
					s.logger.Warn("device link closed during streaming", "error", err)
				} else {
					s.logger.Info("device link closed during streaming")
				}
				s.release(nil)
				return nil
			}
			if err := s.handleFrame(ctx, frame, sinks, conv); err != nil {
				s.release(err)
				return err
			}
		}
	}
}

// handleFrame converts one raw frame and delivers it to every sink.
// A non-nil return is a streaming fault that ends the session.
func (s *Session) handleFrame(ctx context.Context, frame Frame, sinks []Sink, conv *frameConverter) error {
	s.framesReceived.Add(1)

	sample, err := conv.Convert(frame)
	if err != nil {
		s.framesMalformed.Add(1)
		s.logger.Warn("dropping malformed frame", "seq", frame.Seq, "error", err)
		return s.recordDrop(fmt.Sprintf("malformed frame: %v", err))
	}

	var failed bool
	for _, sink := range sinks {
		pushErr := retry.Do(ctx, s.cfg.PushRetry, func() error {
			return sink.Push(ctx, sample)
		})
		if pushErr != nil {
			failed = true
			s.pushErrors.Add(1)
			s.logger.Warn("sample push failed", "seq", sample.Seq, "sink", fmt.Sprintf("%T", sink), "error", pushErr)
		}
	}
	if failed {
		return s.recordDrop("sink push failed")
	}

	s.samplesPushed.Add(1)
	s.consecutiveDrops.Store(0)
	return nil
}

// recordDrop counts one dropped sample and trips the streaming fault
// once the consecutive run reaches the configured threshold.
func (s *Session) recordDrop(reason string) error {
	s.samplesDropped.Add(1)
	drops := s.consecutiveDrops.Add(1)
	if int(drops) >= s.cfg.MaxConsecutiveDrops {
		return errs.WrapFatal(errs.ErrStreamingFault, "Session", "StartAcquisition",
			fmt.Sprintf("%d consecutive samples dropped, last: %s", drops, reason))
	}
	return nil
}

// Stop ends the session from any state. During streaming it signals
// the acquisition loop and returns immediately; otherwise it tears the
// session down inline. Safe to call more than once.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})

	s.mu.Lock()
	streaming := s.state == Streaming
	s.mu.Unlock()
	if !streaming {
		s.release(nil)
	}
}

// release tears down the link and opened sinks exactly once and parks
// the session in a terminal state: Failed when fault is non-nil,
// Closed otherwise. Already-terminal states are preserved.
func (s *Session) release(fault error) {
	s.mu.Lock()
	link := s.link
	opened := s.opened
	s.link = nil
	s.opened = nil
	if s.state != Closed && s.state != Failed {
		if fault != nil {
			s.state = Failed
		} else {
			s.state = Closed
		}
	}
	s.mu.Unlock()

	if link != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := link.Stop(stopCtx); err != nil {
			s.logger.Debug("stopping device link", "error", err)
		}
		cancel()
		if err := link.Close(); err != nil {
			s.logger.Warn("closing device link", "error", err)
		}
	}
	for _, sink := range opened {
		if err := sink.Close(); err != nil {
			s.logger.Warn("closing sink", "sink", fmt.Sprintf("%T", sink), "error", err)
		}
	}
}

// Stats is a point-in-time snapshot of session throughput counters.
type Stats struct {
	State            string `json:"state"`
	FramesReceived   uint64 `json:"frames_received"`
	FramesMalformed  uint64 `json:"frames_malformed"`
	SamplesPushed    uint64 `json:"samples_pushed"`
	SamplesDropped   uint64 `json:"samples_dropped"`
	PushErrors       uint64 `json:"push_errors"`
	ConsecutiveDrops uint64 `json:"consecutive_drops"`
}

// Stats returns a snapshot of the session counters.
func (s *Session) Stats() Stats {
	return Stats{
		State:            s.State().String(),
		FramesReceived:   s.framesReceived.Load(),
		FramesMalformed:  s.framesMalformed.Load(),
		SamplesPushed:    s.samplesPushed.Load(),
		SamplesDropped:   s.samplesDropped.Load(),
		PushErrors:       s.pushErrors.Load(),
		ConsecutiveDrops: s.consecutiveDrops.Load(),
	}
}
