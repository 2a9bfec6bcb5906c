package wssink

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kimit0310/MoBI-Physio-API/device"
	"github.com/kimit0310/MoBI-Physio-API/errors"
	"github.com/kimit0310/MoBI-Physio-API/metric"
	"github.com/kimit0310/MoBI-Physio-API/pkg/buffer"
)

// Config holds configuration for the WebSocket live-view sink
type Config struct {
	// Addr is the listen address, e.g. ":8081". Use "127.0.0.1:0" to
	// bind an ephemeral port.
	Addr string `json:"addr" yaml:"addr"`

	// Path is the WebSocket endpoint path.
	Path string `json:"path" yaml:"path"`

	// ClientBuffer is the per-client sample queue capacity. A viewer
	// that falls behind loses its oldest queued samples first.
	ClientBuffer int `json:"client_buffer" yaml:"client_buffer"`

	// PingInterval is the keepalive ping cadence. Zero disables pings
	// and read deadlines.
	PingInterval time.Duration `json:"ping_interval" yaml:"ping_interval"`

	// WriteTimeout bounds a single client write. Zero means no deadline.
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "addr is required")
	}
	if !strings.HasPrefix(c.Path, "/") {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"path must start with /")
	}
	if c.ClientBuffer <= 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"client_buffer must be positive")
	}
	if c.PingInterval < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"ping_interval cannot be negative")
	}
	if c.WriteTimeout < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"write_timeout cannot be negative")
	}
	return nil
}

// DefaultConfig returns default configuration for the live-view sink
func DefaultConfig() Config {
	return Config{
		Addr:         ":8081",
		Path:         "/ws",
		ClientBuffer: 256,
		PingInterval: 30 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// Deps carries the dependencies for the live-view sink. Metrics is
// optional.
type Deps struct {
	Logger  *slog.Logger
	Metrics *metric.MetricsRegistry
}

// streamMessage announces the stream identity to a newly connected
// viewer before any samples.
type streamMessage struct {
	Type   string            `json:"type"`
	Stream device.StreamInfo `json:"stream"`
}

// sampleMessage carries one sample to viewers.
type sampleMessage struct {
	Type string `json:"type"`
	device.Sample
}

// wsMetrics holds Prometheus metrics for the live-view sink
type wsMetrics struct {
	clientsConnected prometheus.Gauge
	connectionsTotal prometheus.Counter
	samplesSent      prometheus.Counter
	samplesDropped   prometheus.Counter
	bytesSent        prometheus.Counter
}

// newMetrics creates and registers sink metrics. Nil registry means
// metrics stay disabled.
func newMetrics(registry *metric.MetricsRegistry) *wsMetrics {
	if registry == nil {
		return nil
	}

	m := &wsMetrics{
		clientsConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mobiphysio",
			Subsystem: "ws",
			Name:      "clients_connected",
			Help:      "Number of currently connected viewers",
		}),
		connectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mobiphysio",
			Subsystem: "ws",
			Name:      "client_connections_total",
			Help:      "Total viewer connections",
		}),
		samplesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mobiphysio",
			Subsystem: "ws",
			Name:      "samples_sent_total",
			Help:      "Samples delivered to viewers",
		}),
		samplesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mobiphysio",
			Subsystem: "ws",
			Name:      "samples_dropped_total",
			Help:      "Samples dropped for slow viewers",
		}),
		bytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mobiphysio",
			Subsystem: "ws",
			Name:      "bytes_sent_total",
			Help:      "Bytes delivered to viewers",
		}),
	}

	registry.PrometheusRegistry().MustRegister(
		m.clientsConnected,
		m.connectionsTotal,
		m.samplesSent,
		m.samplesDropped,
		m.bytesSent,
	)

	return m
}

// client is one connected viewer. Samples are queued per client with a
// DropOldest policy so one stalled viewer cannot hold up the others.
type client struct {
	conn        *websocket.Conn
	queue       buffer.Buffer[[]byte]
	wake        chan struct{}
	connectedAt time.Time
	dropped     atomic.Int64
	closed      atomic.Bool
	closeOnce   sync.Once
}

// Sink serves a WebSocket endpoint that broadcasts the live sample
// stream to connected viewers. Delivery is best-effort: a viewer that
// cannot keep up loses samples, the acquisition never blocks on it.
type Sink struct {
	cfg    Config
	logger *slog.Logger

	info  device.StreamInfo
	hello []byte

	server   *http.Server
	listener net.Listener
	addr     string
	upgrader websocket.Upgrader

	clients   map[*client]struct{}
	clientsMu sync.RWMutex

	opened atomic.Bool
	closed atomic.Bool

	shutdown  chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	samplesBroadcast atomic.Int64
	clientsServed    atomic.Int64

	metrics *wsMetrics
}

var _ device.Sink = (*Sink)(nil)

// New creates a live-view sink from configuration. Zero-valued config
// fields fall back to defaults.
func New(cfg Config, deps Deps) (*Sink, error) {
	defaults := DefaultConfig()
	if cfg.Addr == "" {
		cfg.Addr = defaults.Addr
	}
	if cfg.Path == "" {
		cfg.Path = defaults.Path
	}
	if cfg.ClientBuffer == 0 {
		cfg.ClientBuffer = defaults.ClientBuffer
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default().With("component", "wssink")
	}

	return &Sink{
		cfg:    cfg,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(_ *http.Request) bool { return true },
		},
		clients:  make(map[*client]struct{}),
		shutdown: make(chan struct{}),
		metrics:  newMetrics(deps.Metrics),
	}, nil
}

// Open starts the WebSocket server and prepares the stream announcement
// sent to each connecting viewer.
func (s *Sink) Open(_ context.Context, info device.StreamInfo) error {
	if s.closed.Load() {
		return errors.WrapInvalid(errors.ErrSinkClosed, "Sink", "Open", "sink is closed")
	}
	if s.opened.Load() {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Sink", "Open", "sink already open")
	}

	hello, err := json.Marshal(streamMessage{Type: "stream", Stream: info})
	if err != nil {
		return errors.WrapInvalid(err, "Sink", "Open", "marshal stream announcement")
	}

	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return errors.WrapFatal(err, "Sink", "Open", fmt.Sprintf("listen on %s", s.cfg.Addr))
	}

	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.Path, s.handleWebSocket)

	s.info = info
	s.hello = hello
	s.listener = listener
	s.addr = listener.Addr().String()
	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.opened.Store(true)

	s.wg.Add(1)
	go s.runServer()

	s.logger.Info("live view started",
		"addr", s.addr,
		"path", s.cfg.Path,
		"stream", info.Name,
		"client_buffer", s.cfg.ClientBuffer)

	return nil
}

// Push broadcasts one sample to every connected viewer. Slow viewers
// drop their oldest queued samples; Push itself never blocks on client
// I/O and never reports delivery failures.
func (s *Sink) Push(_ context.Context, sample device.Sample) error {
	if s.closed.Load() {
		return errors.WrapInvalid(errors.ErrSinkClosed, "Sink", "Push", "sink is closed")
	}
	if !s.opened.Load() {
		return errors.WrapInvalid(errors.ErrNotStarted, "Sink", "Push", "sink not open")
	}

	data, err := json.Marshal(sampleMessage{Type: "sample", Sample: sample})
	if err != nil {
		return errors.WrapInvalid(err, "Sink", "Push", "marshal sample")
	}

	s.broadcast(data)
	return nil
}

// Close shuts the server down and disconnects all viewers. Safe to call
// multiple times.
func (s *Sink) Close() error {
	var closeErr error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		if !s.opened.Load() {
			return
		}

		close(s.shutdown)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			closeErr = errors.WrapTransient(err, "Sink", "Close", "server shutdown")
		}

		s.clientsMu.Lock()
		for c := range s.clients {
			s.closeClient(c)
		}
		s.clients = make(map[*client]struct{})
		s.clientsMu.Unlock()

		if s.metrics != nil {
			s.metrics.clientsConnected.Set(0)
		}

		s.wg.Wait()

		s.logger.Info("live view closed",
			"addr", s.addr,
			"stream", s.info.Name,
			"samples_broadcast", s.samplesBroadcast.Load(),
			"clients_served", s.clientsServed.Load())
	})
	return closeErr
}

// Addr returns the bound listen address. Empty before Open.
func (s *Sink) Addr() string {
	return s.addr
}

// ClientCount returns the number of connected viewers.
func (s *Sink) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// runServer serves HTTP until shutdown
func (s *Sink) runServer() {
	defer s.wg.Done()

	err := s.server.Serve(s.listener)
	if err != nil && err != http.ErrServerClosed {
		s.logger.Error("live view server failed", "error", err)
	}
}

// handleWebSocket upgrades a viewer connection and starts its pumps
func (s *Sink) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("connection upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := &client{
		conn:        conn,
		wake:        make(chan struct{}, 1),
		connectedAt: time.Now(),
	}
	queue, err := buffer.NewCircularBuffer[[]byte](s.cfg.ClientBuffer,
		buffer.WithOverflowPolicy[[]byte](buffer.DropOldest),
		buffer.WithDropCallback[[]byte](func(_ []byte) {
			c.dropped.Add(1)
			if s.metrics != nil {
				s.metrics.samplesDropped.Inc()
			}
		}),
	)
	if err != nil {
		_ = conn.Close()
		s.logger.Error("client queue creation failed", "error", err)
		return
	}
	c.queue = queue

	// Announce the stream before any samples
	if s.cfg.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	if err := conn.WriteMessage(websocket.TextMessage, s.hello); err != nil {
		_ = conn.Close()
		_ = queue.Close()
		return
	}

	// Registration, the closed check and the waitgroup bump share one
	// critical section so Close sees either a fully tracked client or
	// none at all.
	s.clientsMu.Lock()
	if s.closed.Load() {
		s.clientsMu.Unlock()
		_ = conn.Close()
		_ = queue.Close()
		return
	}
	s.clients[c] = struct{}{}
	count := len(s.clients)
	s.wg.Add(2)
	s.clientsMu.Unlock()

	s.clientsServed.Add(1)
	if s.metrics != nil {
		s.metrics.connectionsTotal.Inc()
		s.metrics.clientsConnected.Set(float64(count))
	}

	s.logger.Debug("viewer connected", "remote", r.RemoteAddr, "clients", count)

	go s.writePump(c)
	go s.readPump(c)
}

// broadcast enqueues data for every connected viewer
func (s *Sink) broadcast(data []byte) {
	s.clientsMu.RLock()
	targets := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		if !c.closed.Load() {
			targets = append(targets, c)
		}
	}
	s.clientsMu.RUnlock()

	for _, c := range targets {
		if err := c.queue.Write(data); err != nil {
			continue
		}
		select {
		case c.wake <- struct{}{}:
		default:
		}
	}

	s.samplesBroadcast.Add(1)
}

// writePump drains the client queue onto the connection. One pump per
// client keeps connection writes serialized.
func (s *Sink) writePump(c *client) {
	defer s.wg.Done()
	defer s.removeClient(c)

	var pings *time.Ticker
	var pingCh <-chan time.Time
	if s.cfg.PingInterval > 0 {
		pings = time.NewTicker(s.cfg.PingInterval)
		defer pings.Stop()
		pingCh = pings.C
	}

	for {
		select {
		case <-s.shutdown:
			return
		case <-c.wake:
			if !s.drainQueue(c) {
				return
			}
		case <-pingCh:
			if s.cfg.WriteTimeout > 0 {
				_ = c.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// drainQueue writes queued samples until the queue is empty. Returns
// false on a connection error.
func (s *Sink) drainQueue(c *client) bool {
	for {
		data, ok := c.queue.Read()
		if !ok {
			return true
		}

		if s.cfg.WriteTimeout > 0 {
			_ = c.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return false
		}

		if s.metrics != nil {
			s.metrics.samplesSent.Inc()
			s.metrics.bytesSent.Add(float64(len(data)))
		}
	}
}

// readPump consumes viewer messages to detect disconnects and service
// pong responses. Viewers are receive-only, inbound payloads are
// discarded.
func (s *Sink) readPump(c *client) {
	defer s.wg.Done()
	defer s.removeClient(c)

	c.conn.SetReadLimit(512)
	if s.cfg.PingInterval > 0 {
		pongWait := 2 * s.cfg.PingInterval
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.conn.SetPongHandler(func(string) error {
			return c.conn.SetReadDeadline(time.Now().Add(pongWait))
		})
	}

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// removeClient closes a viewer connection and drops it from the set
func (s *Sink) removeClient(c *client) {
	c.closeOnce.Do(func() {
		c.closed.Store(true)

		s.clientsMu.Lock()
		delete(s.clients, c)
		count := len(s.clients)
		s.clientsMu.Unlock()

		if s.metrics != nil {
			s.metrics.clientsConnected.Set(float64(count))
		}

		_ = c.conn.Close()
		_ = c.queue.Close()

		s.logger.Debug("viewer disconnected",
			"connected_for", time.Since(c.connectedAt),
			"samples_dropped", c.dropped.Load(),
			"clients", count)
	})
}

// closeClient is removeClient without map surgery, for use while the
// caller already holds clientsMu.
func (s *Sink) closeClient(c *client) {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		_ = c.conn.Close()
		_ = c.queue.Close()
	})
}
