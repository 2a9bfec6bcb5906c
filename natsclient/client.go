package natsclient

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/kimit0310/MoBI-Physio-API/errors"
	"github.com/kimit0310/MoBI-Physio-API/metric"
)

// ConnectionStatus represents the state of the NATS connection
type ConnectionStatus int

// Possible connection statuses
const (
	StatusDisconnected ConnectionStatus = iota
	StatusConnecting
	StatusConnected
	StatusReconnecting
	StatusCircuitOpen
)

// String returns the string representation of ConnectionStatus
func (s ConnectionStatus) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusReconnecting:
		return "reconnecting"
	case StatusCircuitOpen:
		return "circuit_open"
	default:
		return "unknown"
	}
}

// Sentinel errors returned by client operations. These alias the shared
// sentinels so callers can match with errors.Is under either name.
var (
	ErrNotConnected      = errors.ErrNoConnection
	ErrCircuitOpen       = errors.ErrCircuitOpen
	ErrConnectionTimeout = errors.ErrConnectionTimeout
)

// Status holds runtime status information for the NATS client
type Status struct {
	Status          ConnectionStatus
	FailureCount    int32
	LastFailureTime time.Time
	Reconnects      int32
	RTT             time.Duration
}

// Client manages one NATS connection. Repeated failures open a circuit
// that rejects operations until a backoff elapses, so a dead broker
// cannot stall the acquisition path with per-sample connect attempts.
type Client struct {
	url      string
	status   atomic.Value // stores ConnectionStatus
	failures atomic.Int32
	logger   *slog.Logger

	conn *nats.Conn
	js   jetstream.JetStream

	// Circuit breaker
	lastFailure      atomic.Value // stores time.Time
	backoff          atomic.Value // stores time.Duration
	circuitFailures  atomic.Int32 // failures in current circuit round
	circuitThreshold int32        // failures before opening circuit
	maxBackoff       time.Duration

	// Connection options
	maxReconnects int
	reconnectWait time.Duration
	pingInterval  time.Duration
	timeout       time.Duration
	drainTimeout  time.Duration

	// Credentials, cleared on close
	username string
	password string
	token    string

	// TLS
	tlsEnabled  bool
	tlsCertFile string
	tlsKeyFile  string
	tlsCAFile   string

	clientName  string
	compression bool

	metrics *metric.Metrics

	// Callbacks
	onDisconnect     func(error)
	onReconnect      func()
	onHealthChange   func(bool)
	onConnectionLost func(error)

	// Health monitoring
	healthTicker   *time.Ticker
	healthInterval time.Duration
	healthDone     chan struct{}

	mu      sync.RWMutex
	closeMu sync.Mutex
	closed  atomic.Bool
}

// NewClient creates a new NATS client with optional configuration
func NewClient(url string, opts ...ClientOption) (*Client, error) {
	c := &Client{
		url:              url,
		maxReconnects:    -1, // reconnect forever
		reconnectWait:    2 * time.Second,
		pingInterval:     30 * time.Second,
		healthInterval:   10 * time.Second,
		circuitThreshold: 5,
		maxBackoff:       time.Minute,
		timeout:          5 * time.Second,
		drainTimeout:     30 * time.Second,
		clientName:       "mobiphysio",
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, errors.WrapInvalid(err, "Client", "NewClient", "apply option")
		}
	}

	if c.logger == nil {
		c.logger = slog.Default().With("component", "natsclient")
	}

	c.status.Store(StatusDisconnected)
	c.backoff.Store(time.Second)
	c.lastFailure.Store(time.Time{})

	c.logger.Debug("created NATS client", "url", url)

	return c, nil
}

// URL returns the NATS server URL
func (m *Client) URL() string {
	return m.url
}

// Status returns the current connection status
func (m *Client) Status() ConnectionStatus {
	val := m.status.Load()
	if val == nil {
		return StatusDisconnected
	}
	return val.(ConnectionStatus)
}

// GetConnection returns the current NATS connection
func (m *Client) GetConnection() *nats.Conn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conn
}

func (m *Client) setStatus(status ConnectionStatus) {
	m.status.Store(status)
	m.recordStatusMetrics(status)
}

// recordStatusMetrics mirrors the connection state into the shared gauges
func (m *Client) recordStatusMetrics(status ConnectionStatus) {
	if m.metrics == nil {
		return
	}
	m.metrics.RecordNATSStatus(status == StatusConnected)
	circuit := 0
	if status == StatusCircuitOpen {
		circuit = 1
	}
	m.metrics.RecordCircuitBreakerState(circuit)
}

// IsHealthy returns true if the connection is healthy
func (m *Client) IsHealthy() bool {
	return m.Status() == StatusConnected
}

// Failures returns the current failure count
func (m *Client) Failures() int32 {
	return m.failures.Load()
}

// Backoff returns the current backoff duration
func (m *Client) Backoff() time.Duration {
	return m.backoff.Load().(time.Duration)
}

// ready gates server operations on the circuit breaker and connection
// state.
func (m *Client) ready() error {
	switch m.Status() {
	case StatusCircuitOpen:
		return ErrCircuitOpen
	case StatusConnected:
		return nil
	default:
		return ErrNotConnected
	}
}

// growBackoff doubles the backoff up to the configured ceiling and
// returns the previous value.
func (m *Client) growBackoff() time.Duration {
	current := m.backoff.Load().(time.Duration)
	next := current * 2
	if next > m.maxBackoff {
		next = m.maxBackoff
	}
	m.backoff.Store(next)
	return current
}

// recordFailure counts one failure and opens the circuit once the
// round's threshold is reached.
func (m *Client) recordFailure() {
	totalFailures := m.failures.Add(1)
	m.lastFailure.Store(time.Now())
	circuitFailures := m.circuitFailures.Add(1)

	m.logger.Debug("recorded failure",
		"failures", totalFailures,
		"circuit_failures", circuitFailures)

	if circuitFailures < m.circuitThreshold {
		return
	}

	currentStatus := m.Status()
	if currentStatus != StatusCircuitOpen {
		// Only one goroutine wins the transition to open
		if m.status.CompareAndSwap(currentStatus, StatusCircuitOpen) {
			m.recordStatusMetrics(StatusCircuitOpen)
			waitFor := m.growBackoff()
			m.circuitFailures.Store(0)

			m.logger.Warn("circuit breaker opened",
				"failures", circuitFailures,
				"backoff", waitFor)

			time.AfterFunc(waitFor, m.testCircuit)
		}
		return
	}

	// Failures while the circuit is already open keep pushing the
	// backoff out
	m.growBackoff()
	m.circuitFailures.Store(0)
	m.logger.Warn("circuit breaker still open", "backoff", m.Backoff())
}

// resetCircuit clears failure state after a successful operation
func (m *Client) resetCircuit() {
	m.failures.Store(0)
	m.circuitFailures.Store(0)
	m.backoff.Store(time.Second)
	m.lastFailure.Store(time.Time{})

	if m.Status() == StatusCircuitOpen {
		m.setStatus(StatusDisconnected)
	}
}

// testCircuit half-opens the circuit after the backoff elapses
func (m *Client) testCircuit() {
	m.logger.Debug("testing circuit breaker")

	if m.Status() == StatusCircuitOpen {
		m.setStatus(StatusDisconnected)
	}
}

// WaitForConnection polls until the connection is healthy or the
// context ends.
func (m *Client) WaitForConnection(ctx context.Context) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrConnectionTimeout, ctx.Err())
		case <-ticker.C:
			if m.IsHealthy() {
				return nil
			}
		}
	}
}

// MaxReconnects returns the maximum number of reconnection attempts
func (m *Client) MaxReconnects() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.maxReconnects
}

// ReconnectWait returns the wait duration between reconnection attempts
func (m *Client) ReconnectWait() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reconnectWait
}

// PingInterval returns the interval for health checks
func (m *Client) PingInterval() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingInterval
}

// ConnectionOptions returns the NATS connection options
func (m *Client) ConnectionOptions() []nats.Option {
	return m.buildConnectionOptions()
}

func (m *Client) buildConnectionOptions() []nats.Option {
	opts := []nats.Option{
		nats.MaxReconnects(m.maxReconnects),
		nats.ReconnectWait(m.reconnectWait),
		nats.PingInterval(m.pingInterval),
		nats.Timeout(m.timeout),
		nats.DrainTimeout(m.drainTimeout),
		nats.DisconnectErrHandler(m.handleDisconnect),
		nats.ReconnectHandler(m.handleReconnect),
		nats.ClosedHandler(m.handleClosed),
		nats.ErrorHandler(m.handleError),
	}

	if m.username != "" && m.password != "" {
		opts = append(opts, nats.UserInfo(m.username, m.password))
	}
	if m.token != "" {
		opts = append(opts, nats.Token(m.token))
	}

	if m.tlsEnabled {
		if m.tlsCertFile != "" && m.tlsKeyFile != "" {
			opts = append(opts, nats.ClientCert(m.tlsCertFile, m.tlsKeyFile))
		}
		if m.tlsCAFile != "" {
			opts = append(opts, nats.RootCAs(m.tlsCAFile))
		}
	}

	if m.clientName != "" {
		opts = append(opts, nats.Name(m.clientName))
	}
	if m.compression {
		opts = append(opts, nats.Compression(true))
	}

	return opts
}

// GetStatus returns current status information
func (m *Client) GetStatus() *Status {
	lastFailure := m.lastFailure.Load().(time.Time)

	status := &Status{
		Status:          m.Status(),
		FailureCount:    m.failures.Load(),
		LastFailureTime: lastFailure,
	}

	if m.conn != nil && m.conn.IsConnected() {
		if rtt, err := m.conn.RTT(); err == nil {
			status.RTT = rtt
		}
	}

	return status
}

// Connect establishes the connection to the NATS server
func (m *Client) Connect(ctx context.Context) error {
	if m.Status() == StatusCircuitOpen {
		m.logger.Debug("circuit breaker is open, skipping connection attempt")
		return ErrCircuitOpen
	}

	m.setStatus(StatusConnecting)
	m.logger.Info("connecting to NATS", "url", m.url)

	opts := m.buildConnectionOptions()

	connectDone := make(chan error, 1)
	go func() {
		conn, err := nats.Connect(m.url, opts...)
		if err != nil {
			connectDone <- err
			return
		}

		m.mu.Lock()
		m.conn = conn
		m.mu.Unlock()

		if js, err := jetstream.New(conn); err == nil {
			m.mu.Lock()
			m.js = js
			m.mu.Unlock()
		}

		connectDone <- nil
	}()

	select {
	case err := <-connectDone:
		if err != nil {
			m.recordFailure()

			if m.Status() != StatusCircuitOpen {
				m.setStatus(StatusDisconnected)
			}
			if m.Status() == StatusCircuitOpen {
				return ErrCircuitOpen
			}

			return errors.WrapTransient(err, "Client", "Connect", "establish connection")
		}
	case <-ctx.Done():
		m.recordFailure()
		if m.Status() != StatusCircuitOpen {
			m.setStatus(StatusDisconnected)
		}
		return errors.WrapTransient(ctx.Err(), "Client", "Connect", "connection cancelled")
	}

	m.setStatus(StatusConnected)
	m.resetCircuit()

	m.logger.Info("connected to NATS", "url", m.url)

	if m.healthInterval > 0 {
		m.logger.Debug("starting health monitoring", "interval", m.healthInterval)
		m.startHealthMonitoring()
	}

	if m.onHealthChange != nil {
		m.onHealthChange(true)
	}

	return nil
}

// Close drains and closes the connection. Safe to call more than once.
func (m *Client) Close(ctx context.Context) error {
	m.closeMu.Lock()
	defer m.closeMu.Unlock()

	if m.closed.Load() {
		return nil
	}
	m.closed.Store(true)

	// Health monitoring stops before the main mutex is taken, the
	// monitor goroutine takes the same lock
	m.stopHealthMonitoring()

	m.mu.Lock()
	defer m.mu.Unlock()

	var drainErr error
	if m.conn != nil {
		drainTimeout := m.drainTimeout
		if deadline, ok := ctx.Deadline(); ok {
			if remaining := time.Until(deadline); remaining > 0 && remaining < drainTimeout {
				drainTimeout = remaining
			}
		}

		drainDone := make(chan error, 1)
		go func() {
			drainDone <- m.conn.Drain()
		}()

		select {
		case err := <-drainDone:
			if err != nil {
				drainErr = errors.Wrap(err, "Client", "Close", "drain connection")
				m.logger.Error("drain error", "error", err)
			}
		case <-time.After(drainTimeout):
			drainErr = errors.WrapTransient(
				fmt.Errorf("drain timeout after %v", drainTimeout),
				"Client",
				"Close",
				"drain timeout",
			)
			m.logger.Error("drain timeout, force closing", "timeout", drainTimeout)
		case <-ctx.Done():
			drainErr = errors.Wrap(ctx.Err(), "Client", "Close", "context cancelled during drain")
			m.logger.Error("context cancelled during drain, force closing")
		}

		m.conn.Close()
		m.conn = nil
	}

	m.username = ""
	m.password = ""
	m.token = ""

	m.setStatus(StatusDisconnected)

	return drainErr
}

// RTT returns the round-trip time to the NATS server
func (m *Client) RTT() (time.Duration, error) {
	m.mu.RLock()
	conn := m.conn
	m.mu.RUnlock()

	if conn == nil || !conn.IsConnected() {
		return 0, ErrNotConnected
	}

	return conn.RTT()
}

// Publish publishes a message to a core NATS subject
func (m *Client) Publish(_ context.Context, subject string, data []byte) error {
	m.mu.RLock()
	conn := m.conn
	m.mu.RUnlock()

	if conn == nil || !conn.IsConnected() {
		return ErrNotConnected
	}

	return conn.Publish(subject, data)
}

// JetStream returns the JetStream context
func (m *Client) JetStream() (jetstream.JetStream, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.js == nil {
		return nil, errors.WrapTransient(
			fmt.Errorf("JetStream not initialized"),
			"Client", "JetStream", "get JetStream context")
	}

	return m.js, nil
}

// CreateStream creates a JetStream stream
func (m *Client) CreateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}

	js, err := m.JetStream()
	if err != nil {
		m.recordFailure()
		return nil, err
	}

	stream, err := js.CreateStream(ctx, cfg)
	if err != nil {
		m.recordFailure()
		return nil, err
	}

	m.resetCircuit()
	return stream, nil
}

// PublishToStream publishes to a JetStream stream with an ack
func (m *Client) PublishToStream(ctx context.Context, subject string, data []byte) error {
	if err := m.ready(); err != nil {
		return err
	}

	js, err := m.JetStream()
	if err != nil {
		m.recordFailure()
		return err
	}

	_, err = js.Publish(ctx, subject, data)
	if err != nil {
		m.recordFailure()
		return err
	}

	m.resetCircuit()
	return nil
}

// GetStream gets an existing JetStream stream
func (m *Client) GetStream(ctx context.Context, name string) (jetstream.Stream, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}

	js, err := m.JetStream()
	if err != nil {
		m.recordFailure()
		return nil, err
	}

	stream, err := js.Stream(ctx, name)
	if err != nil {
		m.recordFailure()
		return nil, err
	}

	m.resetCircuit()
	return stream, nil
}

// CreateKeyValueBucket creates or gets a KV bucket with configuration
func (m *Client) CreateKeyValueBucket(ctx context.Context, cfg jetstream.KeyValueConfig) (jetstream.KeyValue, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}

	js, err := m.JetStream()
	if err != nil {
		m.recordFailure()
		return nil, err
	}

	// An existing bucket wins over creation
	bucket, err := js.KeyValue(ctx, cfg.Bucket)
	if err == nil {
		m.logger.Debug("using existing KV bucket", "bucket", cfg.Bucket)
		m.resetCircuit()
		return bucket, nil
	}

	bucket, err = js.CreateKeyValue(ctx, cfg)
	if err != nil {
		// A concurrent creator may have raced us to the name
		if isAlreadyExistsError(err) {
			m.logger.Debug("KV bucket created concurrently, getting existing bucket",
				"bucket", cfg.Bucket)
			bucket, err = js.KeyValue(ctx, cfg.Bucket)
			if err != nil {
				m.recordFailure()
				return nil, errors.Wrap(err, "Client", "CreateKeyValueBucket",
					fmt.Sprintf("access existing bucket %s", cfg.Bucket))
			}
			m.resetCircuit()
			return bucket, nil
		}
		m.recordFailure()
		return nil, err
	}

	m.logger.Info("created new KV bucket", "bucket", cfg.Bucket)
	m.resetCircuit()
	return bucket, nil
}

// GetKeyValueBucket gets an existing KV bucket
func (m *Client) GetKeyValueBucket(ctx context.Context, name string) (jetstream.KeyValue, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}

	js, err := m.JetStream()
	if err != nil {
		m.recordFailure()
		return nil, err
	}

	bucket, err := js.KeyValue(ctx, name)
	if err != nil {
		m.recordFailure()
		return nil, err
	}

	m.resetCircuit()
	return bucket, nil
}

// DeleteKeyValueBucket deletes a KV bucket
func (m *Client) DeleteKeyValueBucket(ctx context.Context, name string) error {
	if err := m.ready(); err != nil {
		return err
	}

	js, err := m.JetStream()
	if err != nil {
		m.recordFailure()
		return err
	}

	err = js.DeleteKeyValue(ctx, name)
	if err != nil {
		m.recordFailure()
		return err
	}

	m.resetCircuit()
	return nil
}

// ListKeyValueBuckets lists all KV buckets
func (m *Client) ListKeyValueBuckets(ctx context.Context) ([]string, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}

	js, err := m.JetStream()
	if err != nil {
		m.recordFailure()
		return nil, err
	}

	// KV buckets are JetStream streams named with a KV_ prefix
	names := []string{}
	streamsCh := js.ListStreams(ctx)

	for stream := range streamsCh.Info() {
		if stream != nil && strings.HasPrefix(stream.Config.Name, "KV_") {
			names = append(names, strings.TrimPrefix(stream.Config.Name, "KV_"))
		}
	}

	if err := streamsCh.Err(); err != nil {
		m.recordFailure()
		return nil, err
	}

	m.resetCircuit()
	return names, nil
}

// OnHealthChange sets a callback for health status changes
func (m *Client) OnHealthChange(fn func(bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onHealthChange = fn
}

// WithHealthCheck enables health monitoring with a specified interval
func (m *Client) WithHealthCheck(interval time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.healthInterval = interval
}

func (m *Client) handleDisconnect(_ *nats.Conn, err error) {
	m.setStatus(StatusReconnecting)

	m.mu.RLock()
	onDisconnect := m.onDisconnect
	onHealthChange := m.onHealthChange
	m.mu.RUnlock()

	if onDisconnect != nil {
		go onDisconnect(err)
	}
	if onHealthChange != nil {
		go onHealthChange(false)
	}
}

func (m *Client) handleReconnect(_ *nats.Conn) {
	m.setStatus(StatusConnected)
	m.resetCircuit()

	if m.metrics != nil {
		m.metrics.RecordNATSReconnect()
	}

	m.mu.RLock()
	onReconnect := m.onReconnect
	onHealthChange := m.onHealthChange
	m.mu.RUnlock()

	if onReconnect != nil {
		go onReconnect()
	}
	if onHealthChange != nil {
		go onHealthChange(true)
	}
}

func (m *Client) handleClosed(_ *nats.Conn) {
	m.setStatus(StatusDisconnected)

	m.mu.RLock()
	onHealthChange := m.onHealthChange
	onConnectionLost := m.onConnectionLost
	m.mu.RUnlock()

	if onHealthChange != nil {
		go onHealthChange(false)
	}

	// The closed handler also fires during an orderly Close; only report
	// a lost connection when the client did not initiate it.
	if !m.closed.Load() && onConnectionLost != nil {
		go onConnectionLost(nats.ErrConnectionClosed)
	}
}

func (m *Client) handleError(_ *nats.Conn, _ *nats.Subscription, err error) {
	// Not every async error is a connection failure, so no
	// recordFailure here
	m.logger.Error("NATS error", "error", err)
}

// startHealthMonitoring pings the server at healthInterval and flips
// the status when connectivity changes.
func (m *Client) startHealthMonitoring() {
	m.stopHealthMonitoring()

	m.mu.Lock()
	m.healthTicker = time.NewTicker(m.healthInterval)
	m.healthDone = make(chan struct{})
	ticker := m.healthTicker
	done := m.healthDone
	m.mu.Unlock()

	go func() {
		defer ticker.Stop()
		lastHealthy := m.IsHealthy()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				m.mu.RLock()
				conn := m.conn
				m.mu.RUnlock()

				if conn == nil {
					continue
				}

				healthy := conn.IsConnected()
				if rtt, err := conn.RTT(); err != nil {
					healthy = false
				} else if m.metrics != nil {
					m.metrics.RecordNATSRTT(rtt)
				}

				if healthy && m.Status() != StatusConnected {
					m.setStatus(StatusConnected)
				} else if !healthy && m.Status() == StatusConnected {
					m.setStatus(StatusReconnecting)
				}

				if healthy != lastHealthy && m.onHealthChange != nil {
					m.onHealthChange(healthy)
				}

				lastHealthy = healthy
			}
		}
	}()
}

func (m *Client) stopHealthMonitoring() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.healthTicker != nil {
		m.healthTicker.Stop()
		m.healthTicker = nil
	}
	if m.healthDone != nil {
		close(m.healthDone)
		m.healthDone = nil
	}
}

// isAlreadyExistsError matches the server's bucket/stream name
// collision errors.
func isAlreadyExistsError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "bucket name already in use") ||
		strings.Contains(errStr, "already exists") ||
		strings.Contains(errStr, "stream name already in use")
}
