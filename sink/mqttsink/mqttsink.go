package mqttsink

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eclipse/paho.golang/paho"

	"github.com/kimit0310/MoBI-Physio-API/device"
	"github.com/kimit0310/MoBI-Physio-API/errors"
)

// Config holds configuration for the MQTT sink
type Config struct {
	// Broker is the broker address in host:port form.
	Broker string `json:"broker" yaml:"broker"`

	// ClientID identifies this publisher to the broker. Empty derives
	// one from the stream source at Open.
	ClientID string `json:"client_id" yaml:"client_id"`

	// TopicPrefix is prepended to the stream token to form the publish
	// topics, e.g. physio/<name>/samples.
	TopicPrefix string `json:"topic_prefix" yaml:"topic_prefix"`

	// QoS is the publish quality of service, 0 or 1.
	QoS byte `json:"qos" yaml:"qos"`

	// Username and Password authenticate against the broker. Both
	// optional.
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`

	// KeepAlive is the MQTT keep-alive interval in seconds.
	KeepAlive uint16 `json:"keep_alive" yaml:"keep_alive"`

	// ConnectTimeout bounds the TCP dial and CONNECT handshake.
	ConnectTimeout time.Duration `json:"connect_timeout" yaml:"connect_timeout"`
}

// DefaultConfig returns default configuration for the MQTT sink
func DefaultConfig() Config {
	return Config{
		TopicPrefix:    "physio",
		QoS:            0,
		KeepAlive:      30,
		ConnectTimeout: 10 * time.Second,
	}
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.Broker == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "broker address is required")
	}
	if _, _, err := net.SplitHostPort(c.Broker); err != nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("broker must be host:port: %v", err))
	}
	if c.TopicPrefix == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "topic prefix is required")
	}
	if strings.ContainsAny(c.TopicPrefix, "+# \t") {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"topic prefix must not contain wildcards or whitespace")
	}
	if c.QoS > 1 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("qos %d not supported, use 0 or 1", c.QoS))
	}
	if c.ConnectTimeout < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"connect timeout cannot be negative")
	}
	return nil
}

// Deps carries the collaborators the sink needs.
type Deps struct {
	Logger *slog.Logger
}

// infoRecord is the retained message published on the info topic so
// late subscribers learn the stream layout without catching the open.
type infoRecord struct {
	device.StreamInfo
	SamplesTopic string `json:"samples_topic"`
	PublishedAt  int64  `json:"published_at"`
}

// Sink publishes samples over MQTT v5. Open dials the broker and
// announces the stream layout as a retained message on the info topic;
// Push publishes one message per sample on the samples topic.
type Sink struct {
	cfg    Config
	logger *slog.Logger

	opened atomic.Bool
	closed atomic.Bool

	// Set once during Open, read-only afterwards.
	conn         net.Conn
	client       *paho.Client
	infoTopic    string
	samplesTopic string

	published atomic.Int64
	closeOnce sync.Once
	closeErr  error
}

var _ device.Sink = (*Sink)(nil)

// New creates an MQTT sink from configuration. Zero-valued config
// fields fall back to defaults.
func New(cfg Config, deps Deps) (*Sink, error) {
	defaults := DefaultConfig()
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = defaults.TopicPrefix
	}
	if cfg.KeepAlive == 0 {
		cfg.KeepAlive = defaults.KeepAlive
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = defaults.ConnectTimeout
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default().With("component", "mqttsink")
	}

	return &Sink{
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Open dials the broker, performs the MQTT v5 handshake and publishes
// the retained stream-layout message.
func (s *Sink) Open(ctx context.Context, info device.StreamInfo) error {
	if s.closed.Load() {
		return errors.WrapInvalid(errors.ErrSinkClosed, "Sink", "Open", "sink already closed")
	}
	if s.opened.Load() {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Sink", "Open", "sink already open")
	}

	dialCtx, cancel := context.WithTimeout(ctx, s.cfg.ConnectTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(dialCtx, "tcp", s.cfg.Broker)
	if err != nil {
		return errors.WrapTransient(err, "Sink", "Open",
			fmt.Sprintf("dialing broker %s", s.cfg.Broker))
	}

	clientID := s.cfg.ClientID
	if clientID == "" {
		clientID = "mobiphysio-" + topicToken(info.SourceID)
	}

	client := paho.NewClient(paho.ClientConfig{
		Conn:     conn,
		ClientID: clientID,
		OnClientError: func(err error) {
			s.logger.Warn("mqtt client error", "broker", s.cfg.Broker, "error", err)
		},
	})

	connack, err := client.Connect(dialCtx, &paho.Connect{
		ClientID:     clientID,
		CleanStart:   true,
		KeepAlive:    s.cfg.KeepAlive,
		Username:     s.cfg.Username,
		UsernameFlag: s.cfg.Username != "",
		Password:     []byte(s.cfg.Password),
		PasswordFlag: s.cfg.Password != "",
	})
	if err != nil {
		_ = conn.Close()
		return errors.WrapTransient(err, "Sink", "Open", "mqtt connect handshake")
	}
	if connack != nil && connack.ReasonCode >= 0x80 {
		_ = conn.Close()
		return errors.WrapTransient(
			fmt.Errorf("connack reason code 0x%02x", connack.ReasonCode),
			"Sink", "Open", "broker refused connection")
	}

	token := topicToken(info.Name)
	s.conn = conn
	s.client = client
	s.infoTopic = s.cfg.TopicPrefix + "/" + token + "/info"
	s.samplesTopic = s.cfg.TopicPrefix + "/" + token + "/samples"

	record := infoRecord{
		StreamInfo:   info,
		SamplesTopic: s.samplesTopic,
		PublishedAt:  time.Now().UnixMilli(),
	}
	payload, err := json.Marshal(record)
	if err != nil {
		_ = client.Disconnect(&paho.Disconnect{ReasonCode: 0})
		return errors.WrapInvalid(err, "Sink", "Open", "marshal stream layout")
	}
	if err := s.publish(ctx, s.infoTopic, payload, true); err != nil {
		_ = client.Disconnect(&paho.Disconnect{ReasonCode: 0})
		return errors.WrapTransient(err, "Sink", "Open", "publish stream layout")
	}

	s.opened.Store(true)

	s.logger.Info("mqtt stream announced",
		"broker", s.cfg.Broker,
		"topic", s.samplesTopic,
		"qos", s.cfg.QoS,
		"channels", len(info.Channels),
		"sample_rate", info.SampleRate)

	return nil
}

// Push publishes one sample to the samples topic. Delivery failures
// are returned as transient errors; the caller owns the retry budget.
func (s *Sink) Push(ctx context.Context, sample device.Sample) error {
	if s.closed.Load() {
		return errors.WrapInvalid(errors.ErrSinkClosed, "Sink", "Push", "sink closed")
	}
	if !s.opened.Load() {
		return errors.WrapInvalid(errors.ErrNotStarted, "Sink", "Push", "sink not open")
	}

	payload, err := json.Marshal(sample)
	if err != nil {
		return errors.WrapInvalid(err, "Sink", "Push", "marshal sample")
	}

	if err := s.publish(ctx, s.samplesTopic, payload, false); err != nil {
		return errors.WrapTransient(err, "Sink", "Push", "publish sample")
	}

	s.published.Add(1)
	return nil
}

// Close clears the retained layout message and disconnects from the
// broker. Safe to call multiple times.
func (s *Sink) Close() error {
	s.closeOnce.Do(func() {
		wasOpen := s.opened.Load()
		s.closed.Store(true)

		if wasOpen {
			// An empty retained payload deletes the retained message.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := s.publish(ctx, s.infoTopic, nil, true); err != nil {
				s.logger.Warn("failed to clear retained layout message",
					"topic", s.infoTopic,
					"error", err)
			}
			cancel()

			if err := s.client.Disconnect(&paho.Disconnect{ReasonCode: 0}); err != nil {
				s.closeErr = errors.WrapTransient(err, "Sink", "Close", "mqtt disconnect")
			}
			_ = s.conn.Close()
		}

		s.logger.Info("mqtt sink closed",
			"broker", s.cfg.Broker,
			"samples_published", s.published.Load())
	})
	return s.closeErr
}

// SamplesTopic returns the publish topic chosen at Open, empty before
// that.
func (s *Sink) SamplesTopic() string {
	if !s.opened.Load() {
		return ""
	}
	return s.samplesTopic
}

func (s *Sink) publish(ctx context.Context, topic string, payload []byte, retain bool) error {
	resp, err := s.client.Publish(ctx, &paho.Publish{
		Topic:   topic,
		QoS:     s.cfg.QoS,
		Retain:  retain,
		Payload: payload,
		Properties: &paho.PublishProperties{
			ContentType: "application/json",
		},
	})
	if err != nil {
		return err
	}
	// QoS 1 carries a reason code back from the broker.
	if s.cfg.QoS > 0 && resp != nil && resp.ReasonCode >= 0x80 {
		return fmt.Errorf("puback reason code 0x%02x", resp.ReasonCode)
	}
	return nil
}

// topicToken maps a stream name onto a single MQTT topic level,
// replacing separator and wildcard characters.
func topicToken(name string) string {
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
