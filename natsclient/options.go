package natsclient

import (
	"log/slog"
	"time"

	"github.com/kimit0310/MoBI-Physio-API/metric"
)

// ClientOption configures a Client at construction time.
type ClientOption func(*Client) error

// Connection behavior.

// WithName sets the client name reported to the server.
func WithName(name string) ClientOption {
	return func(c *Client) error {
		c.clientName = name
		return nil
	}
}

// WithTimeout sets the dial timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) error {
		c.timeout = d
		return nil
	}
}

// WithMaxReconnects caps reconnection attempts, -1 for unlimited.
func WithMaxReconnects(max int) ClientOption {
	return func(c *Client) error {
		c.maxReconnects = max
		return nil
	}
}

// WithReconnectWait sets the pause between reconnection attempts.
func WithReconnectWait(d time.Duration) ClientOption {
	return func(c *Client) error {
		c.reconnectWait = d
		return nil
	}
}

// WithPingInterval sets how often the connection is pinged.
func WithPingInterval(d time.Duration) ClientOption {
	return func(c *Client) error {
		c.pingInterval = d
		return nil
	}
}

// WithDrainTimeout bounds how long Close waits for in-flight messages.
func WithDrainTimeout(d time.Duration) ClientOption {
	return func(c *Client) error {
		c.drainTimeout = d
		return nil
	}
}

// WithCompression enables message compression on the connection.
func WithCompression(enabled bool) ClientOption {
	return func(c *Client) error {
		c.compression = enabled
		return nil
	}
}

// Circuit breaker.

// WithCircuitBreakerThreshold sets how many consecutive failures open
// the circuit. Values below 1 fall back to the default of 5.
func WithCircuitBreakerThreshold(threshold int32) ClientOption {
	return func(c *Client) error {
		if threshold < 1 {
			threshold = 5
		}
		c.circuitThreshold = threshold
		return nil
	}
}

// WithMaxBackoff caps the circuit breaker's retry backoff. Values under
// a second fall back to the default of a minute.
func WithMaxBackoff(d time.Duration) ClientOption {
	return func(c *Client) error {
		if d < time.Second {
			d = time.Minute
		}
		c.maxBackoff = d
		return nil
	}
}

// Health monitoring and callbacks.

// WithHealthInterval sets the health monitor's check interval. Zero
// disables the background monitor.
func WithHealthInterval(d time.Duration) ClientOption {
	return func(c *Client) error {
		c.healthInterval = d
		return nil
	}
}

// WithDisconnectCallback runs fn on disconnect events, alongside the
// client's own disconnect handling.
func WithDisconnectCallback(fn func(error)) ClientOption {
	return func(c *Client) error {
		c.onDisconnect = fn
		return nil
	}
}

// WithReconnectCallback runs fn whenever the connection comes back.
func WithReconnectCallback(fn func()) ClientOption {
	return func(c *Client) error {
		c.onReconnect = fn
		return nil
	}
}

// WithHealthChangeCallback runs fn when the health state flips.
func WithHealthChangeCallback(fn func(healthy bool)) ClientOption {
	return func(c *Client) error {
		c.onHealthChange = fn
		return nil
	}
}

// WithConnectionLostCallback runs fn once reconnection is exhausted and
// the connection is gone for good.
func WithConnectionLostCallback(fn func(error)) ClientOption {
	return func(c *Client) error {
		c.onConnectionLost = fn
		return nil
	}
}

// Authentication and transport security.

// WithCredentials sets username/password authentication.
func WithCredentials(username, password string) ClientOption {
	return func(c *Client) error {
		c.username = username
		c.password = password
		return nil
	}
}

// WithToken sets token authentication.
func WithToken(token string) ClientOption {
	return func(c *Client) error {
		c.token = token
		return nil
	}
}

// WithTLS enables TLS. Cert and key enable mutual TLS; the CA file
// overrides the system roots for server verification.
func WithTLS(certFile, keyFile, caFile string) ClientOption {
	return func(c *Client) error {
		c.tlsCertFile = certFile
		c.tlsKeyFile = keyFile
		c.tlsCAFile = caFile
		c.tlsEnabled = true
		return nil
	}
}

// Observability.

// WithLogger sets the client's logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) error {
		c.logger = logger
		return nil
	}
}

// WithMetrics mirrors connection state into the shared NATS gauges:
// connected status, round-trip time, reconnect count, and circuit
// breaker state.
func WithMetrics(registry *metric.MetricsRegistry) ClientOption {
	return func(c *Client) error {
		if registry == nil {
			return nil
		}
		c.metrics = registry.CoreMetrics()
		return nil
	}
}
