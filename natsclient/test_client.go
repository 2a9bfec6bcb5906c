// Testcontainers-based NATS infrastructure for integration testing.

package natsclient

import (
	"context"
	"fmt"
	"testing"
	"time"

	gonats "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestClient bundles a throwaway NATS container with a connected
// Client. Sink and registry tests run against it instead of a mock.
type TestClient struct {
	container testcontainers.Container
	Client    *Client
	URL       string
	cleanup   func()
}

type testConfig struct {
	jetstream    bool
	kv           bool
	kvBuckets    []string
	natsVersion  string
	timeout      time.Duration
	startTimeout time.Duration
}

func defaultTestConfig() *testConfig {
	return &testConfig{
		natsVersion:  "2.11.7-alpine",
		timeout:      5 * time.Second,
		startTimeout: 30 * time.Second,
	}
}

// TestOption for configuring test client
type TestOption func(*testConfig)

// WithJetStream enables JetStream on the test server
func WithJetStream() TestOption {
	return func(cfg *testConfig) {
		cfg.jetstream = true
	}
}

// WithKV enables KV support, which implies JetStream
func WithKV() TestOption {
	return func(cfg *testConfig) {
		cfg.jetstream = true
		cfg.kv = true
	}
}

// WithKVBuckets pre-creates the named KV buckets
func WithKVBuckets(buckets ...string) TestOption {
	return func(cfg *testConfig) {
		cfg.jetstream = true
		cfg.kv = true
		cfg.kvBuckets = append(cfg.kvBuckets, buckets...)
	}
}

// WithNATSVersion overrides the server image tag
func WithNATSVersion(version string) TestOption {
	return func(cfg *testConfig) {
		cfg.natsVersion = version
	}
}

// WithTestTimeout sets the connection timeout for the test client
func WithTestTimeout(timeout time.Duration) TestOption {
	return func(cfg *testConfig) {
		cfg.timeout = timeout
	}
}

// WithStartTimeout sets the container startup timeout
func WithStartTimeout(timeout time.Duration) TestOption {
	return func(cfg *testConfig) {
		cfg.startTimeout = timeout
	}
}

// startTestClient starts a NATS container and connects a client to it.
// Shared by NewTestClient and NewSharedTestClient.
func startTestClient(ctx context.Context, cfg *testConfig) (*TestClient, error) {
	args := []string{
		"--port", "4222",
		"--http_port", "8222",
	}
	if cfg.jetstream {
		args = append(args, "--js")
	}

	req := testcontainers.ContainerRequest{
		Image:        "nats:" + cfg.natsVersion,
		ExposedPorts: []string{"4222/tcp", "8222/tcp"},
		Cmd:          args,
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("4222/tcp"),
			wait.ForHTTP("/").WithPort("8222/tcp").WithStartupTimeout(cfg.startTimeout),
		),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start NATS container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "4222")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get mapped port: %w", err)
	}

	url := fmt.Sprintf("nats://%s:%s", host, port.Port())

	// Reconnects and health monitoring only add noise against a
	// container that lives for one test
	client, err := NewClient(url,
		WithTimeout(cfg.timeout),
		WithMaxReconnects(0),
		WithHealthInterval(0),
	)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to create NATS client: %w", err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	if err := client.Connect(connectCtx); err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	if err := client.WaitForConnection(connectCtx); err != nil {
		_ = client.Close(ctx)
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("NATS connection not ready: %w", err)
	}

	testClient := &TestClient{
		container: container,
		Client:    client,
		URL:       url,
		cleanup: func() {
			_ = client.Close(context.Background())
			_ = container.Terminate(context.Background())
		},
	}

	if cfg.kv && len(cfg.kvBuckets) > 0 {
		if err := testClient.setupKVBuckets(ctx, cfg.kvBuckets); err != nil {
			testClient.cleanup()
			return nil, fmt.Errorf("failed to setup KV buckets: %w", err)
		}
	}

	return testClient, nil
}

// NewSharedTestClient starts a test server without a testing.T, for
// use in TestMain where cleanup must be explicit.
func NewSharedTestClient(opts ...TestOption) (*TestClient, error) {
	cfg := defaultTestConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return startTestClient(context.Background(), cfg)
}

// NewTestClient starts a test server and registers cleanup on t.
// Accepts testing.TB so it works from benchmarks too.
func NewTestClient(t testing.TB, opts ...TestOption) *TestClient {
	t.Helper()

	cfg := defaultTestConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	testClient, err := startTestClient(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to start NATS test client: %v", err)
	}

	t.Cleanup(testClient.cleanup)

	return testClient
}

func (tc *TestClient) setupKVBuckets(ctx context.Context, buckets []string) error {
	for _, bucketName := range buckets {
		_, err := tc.Client.CreateKeyValueBucket(ctx, jetstream.KeyValueConfig{
			Bucket: bucketName,
		})
		if err != nil {
			return fmt.Errorf("failed to create KV bucket %s: %w", bucketName, err)
		}
	}
	return nil
}

// Terminate shuts down the client and container ahead of t.Cleanup
func (tc *TestClient) Terminate() error {
	if tc.cleanup != nil {
		tc.cleanup()
		tc.cleanup = nil
	}
	return nil
}

// IsReady checks if the NATS connection is ready for use
func (tc *TestClient) IsReady() bool {
	return tc.Client.IsHealthy()
}

// GetNativeConnection returns the underlying NATS connection
func (tc *TestClient) GetNativeConnection() *gonats.Conn {
	return tc.Client.GetConnection()
}

// CreateKVBucket creates a KV bucket with default settings
func (tc *TestClient) CreateKVBucket(ctx context.Context, name string) (jetstream.KeyValue, error) {
	return tc.Client.CreateKeyValueBucket(ctx, jetstream.KeyValueConfig{Bucket: name})
}

// GetKVBucket looks up an existing KV bucket
func (tc *TestClient) GetKVBucket(ctx context.Context, name string) (jetstream.KeyValue, error) {
	return tc.Client.GetKeyValueBucket(ctx, name)
}
