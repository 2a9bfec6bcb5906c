// Package natsclient provides a managed NATS client with circuit breaker
// protection, automatic reconnection, and JetStream/KV support for
// streaming biosignal data.
//
// The package wraps the standard NATS Go client and is the foundation
// for all NATS communication in the bridge: sample publishing, the
// stream identity registry, and connection health reporting. The bridge
// is a pure producer, so the client exposes no consumer plane; tests
// that need to receive messages subscribe on the native connection via
// GetConnection.
//
// # Connecting
//
//	client, err := natsclient.NewClient("nats://localhost:4222")
//	if err != nil {
//	    return err
//	}
//
//	ctx := context.Background()
//	if err := client.Connect(ctx); err != nil {
//	    return err
//	}
//	defer client.Close(ctx)
//
//	err = client.Publish(ctx, "physio.samples.ecg", payload)
//
// Behavior is tuned through functional options:
//
//	WithMaxReconnects(n int)              // -1 reconnects forever
//	WithReconnectWait(d time.Duration)    // wait between reconnection attempts
//	WithTimeout(d time.Duration)          // connection timeout
//	WithDrainTimeout(d time.Duration)     // timeout for graceful shutdown
//	WithPingInterval(d time.Duration)     // protocol ping interval
//	WithHealthInterval(d time.Duration)   // health check interval (0 disables)
//	WithCircuitBreakerThreshold(n int32)  // failures before the circuit opens
//	WithMaxBackoff(d time.Duration)       // backoff ceiling
//	WithLogger(logger *slog.Logger)       // structured logging
//	WithMetrics(registry)                 // mirror state into Prometheus gauges
//	WithName(name string)                 // client identification
//
// Credentials come in through WithCredentials, WithToken, or WithTLS,
// and are cleared from memory when the client closes.
//
// # Circuit Breaker
//
// Server operations fail fast once a threshold of consecutive failures
// is reached (default 5). The open circuit rejects operations with
// ErrCircuitOpen until an exponentially growing backoff elapses, then
// half-opens to let the next attempt probe the server. A dead broker
// therefore costs the acquisition path one error check per sample, not
// a dial timeout.
//
//	err := client.Connect(ctx)
//	if errors.Is(err, natsclient.ErrCircuitOpen) {
//	    time.Sleep(client.Backoff())
//	    // retry later
//	}
//
// The connection moves through Disconnected, Connecting, Connected,
// Reconnecting and CircuitOpen states; Status, GetStatus, IsHealthy,
// and WaitForConnection observe them, and the WithDisconnectCallback,
// WithReconnectCallback, and WithHealthChangeCallback options hook
// transitions.
//
// # JetStream and the Stream Registry
//
// Streams are created and published to through the circuit breaker:
//
//	stream, err := client.CreateStream(ctx, jetstream.StreamConfig{
//	    Name:     "PHYSIO",
//	    Subjects: []string{"physio.>"},
//	})
//	err = client.PublishToStream(ctx, "physio.samples.ecg", payload)
//
// KVStore wraps a KV bucket with compare-and-swap retries for
// registry-style usage, where several bridge instances may write the
// same key concurrently:
//
//	bucket, err := client.CreateKeyValueBucket(ctx, jetstream.KeyValueConfig{
//	    Bucket:  "streams",
//	    History: 5,
//	})
//	kvStore := client.NewKVStore(bucket)
//
//	// The update function may run multiple times on conflict
//	err = kvStore.UpdateJSON(ctx, "ecg-session", func(entry map[string]any) error {
//	    entry["last_seen"] = time.Now().UnixMilli()
//	    return nil
//	})
//
// # Error Handling
//
// The package aliases the shared sentinels so callers can match either
// name with errors.Is:
//
//	var (
//	    ErrNotConnected      = errors.ErrNoConnection
//	    ErrCircuitOpen       = errors.ErrCircuitOpen
//	    ErrConnectionTimeout = errors.ErrConnectionTimeout
//	)
//
// KV failures map onto ErrKVKeyNotFound, ErrKVKeyExists,
// ErrKVRevisionMismatch, and ErrKVMaxRetriesExceeded; the
// IsKVNotFoundError and IsKVConflictError helpers also recognize the
// raw server error strings.
//
// # Metrics
//
// With WithMetrics the client keeps mobiphysio_nats_connected,
// mobiphysio_nats_circuit_breaker, mobiphysio_nats_rtt_milliseconds,
// and mobiphysio_nats_reconnects_total current without any polling
// machinery.
//
// # Testing
//
// Integration tests run against a real NATS server in a container
// rather than a mock:
//
//	func TestMySink(t *testing.T) {
//	    testClient := natsclient.NewTestClient(t,
//	        natsclient.WithJetStream(),
//	        natsclient.WithKV(),
//	    )
//
//	    err := testClient.Client.Publish(ctx, "physio.samples.ecg", payload)
//	    assert.NoError(t, err)
//	}
//
// # Thread Safety
//
// Client is safe for concurrent use. Connection state lives in atomics,
// callbacks are invoked on their own goroutines, and Close is
// idempotent.
package natsclient
