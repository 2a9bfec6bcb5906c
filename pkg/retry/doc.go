// Package retry provides exponential backoff retry loops for transient
// failures: broker dials, bucket creation, device reconnects.
//
// Do runs an operation until it succeeds or the configured attempts run
// out; DoWithResult does the same for operations that produce a value.
// Wrapping an error with NonRetryable makes Do stop immediately instead
// of burning the remaining attempts.
//
//	err := retry.Do(ctx, retry.DefaultConfig(), func() error {
//	    return client.Connect()
//	})
//
//	bucket, err := retry.DoWithResult(ctx, retry.Quick(), func() (jetstream.KeyValue, error) {
//	    return js.KeyValue(ctx, bucketName)
//	})
//
// # Presets
//
// Four configurations cover the bridge's retry postures:
//
//   - DefaultConfig: 3 attempts, 100ms-5s backoff, for normal operations
//   - Quick: 10 attempts, 50ms-1s, for component startup
//   - Persistent: 30 attempts, 200ms-10s, for critical resources
//   - Fixed(n, d): n attempts at a constant interval, for device dial
//     loops where the cadence matters
//
// A Config literal works too; zero fields get defaults and invalid
// combinations (MaxDelay below InitialDelay, negative values) fail
// before the first attempt.
//
// Both the operation and the backoff sleep observe context
// cancellation. All functions are safe for concurrent use.
package retry
