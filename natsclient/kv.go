package natsclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/kimit0310/MoBI-Physio-API/pkg/retry"
)

// Well-known KV errors
var (
	ErrKVKeyNotFound        = errors.New("kv: key not found")
	ErrKVKeyExists          = errors.New("kv: key already exists")
	ErrKVRevisionMismatch   = errors.New("kv: revision mismatch (concurrent update)")
	ErrKVMaxRetriesExceeded = errors.New("kv: max retries exceeded")
)

// KVEntry wraps a KV entry with its revision for CAS operations
type KVEntry struct {
	Key      string
	Value    []byte
	Revision uint64
}

// KVOptions configures KV operations behavior
type KVOptions struct {
	MaxRetries            int           // Additional CAS attempts after the first
	RetryDelay            time.Duration // Initial delay between retries
	Timeout               time.Duration // Per-operation timeout
	MaxValueSize          int           // Largest accepted value in bytes
	UseExponentialBackoff bool          // Double the delay between retries
	MaxRetryDelay         time.Duration // Ceiling for the retry delay
}

// DefaultKVOptions returns defaults tuned for registry-sized values
func DefaultKVOptions() KVOptions {
	return KVOptions{
		MaxRetries:            10,
		RetryDelay:            10 * time.Millisecond,
		Timeout:               5 * time.Second,
		MaxValueSize:          1024 * 1024,
		UseExponentialBackoff: true,
		MaxRetryDelay:         time.Second,
	}
}

// KVStore wraps a JetStream KV bucket with compare-and-swap retries.
// The stream identity registry is its main consumer: several bridge
// instances may register streams against the same bucket concurrently.
type KVStore struct {
	bucket  jetstream.KeyValue
	options KVOptions
	logger  *slog.Logger
}

// NewKVStore creates a new KV store with the given bucket
func (c *Client) NewKVStore(bucket jetstream.KeyValue, opts ...func(*KVOptions)) *KVStore {
	options := DefaultKVOptions()
	for _, opt := range opts {
		opt(&options)
	}

	return &KVStore{
		bucket:  bucket,
		options: options,
		logger:  c.logger,
	}
}

// applyTimeout applies the configured timeout to the context if set
func (kv *KVStore) applyTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if kv.options.Timeout > 0 {
		return context.WithTimeout(ctx, kv.options.Timeout)
	}
	return ctx, func() {}
}

// Get retrieves a value with its revision for CAS operations
func (kv *KVStore) Get(ctx context.Context, key string) (*KVEntry, error) {
	ctx, cancel := kv.applyTimeout(ctx)
	defer cancel()

	entry, err := kv.bucket.Get(ctx, key)
	if err != nil {
		if IsKVNotFoundError(err) {
			return nil, ErrKVKeyNotFound
		}
		return nil, fmt.Errorf("kv get %s: %w", key, err)
	}

	return &KVEntry{
		Key:      key,
		Value:    entry.Value(),
		Revision: entry.Revision(),
	}, nil
}

// Put creates or updates a key without revision check (last writer wins)
func (kv *KVStore) Put(ctx context.Context, key string, value []byte) (uint64, error) {
	ctx, cancel := kv.applyTimeout(ctx)
	defer cancel()

	rev, err := kv.bucket.Put(ctx, key, value)
	if err != nil {
		return 0, fmt.Errorf("kv put %s: %w", key, err)
	}

	kv.debug("kv put", "key", key, "revision", rev)
	return rev, nil
}

// Create writes a key only if it does not exist yet
func (kv *KVStore) Create(ctx context.Context, key string, value []byte) (uint64, error) {
	ctx, cancel := kv.applyTimeout(ctx)
	defer cancel()

	rev, err := kv.bucket.Create(ctx, key, value)
	if err != nil {
		if IsKVConflictError(err) {
			return 0, ErrKVKeyExists
		}
		return 0, fmt.Errorf("kv create %s: %w", key, err)
	}

	kv.debug("kv create", "key", key, "revision", rev)
	return rev, nil
}

// Update performs a CAS update against an explicit revision
func (kv *KVStore) Update(ctx context.Context, key string, value []byte, revision uint64) (uint64, error) {
	ctx, cancel := kv.applyTimeout(ctx)
	defer cancel()

	rev, err := kv.bucket.Update(ctx, key, value, revision)
	if err != nil {
		if IsKVConflictError(err) {
			return 0, ErrKVRevisionMismatch
		}
		return 0, fmt.Errorf("kv update %s: %w", key, err)
	}

	kv.debug("kv update", "key", key, "old_revision", revision, "new_revision", rev)
	return rev, nil
}

// Delete removes a key from the bucket
func (kv *KVStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := kv.applyTimeout(ctx)
	defer cancel()

	if err := kv.bucket.Delete(ctx, key); err != nil {
		if IsKVNotFoundError(err) {
			return ErrKVKeyNotFound
		}
		return fmt.Errorf("kv delete %s: %w", key, err)
	}

	kv.debug("kv delete", "key", key)
	return nil
}

// Watch creates a watcher for key changes. No timeout is applied since
// the watcher outlives any single operation.
func (kv *KVStore) Watch(ctx context.Context, pattern string) (jetstream.KeyWatcher, error) {
	watcher, err := kv.bucket.Watch(ctx, pattern)
	if err != nil {
		return nil, fmt.Errorf("kv watch %s: %w", pattern, err)
	}
	return watcher, nil
}

func (kv *KVStore) retryConfig() retry.Config {
	cfg := retry.Config{
		MaxAttempts:  kv.options.MaxRetries + 1, // MaxRetries counts the re-tries
		InitialDelay: kv.options.RetryDelay,
		MaxDelay:     kv.options.MaxRetryDelay,
		AddJitter:    true, // concurrent registrants must not retry in lockstep
		Multiplier:   1.0,
	}
	if kv.options.UseExponentialBackoff {
		cfg.Multiplier = 2.0
	}
	return cfg
}

// UpdateWithRetry applies updateFn to the current value under CAS,
// retrying on conflicts. A missing key is presented to updateFn as nil
// and created on write. Errors from updateFn itself and oversized
// values fail immediately without retrying.
func (kv *KVStore) UpdateWithRetry(ctx context.Context, key string,
	updateFn func(current []byte) ([]byte, error)) error {

	// One timeout covers the whole retry loop
	ctx, cancel := kv.applyTimeout(ctx)
	defer cancel()

	cfg := kv.retryConfig()
	attempt := 0

	err := retry.Do(ctx, cfg, func() error {
		attempt++

		current, revision, err := kv.readForUpdate(ctx, key)
		if err != nil {
			return err
		}

		next, err := updateFn(current)
		if err != nil {
			return retry.NonRetryable(fmt.Errorf("update function error: %w", err))
		}

		if kv.options.MaxValueSize > 0 && len(next) > kv.options.MaxValueSize {
			return retry.NonRetryable(fmt.Errorf("value size validation failed: size %d exceeds maximum %d",
				len(next), kv.options.MaxValueSize))
		}

		return kv.writeAtRevision(ctx, key, next, revision, attempt, cfg.MaxAttempts)
	})

	// Retries exhausted while still losing the CAS race
	if err != nil && IsKVConflictError(err) {
		return ErrKVMaxRetriesExceeded
	}
	return err
}

// readForUpdate fetches the current value and revision, mapping a
// missing key to (nil, 0).
func (kv *KVStore) readForUpdate(ctx context.Context, key string) ([]byte, uint64, error) {
	entry, err := kv.Get(ctx, key)
	if err != nil {
		if IsKVNotFoundError(err) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("kv get failed during update: %w", err)
	}
	return entry.Value, entry.Revision, nil
}

// writeAtRevision creates the key at revision 0 or CAS-updates it
// otherwise. Conflict errors come back as-is so the retry loop sees
// them as retryable.
func (kv *KVStore) writeAtRevision(ctx context.Context, key string, value []byte,
	revision uint64, attempt, maxAttempts int) error {

	if revision == 0 {
		_, err := kv.bucket.Create(ctx, key, value)
		if err == nil {
			return nil
		}
		if IsKVConflictError(err) {
			kv.debug("kv create conflict, retrying",
				"key", key, "attempt", attempt, "max_attempts", maxAttempts)
			return err
		}
		return fmt.Errorf("kv create failed: %w", err)
	}

	_, err := kv.Update(ctx, key, value, revision)
	if err == nil {
		return nil
	}
	if IsKVConflictError(err) {
		kv.debug("kv update conflict, retrying",
			"key", key, "attempt", attempt, "max_attempts", maxAttempts)
		return err
	}
	return fmt.Errorf("kv update failed: %w", err)
}

// UpdateJSON performs a CAS update on a JSON object value
func (kv *KVStore) UpdateJSON(ctx context.Context, key string,
	updateFn func(current map[string]any) error) error {

	return kv.UpdateWithRetry(ctx, key, func(currentBytes []byte) ([]byte, error) {
		current := make(map[string]any)
		if len(currentBytes) > 0 {
			if err := json.Unmarshal(currentBytes, &current); err != nil {
				// Corrupt stored JSON will not get better on retry
				return nil, retry.NonRetryable(fmt.Errorf("unmarshal current: %w", err))
			}
		}

		if err := updateFn(current); err != nil {
			return nil, err
		}

		return json.Marshal(current)
	})
}

func (kv *KVStore) debug(msg string, args ...any) {
	if kv.logger != nil {
		kv.logger.Debug(msg, args...)
	}
}

// NATS reports KV failure modes only as message strings and API error
// codes, so detection is by substring.

// IsKVNotFoundError checks if error indicates key not found
func IsKVNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrKVKeyNotFound) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "key not found") ||
		strings.Contains(msg, "10037")
}

// IsKVConflictError checks if error indicates a conflict (key exists or
// wrong revision)
func IsKVConflictError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrKVRevisionMismatch) || errors.Is(err, ErrKVKeyExists) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "wrong last sequence") ||
		strings.Contains(msg, "10071") ||
		strings.Contains(msg, "key exists") ||
		strings.Contains(msg, "10058")
}
