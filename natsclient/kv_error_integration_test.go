//go:build integration

package natsclient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Edge cases around the CAS retry loop, exercised against a real
// server so the sentinel mapping sees genuine NATS errors.
func TestKVStore_ErrorBoundaries(t *testing.T) {
	testClient := NewTestClient(t, WithKV())
	client := testClient.Client

	ctx := context.Background()
	bucket, err := client.CreateKeyValueBucket(ctx, jetstream.KeyValueConfig{
		Bucket:      "registry-edge-cases",
		Description: "registry CAS edge cases",
	})
	require.NoError(t, err)

	t.Run("value_size_limits", func(t *testing.T) {
		kv := client.NewKVStore(bucket, func(opts *KVOptions) {
			opts.MaxRetries = 3
			opts.RetryDelay = 10 * time.Millisecond
			opts.Timeout = time.Second
			opts.MaxValueSize = 100
		})

		oversized := make([]byte, 200)
		for i := range oversized {
			oversized[i] = 'x'
		}

		err := kv.UpdateWithRetry(ctx, "large-key", func(_ []byte) ([]byte, error) {
			return oversized, nil
		})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "value size validation failed")
		assert.Contains(t, err.Error(), "exceeds maximum")

		// Exactly at the limit still passes
		err = kv.UpdateWithRetry(ctx, "limit-key", func(_ []byte) ([]byte, error) {
			return make([]byte, 100), nil
		})
		assert.NoError(t, err)
	})

	t.Run("update_function_errors", func(t *testing.T) {
		kv := client.NewKVStore(bucket)

		wantErr := errors.New("custom update error")
		err := kv.UpdateWithRetry(ctx, "error-key", func(_ []byte) ([]byte, error) {
			return nil, wantErr
		})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "update function error")
		assert.Contains(t, err.Error(), "custom update error")
	})

	t.Run("concurrent_updates_stress", func(t *testing.T) {
		kv := client.NewKVStore(bucket, func(opts *KVOptions) {
			opts.MaxRetries = 20
			opts.RetryDelay = 5 * time.Millisecond
			opts.Timeout = 5 * time.Second
			opts.UseExponentialBackoff = true
			opts.MaxRetryDelay = 100 * time.Millisecond
		})

		err := kv.UpdateWithRetry(ctx, "counter", func(_ []byte) ([]byte, error) {
			return []byte("0"), nil
		})
		require.NoError(t, err)

		// Ten writers racing on one counter; with enough retries every
		// increment must land exactly once
		const numGoroutines = 10
		const incrementsPerGoroutine = 5
		var wg sync.WaitGroup

		successCount := int32(0)
		failCount := int32(0)

		for i := 0; i < numGoroutines; i++ {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				for j := 0; j < incrementsPerGoroutine; j++ {
					err := kv.UpdateWithRetry(ctx, "counter", func(current []byte) ([]byte, error) {
						var val int
						if len(current) > 0 {
							fmt.Sscanf(string(current), "%d", &val)
						}
						val++
						return []byte(fmt.Sprintf("%d", val)), nil
					})
					if err == nil {
						atomic.AddInt32(&successCount, 1)
					} else {
						atomic.AddInt32(&failCount, 1)
						t.Logf("writer %d increment %d failed: %v", id, j, err)
					}
				}
			}(i)
		}

		wg.Wait()

		entry, err := kv.Get(ctx, "counter")
		require.NoError(t, err)

		var finalCount int
		fmt.Sscanf(string(entry.Value), "%d", &finalCount)

		wantCount := numGoroutines * incrementsPerGoroutine
		assert.Equal(t, wantCount, finalCount, "final counter value mismatch")
		assert.Equal(t, int32(wantCount), successCount, "not all updates succeeded")
		assert.Equal(t, int32(0), failCount, "some updates failed")
	})

	t.Run("timeout_behavior", func(t *testing.T) {
		kv := client.NewKVStore(bucket, func(opts *KVOptions) {
			opts.MaxRetries = 1
			opts.RetryDelay = time.Millisecond
			opts.Timeout = time.Nanosecond
		})

		err := kv.UpdateWithRetry(ctx, "timeout-key", func(_ []byte) ([]byte, error) {
			return []byte("value"), nil
		})

		assert.Error(t, err)
		assert.True(t,
			errors.Is(err, context.DeadlineExceeded) ||
				strings.Contains(err.Error(), "deadline exceeded"),
			"expected deadline exceeded error, got: %v", err)
	})

	t.Run("nil_and_empty_values", func(t *testing.T) {
		kv := client.NewKVStore(bucket)

		err := kv.UpdateWithRetry(ctx, "nil-key", func(_ []byte) ([]byte, error) {
			return nil, nil
		})
		assert.NoError(t, err)

		entry, err := kv.Get(ctx, "nil-key")
		require.NoError(t, err)
		assert.Empty(t, entry.Value)

		err = kv.UpdateWithRetry(ctx, "empty-key", func(_ []byte) ([]byte, error) {
			return []byte{}, nil
		})
		assert.NoError(t, err)

		entry, err = kv.Get(ctx, "empty-key")
		require.NoError(t, err)
		assert.Empty(t, entry.Value)

		// Overwriting an existing value with nil is allowed
		err = kv.UpdateWithRetry(ctx, "transition-key", func(_ []byte) ([]byte, error) {
			return []byte("initial"), nil
		})
		require.NoError(t, err)

		err = kv.UpdateWithRetry(ctx, "transition-key", func(current []byte) ([]byte, error) {
			assert.Equal(t, "initial", string(current))
			return nil, nil
		})
		assert.NoError(t, err)
	})

	t.Run("max_retries_exhaustion", func(t *testing.T) {
		kv := client.NewKVStore(bucket, func(opts *KVOptions) {
			opts.MaxRetries = 2
			opts.RetryDelay = 5 * time.Millisecond
			opts.Timeout = time.Second
		})

		_, err := bucket.Create(ctx, "exhaustion-key", []byte("v1"))
		require.NoError(t, err)

		// A background writer keeps bumping the revision so every CAS
		// attempt loses
		stopConflicts := make(chan struct{})
		go func() {
			ticker := time.NewTicker(2 * time.Millisecond)
			defer ticker.Stop()
			counter := 2
			for {
				select {
				case <-stopConflicts:
					return
				case <-ticker.C:
					_, _ = bucket.Put(ctx, "exhaustion-key", []byte(fmt.Sprintf("v%d", counter)))
					counter++
				}
			}
		}()

		err = kv.UpdateWithRetry(ctx, "exhaustion-key", func(_ []byte) ([]byte, error) {
			// Stay slow enough that the interfering writer always wins
			time.Sleep(10 * time.Millisecond)
			return []byte("my-update"), nil
		})

		close(stopConflicts)

		assert.Error(t, err)
		assert.True(t,
			errors.Is(err, ErrKVMaxRetriesExceeded) ||
				strings.Contains(err.Error(), "max retries exceeded"),
			"expected max retries error, got: %v", err)
	})

	t.Run("invalid_json_handling", func(t *testing.T) {
		kv := client.NewKVStore(bucket)

		_, err := bucket.Put(ctx, "bad-json", []byte("{invalid json}"))
		require.NoError(t, err)

		err = kv.UpdateJSON(ctx, "bad-json", func(_ map[string]any) error {
			t.Fatal("UpdateJSON must not invoke the update function on corrupt JSON")
			return nil
		})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unmarshal")
	})

	t.Run("update_deleted_key", func(t *testing.T) {
		kv := client.NewKVStore(bucket)

		_, err := bucket.Create(ctx, "deleted-key", []byte("value"))
		require.NoError(t, err)

		err = bucket.Delete(ctx, "deleted-key")
		require.NoError(t, err)

		// A deleted key reads as missing and gets recreated
		err = kv.UpdateWithRetry(ctx, "deleted-key", func(current []byte) ([]byte, error) {
			assert.Nil(t, current, "deleted key should read as nil")
			return []byte("new-value"), nil
		})
		assert.NoError(t, err)

		entry, err := kv.Get(ctx, "deleted-key")
		require.NoError(t, err)
		assert.Equal(t, "new-value", string(entry.Value))
	})

	t.Run("panic_recovery", func(t *testing.T) {
		kv := client.NewKVStore(bucket)

		// Panics in the update function must escape rather than be
		// swallowed by the retry loop
		err := func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic recovered: %v", r)
				}
			}()

			return kv.UpdateWithRetry(ctx, "panic-key", func(_ []byte) ([]byte, error) {
				panic("test panic")
			})
		}()

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "panic")
	})
}
