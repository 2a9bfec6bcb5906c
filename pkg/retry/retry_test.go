package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fastConfig keeps test retries in the tens of milliseconds. Jitter is
// off so timing assertions stay predictable.
func fastConfig(attempts int) Config {
	return Config{
		MaxAttempts:  attempts,
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     100 * time.Millisecond,
		Multiplier:   2.0,
		AddJitter:    false,
	}
}

func TestDo_SucceedsAfterRetries(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fastConfig(3), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("hub not ready")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDo_AllAttemptsFail(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fastConfig(3), func() error {
		attempts++
		return errors.New("persistent error")
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 3 attempts")
	assert.Equal(t, 3, attempts)
}

func TestDo_NonRetryableStopsImmediately(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fastConfig(5), func() error {
		attempts++
		return NonRetryable(errors.New("bad sensor config"))
	})

	assert.Error(t, err)
	assert.True(t, IsNonRetryable(err))
	assert.Equal(t, 1, attempts)
}

func TestDo_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := Config{
		MaxAttempts:  5,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	attempts := 0
	err := Do(ctx, cfg, func() error {
		attempts++
		return errors.New("error")
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "retry cancelled")
	assert.Less(t, attempts, 5)
}

func TestDo_BackoffTiming(t *testing.T) {
	start := time.Now()
	attempts := 0
	_ = Do(context.Background(), fastConfig(4), func() error {
		attempts++
		return errors.New("error")
	})
	elapsed := time.Since(start)

	// Delays 10ms + 20ms + 40ms = 70ms minimum
	assert.GreaterOrEqual(t, elapsed, 70*time.Millisecond)
	assert.Less(t, elapsed, 150*time.Millisecond)
	assert.Equal(t, 4, attempts)
}

func TestDo_MaxDelayCapsBackoff(t *testing.T) {
	cfg := Config{
		MaxAttempts:  4,
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     25 * time.Millisecond,
		Multiplier:   10.0,
	}

	start := time.Now()
	_ = Do(context.Background(), cfg, func() error {
		return errors.New("error")
	})
	elapsed := time.Since(start)

	// Delays 10ms + 25ms + 25ms = 60ms minimum with the cap applied
	assert.GreaterOrEqual(t, elapsed, 60*time.Millisecond)
	assert.Less(t, elapsed, 150*time.Millisecond)
}

func TestDo_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"negative initial delay", Config{InitialDelay: -time.Second}},
		{"negative max delay", Config{MaxDelay: -time.Second}},
		{"negative multiplier", Config{Multiplier: -1}},
		{"max below initial", Config{InitialDelay: time.Second, MaxDelay: time.Millisecond}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			err := Do(context.Background(), tt.cfg, func() error {
				called = true
				return nil
			})
			assert.Error(t, err)
			assert.False(t, called, "fn should not run with an invalid config")
		})
	}
}

func TestDo_ZeroAttemptsRunsOnce(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), Config{}, func() error {
		attempts++
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDoWithResult(t *testing.T) {
	attempts := 0
	result, err := DoWithResult(context.Background(), fastConfig(3), func() (string, error) {
		attempts++
		if attempts < 3 {
			return "", errors.New("not ready")
		}
		return "connected", nil
	})

	assert.NoError(t, err)
	assert.Equal(t, "connected", result)
	assert.Equal(t, 3, attempts)
}

func TestPresetConfigs(t *testing.T) {
	def := DefaultConfig()
	assert.Equal(t, 3, def.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, def.InitialDelay)
	assert.Equal(t, 5*time.Second, def.MaxDelay)
	assert.Equal(t, 2.0, def.Multiplier)
	assert.True(t, def.AddJitter)

	quick := Quick()
	assert.Equal(t, 10, quick.MaxAttempts)
	assert.Equal(t, 50*time.Millisecond, quick.InitialDelay)
	assert.Equal(t, time.Second, quick.MaxDelay)

	persistent := Persistent()
	assert.Equal(t, 30, persistent.MaxAttempts)
	assert.Equal(t, 200*time.Millisecond, persistent.InitialDelay)
	assert.Equal(t, 10*time.Second, persistent.MaxDelay)

	fixed := Fixed(5, 2*time.Second)
	assert.Equal(t, 5, fixed.MaxAttempts)
	assert.Equal(t, 2*time.Second, fixed.InitialDelay)
	assert.Equal(t, 2*time.Second, fixed.MaxDelay)
	assert.Equal(t, 1.0, fixed.Multiplier)
	assert.False(t, fixed.AddJitter)
}

func TestNonRetryable_NilPassthrough(t *testing.T) {
	assert.NoError(t, NonRetryable(nil))
	assert.False(t, IsNonRetryable(nil))
	assert.False(t, IsNonRetryable(errors.New("plain")))
}

func BenchmarkDo_Success(b *testing.B) {
	ctx := context.Background()
	cfg := Config{MaxAttempts: 1, InitialDelay: time.Millisecond}

	for i := 0; i < b.N; i++ {
		_ = Do(ctx, cfg, func() error { return nil })
	}
}

func ExampleDo() {
	err := Do(context.Background(), DefaultConfig(), func() error {
		return dialHub()
	})
	_ = err
}

func dialHub() error {
	return nil
}
