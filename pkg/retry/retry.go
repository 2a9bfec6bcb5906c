package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

// NonRetryableError marks an error that should fail immediately instead
// of consuming the remaining attempts.
type NonRetryableError struct {
	Err error
}

func (e *NonRetryableError) Error() string {
	return fmt.Sprintf("non-retryable: %v", e.Err)
}

func (e *NonRetryableError) Unwrap() error {
	return e.Err
}

// NonRetryable wraps an error so Do stops retrying when it sees it.
func NonRetryable(err error) error {
	if err == nil {
		return nil
	}
	return &NonRetryableError{Err: err}
}

// IsNonRetryable checks if an error is marked as non-retryable.
func IsNonRetryable(err error) bool {
	var nre *NonRetryableError
	return errors.As(err, &nre)
}

// Config provides retry configuration
type Config struct {
	MaxAttempts  int           // total attempts including the first (0 means run once)
	InitialDelay time.Duration // delay before the first retry
	MaxDelay     time.Duration // ceiling for the backoff
	Multiplier   float64       // backoff growth factor, typically 2.0
	AddJitter    bool          // spread retries to avoid thundering herd
}

// DefaultConfig returns sensible defaults for retry operations.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		AddJitter:    true,
	}
}

// Quick returns a config for fast retries during startup.
func Quick() Config {
	return Config{
		MaxAttempts:  10,
		InitialDelay: 50 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   1.5,
		AddJitter:    true,
	}
}

// Persistent returns a config for long-running retries against critical
// resources.
func Persistent() Config {
	return Config{
		MaxAttempts:  30,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		AddJitter:    true,
	}
}

// Fixed returns a config that retries at a constant interval with no
// jitter, for device dial loops where the cadence is part of the contract.
func Fixed(attempts int, interval time.Duration) Config {
	return Config{
		MaxAttempts:  attempts,
		InitialDelay: interval,
		MaxDelay:     interval,
		Multiplier:   1.0,
		AddJitter:    false,
	}
}

// normalize validates the config and fills in defaults for zero fields.
func (cfg *Config) normalize() error {
	switch {
	case cfg.InitialDelay < 0:
		return errors.New("retry: InitialDelay cannot be negative")
	case cfg.MaxDelay < 0:
		return errors.New("retry: MaxDelay cannot be negative")
	case cfg.Multiplier < 0:
		return errors.New("retry: Multiplier cannot be negative")
	}

	if cfg.Multiplier > 1000 {
		cfg.Multiplier = 1000
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.InitialDelay == 0 {
		cfg.InitialDelay = 100 * time.Millisecond
	}
	if cfg.MaxDelay == 0 {
		cfg.MaxDelay = 5 * time.Second
	}
	if cfg.Multiplier == 0 {
		cfg.Multiplier = 2.0
	}

	if cfg.MaxDelay < cfg.InitialDelay {
		return errors.New("retry: MaxDelay must be >= InitialDelay")
	}
	return nil
}

// nextDelay grows delay by the multiplier, clamped to MaxDelay. The
// float comparison also catches overflow past the Duration range.
func (cfg *Config) nextDelay(delay time.Duration) time.Duration {
	grown := float64(delay) * cfg.Multiplier
	if grown > float64(cfg.MaxDelay) || grown > float64(time.Duration(1<<63-1)) {
		return cfg.MaxDelay
	}
	return time.Duration(grown)
}

// sleepFor returns the backoff duration for delay, jittered up to 25%
// when the config asks for it.
func (cfg *Config) sleepFor(delay time.Duration) time.Duration {
	if !cfg.AddJitter || delay < 4 {
		return delay
	}
	return delay + time.Duration(rand.Int64N(int64(delay/4)))
}

// Do runs fn until it succeeds, returns a non-retryable error, the
// context is cancelled, or the attempts run out.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	if err := cfg.normalize(); err != nil {
		return err
	}

	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if IsNonRetryable(lastErr) {
			return lastErr
		}
		if ctx.Err() != nil {
			return fmt.Errorf("retry cancelled before attempt %d: %w", attempt, ctx.Err())
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		timer := time.NewTimer(cfg.sleepFor(delay))
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry cancelled during backoff for attempt %d: %w", attempt+1, ctx.Err())
		case <-timer.C:
		}

		delay = cfg.nextDelay(delay)
	}

	return fmt.Errorf("retry failed after %d attempts: %w", cfg.MaxAttempts, lastErr)
}

// DoWithResult is Do for operations that produce a value.
func DoWithResult[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	var result T
	err := Do(ctx, cfg, func() error {
		var innerErr error
		result, innerErr = fn()
		return innerErr
	})
	return result, err
}
