// Package errors provides classified error handling for bridge
// components: shared sentinels, a transient/invalid/fatal taxonomy, and
// wrap helpers that stamp component and operation context.
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kimit0310/MoBI-Physio-API/pkg/retry"
)

// ErrorClass tells callers how to react to a failure: retry it, fix
// the input, or stop.
type ErrorClass int

const (
	// ErrorTransient represents temporary errors that may be retried
	ErrorTransient ErrorClass = iota
	// ErrorInvalid represents errors due to invalid input or configuration
	ErrorInvalid
	// ErrorFatal represents unrecoverable errors that should stop processing
	ErrorFatal
)

// String returns the string representation of ErrorClass
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorTransient:
		return "transient"
	case ErrorInvalid:
		return "invalid"
	case ErrorFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Standard error variables for common conditions
var (
	// Component and session lifecycle errors
	ErrAlreadyStarted = errors.New("component already started")
	ErrNotStarted     = errors.New("component not started")
	ErrAlreadyStopped = errors.New("component already stopped")
	ErrShuttingDown   = errors.New("component is shutting down")
	ErrInvalidState   = errors.New("operation not allowed in current state")

	// Device link errors
	ErrNoConnection      = errors.New("no connection available")
	ErrConnectionLost    = errors.New("connection lost")
	ErrConnectionTimeout = errors.New("connection timeout")
	ErrLinkRead          = errors.New("device link read failed")
	ErrDriverUnavailable = errors.New("device driver not registered")

	// Discovery and data errors
	ErrNoSensors     = errors.New("no populated sensor ports detected")
	ErrInvalidData   = errors.New("invalid data format")
	ErrParsingFailed = errors.New("parsing failed")

	// Streaming errors
	ErrSinkOpen       = errors.New("sink open failed")
	ErrSinkClosed     = errors.New("sink closed")
	ErrStreamExists   = errors.New("stream identity already registered")
	ErrStreamingFault = errors.New("streaming fault")

	// Storage errors
	ErrBucketNotFound = errors.New("bucket not found")
	ErrKeyNotFound    = errors.New("key not found")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrMissingConfig = errors.New("missing required configuration")

	// Circuit breaker and retry errors
	ErrCircuitOpen        = errors.New("circuit breaker open")
	ErrMaxRetriesExceeded = errors.New("maximum retries exceeded")
	ErrRetryTimeout       = errors.New("retry timeout exceeded")
)

// Sentinels and message fragments that place an unclassified error
// into a class. Fragments catch errors from third-party code that
// never saw our sentinels.
var (
	transientSentinels = []error{
		ErrConnectionTimeout,
		ErrConnectionLost,
		ErrLinkRead,
		ErrCircuitOpen,
		context.DeadlineExceeded,
		context.Canceled,
	}
	transientFragments = []string{
		"timeout", "connection", "network", "temporary",
		"unavailable", "busy", "retry",
	}

	fatalSentinels = []error{
		ErrInvalidConfig,
		ErrMissingConfig,
		ErrDriverUnavailable,
		ErrStreamingFault,
	}
	fatalFragments = []string{
		"fatal", "panic", "corrupted", "invalid config",
		"missing config", "out of memory", "disk full",
	}

	invalidSentinels = []error{
		ErrInvalidState,
		ErrInvalidData,
		ErrNoSensors,
		ErrStreamExists,
		ErrParsingFailed,
	}
)

// ClassifiedError wraps an error with its classification
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Message   string
	Component string
	Operation string
}

// Error implements the error interface
func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

// Unwrap returns the underlying error
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// classifiedAs reports whether err carries an explicit classification,
// and if so whether it matches class.
func classifiedAs(err error, class ErrorClass) (matches, classified bool) {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == class, true
	}
	return false, false
}

func isAnyOf(err error, sentinels []error) bool {
	for _, sentinel := range sentinels {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func containsAnyOf(err error, fragments []string) bool {
	msg := strings.ToLower(err.Error())
	for _, fragment := range fragments {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}

// IsTransient checks if an error is temporary and worth retrying
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if matches, classified := classifiedAs(err, ErrorTransient); classified {
		return matches
	}
	return isAnyOf(err, transientSentinels) || containsAnyOf(err, transientFragments)
}

// IsFatal checks if an error is unrecoverable and should stop processing
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if matches, classified := classifiedAs(err, ErrorFatal); classified {
		return matches
	}
	return isAnyOf(err, fatalSentinels) || containsAnyOf(err, fatalFragments)
}

// IsInvalid checks if an error is due to invalid input
func IsInvalid(err error) bool {
	if err == nil {
		return false
	}
	if matches, classified := classifiedAs(err, ErrorInvalid); classified {
		return matches
	}
	return isAnyOf(err, invalidSentinels)
}

// Classify returns the error class for an error. Unknown errors come
// back transient so callers err on the side of retrying.
func Classify(err error) ErrorClass {
	if err == nil {
		return ErrorTransient
	}

	if IsTransient(err) {
		return ErrorTransient
	}
	if IsFatal(err) {
		return ErrorFatal
	}
	if IsInvalid(err) {
		return ErrorInvalid
	}

	return ErrorTransient
}

// Wrap adds "component.method: action failed" context around err.
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

func wrapClassified(class ErrorClass, err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrapped := Wrap(err, component, method, action)
	return &ClassifiedError{
		Class:     class,
		Err:       wrapped,
		Message:   wrapped.Error(),
		Component: component,
		Operation: method,
	}
}

// WrapTransient wraps an error as transient with context
func WrapTransient(err error, component, method, action string) error {
	return wrapClassified(ErrorTransient, err, component, method, action)
}

// WrapFatal wraps an error as fatal with context
func WrapFatal(err error, component, method, action string) error {
	return wrapClassified(ErrorFatal, err, component, method, action)
}

// WrapInvalid wraps an error as invalid with context
func WrapInvalid(err error, component, method, action string) error {
	return wrapClassified(ErrorInvalid, err, component, method, action)
}

// RetryConfig defines configuration for retry operations
type RetryConfig struct {
	MaxRetries      int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffFactor   float64
	RetryableErrors []error
}

// DefaultRetryConfig returns the retry posture most bridge operations
// use: three quick attempts with exponential backoff.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialDelay:    100 * time.Millisecond,
		MaxDelay:        5 * time.Second,
		BackoffFactor:   2.0,
		RetryableErrors: nil, // nil means any transient error qualifies
	}
}

// ShouldRetry decides whether the attempt-th retry of err is worth
// making under this config.
func (rc RetryConfig) ShouldRetry(err error, attempt int) bool {
	if err == nil || attempt >= rc.MaxRetries {
		return false
	}

	if !IsTransient(err) {
		return false
	}

	// An explicit allowlist narrows retries to those sentinels only
	if len(rc.RetryableErrors) > 0 {
		return isAnyOf(err, rc.RetryableErrors)
	}

	return true
}

// ToRetryConfig converts to the pkg/retry Config so classified errors
// can drive the shared retry loop. MaxRetries counts additional
// attempts, retry.Config counts total attempts, hence the +1.
func (rc RetryConfig) ToRetryConfig() retry.Config {
	return retry.Config{
		MaxAttempts:  rc.MaxRetries + 1,
		InitialDelay: rc.InitialDelay,
		MaxDelay:     rc.MaxDelay,
		Multiplier:   rc.BackoffFactor,
		AddJitter:    true,
	}
}

// BackoffDelay calculates the delay before the given retry attempt
func (rc RetryConfig) BackoffDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return rc.InitialDelay
	}

	delay := rc.InitialDelay
	for i := 0; i < attempt; i++ {
		delay = time.Duration(float64(delay) * rc.BackoffFactor)
		if delay > rc.MaxDelay {
			delay = rc.MaxDelay
			break
		}
	}

	return delay
}
