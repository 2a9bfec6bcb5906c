// Package errors provides standardized error handling for bridge components.
//
// Every error in the bridge falls into one of three classes: Transient
// (temporary, retry), Invalid (bad input, do not retry), and Fatal
// (unrecoverable, stop). Classification drives retry decisions without
// components matching on error strings themselves.
//
// # Classification
//
// Classify, IsTransient, IsFatal, and IsInvalid inspect an error chain.
// An explicit ClassifiedError wins; otherwise sentinel identity and, as
// a last resort, message content decide. Unknown errors classify as
// transient so callers err on the side of retrying. Context errors
// (context.DeadlineExceeded, context.Canceled) are transient, so a
// cancelled dial and a network timeout take the same path.
//
//	if err := operation(); err != nil {
//	    switch {
//	    case errors.IsFatal(err):
//	        return err // stop the session
//	    case errors.IsTransient(err):
//	        // back off and retry
//	    }
//	}
//
// # Sentinels
//
// Common conditions have package variables, grouped by concern: session
// lifecycle (ErrInvalidState, ErrAlreadyStarted), device link
// (ErrConnectionTimeout, ErrLinkRead, ErrDriverUnavailable), discovery
// (ErrNoSensors, ErrInvalidData), and streaming (ErrSinkOpen,
// ErrStreamExists, ErrStreamingFault). Return these instead of ad hoc
// messages so callers can test with errors.Is:
//
//	if len(channels) == 0 {
//	    return errors.ErrNoSensors
//	}
//
// # Wrapping
//
// Wrap adds call-site context in one fixed shape:
//
//	"component.method: action failed: %w"
//
//	if err := link.Start(ctx, rate, ports); err != nil {
//	    return errors.Wrap(err, "Session", "StartAcquisition", "link start")
//	}
//
// Wrap preserves the inner error's classification. WrapTransient,
// WrapInvalid, and WrapFatal pin a class explicitly, for errors from
// third-party code whose class the caller knows better than the message
// does. Wrapped errors work with errors.Is, errors.As, and Unwrap
// throughout.
//
// # Retry
//
// RetryConfig couples classification to backoff:
//
//	config := errors.DefaultRetryConfig()
//	for attempt := 0; ; attempt++ {
//	    err := operation()
//	    if err == nil {
//	        return nil
//	    }
//	    if !config.ShouldRetry(err, attempt) {
//	        return err
//	    }
//	    time.Sleep(config.BackoffDelay(attempt))
//	}
//
// ToRetryConfig converts to pkg/retry's Config when the shared retry
// loop should drive the attempts instead.
//
// All classification and wrapping operations are safe for concurrent
// use; sentinels are immutable.
package errors
