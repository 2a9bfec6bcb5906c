package device

import (
	"fmt"
	"time"

	errs "github.com/kimit0310/MoBI-Physio-API/errors"
)

// TimeoutError reports that the connect budget was exhausted before a
// link came up. It unwraps to errs.ErrConnectionTimeout, so callers
// classify it as transient and may retry the whole session.
type TimeoutError struct {
	// Addr is the device address that was dialed.
	Addr string

	// Elapsed is how long the session spent dialing.
	Elapsed time.Duration

	// Attempts is how many dial attempts were made.
	Attempts int

	// Err is the error from the final attempt.
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("connect to %s timed out after %s (%d attempts): %v", e.Addr, e.Elapsed.Round(time.Millisecond), e.Attempts, e.Err)
}

func (e *TimeoutError) Unwrap() error {
	return errs.ErrConnectionTimeout
}

// InvalidStateError reports an operation called outside its required
// session state. The session is left exactly as it was. It unwraps to
// errs.ErrInvalidState.
type InvalidStateError struct {
	// Op is the rejected operation.
	Op string

	// State is the session state at the time of the call.
	State State
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s: operation not allowed in state %s", e.Op, e.State)
}

func (e *InvalidStateError) Unwrap() error {
	return errs.ErrInvalidState
}
