package reconcile

import (
	"errors"
	"fmt"
)

// ErrTxNotFound means a transaction reference is not (yet) visible on chain.
// This is not a failure: the record stays pending and the next pass retries.
var ErrTxNotFound = errors.New("transaction not found on chain")

// ErrPassInProgress is returned by the scheduler when a pass of the same job
// is already running. Overlapping passes of one job type are never allowed.
var ErrPassInProgress = errors.New("pass already in progress")

// ErrUnknownJob is returned when triggering a job name that was never
// registered.
var ErrUnknownJob = errors.New("unknown job")

// TransientError wraps an infrastructure failure (timeout, rate limit, node
// unavailable) whose outcome is unknown. Records touched by a transient
// failure keep their current status and are retried on the next pass.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient: %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// ConfigError is a pass-level precondition failure (missing signing material,
// invalid contract address). The whole pass aborts before any mutation and is
// surfaced to operators rather than retried automatically.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "configuration: " + e.Reason
}

// IsConfigError reports whether err is (or wraps) a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// ValidationError marks a single record as permanently unprocessable
// (unrepresentable amount, malformed destination address). Only that record
// transitions to its terminal rejected state.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("validation: %s: %v", e.Reason, e.Err)
	}
	return "validation: " + e.Reason
}

func (e *ValidationError) Unwrap() error { return e.Err }
