// Package outcome carries reason-coded stage results. A stage that cannot
// produce its value returns an Error naming why, and the caller picks the
// fallback from the reason instead of intercepting failures further up.
package outcome

import (
	"errors"
	"fmt"

	"github.com/samber/mo"
)

// Reason is a stable code describing why a stage produced no value.
type Reason string

const (
	ProviderFailed  Reason = "provider_failed"
	MalformedOutput Reason = "malformed_output"
	Empty           Reason = "empty"
	NoMatch         Reason = "no_match"
	Unavailable     Reason = "unavailable"
	Internal        Reason = "internal"
)

// Error pairs a Reason with the underlying cause (which may be nil).
type Error struct {
	Reason Reason
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Reason)
	}
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Fail builds a failed result for the given reason.
func Fail[T any](reason Reason, err error) mo.Result[T] {
	return mo.Err[T](&Error{Reason: reason, Err: err})
}

// Failf is Fail with a formatted cause.
func Failf[T any](reason Reason, format string, args ...any) mo.Result[T] {
	return Fail[T](reason, fmt.Errorf(format, args...))
}

// ReasonOf extracts the Reason from err. Errors that are not *Error map to
// Internal; a nil error maps to "".
func ReasonOf(err error) Reason {
	if err == nil {
		return ""
	}
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Reason
	}
	return Internal
}

// Recovered converts a recovered panic value into an Internal error.
func Recovered(v any) error {
	if err, ok := v.(error); ok {
		return &Error{Reason: Internal, Err: err}
	}
	return &Error{Reason: Internal, Err: fmt.Errorf("%v", v)}
}

// Guard runs stage and converts a panic inside it into an Internal failure.
func Guard[T any](stage func() mo.Result[T]) (res mo.Result[T]) {
	defer func() {
		if v := recover(); v != nil {
			res = mo.Err[T](Recovered(v))
		}
	}()
	return stage()
}
