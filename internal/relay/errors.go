package relay

import (
	"errors"
	"fmt"
)

var (
	// ErrMethodNotAllowed reports a request made with the wrong HTTP method.
	ErrMethodNotAllowed = errors.New("method not allowed")
	// ErrInvalidInput reports a missing, malformed or too-short payload.
	ErrInvalidInput = errors.New("invalid input")
	// ErrClientDisconnected signals that the downstream client went away. It is
	// a stop signal, not a failure to report.
	ErrClientDisconnected = errors.New("client disconnected")
)

// MethodError carries the method a route accepts.
type MethodError struct {
	Method  string
	Allowed string
}

func (e *MethodError) Error() string {
	return fmt.Sprintf("method %s not allowed, expected %s", e.Method, e.Allowed)
}

func (e *MethodError) Unwrap() error { return ErrMethodNotAllowed }

// ValidationError carries a reason that is safe to show to the client.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid input %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// UpstreamCallError wraps a failure talking to the completion API, including
// failures reported mid-stream.
type UpstreamCallError struct {
	Op  string
	Err error
}

func (e *UpstreamCallError) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.Op, e.Err)
}

func (e *UpstreamCallError) Unwrap() error { return e.Err }

// UpstreamDecodeError reports completion text that failed structured decoding.
type UpstreamDecodeError struct {
	Err error
}

func (e *UpstreamDecodeError) Error() string {
	return fmt.Sprintf("decode completion: %v", e.Err)
}

func (e *UpstreamDecodeError) Unwrap() error { return e.Err }
