package suggest

import (
	"errors"
	"fmt"

	"github.com/teemow/inboxcal/internal/instrumentation"
	"github.com/teemow/inboxcal/internal/store"
)

var (
	// ErrNotFound is returned when the candidate or its email does not exist
	// or belongs to another user.
	ErrNotFound = store.ErrNotFound

	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("invalid suggestion request")

	// ErrUpstream matches every *UpstreamError.
	ErrUpstream = errors.New("calendar free/busy lookup failed")
)

// ValidationError reports a request that cannot produce suggestions:
// a non-positive duration, an empty window, an unreadable candidate or
// malformed preferences.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err == nil {
		return "invalid suggestion request: " + e.Reason
	}
	return fmt.Sprintf("invalid suggestion request: %s: %v", e.Reason, e.Err)
}

func (e *ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Err}
}

// UpstreamError wraps a failure of the free/busy collaborator. It is never
// retried here.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("calendar free/busy lookup failed: %v", e.Err)
}

func (e *UpstreamError) Unwrap() []error {
	return []error{ErrUpstream, e.Err}
}

func invalid(reason string, err error) error {
	return &ValidationError{Reason: reason, Err: err}
}

// outcome maps an error to the suggestion outcome label.
func outcome(err error) string {
	switch {
	case err == nil:
		return instrumentation.OutcomeSuccess
	case errors.Is(err, ErrNotFound):
		return instrumentation.OutcomeNotFound
	case errors.Is(err, ErrValidation):
		return instrumentation.OutcomeValidation
	case errors.Is(err, ErrUpstream):
		return instrumentation.OutcomeUpstream
	default:
		return instrumentation.OutcomeInternal
	}
}
