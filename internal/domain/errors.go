package domain

import (
	"context"
	"errors"
)

// Failure taxonomy shared by source adapters and the model client. Adapters
// wrap one of these so the coordinator and stage runner can classify without
// knowing transport details.
var (
	// ErrUnavailable covers network and transport failures.
	ErrUnavailable = errors.New("unavailable")
	// ErrRateLimited covers HTTP 429 and provider quota signals.
	ErrRateLimited = errors.New("rate limited")
	// ErrMalformed covers payloads that cannot be decoded.
	ErrMalformed = errors.New("malformed response")
	// ErrBudgetExceeded marks stages never attempted because the pipeline
	// wall-clock budget ran out before they could start.
	ErrBudgetExceeded = errors.New("budget exceeded")

	// Configuration errors: the only failures that surface past the
	// coordinator/pipeline boundary besides cancellation.
	ErrNoAdapters = errors.New("no source adapters registered")
	ErrNoStages   = errors.New("no analysis stages declared")
)

// IsTransient reports whether a stage failure is worth retrying: rate
// limits, transport errors and per-attempt timeouts. Cancellation of the
// whole run is never transient.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrUnavailable) ||
		errors.Is(err, context.DeadlineExceeded)
}
