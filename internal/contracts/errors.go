package contracts

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors forming the failure taxonomy. Adapters wrap these with
// %w so the orchestrator can classify without knowing source internals.
var (
	// ErrSourceUnavailable marks transient upstream failures (network,
	// timeout, 5xx, rate limit). Retryable.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrAuthentication marks credential rejection. Not retryable;
	// retrying risks account lockout.
	ErrAuthentication = errors.New("authentication failed")

	// ErrSessionExpired marks a previously valid session going stale.
	// Adapters re-authenticate once before surfacing this.
	ErrSessionExpired = errors.New("session expired")

	// ErrDataValidation marks structurally broken upstream data.
	// Not retryable; the payload will not fix itself.
	ErrDataValidation = errors.New("data validation failed")

	// ErrNoValidLineup marks an optimizer run that satisfied no
	// constraint set. A business outcome, not a system fault.
	ErrNoValidLineup = errors.New("no valid lineup")
)

// FailureClass drives the orchestrator's retry/escalation policy
type FailureClass int

const (
	// ClassTransient failures are retried with backoff
	ClassTransient FailureClass = iota
	// ClassFatal failures abort the run and escalate immediately
	ClassFatal
	// ClassBusiness outcomes are recorded without escalation
	ClassBusiness
)

func (c FailureClass) String() string {
	switch c {
	case ClassTransient:
		return "transient"
	case ClassFatal:
		return "fatal"
	case ClassBusiness:
		return "business"
	}
	return "unknown"
}

// Classify maps an error onto the failure policy. Unrecognized errors
// are treated as transient so a new failure mode gets retried rather
// than silently dropped.
func Classify(err error) FailureClass {
	switch {
	case errors.Is(err, ErrAuthentication), errors.Is(err, ErrDataValidation):
		return ClassFatal
	case errors.Is(err, ErrNoValidLineup):
		return ClassBusiness
	case errors.Is(err, ErrSessionExpired), errors.Is(err, ErrSourceUnavailable):
		return ClassTransient
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ClassTransient
	default:
		return ClassTransient
	}
}

// SourceErr wraps err as a transient source failure
func SourceErr(source string, err error) error {
	return fmt.Errorf("%s: %w: %v", source, ErrSourceUnavailable, err)
}

// ValidationErr wraps a description as a fatal validation failure
func ValidationErr(source, detail string) error {
	return fmt.Errorf("%s: %w: %s", source, ErrDataValidation, detail)
}
