// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Error kinds raised by the estimation pipeline. Every error returned by
// the pipeline matches exactly one of these with errors.Is.
var (
	// ErrValidation means required request fields are missing. Never retried.
	ErrValidation = errors.New("validation failed")
	// ErrDataAccess means the historical store was unreachable or the query failed.
	ErrDataAccess = errors.New("historical store error")
	// ErrUpstreamConfig means a provider credential or setting is absent.
	ErrUpstreamConfig = errors.New("upstream configuration error")
	// ErrCompletionTransport means the completion call failed on the wire or returned non-2xx.
	ErrCompletionTransport = errors.New("completion transport error")
	// ErrResponseParse means the completion text was not JSON, even after fenced-block extraction.
	ErrResponseParse = errors.New("completion response parse error")
)

// EstimationError carries an error kind together with the operation that
// failed and any detail worth surfacing to the caller.
type EstimationError struct {
	Kind    error
	Err     error
	Op      string
	Details string
}

func (e *EstimationError) Error() string {
	msg := e.Kind.Error()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes both the kind and the cause, so errors.Is works for
// either (e.g. ErrCompletionTransport and context.DeadlineExceeded).
func (e *EstimationError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewError builds an EstimationError of the given kind.
func NewError(kind error, op string, err error) error {
	return &EstimationError{Kind: kind, Op: op, Err: err}
}

// NewErrorWithDetails builds an EstimationError that carries caller-visible details.
func NewErrorWithDetails(kind error, op, details string, err error) error {
	return &EstimationError{Kind: kind, Op: op, Details: details, Err: err}
}

// Details returns the caller-visible details attached to err, if any.
func Details(err error) string {
	var estErr *EstimationError
	if errors.As(err, &estErr) {
		if estErr.Details != "" {
			return estErr.Details
		}
		if estErr.Err != nil {
			return estErr.Err.Error()
		}
	}
	return ""
}

// Kind returns the pipeline error kind of err, or nil when err is not one.
func Kind(err error) error {
	for _, kind := range []error{ErrValidation, ErrDataAccess, ErrUpstreamConfig, ErrCompletionTransport, ErrResponseParse} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// IsRetryable determines if an error should trigger a retry by the caller.
// Store and transport failures are transient; validation, configuration and
// parse failures repeat identically and are not retried.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return errors.Is(err, ErrDataAccess) ||
		errors.Is(err, ErrCompletionTransport) ||
		errors.Is(err, ErrRateLimit)
}
