package github

import (
	"errors"
	"fmt"
)

// Error kinds classify API failures for retry and terminal-failure decisions.
const (
	// ErrKindNotFound: the login does not exist. Permanent.
	ErrKindNotFound = "not_found"
	// ErrKindUnauthorized: credentials rejected. Permanent.
	ErrKindUnauthorized = "unauthorized"
	// ErrKindRateLimited: quota exhausted; retry after the reset. Transient.
	ErrKindRateLimited = "rate_limited"
	// ErrKindMalformed: response body could not be decoded. Permanent.
	ErrKindMalformed = "malformed"
	// ErrKindTransient: network failures and 5xx responses. Retryable.
	ErrKindTransient = "transient"
)

// APIError is a classified failure from the external API.
type APIError struct {
	Kind       string
	StatusCode int
	Login      string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("github %s (%s): %v", e.Kind, e.Login, e.Err)
	}
	return fmt.Sprintf("github %s (%s): status %d", e.Kind, e.Login, e.StatusCode)
}

// Unwrap returns the underlying error.
func (e *APIError) Unwrap() error {
	return e.Err
}

// IsPermanent reports whether the error should not be retried and the work
// item should move to failed terminally.
func IsPermanent(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Kind {
	case ErrKindNotFound, ErrKindUnauthorized, ErrKindMalformed:
		return true
	}
	return false
}

// IsRetryable reports whether the error is worth another attempt.
func IsRetryable(err error) bool {
	return !IsPermanent(err)
}

// classifyStatus maps an HTTP status code to an error kind. Rate limiting is
// handled separately because 403 is ambiguous without the quota headers.
func classifyStatus(status int) string {
	switch {
	case status == 404:
		return ErrKindNotFound
	case status == 401:
		return ErrKindUnauthorized
	case status == 429:
		return ErrKindRateLimited
	case status >= 500:
		return ErrKindTransient
	default:
		return ErrKindTransient
	}
}
