package registry

import (
	"errors"
	"fmt"
)

// ErrorCategory is the normalized failure taxonomy for registry calls.
type ErrorCategory string

const (
	// ErrorTimeout: the registry did not answer within the call timeout.
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorBadData: empty, unreadable or unrecognized response body.
	ErrorBadData ErrorCategory = "bad_data"

	// ErrorProviderOutage: connection failure or non-2xx status.
	ErrorProviderOutage ErrorCategory = "provider_outage"

	// ErrorRateLimited: the registry throttled us.
	ErrorRateLimited ErrorCategory = "rate_limited"

	// ErrorInternal: request could not be built.
	ErrorInternal ErrorCategory = "internal"
)

// ProviderError wraps registry failures with a normalized category.
type ProviderError struct {
	Category   ErrorCategory
	ProviderID string
	Message    string
	Underlying error
	Retryable  bool
}

func (e *ProviderError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("provider %s [%s]: %s: %v", e.ProviderID, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("provider %s [%s]: %s", e.ProviderID, e.Category, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Underlying
}

// NewProviderError builds a ProviderError. Timeouts, outages and throttling
// are marked retryable; retrying is left to the caller.
func NewProviderError(category ErrorCategory, providerID, message string, underlying error) *ProviderError {
	return &ProviderError{
		Category:   category,
		ProviderID: providerID,
		Message:    message,
		Underlying: underlying,
		Retryable: category == ErrorTimeout ||
			category == ErrorProviderOutage ||
			category == ErrorRateLimited,
	}
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}

// GetCategory extracts the error category, defaulting to ErrorInternal.
func GetCategory(err error) ErrorCategory {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Category
	}
	return ErrorInternal
}
