package models

import (
	"time"

	dErrors "rfcheck/pkg/domain-errors"
)

// Operation is the quota bucket a route draws from.
type Operation string

const (
	OperationValidate Operation = "validate"
	OperationBulk     Operation = "bulk"
)

// IsValid checks if the operation is one of the supported enum values.
func (o Operation) IsValid() bool {
	return o == OperationValidate || o == OperationBulk
}

// ParseOperation validates a raw operation name.
func ParseOperation(s string) (Operation, error) {
	op := Operation(s)
	if !op.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid rate limit operation: must be 'validate' or 'bulk'")
	}
	return op, nil
}

// Policy is a fixed-window quota. Limit <= 0 denies every call.
type Policy struct {
	Limit  int
	Window time.Duration
}

// Result is the outcome of one CheckAndIncrement. Allowed, Remaining and
// ResetSeconds map onto the X-RateLimit-* and Retry-After headers as is.
type Result struct {
	Allowed      bool      `json:"allowed"`
	Limit        int       `json:"limit"`
	Remaining    int       `json:"remaining"`
	ResetSeconds int       `json:"reset_seconds"`
	ResetAt      time.Time `json:"reset_at"`
	RetryAfter   int       `json:"retry_after,omitempty"` // seconds, only set when not allowed
}

// Unlimited is returned for allowlisted callers.
func Unlimited(now time.Time) *Result {
	return &Result{Allowed: true, Limit: 0, Remaining: 0, ResetAt: now}
}

// RateLimitExceededResponse is the 429 body.
type RateLimitExceededResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"`
}
