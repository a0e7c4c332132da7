// Package audit records security and compliance relevant actions. Every
// event is logged; when a sink is configured it is also shipped there.
package audit

import (
	"time"

	id "rfcheck/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
type EventCategory string

const (
	// CategoryCompliance covers key lifecycle changes.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers quota enforcement and credential rejections.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine validation traffic.
	CategoryOperations EventCategory = "operations"
)

type Action string

const (
	ActionRFCValidated      Action = "rfc_validated"
	ActionBulkValidated     Action = "bulk_validated"
	ActionRateLimitExceeded Action = "rate_limit_exceeded"
	ActionAPIKeyIssued      Action = "api_key_issued"
	ActionAPIKeyRevoked     Action = "api_key_revoked"
	ActionAuthFailed        Action = "auth_failed"
)

// Category returns the default category for an action.
func (a Action) Category() EventCategory {
	switch a {
	case ActionRateLimitExceeded, ActionAuthFailed:
		return CategorySecurity
	case ActionAPIKeyIssued, ActionAPIKeyRevoked:
		return CategoryCompliance
	default:
		return CategoryOperations
	}
}

// Event is transport-agnostic so sinks can fan out.
type Event struct {
	Action     Action        `json:"action"`
	Category   EventCategory `json:"category"`
	Timestamp  time.Time     `json:"timestamp"`
	CallerKind id.CallerKind `json:"caller_kind,omitempty"`
	CallerID   string        `json:"caller_id,omitempty"`
	// Subject is what the action was about: an RFC, a key id or a bucket key.
	Subject   string `json:"subject,omitempty"`
	Decision  string `json:"decision,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Count     int    `json:"count,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}
