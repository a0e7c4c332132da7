package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these, optionally
// wrapped, so services can translate them into domain errors.
//
// - ErrNotFound: key or row does not exist (a cache miss is ErrNotFound)
// - ErrUnavailable: backing store or upstream temporarily unreachable
// - ErrConflict: unique constraint on insert
//
// For validation errors use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrExpired     = errors.New("expired")
	ErrUnavailable = errors.New("unavailable")
)
