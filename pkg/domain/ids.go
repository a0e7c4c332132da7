package domain

import (
	"github.com/google/uuid"

	dErrors "rfcheck/pkg/domain-errors"
)

// Typed identifiers keep user and API key IDs from being swapped at call sites.
type (
	UserID   uuid.UUID
	APIKeyID uuid.UUID
)

func (id UserID) String() string   { return uuid.UUID(id).String() }
func (id APIKeyID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id APIKeyID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// MarshalText keeps the canonical UUID form in JSON and logs.
func (id UserID) MarshalText() ([]byte, error)   { return uuid.UUID(id).MarshalText() }
func (id APIKeyID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *UserID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id *APIKeyID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

// ParseUserID parses a non-nil UUID user identifier.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user ID")
	return UserID(u), err
}

// ParseAPIKeyID parses a non-nil UUID API key identifier.
func ParseAPIKeyID(s string) (APIKeyID, error) {
	u, err := parseUUID(s, "api key ID")
	return APIKeyID(u), err
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return u, nil
}
