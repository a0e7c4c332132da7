package apikeys

import (
	"context"
	"time"

	id "rfcheck/pkg/domain"
)

// Store persists keys. Lookups that match nothing return sentinel.ErrNotFound.
type Store interface {
	Create(ctx context.Context, key Key) error
	FindByHash(ctx context.Context, hash string) (*Key, error)
	ListByOwner(ctx context.Context, owner id.UserID) ([]Key, error)
	// Revoke marks the key revoked at. It returns sentinel.ErrNotFound when
	// owner has no such key.
	Revoke(ctx context.Context, owner id.UserID, keyID id.APIKeyID, at time.Time) error
}
