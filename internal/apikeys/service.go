package apikeys

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"rfcheck/internal/audit"
	id "rfcheck/pkg/domain"
	dErrors "rfcheck/pkg/domain-errors"
	"rfcheck/pkg/platform/sentinel"
	"rfcheck/pkg/requestcontext"
)

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
}

type Service struct {
	store   Store
	logger  *slog.Logger
	auditor AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = publisher
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("api key store is required")
	}
	s := &Service{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue creates a key for owner and returns its plaintext. The plaintext is
// not recoverable afterwards.
func (s *Service) Issue(ctx context.Context, owner id.UserID, name string) (*IssuedKey, error) {
	if owner.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "owner is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if len(name) > MaxNameLength {
		return nil, dErrors.New(dErrors.CodeValidation, "name must not exceed 64 characters")
	}

	plaintext, err := generate()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate api key")
	}
	key := Key{
		ID:        id.APIKeyID(uuid.New()),
		OwnerID:   owner,
		Name:      name,
		Prefix:    displayPrefix(plaintext),
		Hash:      Hash(plaintext),
		CreatedAt: requestcontext.Now(ctx),
	}
	if err := s.store.Create(ctx, key); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store api key")
	}

	s.emit(ctx, audit.ActionAPIKeyIssued, owner, key.ID)
	s.logger.InfoContext(ctx, "api key issued",
		"key_id", key.ID.String(),
		"owner_id", owner.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return &IssuedKey{Key: key, Plaintext: plaintext}, nil
}

// Revoke disables keyID. Revoking an already revoked key succeeds.
func (s *Service) Revoke(ctx context.Context, owner id.UserID, keyID id.APIKeyID) error {
	err := s.store.Revoke(ctx, owner, keyID, requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "api key not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke api key")
	}
	s.emit(ctx, audit.ActionAPIKeyRevoked, owner, keyID)
	return nil
}

func (s *Service) List(ctx context.Context, owner id.UserID) ([]Key, error) {
	keys, err := s.store.ListByOwner(ctx, owner)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list api keys")
	}
	if keys == nil {
		keys = []Key{}
	}
	return keys, nil
}

// Resolve returns the active key matching plaintext. Unknown, malformed and
// revoked keys are all unauthorized.
func (s *Service) Resolve(ctx context.Context, plaintext string) (*Key, error) {
	if !LooksLikeKey(plaintext) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid api key")
	}
	key, err := s.store.FindByHash(ctx, Hash(plaintext))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid api key")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve api key")
	}
	if key.Revoked() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "api key has been revoked")
	}
	return key, nil
}

func (s *Service) emit(ctx context.Context, action audit.Action, owner id.UserID, keyID id.APIKeyID) {
	if s.auditor == nil {
		return
	}
	s.auditor.Emit(ctx, audit.Event{
		Action:     action,
		CallerKind: id.CallerUser,
		CallerID:   owner.String(),
		Subject:    keyID.String(),
	})
}
