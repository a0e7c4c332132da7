//go:build integration

package apikeys_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"rfcheck/internal/apikeys"
	"rfcheck/internal/platform/postgres"
	id "rfcheck/pkg/domain"
	"rfcheck/pkg/platform/sentinel"
	"rfcheck/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *apikeys.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.Require().NoError(postgres.Migrate(context.Background(), s.postgres.DB))
	s.store = apikeys.NewPostgresStore(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.Truncate(context.Background(), "api_keys"))
}

func newKey(owner id.UserID, hash string, at time.Time) apikeys.Key {
	return apikeys.Key{
		ID:        id.APIKeyID(uuid.New()),
		OwnerID:   owner,
		Name:      "svc",
		Prefix:    "rfk_abcdef",
		Hash:      hash,
		CreatedAt: at,
	}
}

func (s *PostgresStoreSuite) TestCreateFindRevoke() {
	ctx := context.Background()
	owner := id.UserID(uuid.New())
	created := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	key := newKey(owner, "hash-1", created)
	s.Require().NoError(s.store.Create(ctx, key))

	found, err := s.store.FindByHash(ctx, "hash-1")
	s.Require().NoError(err)
	s.Equal(key.ID, found.ID)
	s.Equal(owner, found.OwnerID)
	s.False(found.Revoked())

	revokedAt := created.Add(time.Hour)
	s.Require().NoError(s.store.Revoke(ctx, owner, key.ID, revokedAt))
	s.Require().NoError(s.store.Revoke(ctx, owner, key.ID, revokedAt.Add(time.Hour)))

	found, err = s.store.FindByHash(ctx, "hash-1")
	s.Require().NoError(err)
	s.Require().True(found.Revoked())
	s.True(found.RevokedAt.Equal(revokedAt), "first revocation time is kept")
}

func (s *PostgresStoreSuite) TestNotFoundAndConflict() {
	ctx := context.Background()
	owner := id.UserID(uuid.New())

	_, err := s.store.FindByHash(ctx, "missing")
	s.True(errors.Is(err, sentinel.ErrNotFound))

	err = s.store.Revoke(ctx, owner, id.APIKeyID(uuid.New()), time.Now())
	s.True(errors.Is(err, sentinel.ErrNotFound))

	s.Require().NoError(s.store.Create(ctx, newKey(owner, "dup", time.Now())))
	err = s.store.Create(ctx, newKey(owner, "dup", time.Now()))
	s.True(errors.Is(err, sentinel.ErrConflict))
}

func (s *PostgresStoreSuite) TestListByOwner() {
	ctx := context.Background()
	owner := id.UserID(uuid.New())
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.Create(ctx, newKey(owner, "h2", base.Add(time.Minute))))
	s.Require().NoError(s.store.Create(ctx, newKey(owner, "h1", base)))
	s.Require().NoError(s.store.Create(ctx, newKey(id.UserID(uuid.New()), "h3", base)))

	keys, err := s.store.ListByOwner(ctx, owner)
	s.Require().NoError(err)
	s.Require().Len(keys, 2)
	s.Equal("h1", keys[0].Hash)
}
