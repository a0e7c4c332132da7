package apikeys

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "rfcheck/pkg/domain"
	"rfcheck/pkg/platform/sentinel"
	"rfcheck/pkg/platform/tx"
)

// uniqueViolation is the Postgres SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// PostgresStore reads and writes the api_keys table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, key Key) error {
	_, err := tx.QuerierFrom(ctx, s.db).ExecContext(ctx, `
		INSERT INTO api_keys (id, owner_id, name, prefix, key_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.UUID(key.ID), uuid.UUID(key.OwnerID), key.Name, key.Prefix, key.Hash, key.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create api key: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByHash(ctx context.Context, hash string) (*Key, error) {
	row := tx.QuerierFrom(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, owner_id, name, prefix, key_hash, created_at, revoked_at
		FROM api_keys WHERE key_hash = $1`, hash)
	k, err := scanKey(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find api key: %w", err)
	}
	return k, nil
}

func (s *PostgresStore) ListByOwner(ctx context.Context, owner id.UserID) ([]Key, error) {
	rows, err := tx.QuerierFrom(ctx, s.db).QueryContext(ctx, `
		SELECT id, owner_id, name, prefix, key_hash, created_at, revoked_at
		FROM api_keys WHERE owner_id = $1
		ORDER BY created_at`, uuid.UUID(owner))
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	var out []Key
	for rows.Next() {
		k, err := scanKey(rows)
		if err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		out = append(out, *k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Revoke(ctx context.Context, owner id.UserID, keyID id.APIKeyID, at time.Time) error {
	res, err := tx.QuerierFrom(ctx, s.db).ExecContext(ctx, `
		UPDATE api_keys SET revoked_at = COALESCE(revoked_at, $3)
		WHERE id = $1 AND owner_id = $2`,
		uuid.UUID(keyID), uuid.UUID(owner), at,
	)
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanKey(row scanner) (*Key, error) {
	var (
		k         Key
		keyID     uuid.UUID
		ownerID   uuid.UUID
		revokedAt sql.NullTime
	)
	if err := row.Scan(&keyID, &ownerID, &k.Name, &k.Prefix, &k.Hash, &k.CreatedAt, &revokedAt); err != nil {
		return nil, err
	}
	k.ID = id.APIKeyID(keyID)
	k.OwnerID = id.UserID(ownerID)
	if revokedAt.Valid {
		t := revokedAt.Time
		k.RevokedAt = &t
	}
	return &k, nil
}
