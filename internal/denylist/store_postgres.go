package denylist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"rfcheck/pkg/platform/tx"
)

// PostgresStore reads the rfc_denylist table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Lookup(ctx context.Context, rfc string) (Entry, error) {
	var status, description string
	err := tx.QuerierFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT status, description FROM rfc_denylist WHERE rfc = $1`, rfc,
	).Scan(&status, &description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Clean(rfc), nil
		}
		return Entry{}, fmt.Errorf("lookup denylist: %w", err)
	}
	st, err := ParseStatus(status)
	if err != nil {
		return Entry{}, fmt.Errorf("lookup denylist: %w", err)
	}
	return Entry{RFC: rfc, Status: st, Description: description}, nil
}

// Upsert inserts or replaces an entry.
func (s *PostgresStore) Upsert(ctx context.Context, e Entry) error {
	if !e.Status.IsValid() {
		return fmt.Errorf("upsert denylist: invalid status %q", e.Status)
	}
	_, err := tx.QuerierFrom(ctx, s.db).ExecContext(ctx, `
		INSERT INTO rfc_denylist (rfc, status, description)
		VALUES ($1, $2, $3)
		ON CONFLICT (rfc) DO UPDATE SET status = EXCLUDED.status, description = EXCLUDED.description`,
		e.RFC, string(e.Status), e.Description,
	)
	if err != nil {
		return fmt.Errorf("upsert denylist: %w", err)
	}
	return nil
}

// Seed upserts entries in a single transaction, typically SeedEntries on
// first start. Any failure leaves the table untouched.
func (s *PostgresStore) Seed(ctx context.Context, entries []Entry) error {
	return tx.Run(ctx, s.db, func(ctx context.Context) error {
		for _, e := range entries {
			if err := s.Upsert(ctx, e); err != nil {
				return err
			}
		}
		return nil
	})
}
