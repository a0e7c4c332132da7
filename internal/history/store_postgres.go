package history

import (
	"context"
	"database/sql"
	"fmt"

	"rfcheck/pkg/platform/tx"
)

// PostgresStore reads and writes the validation_history table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, rec Record) error {
	var valid sql.NullBool
	if rec.Valid != nil {
		valid = sql.NullBool{Bool: *rec.Valid, Valid: true}
	}
	_, err := tx.QuerierFrom(ctx, s.db).ExecContext(ctx, `
		INSERT INTO validation_history (id, caller_id, rfc, success, valid, message, source, checked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.CallerID, rec.RFC, rec.Success, valid, rec.Message, rec.Source, rec.CheckedAt,
	)
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByCaller(ctx context.Context, callerID string, limit int) ([]Record, error) {
	rows, err := tx.QuerierFrom(ctx, s.db).QueryContext(ctx, `
		SELECT id, caller_id, rfc, success, valid, message, source, checked_at
		FROM validation_history
		WHERE caller_id = $1
		ORDER BY checked_at DESC
		LIMIT $2`,
		callerID, ClampLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec   Record
			valid sql.NullBool
		)
		if err := rows.Scan(&rec.ID, &rec.CallerID, &rec.RFC, &rec.Success, &valid, &rec.Message, &rec.Source, &rec.CheckedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if valid.Valid {
			v := valid.Bool
			rec.Valid = &v
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return out, nil
}
