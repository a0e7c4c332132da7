package history

import "context"

// Store persists records. ListByCaller returns newest first.
type Store interface {
	Append(ctx context.Context, rec Record) error
	ListByCaller(ctx context.Context, callerID string, limit int) ([]Record, error)
}
