package denylist

import "context"

// Store looks up the denylist classification of a normalized RFC. RFCs on no
// list come back as Clean, not as an error.
type Store interface {
	Lookup(ctx context.Context, rfc string) (Entry, error)
}
