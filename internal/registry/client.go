package registry

import (
	"context"

	"rfcheck/pkg/domain"
)

// Client fetches the raw registry answer for a format-valid RFC.
type Client interface {
	Fetch(ctx context.Context, rfc domain.RFC) (*RawResponse, error)
}
