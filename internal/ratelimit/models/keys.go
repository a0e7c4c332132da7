package models

import (
	"strings"

	"rfcheck/pkg/domain"
)

// SanitizeKeySegment escapes delimiter characters in rate limit key segments
// so an identifier containing ':' cannot address a neighbouring bucket.
//
// Example: an identifier "user:admin" becomes "user_admin".
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}

// Key builds the counter key "{kind}:{id}:{operation}". IPv6 addresses are
// sanitized like any other identifier.
func Key(kind domain.CallerKind, id string, op Operation) string {
	return string(kind) + ":" + SanitizeKeySegment(id) + ":" + string(op)
}
