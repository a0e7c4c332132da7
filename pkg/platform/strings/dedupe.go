// Package strings cleans list-valued configuration such as allowlists and
// broker addresses.
package strings

import (
	"strings"
)

// DedupeAndTrim removes duplicates and blanks, trimming whitespace from each
// element. Order is preserved.
//
//	DedupeAndTrim([]string{"  10.0.0.1 ", "10.0.0.2", "10.0.0.1", ""})
//	// []string{"10.0.0.1", "10.0.0.2"}
func DedupeAndTrim(values []string) []string {
	return DedupeBy(values, strings.TrimSpace)
}

// DedupeBy applies normalize to each element and keeps the first occurrence
// of every non-empty result. Order is preserved; a nil or empty input comes
// back unchanged.
//
//	DedupeBy([]string{"xaxx 010101 000", "XAXX010101000"}, domain.NormalizeRFC)
//	// []string{"XAXX010101000"}
func DedupeBy(values []string, normalize func(string) string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		n := normalize(v)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		result = append(result, n)
	}
	return result
}
