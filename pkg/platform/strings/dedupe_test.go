package strings

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{"nil slice", nil, nil},
		{"empty slice", []string{}, []string{}},
		{"trims and drops blanks", []string{"  10.0.0.1 ", "", "   "}, []string{"10.0.0.1"}},
		{"keeps first occurrence", []string{"b", "a", " b", "a "}, []string{"b", "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrim(tt.input))
		})
	}
}

func TestDedupeBy(t *testing.T) {
	upper := func(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

	got := DedupeBy([]string{"gode561231gr8", " GODE561231GR8", "xaxx010101000", ""}, upper)

	assert.Equal(t, []string{"GODE561231GR8", "XAXX010101000"}, got)
}
