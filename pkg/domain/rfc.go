package domain

import (
	"strings"
	"unicode"

	dErrors "rfcheck/pkg/domain-errors"
)

// RFC lengths: legal entities (personas morales) carry a 3-letter prefix,
// individuals (personas físicas) a 4-letter one.
const (
	EntityRFCLength = 12
	PersonRFCLength = 13

	// MaxRFCInputLength bounds raw input before normalization.
	MaxRFCInputLength = 64
)

// Generic RFCs published by the tax authority for over-the-counter invoicing.
const (
	GenericNationalRFC = "XAXX010101000"
	GenericForeignRFC  = "XEXX010101000"
)

// RFC is a normalized, format-valid taxpayer identifier. The zero value is
// not a valid RFC; construct one with ParseRFC.
type RFC string

// ParseRFC normalizes input and enforces the strict format grammar.
func ParseRFC(input string) (RFC, error) {
	if len(input) > MaxRFCInputLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, "rfc exceeds maximum length")
	}
	n := NormalizeRFC(input)
	if n == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "rfc is required")
	}
	if !IsValidFormatStrict(n) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid format")
	}
	return RFC(n), nil
}

func (r RFC) String() string {
	return string(r)
}

// IsPerson reports whether the RFC belongs to an individual.
func (r RFC) IsPerson() bool {
	return len(r) == PersonRFCLength
}

// IsEntity reports whether the RFC belongs to a legal entity.
func (r RFC) IsEntity() bool {
	return len(r) == EntityRFCLength
}

// IsGeneric reports whether r is one of the public generic RFCs.
func (r RFC) IsGeneric() bool {
	return r == GenericNationalRFC || r == GenericForeignRFC
}

// NormalizeRFC strips every whitespace rune and uppercases the rest.
func NormalizeRFC(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// IsValidFormatStrict checks length, charset [A-Z0-9] and the embedded YYMMDD
// date. Input must already be normalized.
//
// Feb 29 is accepted when YY is divisible by 4. Year 00 is read as 2000, the
// only century year in range where 19YY and 20YY differ in leapness.
func IsValidFormatStrict(rfc string) bool {
	var dateAt int
	switch len(rfc) {
	case EntityRFCLength:
		dateAt = 3
	case PersonRFCLength:
		dateAt = 4
	default:
		return false
	}
	for i := 0; i < len(rfc); i++ {
		c := rfc[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return validDateFragment(rfc[dateAt : dateAt+6])
}

func validDateFragment(s string) bool {
	yy, ok := twoDigits(s[0:2])
	if !ok {
		return false
	}
	mm, ok := twoDigits(s[2:4])
	if !ok {
		return false
	}
	dd, ok := twoDigits(s[4:6])
	if !ok {
		return false
	}
	if mm < 1 || mm > 12 || dd < 1 {
		return false
	}
	return dd <= daysIn(mm, yy)
}

func twoDigits(s string) (int, bool) {
	if s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, false
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), true
}

func daysIn(month, yy int) int {
	switch month {
	case 2:
		if yy%4 == 0 {
			return 29
		}
		return 28
	case 4, 6, 9, 11:
		return 30
	default:
		return 31
	}
}
