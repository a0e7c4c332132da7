// Package registry talks to the government taxpayer registry and turns its
// free-text answers into a structured Result.
package registry

// Outcome is the classified registry answer for one RFC.
type Outcome string

const (
	OutcomeActive        Outcome = "active"
	OutcomeNotRegistered Outcome = "not_registered"
	OutcomeCancelled     Outcome = "cancelled"
	OutcomeSuspended     Outcome = "suspended"
	OutcomeInvalid       Outcome = "invalid"
)

// Valid reports whether the outcome means the RFC can be used for invoicing.
func (o Outcome) Valid() bool {
	return o == OutcomeActive
}

// Message is the human-readable text returned to callers.
func (o Outcome) Message() string {
	switch o {
	case OutcomeActive:
		return "RFC registered and active"
	case OutcomeNotRegistered:
		return "RFC not registered"
	case OutcomeCancelled:
		return "RFC cancelled"
	case OutcomeSuspended:
		return "RFC suspended"
	case OutcomeInvalid:
		return "RFC rejected by registry"
	default:
		return "unknown registry outcome"
	}
}

// RawResponse is what came back over the wire, before parsing.
type RawResponse struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Result is a parsed registry answer. Name, Regime and StartDate are filled
// only when the registry exposed them.
type Result struct {
	Outcome   Outcome
	Valid     bool
	Message   string
	Name      string
	Regime    string
	StartDate string
}
