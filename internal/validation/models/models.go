// Package models holds the verdict shape returned for every RFC check.
package models

// Source says where a verdict came from.
type Source string

const (
	SourceLive  Source = "live"
	SourceCache Source = "cache"
)

// Messages returned on the non-registry paths.
const (
	MessageInvalidFormat = "invalid format"
	MessageUpstreamError = "upstream error"
	MessageCancelled     = "request cancelled"
)

// Request is one validation ask. UseCache nil means true.
type Request struct {
	RFC          string
	ForceRefresh bool
	UseCache     *bool
}

// CacheEnabled resolves the UseCache tri-state.
func (r Request) CacheEnabled() bool {
	return r.UseCache == nil || *r.UseCache
}

// Verdict is the result of checking one RFC. Valid is nil when the registry
// could not be asked or did not answer.
type Verdict struct {
	Success      bool   `json:"success"`
	Valid        *bool  `json:"valid"`
	RFC          string `json:"rfc"`
	Message      string `json:"message"`
	Source       Source `json:"source,omitempty"`
	ResponseTime int64  `json:"responseTime,omitempty"`
	Cached       bool   `json:"cached"`
	Name         string `json:"name,omitempty"`
	Regime       string `json:"regime,omitempty"`
	StartDate    string `json:"startDate,omitempty"`
}

// IsValid reports a definite positive verdict.
func (v *Verdict) IsValid() bool {
	return v != nil && v.Valid != nil && *v.Valid
}

// Outcome is a low-cardinality label for metrics and audit.
func (v *Verdict) Outcome() string {
	switch {
	case v == nil:
		return "unknown"
	case v.Valid == nil:
		return "error"
	case !v.Success:
		return "invalid_format"
	case *v.Valid:
		return "valid"
	default:
		return "not_valid"
	}
}

func Bool(b bool) *bool {
	return &b
}
