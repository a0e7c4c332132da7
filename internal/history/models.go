// Package history keeps a per-caller log of completed validations.
package history

import (
	"time"

	"github.com/google/uuid"

	"rfcheck/internal/validation/models"
	"rfcheck/pkg/domain"
)

// DefaultLimit bounds ListByCaller when the caller asks for nothing specific.
const DefaultLimit = 50

// MaxLimit is the largest page ListByCaller serves.
const MaxLimit = 500

// Record is one completed validation.
type Record struct {
	ID        uuid.UUID     `json:"id"`
	CallerID  string        `json:"-"`
	RFC       string        `json:"rfc"`
	Success   bool          `json:"success"`
	Valid     *bool         `json:"valid"`
	Message   string        `json:"message"`
	Source    models.Source `json:"source,omitempty"`
	CheckedAt time.Time     `json:"checkedAt"`
}

// FromVerdict builds the record for v as seen by callerID at now.
func FromVerdict(callerID string, v *models.Verdict, now time.Time) Record {
	return Record{
		ID:        uuid.New(),
		CallerID:  callerID,
		RFC:       v.RFC,
		Success:   v.Success,
		Valid:     v.Valid,
		Message:   v.Message,
		Source:    v.Source,
		CheckedAt: now,
	}
}

// ClampLimit maps a requested page size into [1, MaxLimit], with
// DefaultLimit for zero or negative input.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// OwnerKey is the history partition for caller. API key traffic is filed
// under the key's owner so a user sees every validation made on their behalf.
func OwnerKey(caller domain.Caller) string {
	return caller.OwnerID.String()
}
