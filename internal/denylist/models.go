// Package denylist classifies RFCs against the published lists of
// problematic taxpayers. The classification is independent of format and
// registry validity.
package denylist

import (
	dErrors "rfcheck/pkg/domain-errors"
)

// Status is the list an RFC appears on.
type Status string

const (
	StatusClean Status = "CLEAN"
	// StatusEFO: issues invoices for simulated operations.
	StatusEFO Status = "EFO"
	// StatusEDO: deducts simulated operations.
	StatusEDO Status = "EDO"
	// StatusNotLocated: taxpayer not found at the registered address.
	StatusNotLocated Status = "NO_LOCALIZADO"
	// StatusUnknown is reported when the lookup itself failed.
	StatusUnknown Status = "UNKNOWN"
)

// CleanDescription accompanies every CLEAN entry.
const CleanDescription = "sin coincidencias en listas"

func (s Status) IsValid() bool {
	switch s {
	case StatusClean, StatusEFO, StatusEDO, StatusNotLocated:
		return true
	}
	return false
}

// ParseStatus validates a stored status value.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid denylist status: "+s)
	}
	return st, nil
}

type Entry struct {
	RFC         string `json:"rfc"`
	Status      Status `json:"status"`
	Description string `json:"description"`
}

// Clean is the entry for an RFC on no list.
func Clean(rfc string) Entry {
	return Entry{RFC: rfc, Status: StatusClean, Description: CleanDescription}
}
