package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "rfcheck/pkg/domain-errors"
)

// TestParseID_Invariants validates "IDs must be valid, non-nil UUIDs".
//
// Justification: API key and user IDs arrive from URLs and token claims;
// parsing is the trust boundary.
func TestParseID_Invariants(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"SQL injection attempt", "'; DROP TABLE api_keys;--", true},
		{"Null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Empty string", "", true},
		{"Nil UUID", uuid.Nil.String(), true},
		{"Uppercase valid UUID", "550E8400-E29B-41D4-A716-446655440000", false},
		{"Valid UUID lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errUser := ParseUserID(tt.input)
			_, errKey := ParseAPIKeyID(tt.input)
			if tt.wantErr {
				require.Error(t, errUser)
				require.Error(t, errKey)
				assert.True(t, dErrors.HasCode(errUser, dErrors.CodeInvalidInput))
				assert.True(t, dErrors.HasCode(errKey, dErrors.CodeInvalidInput))
				return
			}
			require.NoError(t, errUser)
			require.NoError(t, errKey)
		})
	}
}

func TestTypedIDs_RoundTrip(t *testing.T) {
	raw := uuid.New()
	userID, err := ParseUserID(raw.String())
	require.NoError(t, err)
	assert.Equal(t, raw.String(), userID.String())
	assert.False(t, userID.IsNil())
	assert.True(t, UserID{}.IsNil())
}

func TestTypedIDs_MarshalAsUUIDString(t *testing.T) {
	raw := uuid.New()
	out, err := json.Marshal(struct {
		ID APIKeyID `json:"id"`
	}{ID: APIKeyID(raw)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"`+raw.String()+`"}`, string(out))
}

func TestTypedIDs_UnmarshalText(t *testing.T) {
	raw := uuid.New()
	var got struct {
		ID UserID `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"id":"`+raw.String()+`"}`), &got))
	assert.Equal(t, UserID(raw), got.ID)
}
