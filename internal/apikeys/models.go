// Package apikeys issues and resolves long-lived API keys. Only the SHA-256
// hash of a key is stored; the plaintext is shown once at issuance.
package apikeys

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"time"

	id "rfcheck/pkg/domain"
)

const (
	// KeyPrefix marks every plaintext key so it is recognizable in logs and
	// secret scanners.
	KeyPrefix = "rfk_"

	// keyEntropyBytes is the random part of a key before encoding.
	keyEntropyBytes = 32

	// displayPrefixLength is how much of the plaintext is kept for listing.
	displayPrefixLength = len(KeyPrefix) + 6

	MaxNameLength = 64
)

// Key is a stored API key.
type Key struct {
	ID        id.APIKeyID `json:"id"`
	OwnerID   id.UserID   `json:"-"`
	Name      string      `json:"name"`
	Prefix    string      `json:"prefix"`
	Hash      string      `json:"-"`
	CreatedAt time.Time   `json:"createdAt"`
	RevokedAt *time.Time  `json:"revokedAt,omitempty"`
}

func (k *Key) Revoked() bool {
	return k.RevokedAt != nil
}

// IssuedKey is returned once, at issuance. Plaintext is never stored.
type IssuedKey struct {
	Key
	Plaintext string `json:"key"`
}

// generate returns a new plaintext key.
func generate() (string, error) {
	buf := make([]byte, keyEntropyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return KeyPrefix + base64.RawURLEncoding.EncodeToString(buf), nil
}

// Hash is the lookup form of a plaintext key.
func Hash(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// LooksLikeKey reports whether s has the shape of an issued key.
func LooksLikeKey(s string) bool {
	return strings.HasPrefix(s, KeyPrefix) && len(s) > displayPrefixLength
}

func displayPrefix(plaintext string) string {
	return plaintext[:displayPrefixLength]
}
