package security

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// tokenBytes is the entropy of a session token before hex encoding.
const tokenBytes = 32

// MinSecretLength is the shortest accepted HMAC key.
const MinSecretLength = 32

// HMACSessionTokens issues random session tokens and indexes them by
// hex(HMAC-SHA256(secret, token)). Raw tokens are never stored.
type HMACSessionTokens struct {
	secret []byte
}

func NewHMACSessionTokens(secret string) (*HMACSessionTokens, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("session secret must be at least %d bytes", MinSecretLength)
	}
	return &HMACSessionTokens{secret: []byte(secret)}, nil
}

func (t *HMACSessionTokens) Generate() (string, error) {
	raw := make([]byte, tokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(raw), nil
}

func (t *HMACSessionTokens) Hash(token string) string {
	mac := hmac.New(sha256.New, t.secret)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}
