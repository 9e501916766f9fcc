package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

const (
	minPasswordLength = 8
	// bcrypt ignores input past 72 bytes; longer passwords are rejected instead of silently truncated.
	maxPasswordLength = 72
)

// NormalizeEmail trims surrounding whitespace and validates the address shape.
// Case is preserved, so uniqueness applies to the stored value as given.
func NormalizeEmail(email string) (string, error) {
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		return "", fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	at := strings.LastIndex(trimmed, "@")
	domainPart := trimmed[at+1:]
	if !strings.Contains(domainPart, ".") || strings.HasSuffix(domainPart, ".") || strings.HasPrefix(domainPart, ".") {
		return "", fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	return trimmed, nil
}

// ValidatePassword enforces the storefront password policy. The minimum counts
// characters; the maximum counts bytes because that is what bcrypt reads.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	if len(password) > maxPasswordLength {
		return fmt.Errorf("%w: password must be at most %d bytes", ErrInvalidInput, maxPasswordLength)
	}
	return nil
}
