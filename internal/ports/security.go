package ports

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// SessionTokens mints opaque session tokens and derives their storable lookup key.
type SessionTokens interface {
	Generate() (string, error)
	Hash(token string) string
}
