package http

import (
	"context"
	"net/http"
	"strings"
)

type accessLevel int

const (
	accessAnonymous accessLevel = iota
	accessAuthenticated
	accessAdmin
)

// accessPolicy binds a path prefix to the access level it requires.
type accessPolicy struct {
	prefix string
	level  accessLevel
}

// defaultAccessPolicies is evaluated in order; the first matching prefix wins.
var defaultAccessPolicies = []accessPolicy{
	{prefix: "/orders", level: accessAuthenticated},
	{prefix: "/admin", level: accessAdmin},
}

// matchPrefix reports whether path equals prefix or continues it at a segment boundary.
func matchPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}

func requiredAccess(policies []accessPolicy, path string) accessLevel {
	for _, p := range policies {
		if matchPrefix(path, p.prefix) {
			return p.level
		}
	}
	return accessAnonymous
}

// authorizationGate resolves the session of protected routes before any
// handler runs and attaches the identity to the request context.
func (h *Handler) authorizationGate(policies []accessPolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			level := requiredAccess(policies, r.URL.Path)
			if level == accessAnonymous {
				next.ServeHTTP(w, r)
				return
			}

			identity, err := h.service.GetSessionUser(r.Context(), h.sessionToken(r))
			if err != nil {
				writeMappedError(r.Context(), w, "authorization_gate", err)
				return
			}
			if identity == nil {
				logHTTPOperationError(r.Context(), "authorization_gate", http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized", nil)
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
				return
			}
			if level == accessAdmin && !identity.IsAdmin() {
				logHTTPOperationError(r.Context(), "authorization_gate", http.StatusForbidden, "FORBIDDEN", "forbidden", nil)
				writeError(w, http.StatusForbidden, "FORBIDDEN", "forbidden")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyIdentity, *identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
