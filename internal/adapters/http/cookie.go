package http

import (
	"net/http"
	"time"

	"github.com/viralforge/storefront/internal/application"
)

type cookieSettings struct {
	name   string
	maxAge int
	secure bool
}

func newCookieSettings(cfg application.SessionConfig) cookieSettings {
	return cookieSettings{
		name:   cfg.CookieName,
		maxAge: int(cfg.MaxAge / time.Second),
		secure: cfg.SecureCookie,
	}
}

func (h *Handler) sessionToken(r *http.Request) string {
	cookie, err := r.Cookie(h.cookies.name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookies.name,
		Value:    token,
		Path:     "/",
		MaxAge:   h.cookies.maxAge,
		HttpOnly: true,
		Secure:   h.cookies.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookies.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookies.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
