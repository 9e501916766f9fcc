package http

import (
	"net/http"

	"github.com/viralforge/storefront/internal/application"
)

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req application.RegisterRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "register", err)
		return
	}

	res, err := h.service.Register(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, "register", err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req application.LoginRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "login", err)
		return
	}

	res, err := h.service.Login(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, "login", err)
		return
	}
	h.setSessionCookie(w, res.Session.Token)
	writeJSON(w, http.StatusOK, res.Account)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	h.service.Logout(r.Context(), h.sessionToken(r))
	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.CurrentUser(r.Context(), h.sessionToken(r))
	if err != nil {
		writeMappedError(r.Context(), w, "session", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
