package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/viralforge/storefront/internal/application"
)

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		writeUnauthorized(r.Context(), w, "create_order")
		return
	}

	// Client-side price or total fields are accepted but never read.
	var req application.PlaceOrderRequest
	if err := decodeBodyLenient(r, &req); err != nil {
		writeValidationError(r.Context(), w, "create_order", errors.New("body must include non-empty items array with productId and quantity"))
		return
	}

	res, err := h.service.PlaceOrder(r.Context(), identity, req)
	if err != nil {
		writeMappedError(r.Context(), w, "create_order", err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		writeUnauthorized(r.Context(), w, "list_orders")
		return
	}
	res, err := h.service.ListOrders(r.Context(), identity)
	if err != nil {
		writeMappedError(r.Context(), w, "list_orders", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		writeUnauthorized(r.Context(), w, "get_order")
		return
	}
	res, err := h.service.GetOrder(r.Context(), identity, chi.URLParam(r, "id"))
	if err != nil {
		writeMappedError(r.Context(), w, "get_order", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
