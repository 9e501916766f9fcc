package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/viralforge/storefront/internal/application"
)

type orderStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) adminListOrders(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.ListAllOrders(r.Context())
	if err != nil {
		writeMappedError(r.Context(), w, "admin_list_orders", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) adminUpdateOrder(w http.ResponseWriter, r *http.Request) {
	var req orderStatusRequest
	if err := decodeBodyLenient(r, &req); err != nil {
		writeValidationError(r.Context(), w, "admin_update_order", err)
		return
	}
	res, err := h.service.UpdateOrderStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeMappedError(r.Context(), w, "admin_update_order", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) adminListProducts(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.ListAllProducts(r.Context())
	if err != nil {
		writeMappedError(r.Context(), w, "admin_list_products", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) adminUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var raw map[string]json.RawMessage
	if err := decodeBodyLenient(r, &raw); err != nil {
		writeValidationError(r.Context(), w, "admin_update_product", err)
		return
	}
	req, err := parseProductUpdate(raw)
	if err != nil {
		writeValidationError(r.Context(), w, "admin_update_product", err)
		return
	}
	res, err := h.service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeMappedError(r.Context(), w, "admin_update_product", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) adminAnalytics(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Analytics(r.Context(), r.URL.Query().Get("span"))
	if err != nil {
		writeMappedError(r.Context(), w, "admin_analytics", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

var jsonNull = []byte("null")

// parseProductUpdate reads the optional PATCH fields. "title" is accepted as an
// alias of "name", and an explicit null description clears it.
func parseProductUpdate(raw map[string]json.RawMessage) (application.ProductUpdateRequest, error) {
	var req application.ProductUpdateRequest

	nameRaw, ok := raw["name"]
	if !ok {
		nameRaw, ok = raw["title"]
	}
	if ok {
		var name string
		if err := json.Unmarshal(nameRaw, &name); err != nil {
			return req, errors.New("name must be a string")
		}
		req.Name = &name
	}

	if v, ok := raw["description"]; ok {
		req.DescriptionSet = true
		if !bytes.Equal(bytes.TrimSpace(v), jsonNull) {
			var description string
			if err := json.Unmarshal(v, &description); err != nil {
				return req, errors.New("description must be a string or null")
			}
			req.Description = &description
		}
	}

	if v, ok := raw["priceCents"]; ok {
		n, err := decodeInteger(v, "priceCents")
		if err != nil {
			return req, err
		}
		req.PriceCents = &n
	}
	if v, ok := raw["stockQuantity"]; ok {
		n, err := decodeInteger(v, "stockQuantity")
		if err != nil {
			return req, err
		}
		req.StockQuantity = &n
	}

	if v, ok := raw["isActive"]; ok {
		var active bool
		if err := json.Unmarshal(v, &active); err != nil {
			return req, errors.New("isActive must be a boolean")
		}
		req.IsActive = &active
	}
	return req, nil
}

func decodeInteger(raw json.RawMessage, field string) (int64, error) {
	var n int64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("%s must be a non-negative integer", field)
	}
	return n, nil
}
