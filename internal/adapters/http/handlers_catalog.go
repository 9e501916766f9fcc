package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/viralforge/storefront/internal/application"
)

// listProducts serves GET /products?q=&ids=&sort=&page=. ids may be comma-separated or repeated.
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	res, err := h.service.ListProducts(r.Context(), application.ProductListRequest{
		Query: query.Get("q"),
		IDs:   query["ids"],
		Sort:  query.Get("sort"),
		Page:  parsePage(query.Get("page")),
	})
	if err != nil {
		writeMappedError(r.Context(), w, "list_products", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeMappedError(r.Context(), w, "get_product", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
