package application

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/viralforge/storefront/internal/domain"
	"github.com/viralforge/storefront/internal/ports"
)

// ListProducts serves the public catalog. Only active products are visible.
func (s *Service) ListProducts(ctx context.Context, req ProductListRequest) (ProductListResponse, error) {
	ids, idsGiven := parseIDList(req.IDs)
	if idsGiven && len(ids) == 0 {
		// Every requested id was malformed, so nothing can match.
		return ProductListResponse{Products: []ProductSummary{}, TotalPages: 0}, nil
	}
	filter := domain.ProductFilter{
		ActiveOnly: true,
		NameQuery:  strings.TrimSpace(req.Query),
		IDs:        ids,
	}

	query := ports.ProductListQuery{
		Filter: filter,
		Sort:   domain.ParseProductSort(req.Sort),
	}
	if req.Page > 0 {
		query.Limit = domain.CatalogPageSize
		query.Offset = (req.Page - 1) * domain.CatalogPageSize
	}

	products, err := s.products.List(ctx, query)
	if err != nil {
		return ProductListResponse{}, err
	}
	count, err := s.products.Count(ctx, filter)
	if err != nil {
		return ProductListResponse{}, err
	}

	out := make([]ProductSummary, 0, len(products))
	for _, p := range products {
		out = append(out, toProductSummary(p))
	}
	return ProductListResponse{Products: out, TotalPages: domain.TotalPages(count)}, nil
}

// GetProduct returns an active product.
func (s *Service) GetProduct(ctx context.Context, rawProductID string) (ProductSummary, error) {
	productID, err := parseUUID(rawProductID)
	if err != nil {
		return ProductSummary{}, err
	}
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return ProductSummary{}, err
	}
	if !product.IsActive {
		return ProductSummary{}, domain.ErrNotFound
	}
	return toProductSummary(product), nil
}

// parseIDList flattens comma-separated values and drops anything that is not a UUID.
// given reports whether any non-blank token was supplied, parsable or not.
func parseIDList(values []string) (ids []uuid.UUID, given bool) {
	seen := make(map[uuid.UUID]struct{})
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			given = true
			id, err := uuid.Parse(part)
			if err != nil {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids, given
}
