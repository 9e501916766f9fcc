package application

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/viralforge/storefront/internal/domain"
	"github.com/viralforge/storefront/internal/ports"
)

var analyticsSpans = map[string]time.Duration{
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
	"90d": 90 * 24 * time.Hour,
}

const defaultAnalyticsSpan = "30d"

// ParseAnalyticsSpan returns the canonical span name and its duration. Unknown spans fall back to 30d.
func ParseAnalyticsSpan(raw string) (string, time.Duration) {
	if d, ok := analyticsSpans[raw]; ok {
		return raw, d
	}
	return defaultAnalyticsSpan, analyticsSpans[defaultAnalyticsSpan]
}

// UpdateOrderStatus sets any of the four statuses; transitions are unconstrained.
func (s *Service) UpdateOrderStatus(ctx context.Context, rawOrderID, rawStatus string) (OrderStatusResponse, error) {
	orderID, err := parseUUID(rawOrderID)
	if err != nil {
		return OrderStatusResponse{}, err
	}
	status, err := domain.ParseOrderStatus(rawStatus)
	if err != nil {
		return OrderStatusResponse{}, err
	}

	now := s.nowFn()
	event, err := newOutboxEvent(eventTypeOrderStatusChanged, orderID.String(), map[string]any{
		"order_id":   orderID,
		"status":     status,
		"changed_at": now,
	}, now)
	if err != nil {
		return OrderStatusResponse{}, err
	}

	order, err := s.orders.UpdateStatus(ctx, orderID, status, now, event)
	if err != nil {
		return OrderStatusResponse{}, err
	}
	return OrderStatusResponse{OrderID: order.OrderID, Status: order.Status, UpdatedAt: order.UpdatedAt}, nil
}

// UpdateProduct applies a partial admin update.
func (s *Service) UpdateProduct(ctx context.Context, rawProductID string, req ProductUpdateRequest) (AdminProduct, error) {
	productID, err := parseUUID(rawProductID)
	if err != nil {
		return AdminProduct{}, err
	}

	var patch domain.ProductPatch
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return AdminProduct{}, fmt.Errorf("%w: name must not be empty", domain.ErrInvalidInput)
		}
		patch.Name = &name
	}
	if req.DescriptionSet {
		if req.Description == nil {
			patch.ClearDescription = true
		} else {
			description := *req.Description
			patch.Description = &description
		}
	}
	if req.PriceCents != nil {
		if *req.PriceCents < 0 {
			return AdminProduct{}, fmt.Errorf("%w: priceCents must be a non-negative integer", domain.ErrInvalidInput)
		}
		patch.PriceCents = req.PriceCents
	}
	if req.StockQuantity != nil {
		if *req.StockQuantity < 0 || *req.StockQuantity > math.MaxInt32 {
			return AdminProduct{}, fmt.Errorf("%w: stockQuantity must be a non-negative integer", domain.ErrInvalidInput)
		}
		stock := int(*req.StockQuantity)
		patch.StockQuantity = &stock
	}
	patch.IsActive = req.IsActive

	if patch.Empty() {
		return AdminProduct{}, fmt.Errorf("%w: no valid fields to update", domain.ErrInvalidInput)
	}

	product, err := s.products.Update(ctx, productID, patch, s.nowFn())
	if err != nil {
		return AdminProduct{}, err
	}
	return toAdminProduct(product), nil
}

// ListAllOrders returns every order with its owner email, newest first.
func (s *Service) ListAllOrders(ctx context.Context) ([]AdminOrderResponse, error) {
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]AdminOrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, AdminOrderResponse{
			OrderID:    o.OrderID,
			UserID:     o.UserID,
			UserEmail:  o.UserEmail,
			TotalCents: o.TotalCents,
			Status:     o.Status,
			CreatedAt:  o.CreatedAt,
			Items:      toOrderItemResponses(o.Items),
		})
	}
	return out, nil
}

// ListAllProducts includes inactive products, newest first.
func (s *Service) ListAllProducts(ctx context.Context) ([]AdminProduct, error) {
	products, err := s.products.List(ctx, ports.ProductListQuery{Sort: domain.SortNewest})
	if err != nil {
		return nil, err
	}
	out := make([]AdminProduct, 0, len(products))
	for _, p := range products {
		out = append(out, toAdminProduct(p))
	}
	return out, nil
}

func (s *Service) Analytics(ctx context.Context, rawSpan string) (AnalyticsResponse, error) {
	span, window := ParseAnalyticsSpan(rawSpan)
	since := s.nowFn().Add(-window)

	snapshot, err := s.analytics.Snapshot(ctx, since, domain.LowStockThreshold)
	if err != nil {
		return AnalyticsResponse{}, fmt.Errorf("load analytics: %w", err)
	}

	byStatus := make(map[string]int64, len(snapshot.OrdersByStatus))
	for status, count := range snapshot.OrdersByStatus {
		byStatus[string(status)] = count
	}

	return AnalyticsResponse{
		Span:  span,
		Since: since,
		Orders: AnalyticsOrders{
			Total:    snapshot.OrderCount,
			ByStatus: byStatus,
		},
		Revenue: AnalyticsRevenue{
			TotalCents:     snapshot.RevenueCents,
			TotalFormatted: formatCents(snapshot.RevenueCents),
		},
		Products: AnalyticsProducts{
			Total:    snapshot.ProductCount,
			LowStock: snapshot.LowStockCount,
		},
	}, nil
}

// formatCents renders cents as a decimal amount with two fraction digits.
func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
