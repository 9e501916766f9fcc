package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/viralforge/storefront/internal/domain"
	"github.com/viralforge/storefront/internal/ports"
)

// PlaceOrder validates the cart against live catalog rows, prices it from
// stored product prices and commits order, items and stock decrements in one
// transaction. Client-supplied prices are never read.
func (s *Service) PlaceOrder(ctx context.Context, caller domain.Identity, req PlaceOrderRequest) (PlaceOrderResponse, error) {
	requests := make([]domain.LineRequest, 0, len(req.Items))
	for _, item := range req.Items {
		requests = append(requests, domain.LineRequest{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	lines, err := domain.AggregateLines(requests)
	if err != nil {
		return PlaceOrderResponse{}, err
	}

	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return PlaceOrderResponse{}, fmt.Errorf("load products: %w", err)
	}

	items, total, err := domain.PriceLines(lines, products)
	if err != nil {
		return PlaceOrderResponse{}, err
	}

	now := s.nowFn()
	orderID := uuid.New()
	eventItems := make([]map[string]any, 0, len(items))
	for _, item := range items {
		eventItems = append(eventItems, map[string]any{
			"product_id":  item.ProductID,
			"quantity":    item.Quantity,
			"price_cents": item.PriceCents,
		})
	}
	event, err := newOutboxEvent(eventTypeOrderPlaced, orderID.String(), map[string]any{
		"order_id":    orderID,
		"user_id":     caller.UserID,
		"total_cents": total,
		"items":       eventItems,
		"placed_at":   now,
	}, now)
	if err != nil {
		return PlaceOrderResponse{}, err
	}

	order, err := s.orders.PlaceOrder(ctx, ports.PlaceOrderParams{
		OrderID:    orderID,
		UserID:     caller.UserID,
		TotalCents: total,
		Items:      items,
		CreatedAt:  now,
	}, event)
	if err != nil {
		var stockErr *domain.StockError
		if errors.As(err, &stockErr) || errors.Is(err, domain.ErrTransactionFailed) {
			return PlaceOrderResponse{}, err
		}
		return PlaceOrderResponse{}, fmt.Errorf("%w: %v", domain.ErrTransactionFailed, err)
	}

	return PlaceOrderResponse{Order: PlacedOrder{
		OrderID:    order.OrderID,
		TotalCents: order.TotalCents,
		CreatedAt:  order.CreatedAt,
		Items:      toOrderItemResponses(order.Items),
	}}, nil
}

// ListOrders returns the caller's orders, newest first.
func (s *Service) ListOrders(ctx context.Context, caller domain.Identity) ([]OrderResponse, error) {
	orders, err := s.orders.ListByUser(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	return out, nil
}

// GetOrder returns one of the caller's orders. Orders owned by someone else are reported as not found.
func (s *Service) GetOrder(ctx context.Context, caller domain.Identity, rawOrderID string) (OrderResponse, error) {
	orderID, err := parseUUID(rawOrderID)
	if err != nil {
		return OrderResponse{}, err
	}
	order, err := s.orders.GetForUser(ctx, orderID, caller.UserID)
	if err != nil {
		return OrderResponse{}, err
	}
	return toOrderResponse(order), nil
}
