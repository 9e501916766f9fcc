package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/storefront/internal/domain"
	"github.com/viralforge/storefront/internal/ports"
)

// warnBestEffort logs a swallowed failure of a cleanup step.
func warnBestEffort(ctx context.Context, operation string, err error, attrs ...any) {
	args := []any{
		"service", "storefront",
		"module", "application",
		"layer", "application",
		"operation", operation,
		"outcome", "failure",
		"error", err,
	}
	args = append(args, attrs...)
	slog.Default().WarnContext(ctx, "best-effort step failed", args...)
}

// newOutboxEvent marshals payload into an event keyed by partitionKey.
func newOutboxEvent(eventType, partitionKey string, payload map[string]any, at time.Time) (ports.OutboxEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return ports.OutboxEvent{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return ports.OutboxEvent{
		EventID:      uuid.New(),
		EventType:    eventType,
		PartitionKey: partitionKey,
		Payload:      raw,
		OccurredAt:   at,
	}, nil
}

func toOrderItemResponses(items []domain.OrderItem) []OrderItemResponse {
	out := make([]OrderItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, OrderItemResponse{
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			PriceCents: item.PriceCents,
		})
	}
	return out
}

func toProductSummary(p domain.Product) ProductSummary {
	return ProductSummary{
		ProductID:     p.ProductID,
		Name:          p.Name,
		Description:   p.Description,
		PriceCents:    p.PriceCents,
		StockQuantity: p.StockQuantity,
	}
}

func toAdminProduct(p domain.Product) AdminProduct {
	return AdminProduct{
		ProductID:     p.ProductID,
		Name:          p.Name,
		Description:   p.Description,
		PriceCents:    p.PriceCents,
		StockQuantity: p.StockQuantity,
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func toOrderResponse(o domain.Order) OrderResponse {
	return OrderResponse{
		OrderID:    o.OrderID,
		TotalCents: o.TotalCents,
		Status:     o.Status,
		CreatedAt:  o.CreatedAt,
		Items:      toOrderItemResponses(o.Items),
	}
}

// parseUUID converts a path or body identifier; malformed values are reported as missing.
func parseUUID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.ErrNotFound
	}
	return id, nil
}
