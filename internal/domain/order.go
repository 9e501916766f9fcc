package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// OrderStatuses lists every status an admin may assign. Transitions are not constrained.
var OrderStatuses = []OrderStatus{OrderStatusPending, OrderStatusPaid, OrderStatusShipped, OrderStatusCancelled}

// ParseOrderStatus accepts exactly one of the four status names.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	for _, s := range OrderStatuses {
		if string(s) == raw {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: invalid or missing status, use one of PENDING, PAID, SHIPPED, CANCELLED", ErrInvalidInput)
}

type Order struct {
	OrderID    uuid.UUID
	UserID     uuid.UUID
	UserEmail  string
	TotalCents int64
	Status     OrderStatus
	Items      []OrderItem
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// OrderItem is a line of an order. PriceCents is the product price at order time
// and does not follow later catalog changes.
type OrderItem struct {
	ProductID  uuid.UUID
	Quantity   int
	PriceCents int64
}

// LineRequest is a client-submitted cart line before validation.
type LineRequest struct {
	ProductID string
	Quantity  int
}

// MaxLineQuantity bounds a single merged cart line. It matches the INTEGER
// columns that hold stock and item quantities.
const MaxLineQuantity = math.MaxInt32

// RequestedLine is a validated cart line with duplicates merged.
type RequestedLine struct {
	ProductID uuid.UUID
	Quantity  int
}

// AggregateLines validates cart lines and merges duplicate product ids by summing
// their quantities, keeping first-seen order.
func AggregateLines(items []LineRequest) ([]RequestedLine, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: body must include non-empty items array with productId and quantity", ErrInvalidInput)
	}

	index := make(map[uuid.UUID]int, len(items))
	lines := make([]RequestedLine, 0, len(items))
	for _, item := range items {
		raw := strings.TrimSpace(item.ProductID)
		if raw == "" || item.Quantity < 1 {
			return nil, fmt.Errorf("%w: each item must have productId and quantity >= 1", ErrInvalidInput)
		}
		if item.Quantity > MaxLineQuantity {
			return nil, fmt.Errorf("%w: quantity must be at most %d", ErrInvalidInput, MaxLineQuantity)
		}
		productID, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid productId %q", ErrInvalidInput, raw)
		}
		if pos, ok := index[productID]; ok {
			if item.Quantity > MaxLineQuantity-lines[pos].Quantity {
				return nil, fmt.Errorf("%w: combined quantity for %s must be at most %d", ErrInvalidInput, productID, MaxLineQuantity)
			}
			lines[pos].Quantity += item.Quantity
			continue
		}
		index[productID] = len(lines)
		lines = append(lines, RequestedLine{ProductID: productID, Quantity: item.Quantity})
	}
	return lines, nil
}

// mulCents multiplies two non-negative amounts, reporting false on int64 overflow.
func mulCents(price, quantity int64) (int64, bool) {
	if price < 0 || quantity < 0 {
		return 0, false
	}
	if quantity != 0 && price > math.MaxInt64/quantity {
		return 0, false
	}
	return price * quantity, true
}

// PriceLines checks each requested line against authoritative product rows and
// returns priced order items with their total. The first failing line aborts.
func PriceLines(lines []RequestedLine, products map[uuid.UUID]Product) ([]OrderItem, int64, error) {
	items := make([]OrderItem, 0, len(lines))
	var total int64
	for _, line := range lines {
		product, ok := products[line.ProductID]
		if !ok {
			return nil, 0, &StockError{ProductID: line.ProductID, Reason: StockReasonNotFound, Requested: line.Quantity}
		}
		if !product.IsActive {
			return nil, 0, &StockError{ProductID: line.ProductID, Reason: StockReasonInactive, Requested: line.Quantity}
		}
		if !product.CanFulfil(line.Quantity) {
			return nil, 0, &StockError{
				ProductID: line.ProductID,
				Reason:    StockReasonInsufficient,
				Requested: line.Quantity,
				Available: product.StockQuantity,
			}
		}
		lineTotal, ok := mulCents(product.PriceCents, int64(line.Quantity))
		if !ok || lineTotal > math.MaxInt64-total {
			return nil, 0, fmt.Errorf("%w: order total is too large", ErrInvalidInput)
		}
		total += lineTotal
		items = append(items, OrderItem{
			ProductID:  line.ProductID,
			Quantity:   line.Quantity,
			PriceCents: product.PriceCents,
		})
	}
	return items, total, nil
}
