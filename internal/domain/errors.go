package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when the requested resource does not exist or is not visible to the caller.
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidCredentials hides whether email or password failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidInput       = errors.New("invalid input")
	ErrConflict           = errors.New("conflict")
	ErrRateLimited        = errors.New("rate limited")
	// ErrStockUnavailable marks availability failures raised while placing an order.
	// Every StockError matches it through errors.Is.
	ErrStockUnavailable = errors.New("stock unavailable")
	// ErrTransactionFailed wraps storage failures during an atomic write.
	// Nothing was committed, so the caller may retry.
	ErrTransactionFailed = errors.New("transaction failed")
)

// StockReason classifies why a product line cannot be fulfilled.
type StockReason string

const (
	StockReasonNotFound     StockReason = "not_found"
	StockReasonInactive     StockReason = "inactive"
	StockReasonInsufficient StockReason = "insufficient_stock"
)

// StockError reports the product line that blocked an order.
type StockError struct {
	ProductID uuid.UUID
	Reason    StockReason
	Requested int
	Available int
}

func (e *StockError) Error() string {
	switch e.Reason {
	case StockReasonNotFound:
		return fmt.Sprintf("product not found: %s", e.ProductID)
	case StockReasonInactive:
		return fmt.Sprintf("product no longer available: %s", e.ProductID)
	default:
		return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d", e.ProductID, e.Requested, e.Available)
	}
}

// Is lets callers match a StockError against the validation and availability sentinels.
func (e *StockError) Is(target error) bool {
	return target == ErrStockUnavailable || target == ErrInvalidInput
}
