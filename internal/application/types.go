package application

import (
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/storefront/internal/domain"
)

type Config struct {
	Session              SessionConfig
	FailedLoginThreshold int
	LockoutDuration      time.Duration
}

// SessionConfig is built once at startup. Changing Secret invalidates every stored session.
type SessionConfig struct {
	Secret       string
	CookieName   string
	MaxAge       time.Duration
	SecureCookie bool
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AccountResponse is returned by register and login.
type AccountResponse struct {
	UserID uuid.UUID `json:"id"`
	Email  string    `json:"email"`
}

// IssuedSession carries the raw token back to the transport layer exactly once.
type IssuedSession struct {
	Token     string
	ExpiresAt time.Time
}

type LoginResult struct {
	Account AccountResponse
	Session IssuedSession
}

type SessionResponse struct {
	User *domain.Identity `json:"user"`
}

type ProductListRequest struct {
	Query string
	IDs   []string
	Sort  string
	// Page is zero when the caller wants every match.
	Page int
}

type ProductSummary struct {
	ProductID     uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Description   *string   `json:"description"`
	PriceCents    int64     `json:"priceCents"`
	StockQuantity int       `json:"stockQuantity"`
}

type ProductListResponse struct {
	Products   []ProductSummary `json:"products"`
	TotalPages int              `json:"totalPages"`
}

// AdminProduct is the full product row including inactive state.
type AdminProduct struct {
	ProductID     uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Description   *string   `json:"description"`
	PriceCents    int64     `json:"priceCents"`
	StockQuantity int       `json:"stockQuantity"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type OrderItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type PlaceOrderRequest struct {
	Items []OrderItemRequest `json:"items"`
}

type OrderItemResponse struct {
	ProductID  uuid.UUID `json:"productId"`
	Quantity   int       `json:"quantity"`
	PriceCents int64     `json:"priceCents"`
}

type PlacedOrder struct {
	OrderID    uuid.UUID           `json:"id"`
	TotalCents int64               `json:"totalCents"`
	CreatedAt  time.Time           `json:"createdAt"`
	Items      []OrderItemResponse `json:"items"`
}

type PlaceOrderResponse struct {
	Order PlacedOrder `json:"order"`
}

type OrderResponse struct {
	OrderID    uuid.UUID           `json:"id"`
	TotalCents int64               `json:"totalCents"`
	Status     domain.OrderStatus  `json:"status"`
	CreatedAt  time.Time           `json:"createdAt"`
	Items      []OrderItemResponse `json:"items"`
}

type AdminOrderResponse struct {
	OrderID    uuid.UUID           `json:"id"`
	UserID     uuid.UUID           `json:"userId"`
	UserEmail  string              `json:"userEmail"`
	TotalCents int64               `json:"totalCents"`
	Status     domain.OrderStatus  `json:"status"`
	CreatedAt  time.Time           `json:"createdAt"`
	Items      []OrderItemResponse `json:"items"`
}

type OrderStatusResponse struct {
	OrderID   uuid.UUID          `json:"id"`
	Status    domain.OrderStatus `json:"status"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// ProductUpdateRequest is an admin partial update. Description distinguishes
// "absent" from explicit null through DescriptionSet.
type ProductUpdateRequest struct {
	Name           *string
	Description    *string
	DescriptionSet bool
	PriceCents     *int64
	StockQuantity  *int64
	IsActive       *bool
}

type AnalyticsResponse struct {
	Span     string            `json:"span"`
	Since    time.Time         `json:"since"`
	Orders   AnalyticsOrders   `json:"orders"`
	Revenue  AnalyticsRevenue  `json:"revenue"`
	Products AnalyticsProducts `json:"products"`
}

type AnalyticsOrders struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"byStatus"`
}

type AnalyticsRevenue struct {
	TotalCents     int64  `json:"totalCents"`
	TotalFormatted string `json:"totalFormatted"`
}

type AnalyticsProducts struct {
	Total    int64 `json:"total"`
	LowStock int64 `json:"lowStock"`
}

// SeedReport summarizes what a seed run changed.
type SeedReport struct {
	Users           []string
	ProductsCreated int
}
