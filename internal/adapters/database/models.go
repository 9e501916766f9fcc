package database

import (
	"time"

	"github.com/google/uuid"
)

type userModel struct {
	UserID       uuid.UUID `gorm:"column:user_id;primaryKey"`
	Email        string    `gorm:"column:email"`
	PasswordHash string    `gorm:"column:password_hash"`
	Role         string    `gorm:"column:role"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (userModel) TableName() string { return "users" }

type sessionModel struct {
	SessionID uuid.UUID `gorm:"column:session_id;primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id"`
	TokenHash string    `gorm:"column:token_hash"`
	ExpiresAt time.Time `gorm:"column:expires_at"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (sessionModel) TableName() string { return "sessions" }

// sessionWithUser is the joined row behind a token lookup.
type sessionWithUser struct {
	SessionID uuid.UUID `gorm:"column:session_id"`
	UserID    uuid.UUID `gorm:"column:user_id"`
	TokenHash string    `gorm:"column:token_hash"`
	ExpiresAt time.Time `gorm:"column:expires_at"`
	CreatedAt time.Time `gorm:"column:created_at"`
	Email     string    `gorm:"column:email"`
	Role      string    `gorm:"column:role"`
}

type productModel struct {
	ProductID     uuid.UUID `gorm:"column:product_id;primaryKey"`
	Name          string    `gorm:"column:name"`
	Description   *string   `gorm:"column:description"`
	PriceCents    int64     `gorm:"column:price_cents"`
	StockQuantity int       `gorm:"column:stock_quantity"`
	IsActive      bool      `gorm:"column:is_active"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (productModel) TableName() string { return "products" }

type orderModel struct {
	OrderID    uuid.UUID `gorm:"column:order_id;primaryKey"`
	UserID     uuid.UUID `gorm:"column:user_id"`
	TotalCents int64     `gorm:"column:total_cents"`
	Status     string    `gorm:"column:status"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (orderModel) TableName() string { return "orders" }

// orderWithEmail is an order row joined with its owner's email.
type orderWithEmail struct {
	orderModel
	UserEmail string `gorm:"column:user_email"`
}

type orderItemModel struct {
	OrderItemID uuid.UUID `gorm:"column:order_item_id;primaryKey"`
	OrderID     uuid.UUID `gorm:"column:order_id"`
	ProductID   uuid.UUID `gorm:"column:product_id"`
	Quantity    int       `gorm:"column:quantity"`
	PriceCents  int64     `gorm:"column:price_cents"`
}

func (orderItemModel) TableName() string { return "order_items" }

type outboxModel struct {
	OutboxID       uuid.UUID  `gorm:"column:outbox_id;primaryKey"`
	EventType      string     `gorm:"column:event_type"`
	PartitionKey   string     `gorm:"column:partition_key"`
	Payload        string     `gorm:"column:payload"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	PublishedAt    *time.Time `gorm:"column:published_at"`
	RetryCount     int        `gorm:"column:retry_count"`
	LastError      *string    `gorm:"column:last_error"`
	LastErrorAt    *time.Time `gorm:"column:last_error_at"`
	ClaimToken     *string    `gorm:"column:claim_token"`
	ClaimUntil     *time.Time `gorm:"column:claim_until"`
	DeadLetteredAt *time.Time `gorm:"column:dead_lettered_at"`
}

func (outboxModel) TableName() string { return "storefront_outbox" }
