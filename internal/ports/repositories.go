package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/storefront/internal/domain"
)

// CreateUserParams captures atomic user-creation inputs.
type CreateUserParams struct {
	Email        string
	PasswordHash string
	Role         domain.Role
	CreatedAt    time.Time
}

// UserRepository defines persistence operations for storefront accounts.
// Create writes the user and its registration event in one transaction.
type UserRepository interface {
	Create(ctx context.Context, params CreateUserParams, event OutboxEvent) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByID(ctx context.Context, userID uuid.UUID) (domain.User, error)
	// UpsertByEmail inserts the user or, on an email conflict, applies the given role.
	UpsertByEmail(ctx context.Context, params CreateUserParams, updateRole bool) (domain.User, error)
}

// SessionCreateParams captures the data persisted for a new session.
type SessionCreateParams struct {
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// SessionRepository manages persistent session rows keyed by token hash.
type SessionRepository interface {
	Create(ctx context.Context, params SessionCreateParams) (domain.Session, error)
	// GetByTokenHash returns the session together with its owner's identity.
	GetByTokenHash(ctx context.Context, tokenHash string) (domain.Session, domain.Identity, error)
	DeleteByID(ctx context.Context, sessionID uuid.UUID) error
	DeleteByTokenHash(ctx context.Context, tokenHash string) error
	DeleteExpired(ctx context.Context, before time.Time, limit int) (int64, error)
}

// ProductListQuery is a filtered, sorted and optionally paginated catalog query.
// Limit <= 0 returns every matching row.
type ProductListQuery struct {
	Filter domain.ProductFilter
	Sort   domain.ProductSort
	Limit  int
	Offset int
}

// ProductRepository is the catalog read path plus admin mutations.
type ProductRepository interface {
	List(ctx context.Context, query ProductListQuery) ([]domain.Product, error)
	Count(ctx context.Context, filter domain.ProductFilter) (int64, error)
	GetByID(ctx context.Context, productID uuid.UUID) (domain.Product, error)
	// GetByIDs returns the rows that exist, active or not, keyed by id.
	GetByIDs(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]domain.Product, error)
	Update(ctx context.Context, productID uuid.UUID, patch domain.ProductPatch, at time.Time) (domain.Product, error)
	CreateMany(ctx context.Context, products []domain.Product) error
}

// PlaceOrderParams is a fully priced order ready to be committed.
type PlaceOrderParams struct {
	OrderID    uuid.UUID
	UserID     uuid.UUID
	TotalCents int64
	Items      []domain.OrderItem
	CreatedAt  time.Time
}

// OrderRepository owns order persistence. PlaceOrder must create the order, its
// items and the event, and apply a guarded stock decrement per item, all in one
// transaction: a decrement that would drive stock negative fails the whole call
// with a *domain.StockError.
type OrderRepository interface {
	PlaceOrder(ctx context.Context, params PlaceOrderParams, event OutboxEvent) (domain.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Order, error)
	GetForUser(ctx context.Context, orderID, userID uuid.UUID) (domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus, at time.Time, event OutboxEvent) (domain.Order, error)
}

// AnalyticsSnapshot aggregates admin metrics over a time span.
type AnalyticsSnapshot struct {
	OrderCount     int64
	OrdersByStatus map[domain.OrderStatus]int64
	RevenueCents   int64
	ProductCount   int64
	LowStockCount  int64
}

// AnalyticsReader runs the aggregate queries behind the admin dashboard.
type AnalyticsReader interface {
	Snapshot(ctx context.Context, since time.Time, lowStockThreshold int) (AnalyticsSnapshot, error)
}

// OutboxEvent is the write-side event payload prior to storage.
type OutboxEvent struct {
	EventID      uuid.UUID
	EventType    string
	PartitionKey string
	Payload      []byte
	OccurredAt   time.Time
}

// OutboxRecord represents durable outbox state, including retry/error metadata.
type OutboxRecord struct {
	OutboxID       uuid.UUID
	EventType      string
	PartitionKey   string
	Payload        []byte
	RetryCount     int
	LastError      *string
	CreatedAt      time.Time
	PublishedAt    *time.Time
	ClaimToken     *string
	ClaimUntil     *time.Time
	DeadLetteredAt *time.Time
}

// OutboxRepository controls the publish-retry workflow for domain events.
type OutboxRepository interface {
	Enqueue(ctx context.Context, event OutboxEvent) error
	ClaimUnpublished(ctx context.Context, limit int, claimToken string, claimUntil time.Time) ([]OutboxRecord, error)
	MarkPublished(ctx context.Context, outboxID uuid.UUID, claimToken string, at time.Time) error
	MarkFailed(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error
	MarkDeadLettered(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error
}
