// Package memstore is an in-memory implementation of the storage ports used by
// service and transport tests. One mutex guards every table, so each call is atomic.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/storefront/internal/domain"
	"github.com/viralforge/storefront/internal/ports"
)

// Store holds every table. Use the accessor methods to obtain port implementations.
type Store struct {
	mu       sync.Mutex
	users    map[uuid.UUID]domain.User
	sessions map[uuid.UUID]domain.Session
	products map[uuid.UUID]domain.Product
	orders   map[uuid.UUID]domain.Order
	outbox   []ports.OutboxRecord
}

func New() *Store {
	return &Store{
		users:    make(map[uuid.UUID]domain.User),
		sessions: make(map[uuid.UUID]domain.Session),
		products: make(map[uuid.UUID]domain.Product),
		orders:   make(map[uuid.UUID]domain.Order),
	}
}

func (s *Store) Users() ports.UserRepository       { return userRepo{s} }
func (s *Store) Sessions() ports.SessionRepository { return sessionRepo{s} }
func (s *Store) Products() ports.ProductRepository { return productRepo{s} }
func (s *Store) Orders() ports.OrderRepository     { return orderRepo{s} }
func (s *Store) Outbox() ports.OutboxRepository    { return outboxRepo{s} }
func (s *Store) Analytics() ports.AnalyticsReader  { return analyticsRepo{s} }

// AddProduct inserts p, assigning an id when it has none, and returns it.
func (s *Store) AddProduct(p domain.Product) domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ProductID == uuid.Nil {
		p.ProductID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
		p.UpdatedAt = p.CreatedAt
	}
	s.products[p.ProductID] = p
	return p
}

// Product returns the current row for id.
func (s *Store) Product(id uuid.UUID) (domain.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	return p, ok
}

// SessionCount reports how many session rows exist.
func (s *Store) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// OrderCount reports how many orders exist.
func (s *Store) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

// OutboxEvents returns the event types enqueued so far, in order.
func (s *Store) OutboxEvents() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.outbox))
	for _, rec := range s.outbox {
		out = append(out, rec.EventType)
	}
	return out
}

// ExpireSessions moves every session expiry to at.
func (s *Store) ExpireSessions(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		sess.ExpiresAt = at
		s.sessions[id] = sess
	}
}

func (s *Store) enqueueLocked(event ports.OutboxEvent) {
	s.outbox = append(s.outbox, ports.OutboxRecord{
		OutboxID:     event.EventID,
		EventType:    event.EventType,
		PartitionKey: event.PartitionKey,
		Payload:      append([]byte(nil), event.Payload...),
		CreatedAt:    event.OccurredAt,
	})
}

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, params ports.CreateUserParams, event ports.OutboxEvent) (domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == params.Email {
			return domain.User{}, domain.ErrConflict
		}
	}
	user := domain.User{
		UserID:       uuid.New(),
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		Role:         params.Role,
		CreatedAt:    params.CreatedAt,
		UpdatedAt:    params.CreatedAt,
	}
	r.s.users[user.UserID] = user
	r.s.enqueueLocked(event)
	return user, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (r userRepo) GetByID(_ context.Context, userID uuid.UUID) (domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (r userRepo) UpsertByEmail(_ context.Context, params ports.CreateUserParams, updateRole bool) (domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, u := range r.s.users {
		if u.Email != params.Email {
			continue
		}
		if updateRole {
			u.Role = params.Role
			u.UpdatedAt = params.CreatedAt
			r.s.users[id] = u
		}
		return u, nil
	}
	user := domain.User{
		UserID:       uuid.New(),
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		Role:         params.Role,
		CreatedAt:    params.CreatedAt,
		UpdatedAt:    params.CreatedAt,
	}
	r.s.users[user.UserID] = user
	return user, nil
}

type sessionRepo struct{ s *Store }

func (r sessionRepo) Create(_ context.Context, params ports.SessionCreateParams) (domain.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess := domain.Session{
		SessionID: uuid.New(),
		UserID:    params.UserID,
		TokenHash: params.TokenHash,
		ExpiresAt: params.ExpiresAt,
		CreatedAt: params.CreatedAt,
	}
	r.s.sessions[sess.SessionID] = sess
	return sess, nil
}

func (r sessionRepo) GetByTokenHash(_ context.Context, tokenHash string) (domain.Session, domain.Identity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sess := range r.s.sessions {
		if sess.TokenHash != tokenHash {
			continue
		}
		u, ok := r.s.users[sess.UserID]
		if !ok {
			break
		}
		return sess, domain.Identity{UserID: u.UserID, Email: u.Email, Role: u.Role}, nil
	}
	return domain.Session{}, domain.Identity{}, domain.ErrNotFound
}

func (r sessionRepo) DeleteByID(_ context.Context, sessionID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.sessions, sessionID)
	return nil
}

func (r sessionRepo) DeleteByTokenHash(_ context.Context, tokenHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, sess := range r.s.sessions {
		if sess.TokenHash == tokenHash {
			delete(r.s.sessions, id)
		}
	}
	return nil
}

func (r sessionRepo) DeleteExpired(_ context.Context, before time.Time, limit int) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var deleted int64
	for id, sess := range r.s.sessions {
		if limit > 0 && deleted >= int64(limit) {
			break
		}
		if sess.ExpiresAt.Before(before) {
			delete(r.s.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

type productRepo struct{ s *Store }

func (r productRepo) matching(filter domain.ProductFilter) []domain.Product {
	var ids map[uuid.UUID]struct{}
	if len(filter.IDs) > 0 {
		ids = make(map[uuid.UUID]struct{}, len(filter.IDs))
		for _, id := range filter.IDs {
			ids[id] = struct{}{}
		}
	}
	needle := strings.ToLower(strings.TrimSpace(filter.NameQuery))
	out := make([]domain.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		if filter.ActiveOnly && !p.IsActive {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(p.Name), needle) {
			continue
		}
		if ids != nil {
			if _, ok := ids[p.ProductID]; !ok {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

func (r productRepo) List(_ context.Context, query ports.ProductListQuery) ([]domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rows := r.matching(query.Filter)
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		switch query.Sort {
		case domain.SortPriceAsc:
			if a.PriceCents != b.PriceCents {
				return a.PriceCents < b.PriceCents
			}
		case domain.SortPriceDesc:
			if a.PriceCents != b.PriceCents {
				return a.PriceCents > b.PriceCents
			}
		case domain.SortNameAsc:
			if a.Name != b.Name {
				return a.Name < b.Name
			}
		case domain.SortNameDesc:
			if a.Name != b.Name {
				return a.Name > b.Name
			}
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
		}
		return a.ProductID.String() < b.ProductID.String()
	})
	if query.Limit > 0 {
		if query.Offset >= len(rows) {
			return []domain.Product{}, nil
		}
		end := query.Offset + query.Limit
		if end > len(rows) {
			end = len(rows)
		}
		rows = rows[query.Offset:end]
	}
	return rows, nil
}

func (r productRepo) Count(_ context.Context, filter domain.ProductFilter) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.matching(filter))), nil
}

func (r productRepo) GetByID(_ context.Context, productID uuid.UUID) (domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[productID]
	if !ok {
		return domain.Product{}, domain.ErrNotFound
	}
	return p, nil
}

func (r productRepo) GetByIDs(_ context.Context, productIDs []uuid.UUID) (map[uuid.UUID]domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[uuid.UUID]domain.Product, len(productIDs))
	for _, id := range productIDs {
		if p, ok := r.s.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (r productRepo) Update(_ context.Context, productID uuid.UUID, patch domain.ProductPatch, at time.Time) (domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[productID]
	if !ok {
		return domain.Product{}, domain.ErrNotFound
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.ClearDescription {
		p.Description = nil
	} else if patch.Description != nil {
		d := *patch.Description
		p.Description = &d
	}
	if patch.PriceCents != nil {
		p.PriceCents = *patch.PriceCents
	}
	if patch.StockQuantity != nil {
		p.StockQuantity = *patch.StockQuantity
	}
	if patch.IsActive != nil {
		p.IsActive = *patch.IsActive
	}
	p.UpdatedAt = at
	r.s.products[productID] = p
	return p, nil
}

func (r productRepo) CreateMany(_ context.Context, products []domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range products {
		r.s.products[p.ProductID] = p
	}
	return nil
}

type orderRepo struct{ s *Store }

// PlaceOrder checks every guarded decrement before applying any of them, so a
// failing line leaves stock untouched.
func (r orderRepo) PlaceOrder(_ context.Context, params ports.PlaceOrderParams, event ports.OutboxEvent) (domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	remaining := make(map[uuid.UUID]int, len(params.Items))
	for _, item := range params.Items {
		p, ok := r.s.products[item.ProductID]
		if !ok {
			return domain.Order{}, &domain.StockError{ProductID: item.ProductID, Reason: domain.StockReasonNotFound, Requested: item.Quantity}
		}
		if !p.IsActive {
			return domain.Order{}, &domain.StockError{ProductID: item.ProductID, Reason: domain.StockReasonInactive, Requested: item.Quantity}
		}
		stock, seen := remaining[item.ProductID]
		if !seen {
			stock = p.StockQuantity
		}
		if stock < item.Quantity {
			return domain.Order{}, &domain.StockError{
				ProductID: item.ProductID,
				Reason:    domain.StockReasonInsufficient,
				Requested: item.Quantity,
				Available: stock,
			}
		}
		remaining[item.ProductID] = stock - item.Quantity
	}
	for id, stock := range remaining {
		p := r.s.products[id]
		p.StockQuantity = stock
		p.UpdatedAt = params.CreatedAt
		r.s.products[id] = p
	}

	order := domain.Order{
		OrderID:    params.OrderID,
		UserID:     params.UserID,
		TotalCents: params.TotalCents,
		Status:     domain.OrderStatusPending,
		Items:      append([]domain.OrderItem(nil), params.Items...),
		CreatedAt:  params.CreatedAt,
		UpdatedAt:  params.CreatedAt,
	}
	r.s.orders[order.OrderID] = order
	r.s.enqueueLocked(event)
	return order, nil
}

func (r orderRepo) sorted(keep func(domain.Order) bool) []domain.Order {
	out := make([]domain.Order, 0)
	for _, o := range r.s.orders {
		if !keep(o) {
			continue
		}
		if u, ok := r.s.users[o.UserID]; ok {
			o.UserEmail = u.Email
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].OrderID.String() < out[j].OrderID.String()
	})
	return out
}

func (r orderRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.sorted(func(o domain.Order) bool { return o.UserID == userID }), nil
}

func (r orderRepo) GetForUser(_ context.Context, orderID, userID uuid.UUID) (domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[orderID]
	if !ok || o.UserID != userID {
		return domain.Order{}, domain.ErrNotFound
	}
	return o, nil
}

func (r orderRepo) ListAll(_ context.Context) ([]domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.sorted(func(domain.Order) bool { return true }), nil
}

func (r orderRepo) UpdateStatus(_ context.Context, orderID uuid.UUID, status domain.OrderStatus, at time.Time, event ports.OutboxEvent) (domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[orderID]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = at
	r.s.orders[orderID] = o
	r.s.enqueueLocked(event)
	return o, nil
}

type outboxRepo struct{ s *Store }

func (r outboxRepo) Enqueue(_ context.Context, event ports.OutboxEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.enqueueLocked(event)
	return nil
}

func (r outboxRepo) ClaimUnpublished(_ context.Context, limit int, claimToken string, claimUntil time.Time) ([]ports.OutboxRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now().UTC()
	out := make([]ports.OutboxRecord, 0)
	for i := range r.s.outbox {
		rec := &r.s.outbox[i]
		if rec.PublishedAt != nil || rec.DeadLetteredAt != nil {
			continue
		}
		if rec.ClaimUntil != nil && rec.ClaimUntil.After(now) {
			continue
		}
		token := claimToken
		until := claimUntil
		rec.ClaimToken = &token
		rec.ClaimUntil = &until
		out = append(out, *rec)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r outboxRepo) find(outboxID uuid.UUID, claimToken string) *ports.OutboxRecord {
	for i := range r.s.outbox {
		rec := &r.s.outbox[i]
		if rec.OutboxID == outboxID && rec.ClaimToken != nil && *rec.ClaimToken == claimToken {
			return rec
		}
	}
	return nil
}

func (r outboxRepo) MarkPublished(_ context.Context, outboxID uuid.UUID, claimToken string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if rec := r.find(outboxID, claimToken); rec != nil {
		rec.PublishedAt = &at
		rec.ClaimToken = nil
		rec.ClaimUntil = nil
	}
	return nil
}

func (r outboxRepo) MarkFailed(_ context.Context, outboxID uuid.UUID, claimToken, errMsg string, _ time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if rec := r.find(outboxID, claimToken); rec != nil {
		rec.RetryCount++
		msg := errMsg
		rec.LastError = &msg
		rec.ClaimToken = nil
		rec.ClaimUntil = nil
	}
	return nil
}

func (r outboxRepo) MarkDeadLettered(_ context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if rec := r.find(outboxID, claimToken); rec != nil {
		msg := errMsg
		rec.LastError = &msg
		rec.DeadLetteredAt = &at
		rec.ClaimToken = nil
		rec.ClaimUntil = nil
	}
	return nil
}

// Records returns a copy of the outbox table.
func (s *Store) Records() []ports.OutboxRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.OutboxRecord(nil), s.outbox...)
}

type analyticsRepo struct{ s *Store }

func (r analyticsRepo) Snapshot(_ context.Context, since time.Time, lowStockThreshold int) (ports.AnalyticsSnapshot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	snap := ports.AnalyticsSnapshot{OrdersByStatus: make(map[domain.OrderStatus]int64)}
	for _, o := range r.s.orders {
		if o.CreatedAt.Before(since) {
			continue
		}
		snap.OrderCount++
		snap.OrdersByStatus[o.Status]++
		if o.Status != domain.OrderStatusCancelled {
			snap.RevenueCents += o.TotalCents
		}
	}
	for _, p := range r.s.products {
		snap.ProductCount++
		if p.IsActive && p.StockQuantity <= lowStockThreshold {
			snap.LowStockCount++
		}
	}
	return snap, nil
}
