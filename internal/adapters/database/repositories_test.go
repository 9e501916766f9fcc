package database

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viralforge/storefront/internal/application"
	"github.com/viralforge/storefront/internal/domain"
	"github.com/viralforge/storefront/internal/ports"
)

func newSQLiteRepos(t *testing.T) Repositories {
	t.Helper()
	ctx := context.Background()

	db, err := Connect(ctx, Options{Driver: DriverSQLite, URL: filepath.Join(t.TempDir(), "storefront.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	require.NoError(t, RunMigrations(ctx, db))
	require.NoError(t, RunMigrations(ctx, db), "migrations must be rerunnable")

	repos, err := NewRepositories(db)
	require.NoError(t, err)
	return repos
}

func testEvent(eventType string) ports.OutboxEvent {
	return ports.OutboxEvent{
		EventID:      uuid.New(),
		EventType:    eventType,
		PartitionKey: "key",
		Payload:      []byte(`{"ok":true}`),
		OccurredAt:   time.Now().UTC(),
	}
}

func createUser(t *testing.T, repos Repositories, email string, role domain.Role) domain.User {
	t.Helper()
	user, err := repos.Users.Create(context.Background(), ports.CreateUserParams{
		Email:        email,
		PasswordHash: "hash",
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}, testEvent("user.registered"))
	require.NoError(t, err)
	return user
}

func seedProduct(t *testing.T, repos Repositories, name string, price int64, stock int, active bool, createdAt time.Time) domain.Product {
	t.Helper()
	p := domain.Product{
		ProductID:     uuid.New(),
		Name:          name,
		PriceCents:    price,
		StockQuantity: stock,
		IsActive:      active,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
	require.NoError(t, repos.Products.CreateMany(context.Background(), []domain.Product{p}))
	return p
}

func TestUserRepository(t *testing.T) {
	repos := newSQLiteRepos(t)
	ctx := context.Background()

	user := createUser(t, repos, "Case@Example.com", domain.RoleCustomer)

	_, err := repos.Users.Create(ctx, ports.CreateUserParams{
		Email: "Case@Example.com", PasswordHash: "x", Role: domain.RoleCustomer, CreatedAt: time.Now().UTC(),
	}, testEvent("user.registered"))
	assert.ErrorIs(t, err, domain.ErrConflict)

	got, err := repos.Users.GetByEmail(ctx, "Case@Example.com")
	require.NoError(t, err)
	assert.Equal(t, user.UserID, got.UserID)

	_, err = repos.Users.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	promoted, err := repos.Users.UpsertByEmail(ctx, ports.CreateUserParams{
		Email: "Case@Example.com", PasswordHash: "ignored", Role: domain.RoleAdmin, CreatedAt: time.Now().UTC(),
	}, true)
	require.NoError(t, err)
	assert.Equal(t, user.UserID, promoted.UserID)
	assert.Equal(t, domain.RoleAdmin, promoted.Role)
	assert.Equal(t, "hash", promoted.PasswordHash)

	unchanged, err := repos.Users.UpsertByEmail(ctx, ports.CreateUserParams{
		Email: "Case@Example.com", PasswordHash: "ignored", Role: domain.RoleCustomer, CreatedAt: time.Now().UTC(),
	}, false)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, unchanged.Role)
}

func TestSessionRepository(t *testing.T) {
	repos := newSQLiteRepos(t)
	ctx := context.Background()
	user := createUser(t, repos, "s@example.com", domain.RoleAdmin)
	now := time.Now().UTC()

	live, err := repos.Sessions.Create(ctx, ports.SessionCreateParams{
		UserID: user.UserID, TokenHash: "live-hash", ExpiresAt: now.Add(time.Hour), CreatedAt: now,
	})
	require.NoError(t, err)
	_, err = repos.Sessions.Create(ctx, ports.SessionCreateParams{
		UserID: user.UserID, TokenHash: "old-hash", ExpiresAt: now.Add(-time.Hour), CreatedAt: now.Add(-2 * time.Hour),
	})
	require.NoError(t, err)

	sess, identity, err := repos.Sessions.GetByTokenHash(ctx, "live-hash")
	require.NoError(t, err)
	assert.Equal(t, live.SessionID, sess.SessionID)
	assert.Equal(t, domain.Identity{UserID: user.UserID, Email: "s@example.com", Role: domain.RoleAdmin}, identity)

	_, _, err = repos.Sessions.GetByTokenHash(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	deleted, err := repos.Sessions.DeleteExpired(ctx, now, 100)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	require.NoError(t, repos.Sessions.DeleteByTokenHash(ctx, "live-hash"))
	_, _, err = repos.Sessions.GetByTokenHash(ctx, "live-hash")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProductRepositoryListing(t *testing.T) {
	repos := newSQLiteRepos(t)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	old := seedProduct(t, repos, "Blue Mug", 900, 5, true, base)
	newer := seedProduct(t, repos, "Red Mug", 1500, 5, true, base.Add(time.Minute))
	seedProduct(t, repos, "100% Cotton Tee", 2000, 5, true, base.Add(2*time.Minute))
	seedProduct(t, repos, "Hidden Mug", 100, 5, false, base.Add(3*time.Minute))

	active := domain.ProductFilter{ActiveOnly: true}
	rows, err := repos.Products.List(ctx, ports.ProductListQuery{Filter: active, Sort: domain.SortNewest})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "100% Cotton Tee", rows[0].Name)

	mugs := domain.ProductFilter{ActiveOnly: true, NameQuery: "mug"}
	rows, err = repos.Products.List(ctx, ports.ProductListQuery{Filter: mugs, Sort: domain.SortPriceDesc})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, newer.ProductID, rows[0].ProductID)

	count, err := repos.Products.Count(ctx, mugs)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	percent := domain.ProductFilter{ActiveOnly: true, NameQuery: "100%"}
	rows, err = repos.Products.List(ctx, ports.ProductListQuery{Filter: percent})
	require.NoError(t, err)
	require.Len(t, rows, 1, "LIKE wildcards in the query are matched literally")

	byID := domain.ProductFilter{IDs: []uuid.UUID{old.ProductID}}
	rows, err = repos.Products.List(ctx, ports.ProductListQuery{Filter: byID, Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	rows, err = repos.Products.List(ctx, ports.ProductListQuery{Filter: active, Sort: domain.SortNameAsc, Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Red Mug", rows[0].Name)

	found, err := repos.Products.GetByIDs(ctx, []uuid.UUID{old.ProductID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestProductListingIDFilterOnSQLite(t *testing.T) {
	repos := newSQLiteRepos(t)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)
	for i, name := range []string{"Atlas", "Globe", "Compass"} {
		seedProduct(t, repos, name, 1000, 3, true, base.Add(time.Duration(i)*time.Minute))
	}

	unknown := domain.ProductFilter{ActiveOnly: true, IDs: []uuid.UUID{uuid.New()}}
	rows, err := repos.Products.List(ctx, ports.ProductListQuery{Filter: unknown})
	require.NoError(t, err)
	assert.Empty(t, rows)
	count, err := repos.Products.Count(ctx, unknown)
	require.NoError(t, err)
	assert.Zero(t, count)

	unfiltered := domain.ProductFilter{ActiveOnly: true, IDs: []uuid.UUID{}}
	count, err = repos.Products.Count(ctx, unfiltered)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	svc := application.NewService(application.Dependencies{Products: repos.Products})
	res, err := svc.ListProducts(ctx, application.ProductListRequest{IDs: []string{"stale-id"}})
	require.NoError(t, err)
	assert.Empty(t, res.Products)
	assert.Zero(t, res.TotalPages)

	res, err = svc.ListProducts(ctx, application.ProductListRequest{IDs: []string{""}})
	require.NoError(t, err)
	assert.Len(t, res.Products, 3)
}

func TestProductRepositoryUpdate(t *testing.T) {
	repos := newSQLiteRepos(t)
	ctx := context.Background()
	desc := "original"
	p := domain.Product{
		ProductID: uuid.New(), Name: "Vase", Description: &desc, PriceCents: 700, StockQuantity: 2,
		IsActive: true, CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, repos.Products.CreateMany(ctx, []domain.Product{p}))

	price := int64(800)
	updated, err := repos.Products.Update(ctx, p.ProductID, domain.ProductPatch{PriceCents: &price, ClearDescription: true}, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(800), updated.PriceCents)
	assert.Nil(t, updated.Description)
	assert.Equal(t, "Vase", updated.Name)

	_, err = repos.Products.Update(ctx, uuid.New(), domain.ProductPatch{PriceCents: &price}, time.Now().UTC())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPlaceOrderIsAllOrNothing(t *testing.T) {
	repos := newSQLiteRepos(t)
	ctx := context.Background()
	user := createUser(t, repos, "buyer@example.com", domain.RoleCustomer)
	now := time.Now().UTC()
	plenty := seedProduct(t, repos, "Plenty", 100, 10, true, now)
	scarce := seedProduct(t, repos, "Scarce", 200, 1, true, now)

	_, err := repos.Orders.PlaceOrder(ctx, ports.PlaceOrderParams{
		OrderID:    uuid.New(),
		UserID:     user.UserID,
		TotalCents: 100*2 + 200*2,
		Items: []domain.OrderItem{
			{ProductID: plenty.ProductID, Quantity: 2, PriceCents: 100},
			{ProductID: scarce.ProductID, Quantity: 2, PriceCents: 200},
		},
		CreatedAt: now,
	}, testEvent("order.placed"))
	var stockErr *domain.StockError
	require.True(t, errors.As(err, &stockErr), "expected stock error, got %v", err)
	assert.Equal(t, scarce.ProductID, stockErr.ProductID)
	assert.Equal(t, 1, stockErr.Available)

	rows, err := repos.Products.GetByIDs(ctx, []uuid.UUID{plenty.ProductID, scarce.ProductID})
	require.NoError(t, err)
	assert.Equal(t, 10, rows[plenty.ProductID].StockQuantity, "earlier decrement must roll back")
	assert.Equal(t, 1, rows[scarce.ProductID].StockQuantity)

	orders, err := repos.Orders.ListByUser(ctx, user.UserID)
	require.NoError(t, err)
	assert.Empty(t, orders)

	order, err := repos.Orders.PlaceOrder(ctx, ports.PlaceOrderParams{
		OrderID:    uuid.New(),
		UserID:     user.UserID,
		TotalCents: 300,
		Items: []domain.OrderItem{
			{ProductID: plenty.ProductID, Quantity: 1, PriceCents: 100},
			{ProductID: scarce.ProductID, Quantity: 1, PriceCents: 200},
		},
		CreatedAt: now,
	}, testEvent("order.placed"))
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, order.Status)

	got, err := repos.Orders.GetForUser(ctx, order.OrderID, user.UserID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 2)
	_, err = repos.Orders.GetForUser(ctx, order.OrderID, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	rows, err = repos.Products.GetByIDs(ctx, []uuid.UUID{scarce.ProductID})
	require.NoError(t, err)
	assert.Equal(t, 0, rows[scarce.ProductID].StockQuantity)
}

func TestPlaceOrderConcurrentDecrements(t *testing.T) {
	repos := newSQLiteRepos(t)
	ctx := context.Background()
	user := createUser(t, repos, "race@example.com", domain.RoleCustomer)
	p := seedProduct(t, repos, "Limited", 1000, 5, true, time.Now().UTC())

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repos.Orders.PlaceOrder(ctx, ports.PlaceOrderParams{
				OrderID:    uuid.New(),
				UserID:     user.UserID,
				TotalCents: 2000,
				Items:      []domain.OrderItem{{ProductID: p.ProductID, Quantity: 2, PriceCents: 1000}},
				CreatedAt:  time.Now().UTC(),
			}, testEvent("order.placed"))
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, domain.ErrStockUnavailable)
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, success)
	rows, err := repos.Products.GetByIDs(ctx, []uuid.UUID{p.ProductID})
	require.NoError(t, err)
	assert.Equal(t, 1, rows[p.ProductID].StockQuantity)
}

func TestOrderStatusAndAnalytics(t *testing.T) {
	repos := newSQLiteRepos(t)
	ctx := context.Background()
	user := createUser(t, repos, "admin-view@example.com", domain.RoleCustomer)
	now := time.Now().UTC()
	p := seedProduct(t, repos, "Book", 1500, 8, true, now)

	var ids []uuid.UUID
	for i := 0; i < 2; i++ {
		order, err := repos.Orders.PlaceOrder(ctx, ports.PlaceOrderParams{
			OrderID:    uuid.New(),
			UserID:     user.UserID,
			TotalCents: 1500,
			Items:      []domain.OrderItem{{ProductID: p.ProductID, Quantity: 1, PriceCents: 1500}},
			CreatedAt:  now.Add(time.Duration(i) * time.Second),
		}, testEvent("order.placed"))
		require.NoError(t, err)
		ids = append(ids, order.OrderID)
	}

	updated, err := repos.Orders.UpdateStatus(ctx, ids[0], domain.OrderStatusCancelled, now, testEvent("order.status_changed"))
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, updated.Status)
	_, err = repos.Orders.UpdateStatus(ctx, uuid.New(), domain.OrderStatusPaid, now, testEvent("order.status_changed"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	all, err := repos.Orders.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, ids[1], all[0].OrderID)
	assert.Equal(t, "admin-view@example.com", all[0].UserEmail)
	assert.Len(t, all[0].Items, 1)

	snap, err := repos.Analytics.Snapshot(ctx, now.Add(-time.Hour), domain.LowStockThreshold)
	require.NoError(t, err)
	assert.EqualValues(t, 2, snap.OrderCount)
	assert.EqualValues(t, 1500, snap.RevenueCents)
	assert.EqualValues(t, 1, snap.OrdersByStatus[domain.OrderStatusCancelled])
	assert.EqualValues(t, 1, snap.OrdersByStatus[domain.OrderStatusPending])
	assert.EqualValues(t, 1, snap.ProductCount)
	assert.EqualValues(t, 0, snap.LowStockCount)
}

func TestOutboxClaimLifecycle(t *testing.T) {
	repos := newSQLiteRepos(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repos.Outbox.Enqueue(ctx, testEvent("order.placed")))
	}

	claimed, err := repos.Outbox.ClaimUnpublished(ctx, 2, "worker-a", time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, claimed, 2)

	others, err := repos.Outbox.ClaimUnpublished(ctx, 10, "worker-b", time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, others, 1, "rows under an active claim are skipped")

	now := time.Now().UTC()
	require.NoError(t, repos.Outbox.MarkPublished(ctx, claimed[0].OutboxID, "worker-a", now))
	require.NoError(t, repos.Outbox.MarkFailed(ctx, claimed[1].OutboxID, "worker-a", "broker down", now))
	require.NoError(t, repos.Outbox.MarkDeadLettered(ctx, others[0].OutboxID, "worker-b", "poison", now))

	retry, err := repos.Outbox.ClaimUnpublished(ctx, 10, "worker-c", time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, retry, 1)
	assert.Equal(t, claimed[1].OutboxID, retry[0].OutboxID)
	assert.Equal(t, 1, retry[0].RetryCount)
	require.NotNil(t, retry[0].LastError)
	assert.Equal(t, "broker down", *retry[0].LastError)
}
