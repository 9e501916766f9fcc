package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/viralforge/storefront/internal/domain"
	"github.com/viralforge/storefront/internal/ports"
	"gorm.io/gorm"
)

// analyticsRepository runs the dashboard aggregates as plain SQL over the
// pool GORM already owns.
type analyticsRepository struct {
	db *sqlx.DB
}

func newAnalyticsRepository(db *gorm.DB) (*analyticsRepository, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}
	driverName := "pgx"
	if db.Dialector.Name() == "sqlite" {
		driverName = "sqlite3"
	}
	return &analyticsRepository{db: sqlx.NewDb(sqlDB, driverName)}, nil
}

type statusCount struct {
	Status string `db:"status"`
	Count  int64  `db:"order_count"`
}

func (r *analyticsRepository) Snapshot(ctx context.Context, since time.Time, lowStockThreshold int) (ports.AnalyticsSnapshot, error) {
	snapshot := ports.AnalyticsSnapshot{OrdersByStatus: map[domain.OrderStatus]int64{}}

	if err := r.db.GetContext(ctx, &snapshot.OrderCount,
		r.db.Rebind(`SELECT COUNT(*) FROM orders WHERE created_at >= ?`), since); err != nil {
		return ports.AnalyticsSnapshot{}, fmt.Errorf("count orders: %w", err)
	}

	if err := r.db.GetContext(ctx, &snapshot.RevenueCents,
		r.db.Rebind(`SELECT COALESCE(SUM(total_cents), 0) FROM orders WHERE created_at >= ? AND status <> ?`),
		since, string(domain.OrderStatusCancelled)); err != nil {
		return ports.AnalyticsSnapshot{}, fmt.Errorf("sum revenue: %w", err)
	}

	var counts []statusCount
	if err := r.db.SelectContext(ctx, &counts,
		r.db.Rebind(`SELECT status, COUNT(*) AS order_count FROM orders WHERE created_at >= ? GROUP BY status`), since); err != nil {
		return ports.AnalyticsSnapshot{}, fmt.Errorf("group orders by status: %w", err)
	}
	for _, c := range counts {
		snapshot.OrdersByStatus[domain.OrderStatus(c.Status)] = c.Count
	}

	if err := r.db.GetContext(ctx, &snapshot.ProductCount, `SELECT COUNT(*) FROM products`); err != nil {
		return ports.AnalyticsSnapshot{}, fmt.Errorf("count products: %w", err)
	}

	if err := r.db.GetContext(ctx, &snapshot.LowStockCount,
		r.db.Rebind(`SELECT COUNT(*) FROM products WHERE is_active = ? AND stock_quantity <= ?`),
		true, lowStockThreshold); err != nil {
		return ports.AnalyticsSnapshot{}, fmt.Errorf("count low stock: %w", err)
	}

	return snapshot, nil
}
