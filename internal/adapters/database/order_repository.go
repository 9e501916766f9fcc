package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/storefront/internal/domain"
	"github.com/viralforge/storefront/internal/ports"
	"gorm.io/gorm"
)

type orderRepository struct {
	db *gorm.DB
}

func (r *orderRepository) PlaceOrder(ctx context.Context, params ports.PlaceOrderParams, outboxEvent ports.OutboxEvent) (domain.Order, error) {
	orderRec := orderModel{
		OrderID:    params.OrderID,
		UserID:     params.UserID,
		TotalCents: params.TotalCents,
		Status:     string(domain.OrderStatusPending),
		CreatedAt:  params.CreatedAt,
		UpdatedAt:  params.CreatedAt,
	}
	itemRecs := make([]orderItemModel, 0, len(params.Items))
	for _, item := range params.Items {
		itemRecs = append(itemRecs, orderItemModel{
			OrderItemID: uuid.New(),
			OrderID:     params.OrderID,
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			PriceCents:  item.PriceCents,
		})
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&orderRec).Error; err != nil {
			return err
		}
		if len(itemRecs) > 0 {
			if err := tx.Create(&itemRecs).Error; err != nil {
				return err
			}
		}
		for _, item := range params.Items {
			if err := decrementStock(tx, item, params.CreatedAt); err != nil {
				return err
			}
		}
		outbox := newOutboxModel(outboxEvent)
		return tx.Create(&outbox).Error
	})
	if err != nil {
		var stockErr *domain.StockError
		if errors.As(err, &stockErr) {
			return domain.Order{}, err
		}
		return domain.Order{}, fmt.Errorf("%w: %v", domain.ErrTransactionFailed, err)
	}
	return toDomainOrder(orderRec, itemRecs), nil
}

// decrementStock applies a guarded decrement that only succeeds while the
// product is active and holds enough stock. On a miss the row is re-read to
// report why.
func decrementStock(tx *gorm.DB, item domain.OrderItem, at time.Time) error {
	res := tx.Model(&productModel{}).
		Where("product_id = ?", item.ProductID).
		Where("is_active = ?", true).
		Where("stock_quantity >= ?", item.Quantity).
		Updates(map[string]any{
			"stock_quantity": gorm.Expr("stock_quantity - ?", item.Quantity),
			"updated_at":     at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var current productModel
	if err := tx.Where("product_id = ?", item.ProductID).Take(&current).Error; err != nil {
		if isRecordNotFound(err) {
			return &domain.StockError{ProductID: item.ProductID, Reason: domain.StockReasonNotFound, Requested: item.Quantity}
		}
		return err
	}
	if !current.IsActive {
		return &domain.StockError{ProductID: item.ProductID, Reason: domain.StockReasonInactive, Requested: item.Quantity}
	}
	return &domain.StockError{
		ProductID: item.ProductID,
		Reason:    domain.StockReasonInsufficient,
		Requested: item.Quantity,
		Available: current.StockQuantity,
	}
}

func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Order, error) {
	var rows []orderModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("order_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	items, err := r.loadItems(ctx, orderIDs(rows))
	if err != nil {
		return nil, err
	}
	result := make([]domain.Order, 0, len(rows))
	for _, row := range rows {
		result = append(result, toDomainOrder(row, items[row.OrderID]))
	}
	return result, nil
}

func (r *orderRepository) GetForUser(ctx context.Context, orderID, userID uuid.UUID) (domain.Order, error) {
	var rec orderModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Where("user_id = ?", userID).
		Take(&rec).Error; err != nil {
		if isRecordNotFound(err) {
			return domain.Order{}, domain.ErrNotFound
		}
		return domain.Order{}, err
	}
	items, err := r.loadItems(ctx, []uuid.UUID{rec.OrderID})
	if err != nil {
		return domain.Order{}, err
	}
	return toDomainOrder(rec, items[rec.OrderID]), nil
}

func (r *orderRepository) ListAll(ctx context.Context) ([]domain.Order, error) {
	var rows []orderWithEmail
	if err := r.db.WithContext(ctx).
		Table("orders").
		Select("orders.order_id, orders.user_id, orders.total_cents, orders.status, orders.created_at, orders.updated_at, users.email AS user_email").
		Joins("JOIN users ON users.user_id = orders.user_id").
		Order("orders.created_at DESC").
		Order("orders.order_id ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.OrderID)
	}
	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	result := make([]domain.Order, 0, len(rows))
	for _, row := range rows {
		order := toDomainOrder(row.orderModel, items[row.OrderID])
		order.UserEmail = row.UserEmail
		result = append(result, order)
	}
	return result, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus, at time.Time, outboxEvent ports.OutboxEvent) (domain.Order, error) {
	var rec orderModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&orderModel{}).
			Where("order_id = ?", orderID).
			Updates(map[string]any{
				"status":     string(status),
				"updated_at": at,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		if err := tx.Where("order_id = ?", orderID).Take(&rec).Error; err != nil {
			return err
		}
		outbox := newOutboxModel(outboxEvent)
		return tx.Create(&outbox).Error
	})
	if err != nil {
		return domain.Order{}, err
	}
	return toDomainOrder(rec, nil), nil
}

func (r *orderRepository) loadItems(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]orderItemModel, error) {
	result := make(map[uuid.UUID][]orderItemModel, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var rows []orderItemModel
	if err := r.db.WithContext(ctx).
		Where("order_id IN ?", ids).
		Order("order_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.OrderID] = append(result[row.OrderID], row)
	}
	return result, nil
}

func orderIDs(rows []orderModel) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.OrderID)
	}
	return ids
}
