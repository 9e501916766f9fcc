package database

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/storefront/internal/domain"
	"github.com/viralforge/storefront/internal/ports"
	"gorm.io/gorm"
)

type productRepository struct {
	db *gorm.DB
}

func (r *productRepository) List(ctx context.Context, query ports.ProductListQuery) ([]domain.Product, error) {
	var rows []productModel
	q := applyProductFilter(r.db.WithContext(ctx).Model(&productModel{}), query.Filter)
	q = q.Order(productOrder(query.Sort)).Order("product_id ASC")
	if query.Limit > 0 {
		q = q.Limit(query.Limit).Offset(query.Offset)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		result = append(result, toDomainProduct(row))
	}
	return result, nil
}

func (r *productRepository) Count(ctx context.Context, filter domain.ProductFilter) (int64, error) {
	var count int64
	err := applyProductFilter(r.db.WithContext(ctx).Model(&productModel{}), filter).Count(&count).Error
	return count, err
}

func (r *productRepository) GetByID(ctx context.Context, productID uuid.UUID) (domain.Product, error) {
	var rec productModel
	if err := r.db.WithContext(ctx).Where("product_id = ?", productID).Take(&rec).Error; err != nil {
		if isRecordNotFound(err) {
			return domain.Product{}, domain.ErrNotFound
		}
		return domain.Product{}, err
	}
	return toDomainProduct(rec), nil
}

func (r *productRepository) GetByIDs(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]domain.Product, error) {
	result := make(map[uuid.UUID]domain.Product, len(productIDs))
	if len(productIDs) == 0 {
		return result, nil
	}
	var rows []productModel
	if err := r.db.WithContext(ctx).Where("product_id IN ?", productIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.ProductID] = toDomainProduct(row)
	}
	return result, nil
}

func (r *productRepository) Update(ctx context.Context, productID uuid.UUID, patch domain.ProductPatch, at time.Time) (domain.Product, error) {
	updates := map[string]any{"updated_at": at}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.ClearDescription {
		updates["description"] = nil
	} else if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.PriceCents != nil {
		updates["price_cents"] = *patch.PriceCents
	}
	if patch.StockQuantity != nil {
		updates["stock_quantity"] = *patch.StockQuantity
	}
	if patch.IsActive != nil {
		updates["is_active"] = *patch.IsActive
	}

	var result domain.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&productModel{}).Where("product_id = ?", productID).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		var rec productModel
		if err := tx.Where("product_id = ?", productID).Take(&rec).Error; err != nil {
			return err
		}
		result = toDomainProduct(rec)
		return nil
	})
	if err != nil {
		return domain.Product{}, err
	}
	return result, nil
}

func (r *productRepository) CreateMany(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}
	rows := make([]productModel, 0, len(products))
	for _, p := range products {
		rows = append(rows, productModel{
			ProductID:     p.ProductID,
			Name:          p.Name,
			Description:   p.Description,
			PriceCents:    p.PriceCents,
			StockQuantity: p.StockQuantity,
			IsActive:      p.IsActive,
			CreatedAt:     p.CreatedAt,
			UpdatedAt:     p.UpdatedAt,
		})
	}
	return r.db.WithContext(ctx).CreateInBatches(&rows, 100).Error
}

func applyProductFilter(q *gorm.DB, filter domain.ProductFilter) *gorm.DB {
	if filter.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	if name := strings.TrimSpace(filter.NameQuery); name != "" {
		q = q.Where(`LOWER(name) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(name))+"%")
	}
	if len(filter.IDs) > 0 {
		q = q.Where("product_id IN ?", filter.IDs)
	}
	return q
}

func productOrder(sort domain.ProductSort) string {
	switch sort {
	case domain.SortPriceAsc:
		return "price_cents ASC"
	case domain.SortPriceDesc:
		return "price_cents DESC"
	case domain.SortNameAsc:
		return "name ASC"
	case domain.SortNameDesc:
		return "name DESC"
	default:
		return "created_at DESC"
	}
}
