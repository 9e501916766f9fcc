package domain

import (
	"time"

	"github.com/google/uuid"
)

// CatalogPageSize is the fixed page size of the storefront listing.
const CatalogPageSize = 10

// LowStockThreshold is the stock level at or below which an active product counts as low stock.
const LowStockThreshold = 5

type Product struct {
	ProductID     uuid.UUID
	Name          string
	Description   *string
	PriceCents    int64
	StockQuantity int
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CanFulfil applies the single definition of "active and in stock" shared by
// the catalog and checkout paths.
func (p Product) CanFulfil(quantity int) bool {
	return p.IsActive && quantity > 0 && quantity <= p.StockQuantity
}

type ProductSort string

const (
	SortNewest    ProductSort = "newest"
	SortPriceAsc  ProductSort = "price_asc"
	SortPriceDesc ProductSort = "price_desc"
	SortNameAsc   ProductSort = "name_asc"
	SortNameDesc  ProductSort = "name_desc"
)

// ParseProductSort maps a query value to a sort order; unknown values sort newest first.
func ParseProductSort(raw string) ProductSort {
	switch ProductSort(raw) {
	case SortPriceAsc, SortPriceDesc, SortNameAsc, SortNameDesc:
		return ProductSort(raw)
	default:
		return SortNewest
	}
}

// ProductFilter selects products for listing and counting.
type ProductFilter struct {
	ActiveOnly bool
	NameQuery  string
	IDs        []uuid.UUID
}

// ProductPatch carries the optional fields of an admin product update.
type ProductPatch struct {
	Name             *string
	Description      *string
	ClearDescription bool
	PriceCents       *int64
	StockQuantity    *int
	IsActive         *bool
}

func (p ProductPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && !p.ClearDescription &&
		p.PriceCents == nil && p.StockQuantity == nil && p.IsActive == nil
}

// TotalPages returns the number of catalog pages needed for count rows.
func TotalPages(count int64) int {
	if count <= 0 {
		return 0
	}
	return int((count + CatalogPageSize - 1) / CatalogPageSize)
}
