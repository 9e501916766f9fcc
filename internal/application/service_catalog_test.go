package application

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viralforge/storefront/internal/domain"
)

func TestListProductsHidesInactiveAndPaginates(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 12; i++ {
		f.addProduct(fmt.Sprintf("Item %02d", i), int64(100+i), 5, true)
	}
	hidden := f.addProduct("Hidden Item", 1, 5, false)

	all, err := f.service.ListProducts(ctx, ProductListRequest{})
	require.NoError(t, err)
	assert.Len(t, all.Products, 12)
	assert.Equal(t, 2, all.TotalPages)
	assert.Equal(t, "Item 11", all.Products[0].Name, "newest first by default")

	page2, err := f.service.ListProducts(ctx, ProductListRequest{Page: 2, Sort: "price_asc"})
	require.NoError(t, err)
	require.Len(t, page2.Products, 2)
	assert.Equal(t, int64(110), page2.Products[0].PriceCents)

	_, err = f.service.GetProduct(ctx, hidden.ProductID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.service.GetProduct(ctx, "bad-id")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListProductsFiltersByNameAndIDs(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	mug := f.addProduct("Coffee Mug", 1200, 5, true)
	f.addProduct("Tea Cup", 900, 5, true)
	pen := f.addProduct("Fountain Pen", 3000, 5, true)

	res, err := f.service.ListProducts(ctx, ProductListRequest{Query: "MUG"})
	require.NoError(t, err)
	require.Len(t, res.Products, 1)
	assert.Equal(t, mug.ProductID, res.Products[0].ProductID)

	res, err = f.service.ListProducts(ctx, ProductListRequest{
		IDs:  []string{mug.ProductID.String() + ",garbage", pen.ProductID.String()},
		Sort: "name_asc",
	})
	require.NoError(t, err)
	require.Len(t, res.Products, 2)
	assert.Equal(t, "Coffee Mug", res.Products[0].Name)
	assert.Equal(t, "Fountain Pen", res.Products[1].Name)
}

func TestListProductsIDFilterEdgeCases(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		f.addProduct(fmt.Sprintf("Card %d", i), 300, 5, true)
	}

	tests := []struct {
		name  string
		ids   []string
		want  int
		pages int
	}{
		{name: "stale id only", ids: []string{"stale-id"}, want: 0, pages: 0},
		{name: "several malformed", ids: []string{"x,y", "z"}, want: 0, pages: 0},
		{name: "unknown uuid", ids: []string{uuid.NewString()}, want: 0, pages: 0},
		{name: "empty value", ids: []string{""}, want: 3, pages: 1},
		{name: "blank segments", ids: []string{" , ,"}, want: 3, pages: 1},
		{name: "absent", ids: nil, want: 3, pages: 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := f.service.ListProducts(ctx, ProductListRequest{IDs: tc.ids})
			require.NoError(t, err)
			assert.Len(t, res.Products, tc.want)
			assert.NotNil(t, res.Products)
			assert.Equal(t, tc.pages, res.TotalPages)
		})
	}
}

func TestUpdateProduct(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct("Plant", 1500, 5, true)

	name := "  Potted Plant "
	stock := int64(0)
	inactive := false
	updated, err := f.service.UpdateProduct(ctx, p.ProductID.String(), ProductUpdateRequest{
		Name:           &name,
		DescriptionSet: true,
		StockQuantity:  &stock,
		IsActive:       &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, "Potted Plant", updated.Name)
	assert.Nil(t, updated.Description)
	assert.Equal(t, 0, updated.StockQuantity)
	assert.False(t, updated.IsActive)

	negative := int64(-1)
	_, err = f.service.UpdateProduct(ctx, p.ProductID.String(), ProductUpdateRequest{PriceCents: &negative})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.service.UpdateProduct(ctx, p.ProductID.String(), ProductUpdateRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	blank := " "
	_, err = f.service.UpdateProduct(ctx, p.ProductID.String(), ProductUpdateRequest{Name: &blank})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	all, err := f.service.ListAllProducts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].IsActive)
}

func TestSeedIsRepeatable(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	first, err := f.service.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"admin@example.com", "demo@example.com"}, first.Users)
	assert.Equal(t, len(sampleCatalog), first.ProductsCreated)

	second, err := f.service.Seed(ctx)
	require.NoError(t, err)
	assert.Zero(t, second.ProductsCreated)

	res, err := f.service.Login(ctx, LoginRequest{Email: "admin@example.com", Password: "admin12345"})
	require.NoError(t, err)
	identity, err := f.service.GetSessionUser(ctx, res.Session.Token)
	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.True(t, identity.IsAdmin())
}

func TestFormatCents(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0.00", formatCents(0))
	assert.Equal(t, "12.05", formatCents(1205))
	assert.Equal(t, "-0.99", formatCents(-99))
}
