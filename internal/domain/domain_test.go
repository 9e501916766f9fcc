package domain

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()

	got, err := NormalizeEmail("  Jane.Doe@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, "Jane.Doe@Example.com", got)

	for _, bad := range []string{"", "plain", "a@b", "a@b.", "Jane <jane@example.com>", "a@.com"} {
		_, err := NormalizeEmail(bad)
		assert.ErrorIs(t, err, ErrInvalidInput, bad)
	}
}

func TestValidatePassword(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidatePassword("12345678"))
	assert.ErrorIs(t, ValidatePassword("1234567"), ErrInvalidInput)
	assert.ErrorIs(t, ValidatePassword(strings.Repeat("x", 73)), ErrInvalidInput)

	assert.ErrorIs(t, ValidatePassword("éééé"), ErrInvalidInput, "8 bytes but 4 characters")
	assert.NoError(t, ValidatePassword("éééééééé"))
	assert.ErrorIs(t, ValidatePassword(strings.Repeat("é", 37)), ErrInvalidInput, "74 bytes")
}

func TestAggregateLinesMergesDuplicates(t *testing.T) {
	t.Parallel()

	a, b := uuid.New(), uuid.New()
	lines, err := AggregateLines([]LineRequest{
		{ProductID: a.String(), Quantity: 1},
		{ProductID: b.String(), Quantity: 2},
		{ProductID: " " + a.String() + " ", Quantity: 4},
	})
	require.NoError(t, err)
	assert.Equal(t, []RequestedLine{{ProductID: a, Quantity: 5}, {ProductID: b, Quantity: 2}}, lines)

	_, err = AggregateLines(nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = AggregateLines([]LineRequest{{ProductID: a.String(), Quantity: -1}})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = AggregateLines([]LineRequest{{ProductID: "nope", Quantity: 1}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAggregateLinesBoundsQuantities(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	_, err := AggregateLines([]LineRequest{
		{ProductID: id.String(), Quantity: math.MaxInt},
		{ProductID: id.String(), Quantity: math.MaxInt},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = AggregateLines([]LineRequest{
		{ProductID: id.String(), Quantity: MaxLineQuantity},
		{ProductID: id.String(), Quantity: 1},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	lines, err := AggregateLines([]LineRequest{
		{ProductID: id.String(), Quantity: MaxLineQuantity - 1},
		{ProductID: id.String(), Quantity: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, MaxLineQuantity, lines[0].Quantity)
}

func TestPriceLinesRejectsOverflowingTotals(t *testing.T) {
	t.Parallel()

	a := Product{ProductID: uuid.New(), PriceCents: math.MaxInt64 / 2, StockQuantity: 10, IsActive: true}
	b := Product{ProductID: uuid.New(), PriceCents: math.MaxInt64 / 2, StockQuantity: 10, IsActive: true}
	catalog := map[uuid.UUID]Product{a.ProductID: a, b.ProductID: b}

	_, _, err := PriceLines([]RequestedLine{{ProductID: a.ProductID, Quantity: 3}}, catalog)
	assert.ErrorIs(t, err, ErrInvalidInput, "line total overflow")

	_, _, err = PriceLines([]RequestedLine{
		{ProductID: a.ProductID, Quantity: 1},
		{ProductID: b.ProductID, Quantity: 1},
		{ProductID: a.ProductID, Quantity: 1},
	}, catalog)
	assert.ErrorIs(t, err, ErrInvalidInput, "order total overflow")

	_, _, err = PriceLines([]RequestedLine{{ProductID: a.ProductID, Quantity: -2}}, catalog)
	var stockErr *StockError
	assert.True(t, errors.As(err, &stockErr), "non-positive quantities never fulfil")
}

func TestPriceLines(t *testing.T) {
	t.Parallel()

	active := Product{ProductID: uuid.New(), PriceCents: 450, StockQuantity: 3, IsActive: true}
	inactive := Product{ProductID: uuid.New(), PriceCents: 100, StockQuantity: 10}
	catalog := map[uuid.UUID]Product{active.ProductID: active, inactive.ProductID: inactive}

	items, total, err := PriceLines([]RequestedLine{{ProductID: active.ProductID, Quantity: 3}}, catalog)
	require.NoError(t, err)
	assert.Equal(t, int64(1350), total)
	assert.Equal(t, []OrderItem{{ProductID: active.ProductID, Quantity: 3, PriceCents: 450}}, items)

	_, _, err = PriceLines([]RequestedLine{{ProductID: active.ProductID, Quantity: 4}}, catalog)
	var stockErr *StockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, StockReasonInsufficient, stockErr.Reason)
	assert.Equal(t, 3, stockErr.Available)
	assert.ErrorIs(t, err, ErrStockUnavailable)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, _, err = PriceLines([]RequestedLine{{ProductID: inactive.ProductID, Quantity: 1}}, catalog)
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, StockReasonInactive, stockErr.Reason)

	missing := uuid.New()
	_, _, err = PriceLines([]RequestedLine{{ProductID: missing, Quantity: 1}}, catalog)
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, StockReasonNotFound, stockErr.Reason)
	assert.Contains(t, err.Error(), missing.String())
}

func TestParseOrderStatus(t *testing.T) {
	t.Parallel()

	for _, s := range OrderStatuses {
		got, err := ParseOrderStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := ParseOrderStatus("paid")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCatalogHelpers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, SortNewest, ParseProductSort(""))
	assert.Equal(t, SortNewest, ParseProductSort("random"))
	assert.Equal(t, SortPriceDesc, ParseProductSort("price_desc"))

	assert.Equal(t, 0, TotalPages(0))
	assert.Equal(t, 1, TotalPages(10))
	assert.Equal(t, 2, TotalPages(11))

	assert.True(t, ProductPatch{}.Empty())
	assert.False(t, ProductPatch{ClearDescription: true}.Empty())

	p := Product{IsActive: true, StockQuantity: 2}
	assert.True(t, p.CanFulfil(2))
	assert.False(t, p.CanFulfil(3))
	assert.False(t, p.CanFulfil(0))
	assert.False(t, p.CanFulfil(-2))
	p.IsActive = false
	assert.False(t, p.CanFulfil(1))
}
