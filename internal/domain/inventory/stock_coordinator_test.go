package inventory

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minegocio/backend/internal/domain/catalog"
	"github.com/minegocio/backend/internal/domain/shared"
	"github.com/minegocio/backend/internal/domain/shared/valueobject"
)

func newProduct(t *testing.T, stock int) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct("Gaseosa", decimal.NewFromInt(100))
	require.NoError(t, err)
	p.ID = 1
	p.Stock = stock
	return p
}

func TestStockCoordinator_SaleItemLifecycle(t *testing.T) {
	c := NewStockCoordinator()
	p := newProduct(t, 10)

	change, err := c.OnSaleItemInsert(p, 3)
	require.NoError(t, err)
	assert.Equal(t, 7, p.Stock)
	assert.Equal(t, 10, change.Before)
	assert.Equal(t, 7, change.After)
	assert.Equal(t, -3, change.Applied())
	assert.Equal(t, EventSaleItemInsert, change.Event)

	_, err = c.OnSaleItemUpdate(p, 3, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, p.Stock)

	_, err = c.OnSaleItemUpdate(p, 5, 1)
	require.NoError(t, err)
	assert.Equal(t, 9, p.Stock)

	_, err = c.OnSaleItemDelete(p, 1)
	require.NoError(t, err)
	assert.Equal(t, 10, p.Stock)
}

func TestStockCoordinator_OnSaleItemInsert(t *testing.T) {
	c := NewStockCoordinator()

	t.Run("rejects more than available and leaves stock unchanged", func(t *testing.T) {
		p := newProduct(t, 2)
		_, err := c.OnSaleItemInsert(p, 3)
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))

		var serr *shared.InsufficientStockError
		require.True(t, errors.As(err, &serr))
		assert.Equal(t, 3, serr.Requested)
		assert.Equal(t, 2, serr.Available)
		assert.Equal(t, 2, p.Stock)
	})

	t.Run("exact stock is allowed", func(t *testing.T) {
		p := newProduct(t, 4)
		_, err := c.OnSaleItemInsert(p, 4)
		require.NoError(t, err)
		assert.Equal(t, 0, p.Stock)
	})

	t.Run("rejects inactive product", func(t *testing.T) {
		p := newProduct(t, 4)
		p.IsActive = false
		_, err := c.OnSaleItemInsert(p, 1)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		assert.Equal(t, 4, p.Stock)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		p := newProduct(t, 4)
		_, err := c.OnSaleItemInsert(p, 0)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})
}

func TestStockCoordinator_OnSaleItemUpdate(t *testing.T) {
	c := NewStockCoordinator()

	t.Run("only the increase is checked against stock", func(t *testing.T) {
		p := newProduct(t, 2)
		_, err := c.OnSaleItemUpdate(p, 8, 10)
		require.NoError(t, err)
		assert.Equal(t, 0, p.Stock)

		_, err = c.OnSaleItemUpdate(p, 10, 11)
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
		assert.Equal(t, 0, p.Stock)
	})

	t.Run("same quantity is a no-op", func(t *testing.T) {
		p := newProduct(t, 6)
		change, err := c.OnSaleItemUpdate(p, 2, 2)
		require.NoError(t, err)
		assert.Equal(t, 0, change.Applied())
		assert.Equal(t, 6, p.Stock)
	})
}

func TestStockCoordinator_PurchaseItemLifecycle(t *testing.T) {
	c := NewStockCoordinator()
	p := newProduct(t, 5)
	cost := decimal.RequireFromString("40.00")
	p.CostPrice = &cost

	change, err := c.OnPurchaseItemInsert(p, 20, decimal.RequireFromString("50.00"))
	require.NoError(t, err)
	assert.Equal(t, 25, p.Stock)
	assert.True(t, p.CostPrice.Equal(decimal.NewFromInt(50)))
	require.NotNil(t, change.CostPrice)

	_, err = c.OnPurchaseItemUpdate(p, 20, 15, decimal.RequireFromString("45.00"))
	require.NoError(t, err)
	assert.Equal(t, 20, p.Stock)
	assert.True(t, p.CostPrice.Equal(decimal.NewFromInt(45)))

	_, err = c.OnPurchaseItemDelete(p, 15)
	require.NoError(t, err)
	assert.Equal(t, 5, p.Stock)
}

func TestStockCoordinator_PurchaseFloors(t *testing.T) {
	c := NewStockCoordinator()

	t.Run("delete floors at zero", func(t *testing.T) {
		p := newProduct(t, 4)
		change, err := c.OnPurchaseItemDelete(p, 10)
		require.NoError(t, err)
		assert.True(t, change.Clamped)
		assert.Equal(t, 0, p.Stock)
		assert.Equal(t, -10, change.Requested)
		assert.Equal(t, -4, change.Applied())
	})

	t.Run("update floors at zero", func(t *testing.T) {
		p := newProduct(t, 1)
		change, err := c.OnPurchaseItemUpdate(p, 10, 2, decimal.NewFromInt(3))
		require.NoError(t, err)
		assert.True(t, change.Clamped)
		assert.Equal(t, 0, p.Stock)
	})

	t.Run("invalid cost is rejected before stock moves", func(t *testing.T) {
		p := newProduct(t, 1)
		_, err := c.OnPurchaseItemInsert(p, 2, decimal.RequireFromString("-1"))
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		assert.Equal(t, 1, p.Stock)
	})
}

func TestStockCoordinator_QuantityBound(t *testing.T) {
	c := NewStockCoordinator()

	t.Run("receiving past the stock range is rejected", func(t *testing.T) {
		p := newProduct(t, valueobject.MaxQuantity-10)
		_, err := c.OnPurchaseItemInsert(p, 11, decimal.RequireFromString("5.00"))
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		assert.Equal(t, valueobject.MaxQuantity-10, p.Stock)
	})

	t.Run("sale quantity above the range is rejected before stock is read", func(t *testing.T) {
		var limit int64 = valueobject.MaxQuantity
		p := newProduct(t, 5)
		_, err := c.OnSaleItemInsert(p, int(limit+1))
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		assert.False(t, errors.Is(err, shared.ErrInsufficientStock))
		assert.Equal(t, 5, p.Stock)
	})
}

func TestStockCoordinator_OnManualAdjustment(t *testing.T) {
	c := NewStockCoordinator()

	t.Run("adds counted units", func(t *testing.T) {
		p := newProduct(t, 4)
		change, err := c.OnManualAdjustment(p, 6)
		require.NoError(t, err)
		assert.Equal(t, 10, p.Stock)
		assert.Equal(t, EventManualAdjustment, change.Event)
		assert.Equal(t, 6, change.Applied())
		assert.False(t, change.Clamped)
	})

	t.Run("removal floors at zero", func(t *testing.T) {
		p := newProduct(t, 3)
		change, err := c.OnManualAdjustment(p, -5)
		require.NoError(t, err)
		assert.Equal(t, 0, p.Stock)
		assert.True(t, change.Clamped)
		assert.Equal(t, -5, change.Requested)
		assert.Equal(t, -3, change.Applied())
	})

	t.Run("zero is rejected", func(t *testing.T) {
		p := newProduct(t, 3)
		_, err := c.OnManualAdjustment(p, 0)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		assert.Equal(t, 3, p.Stock)
	})

	t.Run("inactive products can still be counted", func(t *testing.T) {
		p := newProduct(t, 3)
		p.IsActive = false
		_, err := c.OnManualAdjustment(p, -1)
		require.NoError(t, err)
		assert.Equal(t, 2, p.Stock)
	})
}

func TestStockCoordinator_NegativeStoredStockIsAViolation(t *testing.T) {
	c := NewStockCoordinator()
	p := newProduct(t, -1)

	_, err := c.OnSaleItemDelete(p, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrConsistencyViolation))
	assert.Equal(t, -1, p.Stock)
}

func TestStockCoordinator_NilProduct(t *testing.T) {
	_, err := NewStockCoordinator().OnSaleItemInsert(nil, 1)
	assert.Error(t, err)
}
