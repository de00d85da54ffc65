package inventory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appinv "github.com/minegocio/backend/internal/application/inventory"
	"github.com/minegocio/backend/internal/domain/identity"
	"github.com/minegocio/backend/internal/domain/shared"
	"github.com/minegocio/backend/internal/infrastructure/persistence"
	"github.com/minegocio/backend/tests/testutil"
)

func newLineItemService(db *persistence.Database) *appinv.LineItemService {
	runner := appinv.NewRunner(db.NewTransactionScope(), zap.NewNop(), nil)
	return appinv.NewLineItemService(runner, appinv.NewEngine(zap.NewNop(), nil))
}

func saleTotal(t *testing.T, db *persistence.Database, id int64) decimal.Decimal {
	t.Helper()
	s, err := persistence.NewGormSaleRepository(db.DB).FindByID(context.Background(), id)
	require.NoError(t, err)
	return s.Total
}

func purchaseTotal(t *testing.T, db *persistence.Database, id int64) decimal.Decimal {
	t.Helper()
	p, err := persistence.NewGormPurchaseRepository(db.DB).FindByID(context.Background(), id)
	require.NoError(t, err)
	return p.Total
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestLineItemService_SaleItemLifecycle(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	svc := newLineItemService(db)
	seller := testutil.SeedUser(t, db, "vendedor@example.com", identity.RoleEmployee)
	product := testutil.SeedProduct(t, db, "Gaseosa 2L", 10, "100.00")
	sale := testutil.SeedSale(t, db, seller.ID)

	item, err := svc.CreateSaleItem(ctx, sale.ID, product.ID, 3, dec("100.00"))
	require.NoError(t, err)
	assert.True(t, item.LineTotal.Equal(dec("300.00")))
	assert.Equal(t, 7, testutil.ProductStock(t, db, product.ID))
	assert.True(t, saleTotal(t, db, sale.ID).Equal(dec("300.00")))

	item, err = svc.UpdateSaleItem(ctx, item.ID, 5, dec("100.00"))
	require.NoError(t, err)
	assert.True(t, item.LineTotal.Equal(dec("500.00")))
	assert.Equal(t, 5, testutil.ProductStock(t, db, product.ID))
	assert.True(t, saleTotal(t, db, sale.ID).Equal(dec("500.00")))

	require.NoError(t, svc.DeleteSaleItem(ctx, item.ID))
	assert.Equal(t, 10, testutil.ProductStock(t, db, product.ID))
	assert.True(t, saleTotal(t, db, sale.ID).IsZero())

	err = svc.DeleteSaleItem(ctx, item.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestLineItemService_InsufficientStockLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	svc := newLineItemService(db)
	seller := testutil.SeedUser(t, db, "vendedor@example.com", identity.RoleEmployee)
	product := testutil.SeedProduct(t, db, "Alfajor", 4, "1.50")
	sale := testutil.SeedSale(t, db, seller.ID)

	_, err := svc.CreateSaleItem(ctx, sale.ID, product.ID, 2, dec("1.50"))
	require.NoError(t, err)

	_, err = svc.CreateSaleItem(ctx, sale.ID, product.ID, 3, dec("1.50"))
	require.ErrorIs(t, err, shared.ErrInsufficientStock)

	var insufficient *shared.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, product.ID, insufficient.ProductID)
	assert.Equal(t, 3, insufficient.Requested)
	assert.Equal(t, 2, insufficient.Available)

	assert.Equal(t, 2, testutil.ProductStock(t, db, product.ID))
	assert.True(t, saleTotal(t, db, sale.ID).Equal(dec("3.00")))
}

func TestLineItemService_UpdateChecksOnlyTheExtraUnits(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	svc := newLineItemService(db)
	seller := testutil.SeedUser(t, db, "vendedor@example.com", identity.RoleEmployee)
	product := testutil.SeedProduct(t, db, "Chicle", 5, "0.50")
	sale := testutil.SeedSale(t, db, seller.ID)

	item, err := svc.CreateSaleItem(ctx, sale.ID, product.ID, 4, dec("0.50"))
	require.NoError(t, err)

	item, err = svc.UpdateSaleItem(ctx, item.ID, 5, dec("0.50"))
	require.NoError(t, err)
	assert.Equal(t, 0, testutil.ProductStock(t, db, product.ID))

	_, err = svc.UpdateSaleItem(ctx, item.ID, 6, dec("0.50"))
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	assert.Equal(t, 0, testutil.ProductStock(t, db, product.ID))
	assert.True(t, saleTotal(t, db, sale.ID).Equal(dec("2.50")))
}

func TestLineItemService_ReinsertIsNetZero(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	svc := newLineItemService(db)
	seller := testutil.SeedUser(t, db, "vendedor@example.com", identity.RoleEmployee)
	product := testutil.SeedProduct(t, db, "Agua", 9, "2.00")
	sale := testutil.SeedSale(t, db, seller.ID)

	for i := 0; i < 3; i++ {
		item, err := svc.CreateSaleItem(ctx, sale.ID, product.ID, 9, dec("2.00"))
		require.NoError(t, err)
		assert.Equal(t, 0, testutil.ProductStock(t, db, product.ID))
		require.NoError(t, svc.DeleteSaleItem(ctx, item.ID))
		assert.Equal(t, 9, testutil.ProductStock(t, db, product.ID))
	}
	assert.True(t, saleTotal(t, db, sale.ID).IsZero())
}

func TestLineItemService_RejectsInvalidLines(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	svc := newLineItemService(db)
	seller := testutil.SeedUser(t, db, "vendedor@example.com", identity.RoleEmployee)
	product := testutil.SeedProduct(t, db, "Pan", 10, "1.00")
	sale := testutil.SeedSale(t, db, seller.ID)

	tests := []struct {
		name      string
		saleID    int64
		productID int64
		quantity  int
		price     string
		wantErr   error
	}{
		{"zero quantity", sale.ID, product.ID, 0, "1.00", shared.ErrInvalidInput},
		{"negative price", sale.ID, product.ID, 1, "-1.00", shared.ErrInvalidInput},
		{"three decimals", sale.ID, product.ID, 1, "1.005", shared.ErrInvalidInput},
		{"unknown product", sale.ID, 999, 1, "1.00", shared.ErrNotFound},
		{"unknown sale", 999, product.ID, 1, "1.00", shared.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateSaleItem(ctx, tt.saleID, tt.productID, tt.quantity, dec(tt.price))
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 10, testutil.ProductStock(t, db, product.ID))
		})
	}
}

func TestLineItemService_InactiveProductCannotBeSold(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	svc := newLineItemService(db)
	seller := testutil.SeedUser(t, db, "vendedor@example.com", identity.RoleEmployee)
	product := testutil.SeedProduct(t, db, "Descontinuado", 10, "1.00")
	require.NoError(t, product.Deactivate())
	require.NoError(t, persistence.NewGormProductRepository(db.DB).Save(ctx, product))
	sale := testutil.SeedSale(t, db, seller.ID)

	_, err := svc.CreateSaleItem(ctx, sale.ID, product.ID, 1, dec("1.00"))
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestLineItemService_PurchaseItemLifecycle(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	svc := newLineItemService(db)
	receiver := testutil.SeedUser(t, db, "deposito@example.com", identity.RoleEmployee)
	product := testutil.SeedProduct(t, db, "Yerba 1kg", 5, "70.00")

	products := persistence.NewGormProductRepository(db.DB)
	locked, err := products.FindByID(ctx, product.ID)
	require.NoError(t, err)
	require.NoError(t, locked.UpdateCostPrice(dec("40.00")))
	require.NoError(t, products.SaveStock(ctx, locked))

	purchase := testutil.SeedPurchase(t, db, receiver.ID)

	item, err := svc.CreatePurchaseItem(ctx, purchase.ID, product.ID, 20, dec("50.00"))
	require.NoError(t, err)
	assert.True(t, item.LineTotal.Equal(dec("1000.00")))
	assert.Equal(t, 25, testutil.ProductStock(t, db, product.ID))
	assert.True(t, purchaseTotal(t, db, purchase.ID).Equal(dec("1000.00")))

	found, err := products.FindByID(ctx, product.ID)
	require.NoError(t, err)
	require.NotNil(t, found.CostPrice)
	assert.True(t, found.CostPrice.Equal(dec("50.00")))

	t.Run("update moves stock by the difference and refreshes the cost", func(t *testing.T) {
		item, err = svc.UpdatePurchaseItem(ctx, item.ID, 12, dec("55.00"))
		require.NoError(t, err)
		assert.Equal(t, 17, testutil.ProductStock(t, db, product.ID))
		assert.True(t, purchaseTotal(t, db, purchase.ID).Equal(dec("660.00")))

		found, err := products.FindByID(ctx, product.ID)
		require.NoError(t, err)
		assert.True(t, found.CostPrice.Equal(dec("55.00")))
	})

	t.Run("delete after the units were sold floors stock at zero", func(t *testing.T) {
		seller := testutil.SeedUser(t, db, "caja@example.com", identity.RoleEmployee)
		sale := testutil.SeedSale(t, db, seller.ID)
		_, err := svc.CreateSaleItem(ctx, sale.ID, product.ID, 10, dec("70.00"))
		require.NoError(t, err)
		assert.Equal(t, 7, testutil.ProductStock(t, db, product.ID))

		require.NoError(t, svc.DeletePurchaseItem(ctx, item.ID))
		assert.Equal(t, 0, testutil.ProductStock(t, db, product.ID))
		assert.True(t, purchaseTotal(t, db, purchase.ID).IsZero())
	})
}

func TestLineItemService_ConcurrentSalesNeverOversell(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	svc := newLineItemService(db)
	seller := testutil.SeedUser(t, db, "vendedor@example.com", identity.RoleEmployee)
	product := testutil.SeedProduct(t, db, "Oferta", 5, "1.00")
	sale := testutil.SeedSale(t, db, seller.ID)

	const workers = 10
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, fail int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateSaleItem(ctx, sale.ID, product.ID, 1, dec("1.00"))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
				return
			}
			assert.ErrorIs(t, err, shared.ErrInsufficientStock)
			fail++
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, ok)
	assert.Equal(t, workers-5, fail)
	assert.Equal(t, 0, testutil.ProductStock(t, db, product.ID))
	assert.True(t, saleTotal(t, db, sale.ID).Equal(dec("5.00")))
}

func TestLineItemService_AdjustStock(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	svc := newLineItemService(db)
	product := testutil.SeedProduct(t, db, "Leche 1L", 4, "1.20")

	adjusted, change, err := svc.AdjustStock(ctx, product.ID, 6, "recuento semanal")
	require.NoError(t, err)
	assert.Equal(t, 10, adjusted.Stock)
	assert.Equal(t, 6, change.Applied())
	assert.Equal(t, 10, testutil.ProductStock(t, db, product.ID))

	adjusted, change, err = svc.AdjustStock(ctx, product.ID, -15, "vencidos")
	require.NoError(t, err)
	assert.Equal(t, 0, adjusted.Stock)
	assert.True(t, change.Clamped)
	assert.Equal(t, -10, change.Applied())
	assert.Equal(t, 0, testutil.ProductStock(t, db, product.ID))

	_, _, err = svc.AdjustStock(ctx, product.ID, 0, "nada")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, _, err = svc.AdjustStock(ctx, 9999, 1, "sin producto")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
