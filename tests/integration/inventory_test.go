//go:build integration

package integration

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appinv "github.com/minegocio/backend/internal/application/inventory"
	apptrade "github.com/minegocio/backend/internal/application/trade"
	"github.com/minegocio/backend/internal/domain/identity"
	"github.com/minegocio/backend/internal/domain/shared"
	"github.com/minegocio/backend/internal/infrastructure/persistence"
	"github.com/minegocio/backend/tests/testutil"
)

type stack struct {
	db        *persistence.Database
	lineItems *appinv.LineItemService
	sales     *apptrade.SaleService
	purchases *apptrade.PurchaseService
	owner     identity.Actor
	employee  identity.Actor
}

func newStack(t *testing.T) *stack {
	t.Helper()
	db := NewTestDB(t)
	log := zap.NewNop()
	engine := appinv.NewEngine(log, nil)
	runner := appinv.NewRunner(db.NewTransactionScope(), log, nil)
	lineItems := appinv.NewLineItemService(runner, engine)
	policy := identity.NewPolicy()

	owner := testutil.SeedUser(t, db, "duena@example.com", identity.RoleOwner)
	employee := testutil.SeedUser(t, db, "caja@example.com", identity.RoleEmployee)

	return &stack{
		db:        db,
		lineItems: lineItems,
		sales: apptrade.NewSaleService(runner, engine, lineItems,
			persistence.NewGormSaleRepository(db.DB), persistence.NewGormSaleItemRepository(db.DB), policy),
		purchases: apptrade.NewPurchaseService(runner, engine, lineItems,
			persistence.NewGormPurchaseRepository(db.DB), persistence.NewGormPurchaseItemRepository(db.DB), policy),
		owner:    identity.Actor{UserID: owner.ID, Role: identity.RoleOwner},
		employee: identity.Actor{UserID: employee.ID, Role: identity.RoleEmployee},
	}
}

func (s *stack) saleTotal(t *testing.T, saleID int64) decimal.Decimal {
	t.Helper()
	sale, err := persistence.NewGormSaleRepository(s.db.DB).FindByID(context.Background(), saleID)
	require.NoError(t, err)
	return sale.Total
}

func TestSaleItemLifecycle(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	product := testutil.SeedProduct(t, s.db, "Aceite 900ml", 10, "100.00")
	sale := testutil.SeedSale(t, s.db, s.employee.UserID)

	item, err := s.lineItems.CreateSaleItem(ctx, sale.ID, product.ID, 3, decimal.RequireFromString("100.00"))
	require.NoError(t, err)
	assert.Equal(t, 7, testutil.ProductStock(t, s.db, product.ID))
	assert.True(t, item.LineTotal.Equal(decimal.RequireFromString("300.00")))
	assert.True(t, s.saleTotal(t, sale.ID).Equal(decimal.RequireFromString("300.00")))

	_, err = s.lineItems.UpdateSaleItem(ctx, item.ID, 5, decimal.RequireFromString("100.00"))
	require.NoError(t, err)
	assert.Equal(t, 5, testutil.ProductStock(t, s.db, product.ID))
	assert.True(t, s.saleTotal(t, sale.ID).Equal(decimal.RequireFromString("500.00")))

	require.NoError(t, s.lineItems.DeleteSaleItem(ctx, item.ID))
	assert.Equal(t, 10, testutil.ProductStock(t, s.db, product.ID))
	assert.True(t, s.saleTotal(t, sale.ID).IsZero())
}

func TestPurchaseItemRaisesStockAndCost(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	product := testutil.SeedProduct(t, s.db, "Harina 1kg", 5, "60.00")
	purchase := testutil.SeedPurchase(t, s.db, s.owner.UserID)

	item, err := s.lineItems.CreatePurchaseItem(ctx, purchase.ID, product.ID, 20, decimal.RequireFromString("50.00"))
	require.NoError(t, err)
	assert.True(t, item.LineTotal.Equal(decimal.RequireFromString("1000.00")))

	p, err := persistence.NewGormProductRepository(s.db.DB).FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, p.Stock)
	require.NotNil(t, p.CostPrice)
	assert.True(t, p.CostPrice.Equal(decimal.RequireFromString("50.00")))
}

func TestConcurrentSaleItemsNeverOversell(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	const stock, buyers = 10, 25
	product := testutil.SeedProduct(t, s.db, "Gaseosa 2L", stock, "80.00")
	sale := testutil.SeedSale(t, s.db, s.employee.UserID)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
		other     []error
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.lineItems.CreateSaleItem(ctx, sale.ID, product.ID, 1, decimal.RequireFromString("80.00"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, shared.ErrInsufficientStock):
				rejected++
			default:
				other = append(other, err)
			}
		}()
	}
	wg.Wait()

	require.Empty(t, other)
	assert.Equal(t, stock, succeeded)
	assert.Equal(t, buyers-stock, rejected)
	assert.Equal(t, 0, testutil.ProductStock(t, s.db, product.ID))
	assert.True(t, s.saleTotal(t, sale.ID).Equal(decimal.RequireFromString("800.00")))
}

func TestConcurrentSaleNumbersAreUnique(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	const n = 50
	numbers := make([]string, 0, n)
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := s.sales.Create(ctx, s.employee, apptrade.CreateSaleRequest{PaymentMethod: "cash"})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			numbers = append(numbers, resp.SaleNumber)
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	require.Len(t, numbers, n)

	seen := make(map[string]struct{}, n)
	for _, num := range numbers {
		_, dup := seen[num]
		assert.False(t, dup, "duplicate sale number %s", num)
		seen[num] = struct{}{}
	}
	sort.Strings(numbers)
	assert.Equal(t, "V000001", numbers[0])
	assert.Equal(t, "V000050", numbers[n-1])
}

func TestDeleteSaleRestoresStock(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	yerba := testutil.SeedProduct(t, s.db, "Yerba 1kg", 8, "25.00")
	azucar := testutil.SeedProduct(t, s.db, "Azucar 1kg", 4, "12.00")

	resp, err := s.sales.Create(ctx, s.employee, apptrade.CreateSaleRequest{
		PaymentMethod: "card",
		Items: []apptrade.CreateSaleItemInput{
			{ProductID: yerba.ID, Quantity: 3, UnitPrice: decimal.RequireFromString("25.00")},
			{ProductID: azucar.ID, Quantity: 4, UnitPrice: decimal.RequireFromString("12.00")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 5, testutil.ProductStock(t, s.db, yerba.ID))
	assert.Equal(t, 0, testutil.ProductStock(t, s.db, azucar.ID))

	err = s.sales.Delete(ctx, s.employee, resp.ID)
	require.ErrorIs(t, err, shared.ErrForbidden)

	require.NoError(t, s.sales.Delete(ctx, s.owner, resp.ID))
	assert.Equal(t, 8, testutil.ProductStock(t, s.db, yerba.ID))
	assert.Equal(t, 4, testutil.ProductStock(t, s.db, azucar.ID))
}
