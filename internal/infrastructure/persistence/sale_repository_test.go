package persistence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appinv "github.com/minegocio/backend/internal/application/inventory"
	"github.com/minegocio/backend/internal/domain/shared"
	"github.com/minegocio/backend/internal/domain/trade"
	"github.com/minegocio/backend/internal/infrastructure/persistence/models"
)

func TestGormSaleRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t)
	repo := NewGormSaleRepository(db.DB)
	seller := seedTestUser(t, db, "vendedor@example.com")

	sale := seedTestSale(t, db, seller.ID, time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC))
	require.NotZero(t, sale.ID)
	assert.Equal(t, "V000001", sale.SaleNumber)
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), sale.SaleDate.UTC(), "sale_date is stored as a calendar date")

	found, err := repo.FindByID(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, "V000001", found.SaleNumber)
	assert.Equal(t, trade.PaymentCash, found.PaymentMethod)
	assert.Equal(t, seller.ID, found.SoldBy)
	assert.True(t, found.Total.IsZero())
	assert.Equal(t, "2026-03-14", found.SaleDate.Format(time.DateOnly))

	exists, err := repo.ExistsByNumber(ctx, "V000001")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = repo.FindByID(ctx, sale.ID+100)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormSaleRepository_Create_RejectsUnknownSeller(t *testing.T) {
	db := newTestDatabase(t)
	now := time.Now().UTC()
	sale, err := trade.NewSale(77, trade.PaymentCard, now, "", "", now)
	require.NoError(t, err)
	require.NoError(t, sale.AssignNumber("V000009"))

	err = NewGormSaleRepository(db.DB).Create(context.Background(), sale)
	assert.Error(t, err)
}

func TestGormSaleRepository_SaveTotal(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t)
	repo := NewGormSaleRepository(db.DB)
	seller := seedTestUser(t, db, "vendedor@example.com")
	product := seedTestProduct(t, db, "Cafe", 10)
	sale := seedTestSale(t, db, seller.ID, time.Now().UTC())

	seedTestSaleItem(t, db, sale.ID, product.ID, 2, "4.25")
	items, err := NewGormSaleItemRepository(db.DB).FindBySale(ctx, sale.ID)
	require.NoError(t, err)

	stale := *sale
	require.NoError(t, sale.RecalculateTotal(items))
	require.NoError(t, repo.SaveTotal(ctx, sale))
	assert.Equal(t, 2, sale.Version)

	found, err := repo.FindByID(ctx, sale.ID)
	require.NoError(t, err)
	assert.True(t, found.Total.Equal(decimal.RequireFromString("8.50")), "got %s", found.Total)

	err = repo.SaveTotal(ctx, &stale)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
}

func TestGormSaleRepository_SaveHeader(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t)
	repo := NewGormSaleRepository(db.DB)
	seller := seedTestUser(t, db, "vendedor@example.com")
	saleDate := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	sale := seedTestSale(t, db, seller.ID, saleDate)

	stale := *sale
	name := "Marta"
	card := trade.PaymentCard
	moved := saleDate.AddDate(0, 0, -1)
	require.NoError(t, sale.ChangeHeader(trade.SaleHeader{
		CustomerName:  &name,
		PaymentMethod: &card,
		SaleDate:      &moved,
	}, saleDate))
	require.NoError(t, repo.SaveHeader(ctx, sale))
	assert.Equal(t, stale.Version+1, sale.Version)

	found, err := repo.FindByID(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, "Marta", found.CustomerName)
	assert.Equal(t, trade.PaymentCard, found.PaymentMethod)
	assert.True(t, found.SaleDate.Equal(moved), "got %s", found.SaleDate)
	assert.Equal(t, sale.Version, found.Version)

	err = repo.SaveHeader(ctx, &stale)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
}

func TestGormSaleRepository_Delete(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t)
	repo := NewGormSaleRepository(db.DB)
	seller := seedTestUser(t, db, "vendedor@example.com")
	sale := seedTestSale(t, db, seller.ID, time.Now().UTC())

	require.NoError(t, repo.Delete(ctx, sale.ID))

	_, err := repo.FindByID(ctx, sale.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	exists, err := repo.ExistsByNumber(ctx, sale.SaleNumber)
	require.NoError(t, err)
	assert.True(t, exists, "deleted sales keep their number")

	err = repo.Delete(ctx, sale.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormSaleRepository_FindAllAndBetween(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t)
	repo := NewGormSaleRepository(db.DB)
	seller := seedTestUser(t, db, "vendedor@example.com")
	other := seedTestUser(t, db, "otro@example.com")

	d1 := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 5, 2, 23, 59, 0, 0, time.UTC)
	d3 := time.Date(2026, 5, 3, 0, 0, 0, 0, time.UTC)
	seedTestSale(t, db, seller.ID, d1)
	seedTestSale(t, db, other.ID, d2)
	seedTestSale(t, db, seller.ID, d3)

	t.Run("between is half open on calendar days", func(t *testing.T) {
		sales, err := repo.FindBetween(ctx, d1, d3)
		require.NoError(t, err)
		require.Len(t, sales, 2)
		assert.Equal(t, "V000001", sales[0].SaleNumber)
		assert.Equal(t, "V000002", sales[1].SaleNumber)
	})

	t.Run("filters by seller and dates", func(t *testing.T) {
		from := d2
		filter := trade.SaleFilter{
			Filter: shared.Filter{Page: 1, PageSize: 10, From: &from},
			SoldBy: &seller.ID,
		}
		sales, total, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, sales, 1)
		assert.Equal(t, "V000003", sales[0].SaleNumber)
	})

	t.Run("search matches the sale number", func(t *testing.T) {
		filter := trade.SaleFilter{Filter: shared.Filter{Page: 1, PageSize: 10, Search: "v000002"}}
		sales, total, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, other.ID, sales[0].SoldBy)
	})

	t.Run("default order is newest sale date first", func(t *testing.T) {
		sales, total, err := repo.FindAll(ctx, trade.SaleFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, sales, 3)
		assert.Equal(t, "V000003", sales[0].SaleNumber)
	})
}

func TestGormSaleItemRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t)
	repo := NewGormSaleItemRepository(db.DB)
	seller := seedTestUser(t, db, "vendedor@example.com")
	product := seedTestProduct(t, db, "Te", 10)
	saleA := seedTestSale(t, db, seller.ID, time.Now().UTC())
	saleB := seedTestSale(t, db, seller.ID, time.Now().UTC())

	first := seedTestSaleItem(t, db, saleA.ID, product.ID, 1, "2.00")
	second := seedTestSaleItem(t, db, saleA.ID, product.ID, 3, "2.00")
	seedTestSaleItem(t, db, saleB.ID, product.ID, 1, "2.00")

	t.Run("update rewrites quantity and total", func(t *testing.T) {
		require.NoError(t, second.Change(4, decimal.RequireFromString("2.50")))
		require.NoError(t, repo.Update(ctx, second))

		found, err := repo.FindByID(ctx, second.ID)
		require.NoError(t, err)
		assert.Equal(t, 4, found.Quantity)
		assert.True(t, found.LineTotal.Equal(decimal.NewFromInt(10)))
	})

	t.Run("soft deleted lines disappear from reads", func(t *testing.T) {
		require.NoError(t, first.MarkDeleted(time.Now().UTC()))
		require.NoError(t, repo.Delete(ctx, first))

		_, err := repo.FindByID(ctx, first.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		items, err := repo.FindBySale(ctx, saleA.ID)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, second.ID, items[0].ID)

		var raw models.SaleItemModel
		require.NoError(t, db.DB.Unscoped().First(&raw, first.ID).Error)
		assert.True(t, raw.DeletedAt.Valid, "row is kept with deleted_at set")

		assert.ErrorIs(t, repo.Delete(ctx, first), shared.ErrNotFound)
	})

	t.Run("find by sales spans parents", func(t *testing.T) {
		items, err := repo.FindBySales(ctx, []int64{saleA.ID, saleB.ID})
		require.NoError(t, err)
		assert.Len(t, items, 2)

		none, err := repo.FindBySales(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

func TestGormSequenceGenerator_Next(t *testing.T) {
	ctx := context.Background()

	t.Run("increments from one", func(t *testing.T) {
		db := newTestDatabase(t)
		gen := NewGormSequenceGenerator(db.DB)
		for want := int64(1); want <= 3; want++ {
			got, err := gen.Next(ctx, "sale_number")
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	})

	t.Run("creates unknown counters", func(t *testing.T) {
		db := newTestDatabase(t)
		got, err := NewGormSequenceGenerator(db.DB).Next(ctx, "purchase_number")
		require.NoError(t, err)
		assert.Equal(t, int64(1), got)
	})

	t.Run("concurrent transactions never share a value", func(t *testing.T) {
		db := newTestDatabase(t)
		scope := db.NewTransactionScope()

		const workers = 20
		values := make(chan int64, workers)
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := scope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
					n, err := repos.Sequences().Next(ctx, "sale_number")
					if err != nil {
						return err
					}
					values <- n
					return nil
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()
		close(values)

		seen := make(map[int64]bool, workers)
		for v := range values {
			assert.False(t, seen[v], "value %d handed out twice", v)
			seen[v] = true
		}
		assert.Len(t, seen, workers)
		for v := int64(1); v <= workers; v++ {
			assert.True(t, seen[v], "gap at %d", v)
		}
	})

	t.Run("rolled back transactions release their value", func(t *testing.T) {
		db := newTestDatabase(t)
		scope := db.NewTransactionScope()

		err := scope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
			if _, err := repos.Sequences().Next(ctx, "sale_number"); err != nil {
				return err
			}
			return shared.ErrInvalidState
		})
		require.ErrorIs(t, err, shared.ErrInvalidState)

		got, err := NewGormSequenceGenerator(db.DB).Next(ctx, "sale_number")
		require.NoError(t, err)
		assert.Equal(t, int64(1), got)
	})
}

func TestGormSequenceGenerator_Advance(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t)
	gen := NewGormSequenceGenerator(db.DB)

	require.NoError(t, gen.Advance(ctx, "sale_number", 100))
	got, err := gen.Next(ctx, "sale_number")
	require.NoError(t, err)
	assert.Equal(t, int64(101), got)

	require.NoError(t, gen.Advance(ctx, "sale_number", 7), "lower values leave the counter alone")
	got, err = gen.Next(ctx, "sale_number")
	require.NoError(t, err)
	assert.Equal(t, int64(102), got)

	require.NoError(t, gen.Advance(ctx, "purchase_number", 3), "unknown counters are created first")
	got, err = gen.Next(ctx, "purchase_number")
	require.NoError(t, err)
	assert.Equal(t, int64(4), got)
}
