package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/minegocio/backend/internal/domain/catalog"
	"github.com/minegocio/backend/internal/domain/identity"
	"github.com/minegocio/backend/internal/domain/shared"
	"github.com/minegocio/backend/internal/domain/trade"
	"github.com/minegocio/backend/internal/infrastructure/config"
)

var testDBCounter atomic.Int64

// newTestDatabase opens a migrated in-memory SQLite database private to t
func newTestDatabase(t *testing.T) *Database {
	t.Helper()

	db, err := NewDatabase(&config.DatabaseConfig{
		Driver:      "sqlite",
		Path:        fmt.Sprintf("file:persistence_%d?mode=memory&cache=shared&_foreign_keys=on", testDBCounter.Add(1)),
		LockTimeout: time.Second,
	}, zap.NewNop(), gormlogger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.AutoMigrate(context.Background()))
	return db
}

// newMockDatabase creates a Postgres-flavoured Database backed by sqlmock
func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Discard,
	})
	require.NoError(t, err)

	return &Database{DB: gormDB, Dialect: DialectPostgres, LockTimeout: 2 * time.Second}, mock, mockDB
}

func seedTestUser(t *testing.T, db *Database, email string) *identity.User {
	t.Helper()
	u := &identity.User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              "Vendedor",
		Email:             email,
		PasswordHash:      "not-a-real-hash",
		Role:              identity.RoleEmployee,
		IsActive:          true,
	}
	require.NoError(t, NewGormUserRepository(db.DB).Save(context.Background(), u))
	return u
}

func seedTestProduct(t *testing.T, db *Database, name string, stock int) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(name, decimal.NewFromInt(10))
	require.NoError(t, err)
	require.NoError(t, p.SetInitialStock(stock))
	require.NoError(t, NewGormProductRepository(db.DB).Save(context.Background(), p))
	return p
}

func seedTestSale(t *testing.T, db *Database, soldBy int64, saleDate time.Time) *trade.Sale {
	t.Helper()
	ctx := context.Background()
	s, err := trade.NewSale(soldBy, trade.PaymentCash, saleDate, "Cliente", "", time.Now().UTC())
	require.NoError(t, err)
	n, err := NewGormSequenceGenerator(db.DB).Next(ctx, "sale_number")
	require.NoError(t, err)
	require.NoError(t, s.AssignNumber(trade.FormatSaleNumber(n)))
	require.NoError(t, NewGormSaleRepository(db.DB).Create(ctx, s))
	return s
}

func seedTestSaleItem(t *testing.T, db *Database, saleID, productID int64, quantity int, price string) *trade.SaleItem {
	t.Helper()
	item, err := trade.NewSaleItem(saleID, productID, quantity, decimal.RequireFromString(price))
	require.NoError(t, err)
	require.NoError(t, NewGormSaleItemRepository(db.DB).Create(context.Background(), item))
	return item
}
