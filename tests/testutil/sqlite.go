package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	gormlogger "gorm.io/gorm/logger"

	"github.com/minegocio/backend/internal/domain/catalog"
	"github.com/minegocio/backend/internal/domain/identity"
	"github.com/minegocio/backend/internal/domain/shared"
	"github.com/minegocio/backend/internal/domain/trade"
	"github.com/minegocio/backend/internal/infrastructure/config"
	"github.com/minegocio/backend/internal/infrastructure/persistence"
)

// FixturePassword is the password of every seeded user
const FixturePassword = "secret123"

var (
	dbCounter   atomic.Int64
	fixtureHash = sync.OnceValue(func() string {
		h, err := bcrypt.GenerateFromPassword([]byte(FixturePassword), bcrypt.MinCost)
		if err != nil {
			panic(err)
		}
		return string(h)
	})
)

// NewSQLiteDB opens a private shared-cache in-memory SQLite database with the
// full schema migrated. It is closed when the test ends.
func NewSQLiteDB(t *testing.T) *persistence.Database {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Driver:      "sqlite",
		Path:        fmt.Sprintf("file:testdb_%d?mode=memory&cache=shared&_foreign_keys=on", dbCounter.Add(1)),
		LockTimeout: time.Second,
	}
	db, err := persistence.NewDatabase(cfg, zap.NewNop(), gormlogger.Silent)
	require.NoError(t, err, "Failed to open sqlite database")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.AutoMigrate(context.Background()), "Failed to migrate sqlite database")
	return db
}

// SeedUser inserts an active user whose password is FixturePassword
func SeedUser(t *testing.T, db *persistence.Database, email string, role identity.Role) *identity.User {
	t.Helper()

	u := &identity.User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              strings.Split(email, "@")[0],
		Email:             email,
		PasswordHash:      fixtureHash(),
		Role:              role,
		IsActive:          true,
	}
	require.NoError(t, persistence.NewGormUserRepository(db.DB).Save(context.Background(), u))
	return u
}

// SeedProduct inserts an active product with the given opening stock
func SeedProduct(t *testing.T, db *persistence.Database, name string, stock int, salePrice string) *catalog.Product {
	t.Helper()

	p, err := catalog.NewProduct(name, decimal.RequireFromString(salePrice))
	require.NoError(t, err)
	require.NoError(t, p.SetInitialStock(stock))
	require.NoError(t, persistence.NewGormProductRepository(db.DB).Save(context.Background(), p))
	return p
}

// SeedSale inserts an empty cash sale dated today with the next sale number
func SeedSale(t *testing.T, db *persistence.Database, soldBy int64) *trade.Sale {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC()
	s, err := trade.NewSale(soldBy, trade.PaymentCash, now, "", "", now)
	require.NoError(t, err)
	n, err := persistence.NewGormSequenceGenerator(db.DB).Next(ctx, "sale_number")
	require.NoError(t, err)
	require.NoError(t, s.AssignNumber(trade.FormatSaleNumber(n)))
	require.NoError(t, persistence.NewGormSaleRepository(db.DB).Create(ctx, s))
	return s
}

// SeedPurchase inserts an empty purchase dated today
func SeedPurchase(t *testing.T, db *persistence.Database, receivedBy int64) *trade.Purchase {
	t.Helper()

	now := time.Now().UTC()
	p, err := trade.NewPurchase(receivedBy, now, "Proveedor", "", now)
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormPurchaseRepository(db.DB).Create(context.Background(), p))
	return p
}

// ProductStock reads the committed stock of a product
func ProductStock(t *testing.T, db *persistence.Database, id int64) int {
	t.Helper()

	p, err := persistence.NewGormProductRepository(db.DB).FindByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}
