package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	appinv "github.com/minegocio/backend/internal/application/inventory"
	"github.com/minegocio/backend/internal/domain/catalog"
	"github.com/minegocio/backend/internal/domain/trade"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// On Postgres every transaction bounds its lock waits with SET LOCAL
// lock_timeout, so a blocked FOR UPDATE fails with 55P03 instead of waiting
// indefinitely.
type GormTransactionScope struct {
	db          *gorm.DB
	dialect     Dialect
	lockTimeout time.Duration
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB, dialect Dialect, lockTimeout time.Duration) *GormTransactionScope {
	return &GormTransactionScope{db: db, dialect: dialect, lockTimeout: lockTimeout}
}

// NewTransactionScope creates a scope over d
func (d *Database) NewTransactionScope() *GormTransactionScope {
	return NewGormTransactionScope(d.DB, d.Dialect, d.LockTimeout)
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// Driver errors are translated to domain errors on the way out.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appinv.TransactionalRepositories) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if s.dialect == DialectPostgres && s.lockTimeout > 0 {
			// SET does not accept bind parameters.
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return fn(&gormTransactionalRepositories{tx: tx})
	})
	return translateError("transaction", err)
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// ProductRepo returns the product repository scoped to the current transaction.
func (r *gormTransactionalRepositories) ProductRepo() catalog.ProductRepository {
	return NewGormProductRepository(r.tx)
}

// SaleRepo returns the sale repository scoped to the current transaction.
func (r *gormTransactionalRepositories) SaleRepo() trade.SaleRepository {
	return NewGormSaleRepository(r.tx)
}

// SaleItemRepo returns the sale item repository scoped to the current transaction.
func (r *gormTransactionalRepositories) SaleItemRepo() trade.SaleItemRepository {
	return NewGormSaleItemRepository(r.tx)
}

// PurchaseRepo returns the purchase repository scoped to the current transaction.
func (r *gormTransactionalRepositories) PurchaseRepo() trade.PurchaseRepository {
	return NewGormPurchaseRepository(r.tx)
}

// PurchaseItemRepo returns the purchase item repository scoped to the current transaction.
func (r *gormTransactionalRepositories) PurchaseItemRepo() trade.PurchaseItemRepository {
	return NewGormPurchaseItemRepository(r.tx)
}

// Sequences returns the counter generator scoped to the current transaction.
func (r *gormTransactionalRepositories) Sequences() trade.SequenceGenerator {
	return NewGormSequenceGenerator(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appinv.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appinv.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
