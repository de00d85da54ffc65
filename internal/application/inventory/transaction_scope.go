package inventory

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/minegocio/backend/internal/domain/catalog"
	"github.com/minegocio/backend/internal/domain/shared"
	"github.com/minegocio/backend/internal/domain/trade"
)

// TransactionScope provides transactional access to the repositories a
// line-item mutation touches. Everything done through the repositories handed
// to fn is committed together or rolled back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides repositories bound to one transaction.
//
// Lock order: a product row is always locked before the sale or purchase row
// that owns the line being changed. Operations touching several products lock
// them in ascending ID order.
type TransactionalRepositories interface {
	ProductRepo() catalog.ProductRepository
	SaleRepo() trade.SaleRepository
	SaleItemRepo() trade.SaleItemRepository
	PurchaseRepo() trade.PurchaseRepository
	PurchaseItemRepo() trade.PurchaseItemRepository
	Sequences() trade.SequenceGenerator
}

// Runner executes units of work in a TransactionScope. A unit that fails with
// a concurrency conflict is run again exactly once in a fresh transaction.
type Runner struct {
	scope   TransactionScope
	logger  *zap.Logger
	metrics Metrics
}

// NewRunner creates a Runner. A nil logger or metrics falls back to a no-op.
func NewRunner(scope TransactionScope, logger *zap.Logger, metrics Metrics) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &Runner{scope: scope, logger: logger, metrics: metrics}
}

// Run executes fn, retrying once when it fails with ErrConcurrencyConflict.
func (r *Runner) Run(ctx context.Context, op string, fn func(repos TransactionalRepositories) error) error {
	err := r.scope.Execute(ctx, fn)
	if !errors.Is(err, shared.ErrConcurrencyConflict) {
		return err
	}

	r.logger.Info("retrying after concurrency conflict",
		zap.String("op", op),
		zap.Error(err),
	)
	r.metrics.Retried(ctx, op)
	if ctx.Err() != nil {
		return err
	}
	return r.scope.Execute(ctx, fn)
}

// Logger returns the logger the runner reports with
func (r *Runner) Logger() *zap.Logger {
	return r.logger
}

// Metrics returns the recorder the runner reports to
func (r *Runner) Metrics() Metrics {
	return r.metrics
}
