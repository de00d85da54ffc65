package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/minegocio/backend/internal/domain/catalog"
	"github.com/minegocio/backend/internal/domain/inventory"
	"github.com/minegocio/backend/internal/domain/shared"
	"github.com/minegocio/backend/internal/domain/trade"
)

// Engine applies line-item mutations inside an open transaction: it locks the
// product then the parent, moves stock through the coordinator, persists the
// line and recomputes the parent total from the live lines.
//
// Engine methods never commit. Callers run them through a Runner.
type Engine struct {
	coordinator *inventory.StockCoordinator
	logger      *zap.Logger
	metrics     Metrics
	now         func() time.Time
}

// NewEngine creates an Engine
func NewEngine(logger *zap.Logger, metrics Metrics) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &Engine{
		coordinator: inventory.NewStockCoordinator(),
		logger:      logger,
		metrics:     metrics,
		now:         time.Now,
	}
}

// WithClock replaces the clock used to stamp soft deletes
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// InsertSaleItem adds a line to saleID, taking its units from stock.
func (e *Engine) InsertSaleItem(ctx context.Context, repos TransactionalRepositories, saleID, productID int64, quantity int, unitPrice decimal.Decimal) (*trade.SaleItem, error) {
	item, err := trade.NewSaleItem(saleID, productID, quantity, unitPrice)
	if err != nil {
		return nil, err
	}

	product, err := repos.ProductRepo().FindByIDForUpdate(ctx, productID)
	if err != nil {
		return nil, err
	}
	sale, err := repos.SaleRepo().FindByIDForUpdate(ctx, saleID)
	if err != nil {
		return nil, err
	}

	change, err := e.coordinator.OnSaleItemInsert(product, quantity)
	if err := e.observe(ctx, change, err); err != nil {
		return nil, err
	}
	if err := repos.ProductRepo().SaveStock(ctx, product); err != nil {
		return nil, err
	}
	if err := repos.SaleItemRepo().Create(ctx, item); err != nil {
		return nil, err
	}
	if err := e.recalculateSale(ctx, repos, sale); err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateSaleItem changes quantity and unit price of a live sale line.
// The product of a line cannot change.
func (e *Engine) UpdateSaleItem(ctx context.Context, repos TransactionalRepositories, id int64, quantity int, unitPrice decimal.Decimal) (*trade.SaleItem, error) {
	item, sale, product, err := e.lockSaleItem(ctx, repos, id)
	if err != nil {
		return nil, err
	}

	oldQuantity := item.Quantity
	if err := item.Change(quantity, unitPrice); err != nil {
		return nil, err
	}
	change, err := e.coordinator.OnSaleItemUpdate(product, oldQuantity, quantity)
	if err := e.observe(ctx, change, err); err != nil {
		return nil, err
	}
	if err := repos.ProductRepo().SaveStock(ctx, product); err != nil {
		return nil, err
	}
	if err := repos.SaleItemRepo().Update(ctx, item); err != nil {
		return nil, err
	}
	if err := e.recalculateSale(ctx, repos, sale); err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteSaleItem soft deletes a sale line and returns its units to stock.
func (e *Engine) DeleteSaleItem(ctx context.Context, repos TransactionalRepositories, id int64) error {
	item, sale, product, err := e.lockSaleItem(ctx, repos, id)
	if err != nil {
		return err
	}
	if err := e.removeSaleItem(ctx, repos, item, product); err != nil {
		return err
	}
	return e.recalculateSale(ctx, repos, sale)
}

// DeleteSale restores stock for every live line of a sale, soft deletes the
// lines and then the sale.
func (e *Engine) DeleteSale(ctx context.Context, repos TransactionalRepositories, saleID int64) error {
	peek, err := repos.SaleItemRepo().FindBySale(ctx, saleID)
	if err != nil {
		return err
	}
	products, err := e.lockProducts(ctx, repos, saleProductIDs(peek))
	if err != nil {
		return err
	}
	sale, err := repos.SaleRepo().FindByIDForUpdate(ctx, saleID)
	if err != nil {
		return err
	}

	items, err := repos.SaleItemRepo().FindBySale(ctx, saleID)
	if err != nil {
		return err
	}
	for i := range items {
		product, ok := products[items[i].ProductID]
		if !ok {
			// a line for an unlocked product was added after the peek
			return shared.NewConcurrencyError("delete sale", fmt.Errorf("sale %d gained a line while being deleted", saleID))
		}
		if err := e.removeSaleItem(ctx, repos, &items[i], product); err != nil {
			return err
		}
	}
	if err := e.recalculateSale(ctx, repos, sale); err != nil {
		return err
	}
	return repos.SaleRepo().Delete(ctx, sale.ID)
}

// InsertPurchaseItem adds a received line to purchaseID, increasing stock and
// recording unitCost as the product's cost price.
func (e *Engine) InsertPurchaseItem(ctx context.Context, repos TransactionalRepositories, purchaseID, productID int64, quantity int, unitCost decimal.Decimal) (*trade.PurchaseItem, error) {
	item, err := trade.NewPurchaseItem(purchaseID, productID, quantity, unitCost)
	if err != nil {
		return nil, err
	}

	product, err := repos.ProductRepo().FindByIDForUpdate(ctx, productID)
	if err != nil {
		return nil, err
	}
	purchase, err := repos.PurchaseRepo().FindByIDForUpdate(ctx, purchaseID)
	if err != nil {
		return nil, err
	}

	change, err := e.coordinator.OnPurchaseItemInsert(product, quantity, unitCost)
	if err := e.observe(ctx, change, err); err != nil {
		return nil, err
	}
	if err := repos.ProductRepo().SaveStock(ctx, product); err != nil {
		return nil, err
	}
	if err := repos.PurchaseItemRepo().Create(ctx, item); err != nil {
		return nil, err
	}
	if err := e.recalculatePurchase(ctx, repos, purchase); err != nil {
		return nil, err
	}
	return item, nil
}

// UpdatePurchaseItem changes quantity and unit cost of a live purchase line.
func (e *Engine) UpdatePurchaseItem(ctx context.Context, repos TransactionalRepositories, id int64, quantity int, unitCost decimal.Decimal) (*trade.PurchaseItem, error) {
	item, purchase, product, err := e.lockPurchaseItem(ctx, repos, id)
	if err != nil {
		return nil, err
	}

	oldQuantity := item.Quantity
	if err := item.Change(quantity, unitCost); err != nil {
		return nil, err
	}
	change, err := e.coordinator.OnPurchaseItemUpdate(product, oldQuantity, quantity, unitCost)
	if err := e.observe(ctx, change, err); err != nil {
		return nil, err
	}
	if err := repos.ProductRepo().SaveStock(ctx, product); err != nil {
		return nil, err
	}
	if err := repos.PurchaseItemRepo().Update(ctx, item); err != nil {
		return nil, err
	}
	if err := e.recalculatePurchase(ctx, repos, purchase); err != nil {
		return nil, err
	}
	return item, nil
}

// DeletePurchaseItem soft deletes a purchase line and removes its units from
// stock, floored at zero.
func (e *Engine) DeletePurchaseItem(ctx context.Context, repos TransactionalRepositories, id int64) error {
	item, purchase, product, err := e.lockPurchaseItem(ctx, repos, id)
	if err != nil {
		return err
	}
	if err := e.removePurchaseItem(ctx, repos, item, product); err != nil {
		return err
	}
	return e.recalculatePurchase(ctx, repos, purchase)
}

// DeletePurchase removes every live line's units from stock, soft deletes the
// lines and then the purchase. The deletion window is checked on the locked row.
func (e *Engine) DeletePurchase(ctx context.Context, repos TransactionalRepositories, purchaseID int64) error {
	peek, err := repos.PurchaseItemRepo().FindByPurchase(ctx, purchaseID)
	if err != nil {
		return err
	}
	products, err := e.lockProducts(ctx, repos, purchaseProductIDs(peek))
	if err != nil {
		return err
	}
	purchase, err := repos.PurchaseRepo().FindByIDForUpdate(ctx, purchaseID)
	if err != nil {
		return err
	}
	if err := purchase.EnsureDeletable(e.now()); err != nil {
		return err
	}

	items, err := repos.PurchaseItemRepo().FindByPurchase(ctx, purchaseID)
	if err != nil {
		return err
	}
	for i := range items {
		product, ok := products[items[i].ProductID]
		if !ok {
			return shared.NewConcurrencyError("delete purchase", fmt.Errorf("purchase %d gained a line while being deleted", purchaseID))
		}
		if err := e.removePurchaseItem(ctx, repos, &items[i], product); err != nil {
			return err
		}
	}
	if err := e.recalculatePurchase(ctx, repos, purchase); err != nil {
		return err
	}
	return repos.PurchaseRepo().Delete(ctx, purchase.ID)
}

// AdjustStock applies a manual stock correction to a locked product. The
// reason is logged with the change; there is no parent to recompute.
func (e *Engine) AdjustStock(ctx context.Context, repos TransactionalRepositories, productID int64, delta int, reason string) (*catalog.Product, inventory.StockChange, error) {
	product, err := repos.ProductRepo().FindByIDForUpdate(ctx, productID)
	if err != nil {
		return nil, inventory.StockChange{}, err
	}
	change, err := e.coordinator.OnManualAdjustment(product, delta)
	if err := e.observe(ctx, change, err); err != nil {
		return nil, change, err
	}
	if err := repos.ProductRepo().SaveStock(ctx, product); err != nil {
		return nil, change, err
	}
	e.logger.Info("stock adjusted",
		zap.Int64("product_id", productID),
		zap.Int("before", change.Before),
		zap.Int("after", change.After),
		zap.String("reason", reason),
	)
	return product, change, nil
}

// LockProducts locks the given products in ascending ID order. Multi-line
// operations call it before touching any parent row.
func (e *Engine) LockProducts(ctx context.Context, repos TransactionalRepositories, ids []int64) error {
	_, err := e.lockProducts(ctx, repos, ids)
	return err
}

func (e *Engine) removeSaleItem(ctx context.Context, repos TransactionalRepositories, item *trade.SaleItem, product *catalog.Product) error {
	change, err := e.coordinator.OnSaleItemDelete(product, item.Quantity)
	if err := e.observe(ctx, change, err); err != nil {
		return err
	}
	if err := repos.ProductRepo().SaveStock(ctx, product); err != nil {
		return err
	}
	if err := item.MarkDeleted(e.now()); err != nil {
		return err
	}
	return repos.SaleItemRepo().Delete(ctx, item)
}

func (e *Engine) removePurchaseItem(ctx context.Context, repos TransactionalRepositories, item *trade.PurchaseItem, product *catalog.Product) error {
	change, err := e.coordinator.OnPurchaseItemDelete(product, item.Quantity)
	if err := e.observe(ctx, change, err); err != nil {
		return err
	}
	if err := repos.ProductRepo().SaveStock(ctx, product); err != nil {
		return err
	}
	if err := item.MarkDeleted(e.now()); err != nil {
		return err
	}
	return repos.PurchaseItemRepo().Delete(ctx, item)
}

// lockSaleItem peeks at the line to learn its product and sale, takes the
// locks in product-then-sale order and re-reads the line under the locks.
func (e *Engine) lockSaleItem(ctx context.Context, repos TransactionalRepositories, id int64) (*trade.SaleItem, *trade.Sale, *catalog.Product, error) {
	peek, err := repos.SaleItemRepo().FindByID(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	product, err := repos.ProductRepo().FindByIDForUpdate(ctx, peek.ProductID)
	if err != nil {
		return nil, nil, nil, err
	}
	sale, err := repos.SaleRepo().FindByIDForUpdate(ctx, peek.SaleID)
	if err != nil {
		return nil, nil, nil, err
	}
	item, err := repos.SaleItemRepo().FindByID(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	return item, sale, product, nil
}

func (e *Engine) lockPurchaseItem(ctx context.Context, repos TransactionalRepositories, id int64) (*trade.PurchaseItem, *trade.Purchase, *catalog.Product, error) {
	peek, err := repos.PurchaseItemRepo().FindByID(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	product, err := repos.ProductRepo().FindByIDForUpdate(ctx, peek.ProductID)
	if err != nil {
		return nil, nil, nil, err
	}
	purchase, err := repos.PurchaseRepo().FindByIDForUpdate(ctx, peek.PurchaseID)
	if err != nil {
		return nil, nil, nil, err
	}
	item, err := repos.PurchaseItemRepo().FindByID(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	return item, purchase, product, nil
}

func (e *Engine) lockProducts(ctx context.Context, repos TransactionalRepositories, ids []int64) (map[int64]*catalog.Product, error) {
	sorted := uniqueSorted(ids)
	locked := make(map[int64]*catalog.Product, len(sorted))
	for _, id := range sorted {
		p, err := repos.ProductRepo().FindByIDForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		locked[id] = p
	}
	return locked, nil
}

func (e *Engine) recalculateSale(ctx context.Context, repos TransactionalRepositories, sale *trade.Sale) error {
	items, err := repos.SaleItemRepo().FindBySale(ctx, sale.ID)
	if err != nil {
		return err
	}
	if err := sale.RecalculateTotal(items); err != nil {
		e.violation(err)
		return err
	}
	return repos.SaleRepo().SaveTotal(ctx, sale)
}

func (e *Engine) recalculatePurchase(ctx context.Context, repos TransactionalRepositories, purchase *trade.Purchase) error {
	items, err := repos.PurchaseItemRepo().FindByPurchase(ctx, purchase.ID)
	if err != nil {
		return err
	}
	if err := purchase.RecalculateTotal(items); err != nil {
		e.violation(err)
		return err
	}
	return repos.PurchaseRepo().SaveTotal(ctx, purchase)
}

// observe logs and counts a coordinator step and passes its error through
func (e *Engine) observe(ctx context.Context, change inventory.StockChange, err error) error {
	var insufficient *shared.InsufficientStockError
	switch {
	case err == nil:
	case errors.As(err, &insufficient):
		e.metrics.StockRejected(ctx, insufficient.ProductID)
		return err
	default:
		e.violation(err)
		return err
	}

	e.metrics.StockChanged(ctx, change)
	if change.Clamped {
		e.logger.Warn("stock decrease floored at zero",
			zap.Int64("product_id", change.ProductID),
			zap.String("event", string(change.Event)),
			zap.Int("before", change.Before),
			zap.Int("requested", change.Requested),
			zap.Int("applied", change.Applied()),
		)
	}
	return nil
}

func (e *Engine) violation(err error) {
	var cv *shared.ConsistencyViolation
	if errors.As(err, &cv) {
		e.logger.Error("inventory consistency violation",
			zap.String("entity", cv.Entity),
			zap.Int64("id", cv.ID),
			zap.String("detail", cv.Detail),
		)
	}
}

func saleProductIDs(items []trade.SaleItem) []int64 {
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	return ids
}

func purchaseProductIDs(items []trade.PurchaseItem) []int64 {
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	return ids
}

func uniqueSorted(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
