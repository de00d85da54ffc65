package inventory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/minegocio/backend/internal/domain/catalog"
	"github.com/minegocio/backend/internal/domain/inventory"
	"github.com/minegocio/backend/internal/domain/trade"
)

// LineItemService is the entry point for every stock mutation: sale and
// purchase lines plus manual adjustments. Every call is one transaction; a
// concurrency conflict is retried once.
type LineItemService struct {
	runner *Runner
	engine *Engine
}

// NewLineItemService creates a new LineItemService
func NewLineItemService(runner *Runner, engine *Engine) *LineItemService {
	return &LineItemService{runner: runner, engine: engine}
}

// CreateSaleItem adds a line to a sale
func (s *LineItemService) CreateSaleItem(ctx context.Context, saleID, productID int64, quantity int, unitPrice decimal.Decimal) (*trade.SaleItem, error) {
	var item *trade.SaleItem
	err := s.runner.Run(ctx, "create sale item", func(repos TransactionalRepositories) error {
		var err error
		item, err = s.engine.InsertSaleItem(ctx, repos, saleID, productID, quantity, unitPrice)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateSaleItem changes quantity and unit price of a sale line
func (s *LineItemService) UpdateSaleItem(ctx context.Context, id int64, quantity int, unitPrice decimal.Decimal) (*trade.SaleItem, error) {
	var item *trade.SaleItem
	err := s.runner.Run(ctx, "update sale item", func(repos TransactionalRepositories) error {
		var err error
		item, err = s.engine.UpdateSaleItem(ctx, repos, id, quantity, unitPrice)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteSaleItem removes a sale line and restores its stock
func (s *LineItemService) DeleteSaleItem(ctx context.Context, id int64) error {
	return s.runner.Run(ctx, "delete sale item", func(repos TransactionalRepositories) error {
		return s.engine.DeleteSaleItem(ctx, repos, id)
	})
}

// CreatePurchaseItem adds a received line to a purchase
func (s *LineItemService) CreatePurchaseItem(ctx context.Context, purchaseID, productID int64, quantity int, unitCost decimal.Decimal) (*trade.PurchaseItem, error) {
	var item *trade.PurchaseItem
	err := s.runner.Run(ctx, "create purchase item", func(repos TransactionalRepositories) error {
		var err error
		item, err = s.engine.InsertPurchaseItem(ctx, repos, purchaseID, productID, quantity, unitCost)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// UpdatePurchaseItem changes quantity and unit cost of a purchase line
func (s *LineItemService) UpdatePurchaseItem(ctx context.Context, id int64, quantity int, unitCost decimal.Decimal) (*trade.PurchaseItem, error) {
	var item *trade.PurchaseItem
	err := s.runner.Run(ctx, "update purchase item", func(repos TransactionalRepositories) error {
		var err error
		item, err = s.engine.UpdatePurchaseItem(ctx, repos, id, quantity, unitCost)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// DeletePurchaseItem removes a purchase line and its units from stock
func (s *LineItemService) DeletePurchaseItem(ctx context.Context, id int64) error {
	return s.runner.Run(ctx, "delete purchase item", func(repos TransactionalRepositories) error {
		return s.engine.DeletePurchaseItem(ctx, repos, id)
	})
}

// AdjustStock corrects a product's stock by delta after a physical count
func (s *LineItemService) AdjustStock(ctx context.Context, productID int64, delta int, reason string) (*catalog.Product, inventory.StockChange, error) {
	var (
		product *catalog.Product
		change  inventory.StockChange
	)
	err := s.runner.Run(ctx, "adjust stock", func(repos TransactionalRepositories) error {
		var err error
		product, change, err = s.engine.AdjustStock(ctx, repos, productID, delta, reason)
		return err
	})
	if err != nil {
		return nil, inventory.StockChange{}, err
	}
	return product, change, nil
}
