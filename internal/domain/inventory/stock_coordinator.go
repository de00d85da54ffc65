package inventory

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/minegocio/backend/internal/domain/catalog"
	"github.com/minegocio/backend/internal/domain/shared"
	"github.com/minegocio/backend/internal/domain/shared/valueobject"
)

// LineItemEvent identifies the line-item lifecycle event that moved stock.
// EventManualAdjustment is the one event not tied to a line: an owner
// correcting stock after a count.
type LineItemEvent string

const (
	EventSaleItemInsert     LineItemEvent = "sale_item_insert"
	EventSaleItemUpdate     LineItemEvent = "sale_item_update"
	EventSaleItemDelete     LineItemEvent = "sale_item_delete"
	EventPurchaseItemInsert LineItemEvent = "purchase_item_insert"
	EventPurchaseItemUpdate LineItemEvent = "purchase_item_update"
	EventPurchaseItemDelete LineItemEvent = "purchase_item_delete"
	EventManualAdjustment   LineItemEvent = "manual_adjustment"
)

// StockChange describes what one coordinator call did to a product
type StockChange struct {
	ProductID int64
	Event     LineItemEvent
	Before    int
	After     int
	// Requested is the signed change the event asked for; After-Before
	// differs from it only when Clamped is set.
	Requested int
	Clamped   bool
	// CostPrice is set when the event updated the product's cost price
	CostPrice *decimal.Decimal
}

// Applied returns the signed change actually applied to stock
func (c StockChange) Applied() int {
	return c.After - c.Before
}

// StockCoordinator adjusts product stock in response to line-item events.
//
// Callers pass a product row that is locked for the current transaction and
// persist it afterwards; the coordinator itself does no I/O.
type StockCoordinator struct{}

// NewStockCoordinator creates a StockCoordinator
func NewStockCoordinator() *StockCoordinator {
	return &StockCoordinator{}
}

// OnSaleItemInsert takes quantity units for a new sale line.
func (c *StockCoordinator) OnSaleItemInsert(p *catalog.Product, quantity int) (StockChange, error) {
	change, err := c.begin(p, EventSaleItemInsert, -quantity)
	if err != nil {
		return change, err
	}
	if err := valueobject.ValidateQuantity(quantity); err != nil {
		return change, err
	}
	if !p.IsActive {
		return change, shared.NewValidationError("product_id", fmt.Sprintf("product %d is not active", p.ID))
	}
	if !p.HasStock(quantity) {
		return change, insufficient(p, quantity)
	}
	if _, err := p.DecreaseStock(quantity); err != nil {
		return change, err
	}
	return c.finish(p, change)
}

// OnSaleItemUpdate moves stock by the difference between the old and new
// quantity of a sale line. Only the extra units are checked against stock.
func (c *StockCoordinator) OnSaleItemUpdate(p *catalog.Product, oldQuantity, newQuantity int) (StockChange, error) {
	delta := newQuantity - oldQuantity
	change, err := c.begin(p, EventSaleItemUpdate, -delta)
	if err != nil {
		return change, err
	}
	if err := valueobject.ValidateQuantity(newQuantity); err != nil {
		return change, err
	}
	switch {
	case delta > 0:
		if !p.HasStock(delta) {
			return change, insufficient(p, delta)
		}
		if _, err := p.DecreaseStock(delta); err != nil {
			return change, err
		}
	case delta < 0:
		if err := p.IncreaseStock(-delta); err != nil {
			return change, err
		}
	}
	return c.finish(p, change)
}

// OnSaleItemDelete returns the line's units to stock. It always succeeds for
// a well-formed product.
func (c *StockCoordinator) OnSaleItemDelete(p *catalog.Product, quantity int) (StockChange, error) {
	change, err := c.begin(p, EventSaleItemDelete, quantity)
	if err != nil {
		return change, err
	}
	if err := valueobject.ValidateQuantity(quantity); err != nil {
		return change, err
	}
	if err := p.IncreaseStock(quantity); err != nil {
		return change, err
	}
	return c.finish(p, change)
}

// OnPurchaseItemInsert receives quantity units and records unitCost as the
// product's latest cost price.
func (c *StockCoordinator) OnPurchaseItemInsert(p *catalog.Product, quantity int, unitCost decimal.Decimal) (StockChange, error) {
	change, err := c.begin(p, EventPurchaseItemInsert, quantity)
	if err != nil {
		return change, err
	}
	if err := valueobject.ValidateQuantity(quantity); err != nil {
		return change, err
	}
	if err := p.UpdateCostPrice(unitCost); err != nil {
		return change, err
	}
	if err := p.IncreaseStock(quantity); err != nil {
		return change, err
	}
	change.CostPrice = p.CostPrice
	return c.finish(p, change)
}

// OnPurchaseItemUpdate applies new-old to stock and refreshes the cost price.
// A result below zero is floored and flagged as clamped.
func (c *StockCoordinator) OnPurchaseItemUpdate(p *catalog.Product, oldQuantity, newQuantity int, unitCost decimal.Decimal) (StockChange, error) {
	delta := newQuantity - oldQuantity
	change, err := c.begin(p, EventPurchaseItemUpdate, delta)
	if err != nil {
		return change, err
	}
	if err := valueobject.ValidateQuantity(newQuantity); err != nil {
		return change, err
	}
	if err := p.UpdateCostPrice(unitCost); err != nil {
		return change, err
	}
	switch {
	case delta > 0:
		if err := p.IncreaseStock(delta); err != nil {
			return change, err
		}
	case delta < 0:
		clamped, err := p.DecreaseStock(-delta)
		if err != nil {
			return change, err
		}
		change.Clamped = clamped
	}
	change.CostPrice = p.CostPrice
	return c.finish(p, change)
}

// OnPurchaseItemDelete removes the received units, floored at zero.
func (c *StockCoordinator) OnPurchaseItemDelete(p *catalog.Product, quantity int) (StockChange, error) {
	change, err := c.begin(p, EventPurchaseItemDelete, -quantity)
	if err != nil {
		return change, err
	}
	if err := valueobject.ValidateQuantity(quantity); err != nil {
		return change, err
	}
	clamped, err := p.DecreaseStock(quantity)
	if err != nil {
		return change, err
	}
	change.Clamped = clamped
	return c.finish(p, change)
}

// OnManualAdjustment moves stock by delta, positive or negative. A result
// below zero is floored and flagged as clamped.
func (c *StockCoordinator) OnManualAdjustment(p *catalog.Product, delta int) (StockChange, error) {
	change, err := c.begin(p, EventManualAdjustment, delta)
	if err != nil {
		return change, err
	}
	if delta > valueobject.MaxQuantity || delta < -valueobject.MaxQuantity {
		return change, shared.NewValidationError("adjustment",
			fmt.Sprintf("must be between -%d and %d", valueobject.MaxQuantity, valueobject.MaxQuantity))
	}
	switch {
	case delta > 0:
		if err := p.IncreaseStock(delta); err != nil {
			return change, err
		}
	case delta < 0:
		clamped, err := p.DecreaseStock(-delta)
		if err != nil {
			return change, err
		}
		change.Clamped = clamped
	default:
		return change, shared.NewValidationError("adjustment", "must not be zero")
	}
	return c.finish(p, change)
}

func (c *StockCoordinator) begin(p *catalog.Product, event LineItemEvent, requested int) (StockChange, error) {
	if p == nil {
		return StockChange{Event: event}, fmt.Errorf("%s: product is nil", event)
	}
	change := StockChange{
		ProductID: p.ID,
		Event:     event,
		Before:    p.Stock,
		After:     p.Stock,
		Requested: requested,
	}
	if p.Stock < 0 {
		return change, &shared.ConsistencyViolation{
			Entity: "product",
			ID:     p.ID,
			Detail: fmt.Sprintf("stored stock is negative (%d)", p.Stock),
		}
	}
	return change, nil
}

func (c *StockCoordinator) finish(p *catalog.Product, change StockChange) (StockChange, error) {
	change.After = p.Stock
	if p.Stock < 0 {
		return change, &shared.ConsistencyViolation{
			Entity: "product",
			ID:     p.ID,
			Detail: fmt.Sprintf("%s left stock at %d", change.Event, p.Stock),
		}
	}
	return change, nil
}

func insufficient(p *catalog.Product, requested int) error {
	return &shared.InsufficientStockError{
		ProductID:   p.ID,
		ProductName: p.Name,
		Requested:   requested,
		Available:   p.Stock,
	}
}
