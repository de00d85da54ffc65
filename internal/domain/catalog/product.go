package catalog

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/minegocio/backend/internal/domain/shared"
	"github.com/minegocio/backend/internal/domain/shared/valueobject"
)

// DefaultMinStock is the alert threshold given to new products.
const DefaultMinStock = 5

// StockStatus classifies a product's on-hand quantity against its threshold
type StockStatus string

const (
	StockStatusOutOfStock StockStatus = "out_of_stock"
	StockStatusLowStock   StockStatus = "low_stock"
	StockStatusInStock    StockStatus = "in_stock"
)

// Product represents a sellable item and holds its stock ledger.
// Stock only changes through IncreaseStock / DecreaseStock, which the
// inventory coordinator drives from line-item events.
type Product struct {
	shared.BaseAggregateRoot
	Name        string
	Description string
	Barcode     string
	CategoryID  *int64
	CostPrice   *decimal.Decimal
	SalePrice   decimal.Decimal
	Stock       int
	MinStock    int
	IsActive    bool

	// costEdited is set when SetPrices changed the cost by hand. Purchases
	// own the cost otherwise, so an edit that leaves it alone must not
	// write back the value read earlier.
	costEdited bool
}

// NewProduct creates a new active product
func NewProduct(name string, salePrice decimal.Decimal) (*Product, error) {
	verr := &shared.ValidationError{}
	if err := validateProductName(name); err != nil {
		verr.Add("name", err.Error())
	}
	if err := valueobject.ValidatePrice("sale_price", salePrice); err != nil {
		verr.Add("sale_price", "must be a non-negative amount with at most 2 decimal places")
	}
	if verr.HasErrors() {
		return nil, verr
	}

	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              strings.TrimSpace(name),
		SalePrice:         salePrice,
		MinStock:          DefaultMinStock,
		IsActive:          true,
	}, nil
}

// Update updates the descriptive fields
func (p *Product) Update(name, description, barcode string, categoryID *int64) error {
	if err := validateProductName(name); err != nil {
		return shared.NewValidationError("name", err.Error())
	}
	if utf8.RuneCountInString(barcode) > 50 {
		return shared.NewValidationError("barcode", "cannot exceed 50 characters")
	}

	p.Name = strings.TrimSpace(name)
	p.Description = description
	p.Barcode = strings.TrimSpace(barcode)
	p.CategoryID = categoryID
	p.Touch()
	return nil
}

// SetPrices sets the sale price and, when cost is non-nil, the cost price
func (p *Product) SetPrices(cost *decimal.Decimal, sale decimal.Decimal) error {
	if err := valueobject.ValidatePrice("sale_price", sale); err != nil {
		return err
	}
	if cost != nil {
		if err := valueobject.ValidatePrice("cost_price", *cost); err != nil {
			return err
		}
		c := *cost
		p.CostPrice = &c
		p.costEdited = true
	}
	p.SalePrice = sale
	p.Touch()
	return nil
}

// CostPriceEdited reports whether SetPrices changed the cost price
func (p *Product) CostPriceEdited() bool {
	return p.costEdited
}

// SetMinStock sets the low stock threshold
func (p *Product) SetMinStock(minStock int) error {
	if minStock < 0 || minStock > valueobject.MaxQuantity {
		return shared.NewValidationError("min_stock", fmt.Sprintf("must be between 0 and %d", valueobject.MaxQuantity))
	}
	p.MinStock = minStock
	p.Touch()
	return nil
}

// SetInitialStock sets the opening stock of a product that has not been saved yet.
func (p *Product) SetInitialStock(stock int) error {
	if !p.IsNew() {
		return shared.NewDomainError("STOCK_READ_ONLY", "Stock of an existing product changes only through sales and purchases")
	}
	if stock < 0 || stock > valueobject.MaxQuantity {
		return shared.NewValidationError("stock", fmt.Sprintf("must be between 0 and %d", valueobject.MaxQuantity))
	}
	p.Stock = stock
	return nil
}

// IncreaseStock adds quantity units
func (p *Product) IncreaseStock(quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("increase stock of product %d by negative quantity %d", p.ID, quantity)
	}
	if quantity > valueobject.MaxQuantity-p.Stock {
		return shared.NewValidationError("quantity", fmt.Sprintf("would take stock above %d", valueobject.MaxQuantity))
	}
	p.Stock += quantity
	p.Touch()
	return nil
}

// DecreaseStock removes quantity units, flooring the result at zero.
// It reports whether the floor was applied.
func (p *Product) DecreaseStock(quantity int) (clamped bool, err error) {
	if quantity < 0 {
		return false, fmt.Errorf("decrease stock of product %d by negative quantity %d", p.ID, quantity)
	}
	p.Stock -= quantity
	if p.Stock < 0 {
		p.Stock = 0
		clamped = true
	}
	p.Touch()
	return clamped, nil
}

// HasStock reports whether quantity units can be taken without going negative
func (p *Product) HasStock(quantity int) bool {
	return p.Stock >= quantity
}

// UpdateCostPrice records the latest purchase cost
func (p *Product) UpdateCostPrice(cost decimal.Decimal) error {
	if err := valueobject.ValidatePrice("unit_cost", cost); err != nil {
		return err
	}
	p.CostPrice = &cost
	return nil
}

// Activate marks the product as sellable
func (p *Product) Activate() error {
	if p.IsActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Product is already active")
	}
	p.IsActive = true
	p.Touch()
	return nil
}

// Deactivate hides the product from new sales without deleting history
func (p *Product) Deactivate() error {
	if !p.IsActive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Product is already inactive")
	}
	p.IsActive = false
	p.Touch()
	return nil
}

// StockStatus classifies the current stock level
func (p *Product) StockStatus() StockStatus {
	switch {
	case p.Stock <= 0:
		return StockStatusOutOfStock
	case p.Stock <= p.MinStock:
		return StockStatusLowStock
	default:
		return StockStatusInStock
	}
}

// IsLowStock reports whether stock is at or below the threshold
func (p *Product) IsLowStock() bool {
	return p.Stock <= p.MinStock
}

// ProfitMargin returns (sale - cost) / cost * 100 rounded to two places,
// or nil when the cost is unknown or zero.
func (p *Product) ProfitMargin() *decimal.Decimal {
	if p.CostPrice == nil || p.CostPrice.IsZero() {
		return nil
	}
	margin := p.SalePrice.Sub(*p.CostPrice).
		Div(*p.CostPrice).
		Mul(decimal.NewFromInt(100)).
		Round(2)
	return &margin
}

func validateProductName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("cannot be empty")
	}
	if utf8.RuneCountInString(name) > 200 {
		return fmt.Errorf("cannot exceed 200 characters")
	}
	return nil
}
