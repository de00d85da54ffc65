package trade

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/minegocio/backend/internal/domain/shared"
)

// PurchaseDeleteWindow is how long after creation a purchase may be deleted
const PurchaseDeleteWindow = 30 * 24 * time.Hour

// Purchase is the aggregate root for goods received from a supplier.
// Total is derived from the live items.
type Purchase struct {
	shared.BaseAggregateRoot
	SupplierName string
	Total        decimal.Decimal
	Notes        string
	PurchaseDate time.Time
	ReceivedBy   int64
	Items        []PurchaseItem
}

// NewPurchase creates a purchase with a zero total
func NewPurchase(receivedBy int64, purchaseDate time.Time, supplierName, notes string, now time.Time) (*Purchase, error) {
	verr := &shared.ValidationError{}
	if receivedBy <= 0 {
		verr.Add("received_by", "is required")
	}
	if purchaseDate.IsZero() {
		purchaseDate = now
	}
	if err := validateNotFuture("purchase_date", purchaseDate, now); err != nil {
		verr.Add("purchase_date", "cannot be in the future")
	}
	supplierName = strings.TrimSpace(supplierName)
	if utf8.RuneCountInString(supplierName) > 100 {
		verr.Add("supplier_name", "cannot exceed 100 characters")
	}
	if verr.HasErrors() {
		return nil, verr
	}

	return &Purchase{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SupplierName:      supplierName,
		Total:             decimal.Zero,
		Notes:             notes,
		PurchaseDate:      purchaseDate,
		ReceivedBy:        receivedBy,
	}, nil
}

// PurchaseHeader lists the header fields a purchase update may change.
// Nil fields are left as they are.
type PurchaseHeader struct {
	SupplierName *string
	Notes        *string
	PurchaseDate *time.Time
	ReceivedBy   *int64
}

// ChangeHeader validates every field before applying any of them
func (p *Purchase) ChangeHeader(h PurchaseHeader, now time.Time) error {
	verr := &shared.ValidationError{}
	supplierName := p.SupplierName
	if h.SupplierName != nil {
		supplierName = strings.TrimSpace(*h.SupplierName)
		if utf8.RuneCountInString(supplierName) > 100 {
			verr.Add("supplier_name", "cannot exceed 100 characters")
		}
	}
	purchaseDate := p.PurchaseDate
	if h.PurchaseDate != nil {
		purchaseDate = *h.PurchaseDate
		if err := validateNotFuture("purchase_date", purchaseDate, now); err != nil {
			verr.Add("purchase_date", "cannot be in the future")
		}
	}
	receivedBy := p.ReceivedBy
	if h.ReceivedBy != nil {
		receivedBy = *h.ReceivedBy
		if receivedBy <= 0 {
			verr.Add("received_by", "is required")
		}
	}
	if verr.HasErrors() {
		return verr
	}

	p.SupplierName = supplierName
	p.PurchaseDate = purchaseDate
	p.ReceivedBy = receivedBy
	if h.Notes != nil {
		p.Notes = *h.Notes
	}
	p.Touch()
	return nil
}

// RecalculateTotal recomputes Total from scratch over the live items
func (p *Purchase) RecalculateTotal(items []PurchaseItem) error {
	total := decimal.Zero
	live := make([]PurchaseItem, 0, len(items))
	for _, item := range items {
		if item.IsDeleted() || item.PurchaseID != p.ID {
			continue
		}
		total = total.Add(item.LineTotal)
		live = append(live, item)
	}
	if total.IsNegative() {
		return &shared.ConsistencyViolation{
			Entity: "purchase",
			ID:     p.ID,
			Detail: fmt.Sprintf("recomputed total is negative (%s)", total.StringFixed(2)),
		}
	}
	p.Total = total
	p.Items = live
	p.Touch()
	return nil
}

// CanDelete reports whether the purchase is still inside the deletion window
func (p *Purchase) CanDelete(now time.Time) bool {
	return now.Sub(p.CreatedAt) <= PurchaseDeleteWindow
}

// EnsureDeletable returns ErrInvalidState wrapped with detail once the window has passed
func (p *Purchase) EnsureDeletable(now time.Time) error {
	if !p.CanDelete(now) {
		return shared.NewDomainError(shared.ErrInvalidState.Code,
			fmt.Sprintf("Purchase %d was created more than 30 days ago and can no longer be deleted", p.ID))
	}
	return nil
}

// PurchaseItem is a product line on a purchase
type PurchaseItem struct {
	LineItem
	PurchaseID int64
	UnitCost   decimal.Decimal
}

// NewPurchaseItem validates the line and computes its total
func NewPurchaseItem(purchaseID, productID int64, quantity int, unitCost decimal.Decimal) (*PurchaseItem, error) {
	if err := requireRef("purchase_id", purchaseID); err != nil {
		return nil, err
	}
	if err := requireRef("product_id", productID); err != nil {
		return nil, err
	}
	item := &PurchaseItem{
		LineItem:   LineItem{BaseEntity: shared.NewBaseEntity(), ProductID: productID},
		PurchaseID: purchaseID,
	}
	if err := item.Change(quantity, unitCost); err != nil {
		return nil, err
	}
	return item, nil
}

// Change sets a new quantity and unit cost and recomputes the line total
func (i *PurchaseItem) Change(quantity int, unitCost decimal.Decimal) error {
	if err := i.apply(quantity, unitCost, "unit_cost"); err != nil {
		return err
	}
	i.UnitCost = unitCost
	return nil
}

// PurchaseLine is a purchase line read together with its purchase header and
// product name. ProductName is empty when the product row is gone.
type PurchaseLine struct {
	PurchaseItem
	ProductName  string
	SupplierName string
	PurchaseDate time.Time
	ReceivedBy   int64
}
