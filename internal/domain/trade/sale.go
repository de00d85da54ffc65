package trade

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/minegocio/backend/internal/domain/shared"
)

// Sale is the aggregate root for a customer sale.
// Total is derived: it always equals the sum of the live items' line totals.
type Sale struct {
	shared.BaseAggregateRoot
	SaleNumber    string
	CustomerName  string
	Total         decimal.Decimal
	PaymentMethod PaymentMethod
	SaleDate      time.Time
	SoldBy        int64
	Notes         string
	Items         []SaleItem
}

// NewSale creates a sale with a zero total and no number yet
func NewSale(soldBy int64, method PaymentMethod, saleDate time.Time, customerName, notes string, now time.Time) (*Sale, error) {
	verr := &shared.ValidationError{}
	if soldBy <= 0 {
		verr.Add("sold_by", "is required")
	}
	if !method.IsValid() {
		verr.Add("payment_method", "must be one of cash, card, transfer, credit")
	}
	if saleDate.IsZero() {
		saleDate = now
	}
	if err := validateNotFuture("sale_date", saleDate, now); err != nil {
		verr.Add("sale_date", "cannot be in the future")
	}
	customerName = strings.TrimSpace(customerName)
	if utf8.RuneCountInString(customerName) > 100 {
		verr.Add("customer_name", "cannot exceed 100 characters")
	}
	if verr.HasErrors() {
		return nil, verr
	}

	return &Sale{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CustomerName:      customerName,
		Total:             decimal.Zero,
		PaymentMethod:     method,
		SaleDate:          saleDate,
		SoldBy:            soldBy,
		Notes:             notes,
	}, nil
}

// SaleHeader lists the header fields a sale update may change.
// Nil fields are left as they are.
type SaleHeader struct {
	CustomerName  *string
	PaymentMethod *PaymentMethod
	SaleDate      *time.Time
	Notes         *string
}

// ChangeHeader validates every field before applying any of them.
// Total, number and seller are not part of the header.
func (s *Sale) ChangeHeader(h SaleHeader, now time.Time) error {
	verr := &shared.ValidationError{}
	customerName := s.CustomerName
	if h.CustomerName != nil {
		customerName = strings.TrimSpace(*h.CustomerName)
		if utf8.RuneCountInString(customerName) > 100 {
			verr.Add("customer_name", "cannot exceed 100 characters")
		}
	}
	method := s.PaymentMethod
	if h.PaymentMethod != nil {
		method = *h.PaymentMethod
		if !method.IsValid() {
			verr.Add("payment_method", "must be one of cash, card, transfer, credit")
		}
	}
	saleDate := s.SaleDate
	if h.SaleDate != nil {
		saleDate = *h.SaleDate
		if err := validateNotFuture("sale_date", saleDate, now); err != nil {
			verr.Add("sale_date", "cannot be in the future")
		}
	}
	if verr.HasErrors() {
		return verr
	}

	s.CustomerName = customerName
	s.PaymentMethod = method
	s.SaleDate = saleDate
	if h.Notes != nil {
		s.Notes = *h.Notes
	}
	s.Touch()
	return nil
}

// AssignNumber sets the sale number. A number can only be set once.
func (s *Sale) AssignNumber(number string) error {
	if s.SaleNumber != "" {
		return shared.NewDomainError("SALE_NUMBER_IMMUTABLE", fmt.Sprintf("Sale already has number %s", s.SaleNumber))
	}
	if _, err := ParseSaleNumber(number); err != nil {
		return shared.NewValidationError("sale_number", "must look like V000001")
	}
	s.SaleNumber = number
	return nil
}

// RecalculateTotal recomputes Total from scratch over items, ignoring lines
// that are soft deleted or belong to another sale.
func (s *Sale) RecalculateTotal(items []SaleItem) error {
	total := decimal.Zero
	live := make([]SaleItem, 0, len(items))
	for _, item := range items {
		if item.IsDeleted() || item.SaleID != s.ID {
			continue
		}
		total = total.Add(item.LineTotal)
		live = append(live, item)
	}
	if total.IsNegative() {
		return &shared.ConsistencyViolation{
			Entity: "sale",
			ID:     s.ID,
			Detail: fmt.Sprintf("recomputed total is negative (%s)", total.StringFixed(2)),
		}
	}
	s.Total = total
	s.Items = live
	s.Touch()
	return nil
}

// IsDatedOn reports whether the sale's calendar date is the UTC day of t.
// SaleDate carries no zone, so it is compared without conversion.
func (s *Sale) IsDatedOn(t time.Time) bool {
	return s.SaleDate.Format(time.DateOnly) == t.UTC().Format(time.DateOnly)
}

// ItemSummary aggregates the live items of a sale
type ItemSummary struct {
	TotalItems    int             `json:"total_items"`
	TotalQuantity int             `json:"total_quantity"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

// Summary returns counts and amount over the sale's live items
func (s *Sale) Summary() ItemSummary {
	summary := ItemSummary{TotalAmount: decimal.Zero}
	for _, item := range s.Items {
		if item.IsDeleted() {
			continue
		}
		summary.TotalItems++
		summary.TotalQuantity += item.Quantity
		summary.TotalAmount = summary.TotalAmount.Add(item.LineTotal)
	}
	return summary
}

// SaleItem is a product line on a sale
type SaleItem struct {
	LineItem
	SaleID    int64
	UnitPrice decimal.Decimal
}

// NewSaleItem validates the line and computes its total
func NewSaleItem(saleID, productID int64, quantity int, unitPrice decimal.Decimal) (*SaleItem, error) {
	if err := requireRef("sale_id", saleID); err != nil {
		return nil, err
	}
	if err := requireRef("product_id", productID); err != nil {
		return nil, err
	}
	item := &SaleItem{
		LineItem: LineItem{BaseEntity: shared.NewBaseEntity(), ProductID: productID},
		SaleID:   saleID,
	}
	if err := item.Change(quantity, unitPrice); err != nil {
		return nil, err
	}
	return item, nil
}

// Change sets a new quantity and unit price and recomputes the line total
func (i *SaleItem) Change(quantity int, unitPrice decimal.Decimal) error {
	if err := i.apply(quantity, unitPrice, "unit_price"); err != nil {
		return err
	}
	i.UnitPrice = unitPrice
	return nil
}
