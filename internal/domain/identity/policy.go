package identity

import (
	"fmt"
	"time"

	"github.com/minegocio/backend/internal/domain/shared"
	"github.com/minegocio/backend/internal/domain/trade"
)

// PurchaseEditWindow is how long a receiving employee may edit a purchase's lines
const PurchaseEditWindow = 7 * 24 * time.Hour

// Actor is the authenticated caller of an operation
type Actor struct {
	UserID int64
	Role   Role
}

// IsOwner reports whether the actor holds the owner role
func (a Actor) IsOwner() bool {
	return a.Role == RoleOwner
}

// Action names an owner-only capability
type Action string

const (
	ActionManageCatalog  Action = "manage_catalog"
	ActionDeleteSale     Action = "delete_sale"
	ActionDeletePurchase Action = "delete_purchase"
	ActionExport         Action = "export"
	ActionUpdateBusiness Action = "update_business"
	ActionManageUsers    Action = "manage_users"
)

// Policy answers capability questions for an actor. It holds no state other
// than the clock used for the same-day and 7-day rules.
type Policy struct {
	now func() time.Time
}

// NewPolicy creates a Policy reading the wall clock
func NewPolicy() *Policy {
	return &Policy{now: time.Now}
}

// NewPolicyWithClock creates a Policy with a fixed clock, for tests
func NewPolicyWithClock(now func() time.Time) *Policy {
	return &Policy{now: now}
}

// Can reports whether the actor may perform an owner-only action
func (p *Policy) Can(a Actor, action Action) bool {
	return a.IsOwner()
}

// CanViewSale lets owners see every sale and employees their own
func (p *Policy) CanViewSale(a Actor, sale *trade.Sale) bool {
	return a.IsOwner() || sale.SoldBy == a.UserID
}

// CanUpdateSaleItem allows the owner or the sale's seller
func (p *Policy) CanUpdateSaleItem(a Actor, sale *trade.Sale) bool {
	return a.IsOwner() || sale.SoldBy == a.UserID
}

// CanUpdateSale allows the owner, or the seller while the sale date is today.
// It covers the sale header: customer, payment method, date and notes.
func (p *Policy) CanUpdateSale(a Actor, sale *trade.Sale) bool {
	if a.IsOwner() {
		return true
	}
	return sale.SoldBy == a.UserID && sale.IsDatedOn(p.now())
}

// CanDeleteSaleItem allows the owner, or the seller while the sale date is
// today. SaleDate is a calendar date and is compared without conversion.
func (p *Policy) CanDeleteSaleItem(a Actor, sale *trade.Sale) bool {
	if a.IsOwner() {
		return true
	}
	return sale.SoldBy == a.UserID && sale.IsDatedOn(p.now())
}

// CanEditPurchase allows the owner, or the receiving employee within
// PurchaseEditWindow of the purchase's creation. It covers adding, changing
// and removing purchase lines.
func (p *Policy) CanEditPurchase(a Actor, purchase *trade.Purchase) bool {
	if a.IsOwner() {
		return true
	}
	return purchase.ReceivedBy == a.UserID &&
		p.now().Sub(purchase.CreatedAt) <= PurchaseEditWindow
}

// Authorize turns a denied check into ErrForbidden
func Authorize(allowed bool, what string) error {
	if allowed {
		return nil
	}
	return shared.NewDomainError(shared.ErrForbidden.Code, fmt.Sprintf("You are not allowed to %s", what))
}
