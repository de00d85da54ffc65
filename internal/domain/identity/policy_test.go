package identity

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/minegocio/backend/internal/domain/shared"
	"github.com/minegocio/backend/internal/domain/trade"
)

var (
	policyNow = time.Date(2026, 3, 14, 15, 30, 0, 0, time.UTC)
	owner     = Actor{UserID: 1, Role: RoleOwner}
	seller    = Actor{UserID: 2, Role: RoleEmployee}
	other     = Actor{UserID: 3, Role: RoleEmployee}
)

func fixedPolicy() *Policy {
	return NewPolicyWithClock(func() time.Time { return policyNow })
}

func TestPolicy_OwnerOnlyActions(t *testing.T) {
	p := fixedPolicy()
	for _, action := range []Action{ActionManageCatalog, ActionDeleteSale, ActionDeletePurchase, ActionExport, ActionUpdateBusiness, ActionManageUsers} {
		assert.True(t, p.Can(owner, action), action)
		assert.False(t, p.Can(seller, action), action)
	}
}

func TestPolicy_SaleItems(t *testing.T) {
	p := fixedPolicy()
	today := &trade.Sale{SoldBy: seller.UserID, SaleDate: policyNow.Add(-2 * time.Hour)}
	yesterday := &trade.Sale{SoldBy: seller.UserID, SaleDate: policyNow.AddDate(0, 0, -1)}

	t.Run("update is for the owner or the seller", func(t *testing.T) {
		assert.True(t, p.CanUpdateSaleItem(owner, yesterday))
		assert.True(t, p.CanUpdateSaleItem(seller, yesterday))
		assert.False(t, p.CanUpdateSaleItem(other, today))
	})

	t.Run("seller may delete only on the sale day", func(t *testing.T) {
		assert.True(t, p.CanDeleteSaleItem(seller, today))
		assert.False(t, p.CanDeleteSaleItem(seller, yesterday))
		assert.False(t, p.CanDeleteSaleItem(other, today))
		assert.True(t, p.CanDeleteSaleItem(owner, yesterday))
	})

	t.Run("employees only view their own sales", func(t *testing.T) {
		assert.True(t, p.CanViewSale(seller, today))
		assert.False(t, p.CanViewSale(other, today))
		assert.True(t, p.CanViewSale(owner, today))
	})
}

func TestPolicy_CanUpdateSale(t *testing.T) {
	p := fixedPolicy()
	today := &trade.Sale{SoldBy: seller.UserID, SaleDate: policyNow.Add(-2 * time.Hour)}
	yesterday := &trade.Sale{SoldBy: seller.UserID, SaleDate: policyNow.AddDate(0, 0, -1)}

	assert.True(t, p.CanUpdateSale(seller, today))
	assert.False(t, p.CanUpdateSale(seller, yesterday))
	assert.False(t, p.CanUpdateSale(other, today))
	assert.True(t, p.CanUpdateSale(owner, yesterday))
}

func TestPolicy_CanEditPurchase(t *testing.T) {
	p := fixedPolicy()
	recent := &trade.Purchase{ReceivedBy: seller.UserID}
	recent.CreatedAt = policyNow.Add(-6 * 24 * time.Hour)
	old := &trade.Purchase{ReceivedBy: seller.UserID}
	old.CreatedAt = policyNow.Add(-8 * 24 * time.Hour)

	assert.True(t, p.CanEditPurchase(seller, recent))
	assert.False(t, p.CanEditPurchase(seller, old))
	assert.False(t, p.CanEditPurchase(other, recent))
	assert.True(t, p.CanEditPurchase(owner, old))
}

func TestAuthorize(t *testing.T) {
	assert.NoError(t, Authorize(true, "delete sales"))

	err := Authorize(false, "delete sales")
	assert.True(t, errors.Is(err, shared.ErrForbidden))
	assert.Contains(t, err.Error(), "delete sales")
}
