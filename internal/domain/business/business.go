// Package business models the single settings row that describes the shop.
package business

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/minegocio/backend/internal/domain/shared"
	"github.com/minegocio/backend/internal/domain/shared/valueobject"
)

// SingletonID is the only primary key the businesses table accepts
const SingletonID int64 = 1

// Defaults applied when the row is created on first read
const (
	DefaultName      = "Mi Negocio"
	DefaultOwnerName = "Propietario"
)

// Business holds shop-wide settings read by reporting and pricing
type Business struct {
	shared.BaseEntity
	Name      string
	OwnerName string
	Phone     string
	Email     string
	Address   string
	Currency  valueobject.Currency
	TaxRate   decimal.Decimal
}

// NewDefault returns the row written when none exists
func NewDefault() *Business {
	b := &Business{
		BaseEntity: shared.NewBaseEntity(),
		Name:       DefaultName,
		OwnerName:  DefaultOwnerName,
		Currency:   valueobject.DefaultCurrency,
		TaxRate:    decimal.Zero,
	}
	b.ID = SingletonID
	return b
}

// Update carries optional changes; nil fields are left as they are
type Update struct {
	Name      *string
	OwnerName *string
	Phone     *string
	Email     *string
	Address   *string
	Currency  *string
	TaxRate   *decimal.Decimal
}

// Apply validates u and copies it onto b. The ID is forced to SingletonID
// whatever the caller had set.
func (b *Business) Apply(u Update) error {
	verr := &shared.ValidationError{}
	next := *b

	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		switch {
		case name == "":
			verr.Add("name", "cannot be empty")
		case utf8.RuneCountInString(name) > 100:
			verr.Add("name", "cannot exceed 100 characters")
		}
		next.Name = name
	}
	if u.OwnerName != nil {
		owner := strings.TrimSpace(*u.OwnerName)
		switch {
		case owner == "":
			verr.Add("owner_name", "cannot be empty")
		case utf8.RuneCountInString(owner) > 100:
			verr.Add("owner_name", "cannot exceed 100 characters")
		}
		next.OwnerName = owner
	}
	if u.Phone != nil {
		if utf8.RuneCountInString(*u.Phone) > 20 {
			verr.Add("phone", "cannot exceed 20 characters")
		}
		next.Phone = strings.TrimSpace(*u.Phone)
	}
	if u.Email != nil {
		email := strings.TrimSpace(*u.Email)
		if email != "" {
			if _, err := mail.ParseAddress(email); err != nil || utf8.RuneCountInString(email) > 100 {
				verr.Add("email", "must be a valid email address")
			}
		}
		next.Email = email
	}
	if u.Address != nil {
		if utf8.RuneCountInString(*u.Address) > 200 {
			verr.Add("address", "cannot exceed 200 characters")
		}
		next.Address = strings.TrimSpace(*u.Address)
	}
	if u.Currency != nil {
		c, err := valueobject.ParseCurrency(*u.Currency)
		if err != nil {
			verr.Add("currency", "is not supported")
		}
		next.Currency = c
	}
	if u.TaxRate != nil {
		rate := *u.TaxRate
		if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
			verr.Add("tax_rate", "must be between 0 and 1")
		}
		if !rate.Equal(rate.Round(4)) {
			verr.Add("tax_rate", "must have at most 4 decimal places")
		}
		next.TaxRate = rate
	}
	if verr.HasErrors() {
		return verr
	}

	next.ID = SingletonID
	next.Touch()
	*b = next
	return nil
}

// TaxFor returns the tax owed on amount at the configured rate
func (b *Business) TaxFor(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(b.TaxRate).Round(valueobject.MoneyScale)
}

// Money wraps amount in the business currency
func (b *Business) Money(amount decimal.Decimal) valueobject.Money {
	return valueobject.Sum(b.Currency, amount)
}
