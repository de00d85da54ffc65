package valueobject

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/minegocio/backend/internal/domain/shared"
)

// MoneyScale is the number of fractional digits stored for prices and totals.
const MoneyScale int32 = 2

// MaxQuantity is the largest quantity or stock level the INTEGER columns hold.
const MaxQuantity = math.MaxInt32

// ValidatePrice checks that amount is non-negative with at most two decimals.
// Trailing zeros do not count: "1.500" is accepted.
func ValidatePrice(field string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return shared.NewValidationError(field, "must be greater than or equal to 0")
	}
	if !amount.Equal(amount.Round(MoneyScale)) {
		return shared.NewValidationError(field, "must have at most 2 decimal places")
	}
	return nil
}

// ValidateQuantity checks that quantity is a positive integer that fits
// the quantity columns.
func ValidateQuantity(quantity int) error {
	switch {
	case quantity <= 0:
		return shared.NewValidationError("quantity", "must be greater than 0")
	case quantity > MaxQuantity:
		return shared.NewValidationError("quantity", fmt.Sprintf("must be at most %d", MaxQuantity))
	}
	return nil
}

// ComputeLineTotal returns quantity × price as an exact decimal, validating
// both inputs. priceField names the price in validation details.
func ComputeLineTotal(quantity int, price decimal.Decimal, priceField string) (decimal.Decimal, error) {
	verr := &shared.ValidationError{}
	var qerr *shared.ValidationError
	if errors.As(ValidateQuantity(quantity), &qerr) {
		verr.Add("quantity", qerr.Fields["quantity"])
	}
	var perr *shared.ValidationError
	if errors.As(ValidatePrice(priceField, price), &perr) {
		verr.Add(priceField, perr.Fields[priceField])
	}
	if verr.HasErrors() {
		return decimal.Zero, verr
	}
	return price.Mul(decimal.NewFromInt(int64(quantity))), nil
}

// LineTotal computes a sale line total (quantity × unit_price).
func LineTotal(quantity int, unitPrice decimal.Decimal) (decimal.Decimal, error) {
	return ComputeLineTotal(quantity, unitPrice, "unit_price")
}
