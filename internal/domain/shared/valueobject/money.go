package valueobject

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an amount tagged with the currency it is displayed in
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// Sum adds a list of amounts in one currency.
func Sum(currency Currency, amounts ...decimal.Decimal) Money {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return Money{amount: total, currency: currency}
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency code
func (m Money) Currency() Currency {
	return m.currency
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// String returns a string representation of the Money
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(2), m.currency)
}

// Format renders the amount with the currency symbol, e.g. "S/ 12.50".
func (m Money) Format() string {
	return fmt.Sprintf("%s %s", m.currency.Symbol(), m.amount.StringFixed(2))
}

// MarshalJSON implements json.Marshaler
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount    string   `json:"amount"`
		Currency  Currency `json:"currency"`
		Formatted string   `json:"formatted"`
	}{
		Amount:    m.amount.StringFixed(2),
		Currency:  m.currency,
		Formatted: m.Format(),
	})
}
