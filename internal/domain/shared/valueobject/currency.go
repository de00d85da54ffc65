package valueobject

import (
	"fmt"
	"strings"
)

// Currency represents an ISO 4217 currency code accepted by the business settings.
type Currency string

const (
	COP Currency = "COP" // Colombian Peso (default)
	USD Currency = "USD"
	MXN Currency = "MXN"
	PEN Currency = "PEN"
	ARS Currency = "ARS"
	CLP Currency = "CLP"
	BOB Currency = "BOB"
	UYU Currency = "UYU"
	PYG Currency = "PYG"
	VES Currency = "VES"
)

// DefaultCurrency is the currency of a freshly created business
const DefaultCurrency = COP

// currencySymbols is the allow-list, keyed by code.
var currencySymbols = map[Currency]string{
	COP: "$",
	USD: "US$",
	MXN: "MX$",
	PEN: "S/",
	ARS: "AR$",
	CLP: "CL$",
	BOB: "Bs",
	UYU: "UY$",
	PYG: "₲",
	VES: "Bs.S",
}

// currencyOrder keeps listings stable.
var currencyOrder = []Currency{COP, USD, MXN, PEN, ARS, CLP, BOB, UYU, PYG, VES}

// ParseCurrency normalizes code and checks it against the allow-list.
func ParseCurrency(code string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(code)))
	if !c.IsValid() {
		return "", fmt.Errorf("unsupported currency %q", code)
	}
	return c, nil
}

// IsValid reports whether c is in the allow-list.
func (c Currency) IsValid() bool {
	_, ok := currencySymbols[c]
	return ok
}

// Symbol returns the display symbol, or the code itself for unknown currencies.
func (c Currency) Symbol() string {
	if s, ok := currencySymbols[c]; ok {
		return s
	}
	return string(c)
}

func (c Currency) String() string {
	return string(c)
}

// SupportedCurrencies returns the allow-list in display order.
func SupportedCurrencies() []Currency {
	out := make([]Currency, len(currencyOrder))
	copy(out, currencyOrder)
	return out
}
