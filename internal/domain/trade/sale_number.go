package trade

import (
	"fmt"
	"regexp"
	"strconv"
)

// SaleNumberSequence is the counter name that drives sale numbering
const SaleNumberSequence = "sale_number"

var saleNumberPattern = regexp.MustCompile(`^V(\d{6,})$`)

// FormatSaleNumber renders n as V followed by at least six zero-padded digits.
func FormatSaleNumber(n int64) string {
	return fmt.Sprintf("V%06d", n)
}

// ParseSaleNumber returns the numeric part of a sale number
func ParseSaleNumber(number string) (int64, error) {
	m := saleNumberPattern.FindStringSubmatch(number)
	if m == nil {
		return 0, fmt.Errorf("invalid sale number %q", number)
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid sale number %q: %w", number, err)
	}
	return n, nil
}
