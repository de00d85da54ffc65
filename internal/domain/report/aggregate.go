package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/minegocio/backend/internal/domain/shared"
	"github.com/minegocio/backend/internal/domain/shared/valueobject"
	"github.com/minegocio/backend/internal/domain/trade"
)

// Period names a revenue window relative to today
type Period string

const (
	PeriodToday     Period = "today"
	PeriodThisMonth Period = "this_month"
	PeriodLastMonth Period = "last_month"
)

// ParsePeriod validates a period name
func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case PeriodToday, PeriodThisMonth, PeriodLastMonth:
		return p, nil
	case "":
		return PeriodToday, nil
	default:
		return "", shared.NewValidationError("period", "must be one of today, this_month, last_month")
	}
}

// Range returns the calendar days [from, to) covered by p as seen from now
func (p Period) Range(now time.Time) (from, to time.Time) {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	monthStart := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	switch p {
	case PeriodThisMonth:
		return monthStart, monthStart.AddDate(0, 1, 0)
	case PeriodLastMonth:
		return monthStart.AddDate(0, -1, 0), monthStart
	default:
		return today, today.AddDate(0, 0, 1)
	}
}

// SummarizeRevenue totals sales into a RevenueSummary
func SummarizeRevenue(p Period, from, to time.Time, sales []SaleFact) RevenueSummary {
	revenue := decimal.Zero
	for _, s := range sales {
		revenue = revenue.Add(s.Total)
	}
	return RevenueSummary{
		Period:        p,
		From:          from.Format(time.DateOnly),
		To:            to.AddDate(0, 0, -1).Format(time.DateOnly),
		Revenue:       revenue,
		Transactions:  len(sales),
		AverageTicket: average(revenue, len(sales)),
	}
}

// GroupByDay buckets sales per sale_date, newest first
func GroupByDay(sales []SaleFact) []SalesBucket {
	return group(sales, func(t time.Time) string { return t.Format(time.DateOnly) })
}

// GroupByMonth buckets sales per calendar month, newest first
func GroupByMonth(sales []SaleFact) []SalesBucket {
	return group(sales, func(t time.Time) string { return t.Format("2006-01") })
}

func group(sales []SaleFact, key func(time.Time) string) []SalesBucket {
	buckets := make(map[string]*SalesBucket)
	for _, s := range sales {
		k := key(s.SaleDate)
		b, ok := buckets[k]
		if !ok {
			b = &SalesBucket{Date: k, Revenue: decimal.Zero, CashSales: decimal.Zero, CardSales: decimal.Zero}
			buckets[k] = b
		}
		b.Transactions++
		b.Revenue = b.Revenue.Add(s.Total)
		switch s.PaymentMethod {
		case trade.PaymentCash:
			b.CashSales = b.CashSales.Add(s.Total)
		case trade.PaymentCard:
			b.CardSales = b.CardSales.Add(s.Total)
		}
	}

	out := make([]SalesBucket, 0, len(buckets))
	for _, b := range buckets {
		b.AverageTicket = average(b.Revenue, b.Transactions)
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

// RankProducts orders products by units sold, then revenue, and keeps the
// first limit. A limit of zero or less keeps all.
func RankProducts(lines []LineFact, limit int) []ProductRanking {
	byProduct := make(map[int64]*ProductRanking)
	sales := make(map[int64]map[int64]struct{})
	for _, l := range lines {
		r, ok := byProduct[l.ProductID]
		if !ok {
			r = &ProductRanking{ProductID: l.ProductID, ProductName: l.ProductName, Revenue: decimal.Zero}
			byProduct[l.ProductID] = r
			sales[l.ProductID] = make(map[int64]struct{})
		}
		r.QuantitySold += l.Quantity
		r.Revenue = r.Revenue.Add(l.LineTotal)
		sales[l.ProductID][l.SaleID] = struct{}{}
	}

	out := make([]ProductRanking, 0, len(byProduct))
	for id, r := range byProduct {
		r.TimesSold = len(sales[id])
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].QuantitySold != out[j].QuantitySold {
			return out[i].QuantitySold > out[j].QuantitySold
		}
		if !out[i].Revenue.Equal(out[j].Revenue) {
			return out[i].Revenue.GreaterThan(out[j].Revenue)
		}
		return out[i].ProductID < out[j].ProductID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// TrailingDays returns [today-days, tomorrow) for a trailing window
func TrailingDays(now time.Time, days int) (from, to time.Time, err error) {
	if days < 1 || days > 366 {
		return time.Time{}, time.Time{}, shared.NewValidationError("days", "must be between 1 and 366")
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return today.AddDate(0, 0, -days), today.AddDate(0, 0, 1), nil
}

func average(total decimal.Decimal, n int) decimal.Decimal {
	if n == 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(int64(n))).Round(valueobject.MoneyScale)
}
