// Package report holds the read models behind the business-intelligence
// endpoints and the pure aggregation over them.
package report

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/minegocio/backend/internal/domain/trade"
)

// SaleFact is one live sale as read for reporting
type SaleFact struct {
	ID            int64
	SaleNumber    string
	CustomerName  string
	SaleDate      time.Time
	PaymentMethod trade.PaymentMethod
	Total         decimal.Decimal
	SoldBy        int64
	SellerName    string
	CreatedAt     time.Time
}

// LineFact is one live sale line of a live sale, joined with its product
type LineFact struct {
	SaleID      int64
	SaleDate    time.Time
	ProductID   int64
	ProductName string
	Quantity    int
	LineTotal   decimal.Decimal
}

// SalesReportRepository reads facts for reports. Soft-deleted sales and
// lines never appear. Date bounds are calendar days, from inclusive and to
// exclusive.
type SalesReportRepository interface {
	SalesBetween(ctx context.Context, from, to time.Time) ([]SaleFact, error)
	LinesBetween(ctx context.Context, from, to time.Time) ([]LineFact, error)
	RecentSales(ctx context.Context, limit int) ([]SaleFact, error)
}

// RevenueSummary is the revenue of one period
type RevenueSummary struct {
	Period        Period          `json:"period"`
	From          string          `json:"from"`
	To            string          `json:"to"`
	Revenue       decimal.Decimal `json:"revenue"`
	Transactions  int             `json:"transactions"`
	AverageTicket decimal.Decimal `json:"avg_ticket"`
}

// SalesBucket is one row of the daily or monthly series
type SalesBucket struct {
	Date          string          `json:"date"`
	Transactions  int             `json:"transactions"`
	Revenue       decimal.Decimal `json:"revenue"`
	AverageTicket decimal.Decimal `json:"avg_ticket"`
	CashSales     decimal.Decimal `json:"cash_sales"`
	CardSales     decimal.Decimal `json:"card_sales"`
}

// ProductRanking is one product of the best sellers list
type ProductRanking struct {
	ProductID    int64           `json:"product_id"`
	ProductName  string          `json:"product_name"`
	QuantitySold int             `json:"total_sold"`
	Revenue      decimal.Decimal `json:"revenue"`
	TimesSold    int             `json:"times_sold"`
}
