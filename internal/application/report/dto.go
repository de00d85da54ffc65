package report

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/minegocio/backend/internal/domain/catalog"
	"github.com/minegocio/backend/internal/domain/report"
	"github.com/minegocio/backend/internal/domain/shared/valueobject"
)

// TopProductsFilter selects the best sellers window
type TopProductsFilter struct {
	Days  int `form:"days" binding:"omitempty,min=1,max=366"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// ExportFilter selects the sales to export. Both bounds are inclusive.
type ExportFilter struct {
	From string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To   string `form:"to" binding:"omitempty,datetime=2006-01-02"`
}

// StockItem is a product row of the stock reports
type StockItem struct {
	ProductID   int64           `json:"product_id"`
	Name        string          `json:"name"`
	Barcode     string          `json:"barcode"`
	Stock       int             `json:"stock"`
	MinStock    int             `json:"min_stock"`
	StockStatus string          `json:"stock_status"`
	SalePrice   decimal.Decimal `json:"sale_price"`
}

func toStockItems(products []catalog.Product) []StockItem {
	out := make([]StockItem, len(products))
	for i := range products {
		p := &products[i]
		out[i] = StockItem{
			ProductID:   p.ID,
			Name:        p.Name,
			Barcode:     p.Barcode,
			Stock:       p.Stock,
			MinStock:    p.MinStock,
			StockStatus: string(p.StockStatus()),
			SalePrice:   p.SalePrice,
		}
	}
	return out
}

// RecentSale is one entry of the dashboard's latest sales
type RecentSale struct {
	ID            int64           `json:"id"`
	SaleNumber    string          `json:"sale_number"`
	CustomerName  string          `json:"customer_name"`
	SaleDate      string          `json:"sale_date"`
	PaymentMethod string          `json:"payment_method"`
	Total         decimal.Decimal `json:"total"`
	SellerName    string          `json:"seller_name"`
	CreatedAt     time.Time       `json:"created_at"`
}

func toRecentSales(facts []report.SaleFact) []RecentSale {
	out := make([]RecentSale, len(facts))
	for i, f := range facts {
		out[i] = RecentSale{
			ID:            f.ID,
			SaleNumber:    f.SaleNumber,
			CustomerName:  f.CustomerName,
			SaleDate:      f.SaleDate.Format(time.DateOnly),
			PaymentMethod: string(f.PaymentMethod),
			Total:         f.Total,
			SellerName:    f.SellerName,
			CreatedAt:     f.CreatedAt,
		}
	}
	return out
}

// DashboardResponse gathers the home screen figures
type DashboardResponse struct {
	Today         report.RevenueSummary   `json:"today"`
	ThisMonth     report.RevenueSummary   `json:"this_month"`
	TodayRevenue  valueobject.Money       `json:"today_revenue"`
	MonthRevenue  valueobject.Money       `json:"month_revenue"`
	LowStockCount int                     `json:"low_stock_count"`
	ProductCount  int64                   `json:"product_count"`
	TopProducts   []report.ProductRanking `json:"top_products"`
	RecentSales   []RecentSale            `json:"recent_sales"`
}
