package persistence

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/minegocio/backend/internal/domain/report"
	"github.com/minegocio/backend/internal/domain/trade"
	"github.com/minegocio/backend/internal/infrastructure/persistence/models"
)

// GormSalesReportRepository reads report facts with portable SQL; the
// aggregation itself happens in the report package.
type GormSalesReportRepository struct {
	db *gorm.DB
}

// NewGormSalesReportRepository creates a new GormSalesReportRepository
func NewGormSalesReportRepository(db *gorm.DB) *GormSalesReportRepository {
	return &GormSalesReportRepository{db: db}
}

type saleFactRow struct {
	ID            int64
	SaleNumber    string
	CustomerName  string
	SaleDate      time.Time
	PaymentMethod string
	Total         decimal.Decimal
	SoldBy        int64
	SellerName    string
	CreatedAt     time.Time
}

func (r saleFactRow) toFact() report.SaleFact {
	return report.SaleFact{
		ID:            r.ID,
		SaleNumber:    r.SaleNumber,
		CustomerName:  r.CustomerName,
		SaleDate:      r.SaleDate,
		PaymentMethod: trade.PaymentMethod(r.PaymentMethod),
		Total:         r.Total,
		SoldBy:        r.SoldBy,
		SellerName:    r.SellerName,
		CreatedAt:     r.CreatedAt,
	}
}

func (r *GormSalesReportRepository) saleFacts(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("sales AS s").
		Select("s.id, s.sale_number, s.customer_name, s.sale_date, s.payment_method, s.total, s.sold_by, u.name AS seller_name, s.created_at").
		Joins("LEFT JOIN users u ON u.id = s.sold_by").
		Where("s.deleted_at IS NULL")
}

// SalesBetween returns live sales with sale_date in [from, to)
func (r *GormSalesReportRepository) SalesBetween(ctx context.Context, from, to time.Time) ([]report.SaleFact, error) {
	var rows []saleFactRow
	if err := r.saleFacts(ctx).
		Where("s.sale_date >= ? AND s.sale_date < ?", models.DateOnly(from), models.DateOnly(to)).
		Order("s.sale_date ASC, s.id ASC").
		Scan(&rows).Error; err != nil {
		return nil, translateError("report sales", err)
	}
	facts := make([]report.SaleFact, len(rows))
	for i, row := range rows {
		facts[i] = row.toFact()
	}
	return facts, nil
}

// RecentSales returns the latest live sales by creation time
func (r *GormSalesReportRepository) RecentSales(ctx context.Context, limit int) ([]report.SaleFact, error) {
	var rows []saleFactRow
	if err := r.saleFacts(ctx).
		Order("s.created_at DESC, s.id DESC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, translateError("recent sales", err)
	}
	facts := make([]report.SaleFact, len(rows))
	for i, row := range rows {
		facts[i] = row.toFact()
	}
	return facts, nil
}

// LinesBetween returns live lines of live sales with sale_date in [from, to)
func (r *GormSalesReportRepository) LinesBetween(ctx context.Context, from, to time.Time) ([]report.LineFact, error) {
	var rows []struct {
		SaleID      int64
		SaleDate    time.Time
		ProductID   int64
		ProductName string
		Quantity    int
		LineTotal   decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Table("sale_items AS si").
		Select("si.sale_id, s.sale_date, si.product_id, p.name AS product_name, si.quantity, si.line_total").
		Joins("JOIN sales s ON s.id = si.sale_id").
		Joins("JOIN products p ON p.id = si.product_id").
		Where("si.deleted_at IS NULL AND s.deleted_at IS NULL").
		Where("s.sale_date >= ? AND s.sale_date < ?", models.DateOnly(from), models.DateOnly(to)).
		Order("si.id ASC").
		Scan(&rows).Error; err != nil {
		return nil, translateError("report sale lines", err)
	}
	facts := make([]report.LineFact, len(rows))
	for i, row := range rows {
		facts[i] = report.LineFact{
			SaleID:      row.SaleID,
			SaleDate:    row.SaleDate,
			ProductID:   row.ProductID,
			ProductName: row.ProductName,
			Quantity:    row.Quantity,
			LineTotal:   row.LineTotal,
		}
	}
	return facts, nil
}

var _ report.SalesReportRepository = (*GormSalesReportRepository)(nil)
