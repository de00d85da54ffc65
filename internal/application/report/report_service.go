// Package report serves the business-intelligence queries. Aggregation runs
// in Go over facts read from the database so results match across drivers.
package report

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/minegocio/backend/internal/domain/business"
	"github.com/minegocio/backend/internal/domain/catalog"
	"github.com/minegocio/backend/internal/domain/report"
	"github.com/minegocio/backend/internal/domain/shared"
)

const (
	defaultTrailingDays  = 30
	defaultMonths        = 12
	defaultTopLimit      = 10
	dashboardTopLimit    = 5
	dashboardRecentLimit = 5
	productLookupLimit   = 5
	maxExportDays        = 366
)

// BusinessSettings supplies the currency and tax rate reports are rendered in
type BusinessSettings interface {
	Current(ctx context.Context) (*business.Business, error)
}

// ReportService provides application-level report operations
type ReportService struct {
	sales    report.SalesReportRepository
	products catalog.ProductRepository
	settings BusinessSettings
	logger   *zap.Logger
	now      func() time.Time
}

// NewReportService creates a new ReportService
func NewReportService(sales report.SalesReportRepository, products catalog.ProductRepository, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		sales:    sales,
		products: products,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock replaces the clock that anchors "today"
func (s *ReportService) WithClock(now func() time.Time) *ReportService {
	s.now = now
	return s
}

// WithBusinessSettings renders amounts in the configured currency and tax
// rate. Without it the defaults of a new business apply.
func (s *ReportService) WithBusinessSettings(settings BusinessSettings) *ReportService {
	s.settings = settings
	return s
}

func (s *ReportService) currentBusiness(ctx context.Context) (*business.Business, error) {
	if s.settings == nil {
		return business.NewDefault(), nil
	}
	return s.settings.Current(ctx)
}

// Revenue totals live sales of today, this month or last month
func (s *ReportService) Revenue(ctx context.Context, period string) (*report.RevenueSummary, error) {
	p, err := report.ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	summary, err := s.revenue(ctx, p)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

func (s *ReportService) revenue(ctx context.Context, p report.Period) (report.RevenueSummary, error) {
	from, to := p.Range(s.now().UTC())
	sales, err := s.sales.SalesBetween(ctx, from, to)
	if err != nil {
		return report.RevenueSummary{}, err
	}
	return report.SummarizeRevenue(p, from, to, sales), nil
}

// DailySales returns one bucket per day with sales over the trailing days, newest first
func (s *ReportService) DailySales(ctx context.Context, days int) ([]report.SalesBucket, error) {
	if days == 0 {
		days = defaultTrailingDays
	}
	from, to, err := report.TrailingDays(s.now().UTC(), days)
	if err != nil {
		return nil, err
	}
	sales, err := s.sales.SalesBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return report.GroupByDay(sales), nil
}

// MonthlySales returns one bucket per month with sales, current month included, newest first
func (s *ReportService) MonthlySales(ctx context.Context, months int) ([]report.SalesBucket, error) {
	if months == 0 {
		months = defaultMonths
	}
	if months < 1 || months > 36 {
		return nil, shared.NewValidationError("months", "must be between 1 and 36")
	}
	now := s.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	from := monthStart.AddDate(0, -(months - 1), 0)
	to := monthStart.AddDate(0, 1, 0)

	sales, err := s.sales.SalesBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return report.GroupByMonth(sales), nil
}

// TopProducts ranks products by units sold over the trailing days
func (s *ReportService) TopProducts(ctx context.Context, filter TopProductsFilter) ([]report.ProductRanking, error) {
	days := filter.Days
	if days == 0 {
		days = defaultTrailingDays
	}
	limit := filter.Limit
	if limit == 0 {
		limit = defaultTopLimit
	}
	return s.topProducts(ctx, days, limit)
}

func (s *ReportService) topProducts(ctx context.Context, days, limit int) ([]report.ProductRanking, error) {
	from, to, err := report.TrailingDays(s.now().UTC(), days)
	if err != nil {
		return nil, err
	}
	lines, err := s.sales.LinesBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return report.RankProducts(lines, limit), nil
}

// LowStock lists active products at or below their threshold, lowest stock first
func (s *ReportService) LowStock(ctx context.Context) ([]StockItem, error) {
	products, err := s.products.FindLowStock(ctx, 0)
	if err != nil {
		return nil, err
	}
	return toStockItems(products), nil
}

// ProductStock looks up the stock of products matching name
func (s *ReportService) ProductStock(ctx context.Context, name string) ([]StockItem, error) {
	if name == "" {
		return nil, shared.NewValidationError("name", "is required")
	}
	products, err := s.products.SearchByName(ctx, name, productLookupLimit)
	if err != nil {
		return nil, err
	}
	return toStockItems(products), nil
}

// Dashboard gathers the home screen figures
func (s *ReportService) Dashboard(ctx context.Context) (*DashboardResponse, error) {
	today, err := s.revenue(ctx, report.PeriodToday)
	if err != nil {
		return nil, err
	}
	month, err := s.revenue(ctx, report.PeriodThisMonth)
	if err != nil {
		return nil, err
	}
	lowStock, err := s.products.FindLowStock(ctx, 0)
	if err != nil {
		return nil, err
	}
	productCount, err := s.products.CountActive(ctx)
	if err != nil {
		return nil, err
	}
	top, err := s.topProducts(ctx, defaultTrailingDays, dashboardTopLimit)
	if err != nil {
		return nil, err
	}
	recent, err := s.sales.RecentSales(ctx, dashboardRecentLimit)
	if err != nil {
		return nil, err
	}
	biz, err := s.currentBusiness(ctx)
	if err != nil {
		return nil, err
	}

	return &DashboardResponse{
		Today:         today,
		ThisMonth:     month,
		TodayRevenue:  biz.Money(today.Revenue),
		MonthRevenue:  biz.Money(month.Revenue),
		LowStockCount: len(lowStock),
		ProductCount:  productCount,
		TopProducts:   top,
		RecentSales:   toRecentSales(recent),
	}, nil
}

// exportRange resolves inclusive calendar bounds to [from, to). Missing
// bounds default to the current month.
func (s *ReportService) exportRange(filter ExportFilter) (time.Time, time.Time, error) {
	from, to := report.PeriodThisMonth.Range(s.now().UTC())
	if filter.From != "" {
		t, err := time.ParseInLocation(time.DateOnly, filter.From, time.UTC)
		if err != nil {
			return time.Time{}, time.Time{}, shared.NewValidationError("from", "must be a date in YYYY-MM-DD format")
		}
		from = t
	}
	if filter.To != "" {
		t, err := time.ParseInLocation(time.DateOnly, filter.To, time.UTC)
		if err != nil {
			return time.Time{}, time.Time{}, shared.NewValidationError("to", "must be a date in YYYY-MM-DD format")
		}
		to = t.AddDate(0, 0, 1)
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, shared.NewValidationError("to", "must not be before from")
	}
	if to.Sub(from) > maxExportDays*24*time.Hour {
		return time.Time{}, time.Time{}, shared.NewValidationError("to", "range cannot exceed 366 days")
	}
	return from, to, nil
}
