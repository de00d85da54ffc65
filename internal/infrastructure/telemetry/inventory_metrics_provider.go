package telemetry

import (
	"context"

	"gorm.io/gorm"
)

// GormCatalogMetricsProvider implements CatalogMetricsProvider using GORM.
// It queries the products table directly for aggregated metrics.
type GormCatalogMetricsProvider struct {
	db *gorm.DB
}

// NewGormCatalogMetricsProvider creates a new GormCatalogMetricsProvider.
func NewGormCatalogMetricsProvider(db *gorm.DB) *GormCatalogMetricsProvider {
	return &GormCatalogMetricsProvider{db: db}
}

// LowStockCount returns active products whose stock is at or below min_stock.
func (p *GormCatalogMetricsProvider) LowStockCount(ctx context.Context) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("products").
		Where("is_active = ? AND stock <= min_stock", true).
		Count(&count).Error
	return count, err
}

// ActiveProductCount returns products available for sale.
func (p *GormCatalogMetricsProvider) ActiveProductCount(ctx context.Context) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("products").
		Where("is_active = ?", true).
		Count(&count).Error
	return count, err
}
