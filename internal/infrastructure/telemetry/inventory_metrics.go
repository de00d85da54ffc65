package telemetry

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	appinv "github.com/minegocio/backend/internal/application/inventory"
	"github.com/minegocio/backend/internal/domain/inventory"
)

// InventoryMetrics counts line-item stock movements and samples catalog
// health. It implements the coordinator's metrics hook.
type InventoryMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	stockChangesTotal    *Counter
	stockUnitsTotal      *Counter
	stockClampedTotal    *Counter
	stockRejectionsTotal *Counter
	retriesTotal         *Counter

	// Gauge metrics (point-in-time values)
	lowStockProducts *Gauge
	activeProducts   *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	provider CatalogMetricsProvider
}

// CatalogMetricsProvider supplies the gauge values for periodic collection
type CatalogMetricsProvider interface {
	// LowStockCount returns active products at or below their threshold
	LowStockCount(ctx context.Context) (int64, error)

	// ActiveProductCount returns products available for sale
	ActiveProductCount(ctx context.Context) (int64, error)
}

// InventoryMetricsConfig holds configuration for inventory metrics.
type InventoryMetricsConfig struct {
	Meter    metric.Meter
	Logger   *zap.Logger
	Provider CatalogMetricsProvider
}

// NewInventoryMetrics creates a new InventoryMetrics instance.
func NewInventoryMetrics(cfg InventoryMetricsConfig) (*InventoryMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &InventoryMetrics{
		meter:    cfg.Meter,
		logger:   logger,
		stopChan: make(chan struct{}),
		provider: cfg.Provider,
	}

	var err error
	if m.stockChangesTotal, err = NewCounter(cfg.Meter,
		"minegocio_stock_changes_total",
		"Line-item events applied to product stock",
		"{events}"); err != nil {
		return nil, err
	}
	if m.stockUnitsTotal, err = NewCounter(cfg.Meter,
		"minegocio_stock_units_total",
		"Absolute units moved in or out of stock",
		"{units}"); err != nil {
		return nil, err
	}
	if m.stockClampedTotal, err = NewCounter(cfg.Meter,
		"minegocio_stock_clamped_total",
		"Purchase-line removals that hit the zero floor",
		"{events}"); err != nil {
		return nil, err
	}
	if m.stockRejectionsTotal, err = NewCounter(cfg.Meter,
		"minegocio_stock_rejections_total",
		"Sale lines refused for insufficient stock",
		"{events}"); err != nil {
		return nil, err
	}
	if m.retriesTotal, err = NewCounter(cfg.Meter,
		"minegocio_unit_of_work_retries_total",
		"Transactions retried after a concurrency conflict",
		"{retries}"); err != nil {
		return nil, err
	}
	if m.lowStockProducts, err = NewGauge(cfg.Meter,
		"minegocio_low_stock_products",
		"Active products at or below their minimum stock",
		"{products}"); err != nil {
		return nil, err
	}
	if m.activeProducts, err = NewGauge(cfg.Meter,
		"minegocio_active_products",
		"Products available for sale",
		"{products}"); err != nil {
		return nil, err
	}

	return m, nil
}

// StockChanged records one coordinator step
func (m *InventoryMetrics) StockChanged(ctx context.Context, change inventory.StockChange) {
	attrs := []attribute.KeyValue{
		AttrStockEvent.String(string(change.Event)),
		AttrStockClamped.String(strconv.FormatBool(change.Clamped)),
	}
	m.stockChangesTotal.Inc(ctx, attrs...)

	applied := change.Applied()
	if applied < 0 {
		applied = -applied
	}
	m.stockUnitsTotal.Add(ctx, int64(applied), AttrStockEvent.String(string(change.Event)))

	if change.Clamped {
		m.stockClampedTotal.Inc(ctx, AttrStockEvent.String(string(change.Event)))
	}
}

// StockRejected records a refused sale line
func (m *InventoryMetrics) StockRejected(ctx context.Context, productID int64) {
	m.stockRejectionsTotal.Inc(ctx)
}

// Retried records a retried unit of work
func (m *InventoryMetrics) Retried(ctx context.Context, op string) {
	m.retriesTotal.Inc(ctx, AttrOperation.String(op))
}

// StartPeriodicCollection samples the catalog gauges every interval until
// ctx is done or Stop is called. Only the first call starts a collector.
func (m *InventoryMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	if m.provider == nil {
		return
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	m.collectOnce.Do(func() {
		go m.runPeriodicCollection(ctx, interval)
	})
}

func (m *InventoryMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.Collect(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopChan:
			return
		case <-ticker.C:
			m.Collect(ctx)
		}
	}
}

// Collect samples the catalog gauges once
func (m *InventoryMetrics) Collect(ctx context.Context) {
	if m.provider == nil {
		return
	}
	if n, err := m.provider.LowStockCount(ctx); err != nil {
		m.logger.Warn("Failed to count low stock products", zap.Error(err))
	} else {
		m.lowStockProducts.Record(ctx, n)
	}
	if n, err := m.provider.ActiveProductCount(ctx); err != nil {
		m.logger.Warn("Failed to count active products", zap.Error(err))
	} else {
		m.activeProducts.Record(ctx, n)
	}
}

// Stop stops the periodic collector. Safe to call multiple times.
func (m *InventoryMetrics) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopChan)
	})
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewInventoryMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

var _ appinv.Metrics = (*InventoryMetrics)(nil)
