package inventory

import (
	"context"

	"github.com/minegocio/backend/internal/domain/inventory"
)

// Metrics receives counters about line-item mutations
type Metrics interface {
	// StockChanged is called once per committed-or-attempted coordinator step
	StockChanged(ctx context.Context, change inventory.StockChange)
	// StockRejected is called when a sale line asks for more than is on hand
	StockRejected(ctx context.Context, productID int64)
	// Retried is called when a unit of work is retried after a conflict
	Retried(ctx context.Context, op string)
}

// NopMetrics discards everything
type NopMetrics struct{}

func (NopMetrics) StockChanged(context.Context, inventory.StockChange) {}
func (NopMetrics) StockRejected(context.Context, int64)                {}
func (NopMetrics) Retried(context.Context, string)                     {}
