package catalog

import (
	"context"

	"github.com/minegocio/backend/internal/domain/shared"
)

// ProductFilter narrows product listings
type ProductFilter struct {
	shared.Filter
	CategoryID *int64
	ActiveOnly bool
	LowStock   bool
}

// ProductRepository persists products.
//
// Save writes descriptive fields and prices with an optimistic version check
// and never touches stock. SaveStock writes stock and cost price of a row
// previously loaded with FindByIDForUpdate.
type ProductRepository interface {
	FindByID(ctx context.Context, id int64) (*Product, error)
	FindByIDForUpdate(ctx context.Context, id int64) (*Product, error)
	FindAll(ctx context.Context, filter ProductFilter) ([]Product, int64, error)
	SearchByName(ctx context.Context, name string, limit int) ([]Product, error)
	FindLowStock(ctx context.Context, limit int) ([]Product, error)
	ExistsByBarcode(ctx context.Context, barcode string, excludeID int64) (bool, error)
	CountActive(ctx context.Context) (int64, error)
	Save(ctx context.Context, product *Product) error
	SaveStock(ctx context.Context, product *Product) error
}

// CategoryRepository persists categories
type CategoryRepository interface {
	FindByID(ctx context.Context, id int64) (*Category, error)
	FindByName(ctx context.Context, name string) (*Category, error)
	FindAll(ctx context.Context, activeOnly bool) ([]Category, error)
	Save(ctx context.Context, category *Category) error
	// Delete removes a category that no product references. A referenced
	// category yields ErrInvalidState and is left in place.
	Delete(ctx context.Context, id int64) error
	// EnsureNames inserts any missing names and leaves existing rows untouched.
	EnsureNames(ctx context.Context, names []string) (int, error)
}
