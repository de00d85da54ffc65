package trade

import (
	"context"
	"time"

	"github.com/minegocio/backend/internal/domain/shared"
)

// SaleFilter narrows sale listings
type SaleFilter struct {
	shared.Filter
	SoldBy        *int64
	PaymentMethod PaymentMethod
}

// PurchaseFilter narrows purchase listings
type PurchaseFilter struct {
	shared.Filter
	ReceivedBy *int64
}

// SaleRepository defines the interface for sale persistence
type SaleRepository interface {
	// FindByID finds a live sale by ID, without items
	FindByID(ctx context.Context, id int64) (*Sale, error)

	// FindByIDForUpdate finds a live sale and locks its row until the transaction ends
	FindByIDForUpdate(ctx context.Context, id int64) (*Sale, error)

	// FindAll lists sales with filtering and returns the unpaged count
	FindAll(ctx context.Context, filter SaleFilter) ([]Sale, int64, error)

	// FindBetween returns every live sale whose sale_date falls in [from, to)
	FindBetween(ctx context.Context, from, to time.Time) ([]Sale, error)

	// ExistsByNumber checks if a sale number is taken, including deleted sales
	ExistsByNumber(ctx context.Context, number string) (bool, error)

	// Create inserts a new sale and sets its ID
	Create(ctx context.Context, sale *Sale) error

	// SaveTotal writes the recomputed total with a version check
	SaveTotal(ctx context.Context, sale *Sale) error

	// SaveHeader writes customer, payment method, date and notes with a version check
	SaveHeader(ctx context.Context, sale *Sale) error

	// Delete soft deletes a sale
	Delete(ctx context.Context, id int64) error
}

// SaleItemRepository defines the interface for sale item persistence
type SaleItemRepository interface {
	// FindByID finds a live sale item
	FindByID(ctx context.Context, id int64) (*SaleItem, error)

	// FindBySale returns the live items of a sale ordered by ID
	FindBySale(ctx context.Context, saleID int64) ([]SaleItem, error)

	// FindBySales returns the live items of several sales
	FindBySales(ctx context.Context, saleIDs []int64) ([]SaleItem, error)

	Create(ctx context.Context, item *SaleItem) error
	Update(ctx context.Context, item *SaleItem) error

	// Delete soft deletes the item, stamping DeletedAt
	Delete(ctx context.Context, item *SaleItem) error
}

// PurchaseRepository defines the interface for purchase persistence
type PurchaseRepository interface {
	FindByID(ctx context.Context, id int64) (*Purchase, error)
	FindByIDForUpdate(ctx context.Context, id int64) (*Purchase, error)
	FindAll(ctx context.Context, filter PurchaseFilter) ([]Purchase, int64, error)
	// FindMatching returns every live purchase matching filter, ignoring paging
	FindMatching(ctx context.Context, filter PurchaseFilter) ([]Purchase, error)
	// FindRecent returns the latest created purchases, newest first
	FindRecent(ctx context.Context, limit int) ([]Purchase, error)
	Create(ctx context.Context, purchase *Purchase) error
	SaveTotal(ctx context.Context, purchase *Purchase) error
	// SaveHeader writes supplier, notes, date and receiver with a version check
	SaveHeader(ctx context.Context, purchase *Purchase) error
	Delete(ctx context.Context, id int64) error
}

// PurchaseItemRepository defines the interface for purchase item persistence
type PurchaseItemRepository interface {
	FindByID(ctx context.Context, id int64) (*PurchaseItem, error)
	FindByPurchase(ctx context.Context, purchaseID int64) ([]PurchaseItem, error)
	// FindLinesByPurchase returns the live lines of a purchase with product names
	FindLinesByPurchase(ctx context.Context, purchaseID int64) ([]PurchaseLine, error)
	// FindLinesByProduct returns a product's live lines on live purchases,
	// latest purchase date first
	FindLinesByProduct(ctx context.Context, productID int64, limit int) ([]PurchaseLine, error)
	Create(ctx context.Context, item *PurchaseItem) error
	Update(ctx context.Context, item *PurchaseItem) error
	Delete(ctx context.Context, item *PurchaseItem) error
}

// SequenceGenerator hands out monotonically increasing values per name.
// Next must be called inside the transaction that consumes the value so a
// rollback releases the row lock without leaking the number.
type SequenceGenerator interface {
	Next(ctx context.Context, name string) (int64, error)
	// Advance raises the counter to at least value, so a value handed out
	// by other means is never issued again
	Advance(ctx context.Context, name string, value int64) error
}
