package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/minegocio/backend/internal/domain/shared"
	"github.com/minegocio/backend/internal/domain/trade"
	"github.com/minegocio/backend/internal/infrastructure/persistence/models"
)

// GormPurchaseRepository implements PurchaseRepository using GORM
type GormPurchaseRepository struct {
	db *gorm.DB
}

// NewGormPurchaseRepository creates a new GormPurchaseRepository
func NewGormPurchaseRepository(db *gorm.DB) *GormPurchaseRepository {
	return &GormPurchaseRepository{db: db}
}

// FindByID finds a live purchase by ID
func (r *GormPurchaseRepository) FindByID(ctx context.Context, id int64) (*trade.Purchase, error) {
	var model models.PurchaseModel
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("purchase", id)
		}
		return nil, translateError("find purchase", err)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a live purchase and locks its row
func (r *GormPurchaseRepository) FindByIDForUpdate(ctx context.Context, id int64) (*trade.Purchase, error) {
	var model models.PurchaseModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("purchase", id)
		}
		return nil, translateError("lock purchase", err)
	}
	return model.ToDomain(), nil
}

// FindAll lists purchases with filtering and returns the unpaged count
func (r *GormPurchaseRepository) FindAll(ctx context.Context, filter trade.PurchaseFilter) ([]trade.Purchase, int64, error) {
	var total int64
	if err := r.applyFilter(r.db.WithContext(ctx).Model(&models.PurchaseModel{}), filter).
		Count(&total).Error; err != nil {
		return nil, 0, translateError("count purchases", err)
	}

	var rows []models.PurchaseModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.PurchaseModel{}), filter)
	if err := paginate(query, filter.Filter, PurchaseSortFields, "purchase_date").Find(&rows).Error; err != nil {
		return nil, 0, translateError("list purchases", err)
	}
	return toPurchases(rows), total, nil
}

// FindMatching returns every live purchase matching filter, oldest first
func (r *GormPurchaseRepository) FindMatching(ctx context.Context, filter trade.PurchaseFilter) ([]trade.Purchase, error) {
	var rows []models.PurchaseModel
	if err := r.applyFilter(r.db.WithContext(ctx).Model(&models.PurchaseModel{}), filter).
		Order("purchase_date ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError("list purchases", err)
	}
	return toPurchases(rows), nil
}

// FindRecent returns the latest created purchases
func (r *GormPurchaseRepository) FindRecent(ctx context.Context, limit int) ([]trade.Purchase, error) {
	var rows []models.PurchaseModel
	if err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, translateError("list recent purchases", err)
	}
	return toPurchases(rows), nil
}

// Create inserts a new purchase and sets its ID
func (r *GormPurchaseRepository) Create(ctx context.Context, purchase *trade.Purchase) error {
	model := &models.PurchaseModel{}
	model.FromDomain(purchase)
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(model).Error; err != nil {
		return translateError("create purchase", err)
	}
	purchase.ID = model.ID
	purchase.PurchaseDate = model.PurchaseDate
	return nil
}

// SaveTotal writes the recomputed total with a version check
func (r *GormPurchaseRepository) SaveTotal(ctx context.Context, purchase *trade.Purchase) error {
	result := r.db.WithContext(ctx).Model(&models.PurchaseModel{}).
		Where("id = ? AND version = ?", purchase.ID, purchase.Version).
		Updates(map[string]any{
			"total":      purchase.Total,
			"updated_at": purchase.UpdatedAt,
			"version":    gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return translateError("save purchase total", result.Error)
	}
	if result.RowsAffected == 0 {
		return staleVersion("purchase", purchase.ID)
	}
	purchase.Version++
	return nil
}

// SaveHeader writes the editable header fields. Total is left to SaveTotal.
func (r *GormPurchaseRepository) SaveHeader(ctx context.Context, purchase *trade.Purchase) error {
	result := r.db.WithContext(ctx).Model(&models.PurchaseModel{}).
		Where("id = ? AND version = ?", purchase.ID, purchase.Version).
		Updates(map[string]any{
			"supplier_name": purchase.SupplierName,
			"notes":         purchase.Notes,
			"purchase_date": models.DateOnly(purchase.PurchaseDate),
			"received_by":   purchase.ReceivedBy,
			"updated_at":    purchase.UpdatedAt,
			"version":       gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return translateError("save purchase header", result.Error)
	}
	if result.RowsAffected == 0 {
		return staleVersion("purchase", purchase.ID)
	}
	purchase.PurchaseDate = models.DateOnly(purchase.PurchaseDate)
	purchase.Version++
	return nil
}

// Delete soft deletes a purchase
func (r *GormPurchaseRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.PurchaseModel{}, id)
	if result.Error != nil {
		return translateError("delete purchase", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("purchase", id)
	}
	return nil
}

func (r *GormPurchaseRepository) applyFilter(query *gorm.DB, filter trade.PurchaseFilter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("LOWER(supplier_name) LIKE ? ESCAPE '\\'", likePattern(strings.TrimSpace(filter.Search)))
	}
	if filter.From != nil {
		query = query.Where("purchase_date >= ?", models.DateOnly(*filter.From))
	}
	if filter.To != nil {
		query = query.Where("purchase_date <= ?", models.DateOnly(*filter.To))
	}
	if filter.ReceivedBy != nil {
		query = query.Where("received_by = ?", *filter.ReceivedBy)
	}
	return query
}

func toPurchases(rows []models.PurchaseModel) []trade.Purchase {
	purchases := make([]trade.Purchase, len(rows))
	for i := range rows {
		purchases[i] = *rows[i].ToDomain()
	}
	return purchases
}

// GormPurchaseItemRepository implements PurchaseItemRepository using GORM
type GormPurchaseItemRepository struct {
	db *gorm.DB
}

// NewGormPurchaseItemRepository creates a new GormPurchaseItemRepository
func NewGormPurchaseItemRepository(db *gorm.DB) *GormPurchaseItemRepository {
	return &GormPurchaseItemRepository{db: db}
}

// FindByID finds a live purchase item
func (r *GormPurchaseItemRepository) FindByID(ctx context.Context, id int64) (*trade.PurchaseItem, error) {
	var model models.PurchaseItemModel
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("purchase item", id)
		}
		return nil, translateError("find purchase item", err)
	}
	return model.ToDomain(), nil
}

// FindByPurchase returns the live items of a purchase ordered by ID
func (r *GormPurchaseItemRepository) FindByPurchase(ctx context.Context, purchaseID int64) ([]trade.PurchaseItem, error) {
	var rows []models.PurchaseItemModel
	if err := r.db.WithContext(ctx).
		Where("purchase_id = ?", purchaseID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError("list purchase items", err)
	}
	items := make([]trade.PurchaseItem, len(rows))
	for i := range rows {
		items[i] = *rows[i].ToDomain()
	}
	return items, nil
}

// purchaseLineRow is the scan target of the purchase line queries
type purchaseLineRow struct {
	ID           int64
	PurchaseID   int64
	ProductID    int64
	Quantity     int
	UnitCost     decimal.Decimal
	LineTotal    decimal.Decimal
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ProductName  *string
	SupplierName string
	PurchaseDate time.Time
	ReceivedBy   int64
}

func (r *GormPurchaseItemRepository) lines() *gorm.DB {
	return r.db.
		Table("purchase_items AS pi").
		Select("pi.id, pi.purchase_id, pi.product_id, pi.quantity, pi.unit_cost, pi.line_total, pi.created_at, pi.updated_at, " +
			"pr.name AS product_name, pu.supplier_name, pu.purchase_date, pu.received_by").
		Joins("JOIN purchases pu ON pu.id = pi.purchase_id AND pu.deleted_at IS NULL").
		Joins("LEFT JOIN products pr ON pr.id = pi.product_id").
		Where("pi.deleted_at IS NULL")
}

// FindLinesByPurchase returns the live lines of a purchase ordered by ID
func (r *GormPurchaseItemRepository) FindLinesByPurchase(ctx context.Context, purchaseID int64) ([]trade.PurchaseLine, error) {
	var rows []purchaseLineRow
	if err := r.lines().WithContext(ctx).
		Where("pi.purchase_id = ?", purchaseID).
		Order("pi.id ASC").
		Scan(&rows).Error; err != nil {
		return nil, translateError("list purchase lines", err)
	}
	return toPurchaseLines(rows), nil
}

// FindLinesByProduct returns the most recent purchase lines of a product
func (r *GormPurchaseItemRepository) FindLinesByProduct(ctx context.Context, productID int64, limit int) ([]trade.PurchaseLine, error) {
	var rows []purchaseLineRow
	if err := r.lines().WithContext(ctx).
		Where("pi.product_id = ?", productID).
		Order("pu.purchase_date DESC, pi.id DESC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, translateError("list product purchases", err)
	}
	return toPurchaseLines(rows), nil
}

func toPurchaseLines(rows []purchaseLineRow) []trade.PurchaseLine {
	lines := make([]trade.PurchaseLine, len(rows))
	for i := range rows {
		row := rows[i]
		lines[i] = trade.PurchaseLine{
			PurchaseItem: trade.PurchaseItem{
				LineItem: trade.LineItem{
					BaseEntity: shared.BaseEntity{ID: row.ID, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt},
					ProductID:  row.ProductID,
					Quantity:   row.Quantity,
					LineTotal:  row.LineTotal,
				},
				PurchaseID: row.PurchaseID,
				UnitCost:   row.UnitCost,
			},
			SupplierName: row.SupplierName,
			PurchaseDate: row.PurchaseDate,
			ReceivedBy:   row.ReceivedBy,
		}
		if row.ProductName != nil {
			lines[i].ProductName = *row.ProductName
		}
	}
	return lines
}

// Create inserts a purchase item and sets its ID
func (r *GormPurchaseItemRepository) Create(ctx context.Context, item *trade.PurchaseItem) error {
	model := &models.PurchaseItemModel{}
	model.FromDomain(item)
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(model).Error; err != nil {
		return translateError("create purchase item", err)
	}
	item.ID = model.ID
	return nil
}

// Update writes quantity, unit cost and line total of a live item
func (r *GormPurchaseItemRepository) Update(ctx context.Context, item *trade.PurchaseItem) error {
	result := r.db.WithContext(ctx).Model(&models.PurchaseItemModel{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"quantity":   item.Quantity,
			"unit_cost":  item.UnitCost,
			"line_total": item.LineTotal,
			"updated_at": item.UpdatedAt,
		})
	if result.Error != nil {
		return translateError("update purchase item", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("purchase item", item.ID)
	}
	return nil
}

// Delete soft deletes the item, stamping DeletedAt
func (r *GormPurchaseItemRepository) Delete(ctx context.Context, item *trade.PurchaseItem) error {
	deletedAt := time.Now()
	if item.DeletedAt != nil {
		deletedAt = *item.DeletedAt
	}
	result := r.db.WithContext(ctx).Model(&models.PurchaseItemModel{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"deleted_at": deletedAt,
			"updated_at": deletedAt,
		})
	if result.Error != nil {
		return translateError("delete purchase item", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("purchase item", item.ID)
	}
	return nil
}

var (
	_ trade.PurchaseRepository     = (*GormPurchaseRepository)(nil)
	_ trade.PurchaseItemRepository = (*GormPurchaseItemRepository)(nil)
)
