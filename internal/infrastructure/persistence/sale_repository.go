package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/minegocio/backend/internal/domain/shared"
	"github.com/minegocio/backend/internal/domain/trade"
	"github.com/minegocio/backend/internal/infrastructure/persistence/models"
)

// GormSaleRepository implements SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// FindByID finds a live sale by ID
func (r *GormSaleRepository) FindByID(ctx context.Context, id int64) (*trade.Sale, error) {
	var model models.SaleModel
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("sale", id)
		}
		return nil, translateError("find sale", err)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a live sale and locks its row
func (r *GormSaleRepository) FindByIDForUpdate(ctx context.Context, id int64) (*trade.Sale, error) {
	var model models.SaleModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("sale", id)
		}
		return nil, translateError("lock sale", err)
	}
	return model.ToDomain(), nil
}

// FindAll lists sales with filtering and returns the unpaged count
func (r *GormSaleRepository) FindAll(ctx context.Context, filter trade.SaleFilter) ([]trade.Sale, int64, error) {
	var total int64
	if err := r.applyFilter(r.db.WithContext(ctx).Model(&models.SaleModel{}), filter).
		Count(&total).Error; err != nil {
		return nil, 0, translateError("count sales", err)
	}

	var rows []models.SaleModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.SaleModel{}), filter)
	if err := paginate(query, filter.Filter, SaleSortFields, "sale_date").Find(&rows).Error; err != nil {
		return nil, 0, translateError("list sales", err)
	}
	return toSales(rows), total, nil
}

// FindBetween returns live sales with sale_date in [from, to), oldest first
func (r *GormSaleRepository) FindBetween(ctx context.Context, from, to time.Time) ([]trade.Sale, error) {
	var rows []models.SaleModel
	if err := r.db.WithContext(ctx).
		Where("sale_date >= ? AND sale_date < ?", models.DateOnly(from), models.DateOnly(to)).
		Order("sale_date ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError("list sales", err)
	}
	return toSales(rows), nil
}

// ExistsByNumber checks if a sale number is taken, soft-deleted sales included
func (r *GormSaleRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Unscoped().Model(&models.SaleModel{}).
		Where("sale_number = ?", number).
		Count(&count).Error; err != nil {
		return false, translateError("check sale number", err)
	}
	return count > 0, nil
}

// Create inserts a new sale and sets its ID
func (r *GormSaleRepository) Create(ctx context.Context, sale *trade.Sale) error {
	model := &models.SaleModel{}
	model.FromDomain(sale)
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(model).Error; err != nil {
		return translateError("create sale", err)
	}
	sale.ID = model.ID
	sale.SaleDate = model.SaleDate
	return nil
}

// SaveTotal writes the recomputed total with a version check
func (r *GormSaleRepository) SaveTotal(ctx context.Context, sale *trade.Sale) error {
	result := r.db.WithContext(ctx).Model(&models.SaleModel{}).
		Where("id = ? AND version = ?", sale.ID, sale.Version).
		Updates(map[string]any{
			"total":      sale.Total,
			"updated_at": sale.UpdatedAt,
			"version":    gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return translateError("save sale total", result.Error)
	}
	if result.RowsAffected == 0 {
		return staleVersion("sale", sale.ID)
	}
	sale.Version++
	return nil
}

// SaveHeader writes the editable header fields. Total is left to SaveTotal.
func (r *GormSaleRepository) SaveHeader(ctx context.Context, sale *trade.Sale) error {
	result := r.db.WithContext(ctx).Model(&models.SaleModel{}).
		Where("id = ? AND version = ?", sale.ID, sale.Version).
		Updates(map[string]any{
			"customer_name":  sale.CustomerName,
			"payment_method": string(sale.PaymentMethod),
			"sale_date":      models.DateOnly(sale.SaleDate),
			"notes":          sale.Notes,
			"updated_at":     sale.UpdatedAt,
			"version":        gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return translateError("save sale header", result.Error)
	}
	if result.RowsAffected == 0 {
		return staleVersion("sale", sale.ID)
	}
	sale.SaleDate = models.DateOnly(sale.SaleDate)
	sale.Version++
	return nil
}

// Delete soft deletes a sale
func (r *GormSaleRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.SaleModel{}, id)
	if result.Error != nil {
		return translateError("delete sale", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("sale", id)
	}
	return nil
}

func (r *GormSaleRepository) applyFilter(query *gorm.DB, filter trade.SaleFilter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("(sale_number = ? OR LOWER(customer_name) LIKE ? ESCAPE '\\')",
			strings.ToUpper(strings.TrimSpace(filter.Search)), likePattern(filter.Search))
	}
	if filter.From != nil {
		query = query.Where("sale_date >= ?", models.DateOnly(*filter.From))
	}
	if filter.To != nil {
		query = query.Where("sale_date <= ?", models.DateOnly(*filter.To))
	}
	if filter.SoldBy != nil {
		query = query.Where("sold_by = ?", *filter.SoldBy)
	}
	if filter.PaymentMethod != "" {
		query = query.Where("payment_method = ?", filter.PaymentMethod)
	}
	return query
}

func toSales(rows []models.SaleModel) []trade.Sale {
	sales := make([]trade.Sale, len(rows))
	for i := range rows {
		sales[i] = *rows[i].ToDomain()
	}
	return sales
}

// GormSaleItemRepository implements SaleItemRepository using GORM
type GormSaleItemRepository struct {
	db *gorm.DB
}

// NewGormSaleItemRepository creates a new GormSaleItemRepository
func NewGormSaleItemRepository(db *gorm.DB) *GormSaleItemRepository {
	return &GormSaleItemRepository{db: db}
}

// FindByID finds a live sale item
func (r *GormSaleItemRepository) FindByID(ctx context.Context, id int64) (*trade.SaleItem, error) {
	var model models.SaleItemModel
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("sale item", id)
		}
		return nil, translateError("find sale item", err)
	}
	return model.ToDomain(), nil
}

// FindBySale returns the live items of a sale ordered by ID
func (r *GormSaleItemRepository) FindBySale(ctx context.Context, saleID int64) ([]trade.SaleItem, error) {
	var rows []models.SaleItemModel
	if err := r.db.WithContext(ctx).
		Where("sale_id = ?", saleID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError("list sale items", err)
	}
	return toSaleItems(rows), nil
}

// FindBySales returns the live items of several sales
func (r *GormSaleItemRepository) FindBySales(ctx context.Context, saleIDs []int64) ([]trade.SaleItem, error) {
	if len(saleIDs) == 0 {
		return []trade.SaleItem{}, nil
	}
	var rows []models.SaleItemModel
	if err := r.db.WithContext(ctx).
		Where("sale_id IN ?", saleIDs).
		Order("sale_id ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError("list sale items", err)
	}
	return toSaleItems(rows), nil
}

// Create inserts a sale item and sets its ID
func (r *GormSaleItemRepository) Create(ctx context.Context, item *trade.SaleItem) error {
	model := &models.SaleItemModel{}
	model.FromDomain(item)
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(model).Error; err != nil {
		return translateError("create sale item", err)
	}
	item.ID = model.ID
	return nil
}

// Update writes quantity, unit price and line total of a live item
func (r *GormSaleItemRepository) Update(ctx context.Context, item *trade.SaleItem) error {
	result := r.db.WithContext(ctx).Model(&models.SaleItemModel{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"quantity":   item.Quantity,
			"unit_price": item.UnitPrice,
			"line_total": item.LineTotal,
			"updated_at": item.UpdatedAt,
		})
	if result.Error != nil {
		return translateError("update sale item", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("sale item", item.ID)
	}
	return nil
}

// Delete soft deletes the item, stamping DeletedAt
func (r *GormSaleItemRepository) Delete(ctx context.Context, item *trade.SaleItem) error {
	deletedAt := time.Now()
	if item.DeletedAt != nil {
		deletedAt = *item.DeletedAt
	}
	result := r.db.WithContext(ctx).Model(&models.SaleItemModel{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"deleted_at": deletedAt,
			"updated_at": deletedAt,
		})
	if result.Error != nil {
		return translateError("delete sale item", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("sale item", item.ID)
	}
	return nil
}

func toSaleItems(rows []models.SaleItemModel) []trade.SaleItem {
	items := make([]trade.SaleItem, len(rows))
	for i := range rows {
		items[i] = *rows[i].ToDomain()
	}
	return items
}

var (
	_ trade.SaleRepository     = (*GormSaleRepository)(nil)
	_ trade.SaleItemRepository = (*GormSaleItemRepository)(nil)
)
