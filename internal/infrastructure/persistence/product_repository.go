package persistence

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/minegocio/backend/internal/domain/catalog"
	"github.com/minegocio/backend/internal/domain/shared"
	"github.com/minegocio/backend/internal/infrastructure/persistence/models"
)

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id int64) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("product", id)
		}
		return nil, translateError("find product", err)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate reads a product with SELECT ... FOR UPDATE. The lock is
// held until the surrounding transaction ends.
func (r *GormProductRepository) FindByIDForUpdate(ctx context.Context, id int64) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("product", id)
		}
		return nil, translateError("lock product", err)
	}
	return model.ToDomain(), nil
}

// FindAll finds products matching the filter and returns the unpaged count
func (r *GormProductRepository) FindAll(ctx context.Context, filter catalog.ProductFilter) ([]catalog.Product, int64, error) {
	var total int64
	if err := r.applyFilter(r.db.WithContext(ctx).Model(&models.ProductModel{}), filter).
		Count(&total).Error; err != nil {
		return nil, 0, translateError("count products", err)
	}

	var rows []models.ProductModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ProductModel{}), filter)
	if err := paginate(query, filter.Filter, ProductSortFields, "name").Find(&rows).Error; err != nil {
		return nil, 0, translateError("list products", err)
	}
	return toProducts(rows), total, nil
}

// SearchByName returns active products whose name contains name, case-insensitively
func (r *GormProductRepository) SearchByName(ctx context.Context, name string, limit int) ([]catalog.Product, error) {
	query := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("LOWER(name) LIKE ? ESCAPE '\\'", likePattern(name)).
		Order("name ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []models.ProductModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, translateError("search products", err)
	}
	return toProducts(rows), nil
}

// FindLowStock returns active products at or below their threshold, lowest stock first
func (r *GormProductRepository) FindLowStock(ctx context.Context, limit int) ([]catalog.Product, error) {
	query := r.db.WithContext(ctx).
		Where("is_active = ? AND stock <= min_stock", true).
		Order("stock ASC, name ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []models.ProductModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, translateError("list low stock products", err)
	}
	return toProducts(rows), nil
}

// ExistsByBarcode checks whether another product already uses barcode
func (r *GormProductRepository) ExistsByBarcode(ctx context.Context, barcode string, excludeID int64) (bool, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return false, nil
	}
	query := r.db.WithContext(ctx).Model(&models.ProductModel{}).Where("barcode = ?", barcode)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, translateError("check barcode", err)
	}
	return count > 0, nil
}

// CountActive counts sellable products
func (r *GormProductRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ProductModel{}).
		Where("is_active = ?", true).
		Count(&count).Error; err != nil {
		return 0, translateError("count products", err)
	}
	return count, nil
}

// Save inserts a new product, opening stock included, or updates the
// descriptive fields and prices of an existing one. Stock is never written
// here for existing rows, and cost price only when it was edited by hand.
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	model := models.ProductModelFromDomain(product)

	if product.IsNew() {
		if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
			return translateError("create product", err)
		}
		product.ID = model.ID
		return nil
	}

	fields := map[string]any{
		"name":        model.Name,
		"description": model.Description,
		"barcode":     model.Barcode,
		"category_id": model.CategoryID,
		"sale_price":  model.SalePrice,
		"min_stock":   model.MinStock,
		"is_active":   model.IsActive,
		"updated_at":  model.UpdatedAt,
		"version":     gorm.Expr("version + 1"),
	}
	if product.CostPriceEdited() {
		fields["cost_price"] = model.CostPrice
	}
	result := r.db.WithContext(ctx).Model(&models.ProductModel{}).
		Where("id = ? AND version = ?", product.ID, product.Version).
		Updates(fields)
	if result.Error != nil {
		return translateError("update product", result.Error)
	}
	if result.RowsAffected == 0 {
		return staleVersion("product", product.ID)
	}
	product.Version++
	return nil
}

// SaveStock writes stock and cost price of a product locked in the current
// transaction. It bumps the version so an edit based on an earlier read
// fails instead of overwriting what the line item changed.
func (r *GormProductRepository) SaveStock(ctx context.Context, product *catalog.Product) error {
	model := models.ProductModelFromDomain(product)
	result := r.db.WithContext(ctx).Model(&models.ProductModel{}).
		Where("id = ?", product.ID).
		Updates(map[string]any{
			"stock":      model.Stock,
			"cost_price": model.CostPrice,
			"updated_at": model.UpdatedAt,
			"version":    gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return translateError("update stock", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("product", product.ID)
	}
	product.Version++
	return nil
}

func (r *GormProductRepository) applyFilter(query *gorm.DB, filter catalog.ProductFilter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("(LOWER(name) LIKE ? ESCAPE '\\' OR barcode = ?)",
			likePattern(filter.Search), strings.TrimSpace(filter.Search))
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if filter.LowStock {
		query = query.Where("stock <= min_stock")
	}
	return query
}

func toProducts(rows []models.ProductModel) []catalog.Product {
	products := make([]catalog.Product, len(rows))
	for i := range rows {
		products[i] = *rows[i].ToDomain()
	}
	return products
}

// Ensure GormProductRepository implements ProductRepository
var _ catalog.ProductRepository = (*GormProductRepository)(nil)
