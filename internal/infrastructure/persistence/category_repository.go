package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/minegocio/backend/internal/domain/catalog"
	"github.com/minegocio/backend/internal/domain/shared"
	"github.com/minegocio/backend/internal/infrastructure/persistence/models"
)

// GormCategoryRepository implements CategoryRepository using GORM
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewGormCategoryRepository creates a new GormCategoryRepository
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// FindByID finds a category by its ID
func (r *GormCategoryRepository) FindByID(ctx context.Context, id int64) (*catalog.Category, error) {
	var model models.CategoryModel
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("category", id)
		}
		return nil, translateError("find category", err)
	}
	return model.ToDomain(), nil
}

// FindByName finds a category by name, ignoring case
func (r *GormCategoryRepository) FindByName(ctx context.Context, name string) (*catalog.Category, error) {
	var model models.CategoryModel
	if err := r.db.WithContext(ctx).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, translateError("find category", err)
	}
	return model.ToDomain(), nil
}

// FindAll lists categories ordered by name
func (r *GormCategoryRepository) FindAll(ctx context.Context, activeOnly bool) ([]catalog.Category, error) {
	query := r.db.WithContext(ctx).Order("name ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var rows []models.CategoryModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, translateError("list categories", err)
	}
	categories := make([]catalog.Category, len(rows))
	for i := range rows {
		categories[i] = *rows[i].ToDomain()
	}
	return categories, nil
}

// Save creates or updates a category
func (r *GormCategoryRepository) Save(ctx context.Context, category *catalog.Category) error {
	model := models.CategoryModelFromDomain(category)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return translateError("save category", err)
	}
	category.ID = model.ID
	return nil
}

// Delete removes the category only when no product references it. The
// reference check and the delete are one statement.
func (r *GormCategoryRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND NOT EXISTS (SELECT 1 FROM products WHERE products.category_id = categories.id)", id).
		Delete(&models.CategoryModel{})
	if result.Error != nil {
		return translateError("delete category", result.Error)
	}
	if result.RowsAffected == 1 {
		return nil
	}
	if _, err := r.FindByID(ctx, id); err != nil {
		return err
	}
	return shared.NewDomainError(shared.ErrInvalidState.Code, "Category has products and cannot be deleted")
}

// EnsureNames inserts every missing name and reports how many were added.
// Concurrent callers are safe: conflicting inserts are skipped.
func (r *GormCategoryRepository) EnsureNames(ctx context.Context, names []string) (int, error) {
	created := 0
	now := time.Now().UTC()
	for _, name := range names {
		model := models.CategoryModel{
			BaseModel: models.BaseModel{CreatedAt: now, UpdatedAt: now},
			Name:      name,
			IsActive:  true,
		}
		result := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
			Create(&model)
		if result.Error != nil {
			return created, translateError("seed category", result.Error)
		}
		created += int(result.RowsAffected)
	}
	return created, nil
}

// Ensure GormCategoryRepository implements CategoryRepository
var _ catalog.CategoryRepository = (*GormCategoryRepository)(nil)
