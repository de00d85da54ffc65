package catalog

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/minegocio/backend/internal/domain/catalog"
	"github.com/minegocio/backend/internal/domain/shared"
)

// CategoryService handles category operations
type CategoryService struct {
	categories catalog.CategoryRepository
	logger     *zap.Logger
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(categories catalog.CategoryRepository, logger *zap.Logger) *CategoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryService{
		categories: categories,
		logger:     logger,
	}
}

// List returns categories ordered by name
func (s *CategoryService) List(ctx context.Context, activeOnly bool) ([]CategoryResponse, error) {
	categories, err := s.categories.FindAll(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	out := make([]CategoryResponse, len(categories))
	for i := range categories {
		out[i] = ToCategoryResponse(&categories[i])
	}
	return out, nil
}

// Create creates a category with a unique name
func (s *CategoryService) Create(ctx context.Context, req CreateCategoryRequest) (*CategoryResponse, error) {
	category, err := catalog.NewCategory(req.Name, req.Description)
	if err != nil {
		return nil, err
	}

	existing, err := s.categories.FindByName(ctx, category.Name)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Category with this name already exists")
	}

	if err := s.categories.Save(ctx, category); err != nil {
		return nil, err
	}
	resp := ToCategoryResponse(category)
	return &resp, nil
}

// Update renames a category. Nil fields are left unchanged.
func (s *CategoryService) Update(ctx context.Context, id int64, req UpdateCategoryRequest) (*CategoryResponse, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	name := category.Name
	if req.Name != nil {
		name = *req.Name
	}
	description := category.Description
	if req.Description != nil {
		description = *req.Description
	}
	if err := category.Rename(name, description); err != nil {
		return nil, err
	}

	existing, err := s.categories.FindByName(ctx, category.Name)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if existing != nil && existing.ID != category.ID {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Category with this name already exists")
	}

	if err := s.categories.Save(ctx, category); err != nil {
		return nil, err
	}
	resp := ToCategoryResponse(category)
	return &resp, nil
}

// ToggleStatus activates an inactive category and deactivates an active one
func (s *CategoryService) ToggleStatus(ctx context.Context, id int64) (*CategoryResponse, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	category.ToggleStatus()
	if err := s.categories.Save(ctx, category); err != nil {
		return nil, err
	}
	s.logger.Info("Category status changed",
		zap.Int64("category_id", category.ID),
		zap.Bool("is_active", category.IsActive),
	)
	resp := ToCategoryResponse(category)
	return &resp, nil
}

// Delete removes a category that has no products
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	if err := s.categories.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Category deleted", zap.Int64("category_id", id))
	return nil
}

// EnsureDefaults seeds the default categories. Safe to run on every start.
func (s *CategoryService) EnsureDefaults(ctx context.Context) error {
	added, err := s.categories.EnsureNames(ctx, catalog.DefaultCategoryNames)
	if err != nil {
		return err
	}
	if added > 0 {
		s.logger.Info("Seeded default categories", zap.Int("added", added))
	}
	return nil
}
