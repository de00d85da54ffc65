package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/minegocio/backend/internal/domain/catalog"
	"github.com/minegocio/backend/internal/domain/shared"
)

func TestCategoryService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("new name", func(t *testing.T) {
		repo := new(MockCategoryRepository)
		service := NewCategoryService(repo, nil)

		repo.On("FindByName", ctx, "Lacteos").Return(nil, shared.NewNotFoundError("category", 0))
		repo.On("Save", ctx, mock.AnythingOfType("*catalog.Category")).Return(nil)

		result, err := service.Create(ctx, CreateCategoryRequest{Name: " Lacteos "})

		require.NoError(t, err)
		assert.Equal(t, "Lacteos", result.Name)
		assert.True(t, result.IsActive)
		repo.AssertExpectations(t)
	})

	t.Run("duplicate name", func(t *testing.T) {
		repo := new(MockCategoryRepository)
		service := NewCategoryService(repo, nil)
		existing, _ := catalog.NewCategory("Bebidas", "")

		repo.On("FindByName", ctx, "Bebidas").Return(existing, nil)

		_, err := service.Create(ctx, CreateCategoryRequest{Name: "Bebidas"})

		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestCategoryService_EnsureDefaults(t *testing.T) {
	ctx := context.Background()
	repo := new(MockCategoryRepository)
	service := NewCategoryService(repo, nil)

	repo.On("EnsureNames", ctx, catalog.DefaultCategoryNames).Return(6, nil).Once()
	repo.On("EnsureNames", ctx, catalog.DefaultCategoryNames).Return(0, nil).Once()

	require.NoError(t, service.EnsureDefaults(ctx))
	require.NoError(t, service.EnsureDefaults(ctx))
	repo.AssertNumberOfCalls(t, "EnsureNames", 2)
}

func TestCategoryService_List(t *testing.T) {
	ctx := context.Background()
	repo := new(MockCategoryRepository)
	service := NewCategoryService(repo, nil)

	snacks, _ := catalog.NewCategory("Snacks", "")
	snacks.ID = 2
	repo.On("FindAll", ctx, true).Return([]catalog.Category{*snacks}, nil)

	result, err := service.List(ctx, true)

	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, int64(2), result[0].ID)
}

func TestCategoryService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("rename keeps unset fields", func(t *testing.T) {
		repo := new(MockCategoryRepository)
		service := NewCategoryService(repo, nil)
		stored, _ := catalog.NewCategory("Lacteos", "leche y quesos")
		stored.ID = 4

		repo.On("FindByID", ctx, int64(4)).Return(stored, nil)
		repo.On("FindByName", ctx, "Lácteos").Return(nil, shared.ErrNotFound)
		repo.On("Save", ctx, stored).Return(nil)

		name := " Lácteos "
		result, err := service.Update(ctx, 4, UpdateCategoryRequest{Name: &name})

		require.NoError(t, err)
		assert.Equal(t, "Lácteos", result.Name)
		assert.Equal(t, "leche y quesos", result.Description)
		repo.AssertExpectations(t)
	})

	t.Run("same name on the same category is allowed", func(t *testing.T) {
		repo := new(MockCategoryRepository)
		service := NewCategoryService(repo, nil)
		stored, _ := catalog.NewCategory("Snacks", "")
		stored.ID = 2

		repo.On("FindByID", ctx, int64(2)).Return(stored, nil)
		repo.On("FindByName", ctx, "Snacks").Return(stored, nil)
		repo.On("Save", ctx, stored).Return(nil)

		description := "papas y maní"
		result, err := service.Update(ctx, 2, UpdateCategoryRequest{Description: &description})

		require.NoError(t, err)
		assert.Equal(t, "papas y maní", result.Description)
	})

	t.Run("name taken by another category", func(t *testing.T) {
		repo := new(MockCategoryRepository)
		service := NewCategoryService(repo, nil)
		stored, _ := catalog.NewCategory("Snacks", "")
		stored.ID = 2
		other, _ := catalog.NewCategory("Dulces", "")
		other.ID = 3

		repo.On("FindByID", ctx, int64(2)).Return(stored, nil)
		repo.On("FindByName", ctx, "Dulces").Return(other, nil)

		name := "Dulces"
		_, err := service.Update(ctx, 2, UpdateCategoryRequest{Name: &name})

		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("blank name is rejected", func(t *testing.T) {
		repo := new(MockCategoryRepository)
		service := NewCategoryService(repo, nil)
		stored, _ := catalog.NewCategory("Snacks", "")
		stored.ID = 2
		repo.On("FindByID", ctx, int64(2)).Return(stored, nil)

		name := "   "
		_, err := service.Update(ctx, 2, UpdateCategoryRequest{Name: &name})

		assert.ErrorIs(t, err, shared.ErrInvalidInput)
		assert.Equal(t, "Snacks", stored.Name)
	})
}

func TestCategoryService_ToggleStatus(t *testing.T) {
	ctx := context.Background()
	repo := new(MockCategoryRepository)
	service := NewCategoryService(repo, nil)
	stored, _ := catalog.NewCategory("Aseo", "")
	stored.ID = 5

	repo.On("FindByID", ctx, int64(5)).Return(stored, nil)
	repo.On("Save", ctx, stored).Return(nil)

	result, err := service.ToggleStatus(ctx, 5)
	require.NoError(t, err)
	assert.False(t, result.IsActive)

	result, err = service.ToggleStatus(ctx, 5)
	require.NoError(t, err)
	assert.True(t, result.IsActive)
}

func TestCategoryService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("unused category", func(t *testing.T) {
		repo := new(MockCategoryRepository)
		service := NewCategoryService(repo, nil)
		repo.On("Delete", ctx, int64(6)).Return(nil)

		assert.NoError(t, service.Delete(ctx, 6))
		repo.AssertExpectations(t)
	})

	t.Run("category with products", func(t *testing.T) {
		repo := new(MockCategoryRepository)
		service := NewCategoryService(repo, nil)
		repo.On("Delete", ctx, int64(1)).
			Return(shared.NewDomainError(shared.ErrInvalidState.Code, "Category has products and cannot be deleted"))

		assert.ErrorIs(t, service.Delete(ctx, 1), shared.ErrInvalidState)
	})
}
