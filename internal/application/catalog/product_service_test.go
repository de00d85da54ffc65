package catalog

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/minegocio/backend/internal/domain/catalog"
	"github.com/minegocio/backend/internal/domain/inventory"
	"github.com/minegocio/backend/internal/domain/shared"
)

// MockProductRepository is a mock implementation of ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id int64) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDForUpdate(ctx context.Context, id int64) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, filter catalog.ProductFilter) ([]catalog.Product, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]catalog.Product), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductRepository) SearchByName(ctx context.Context, name string, limit int) ([]catalog.Product, error) {
	args := m.Called(ctx, name, limit)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindLowStock(ctx context.Context, limit int) ([]catalog.Product, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) ExistsByBarcode(ctx context.Context, barcode string, excludeID int64) (bool, error) {
	args := m.Called(ctx, barcode, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) CountActive(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) SaveStock(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

// MockCategoryRepository is a mock implementation of CategoryRepository
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) FindByID(ctx context.Context, id int64) (*catalog.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Category), args.Error(1)
}

func (m *MockCategoryRepository) FindByName(ctx context.Context, name string) (*catalog.Category, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Category), args.Error(1)
}

func (m *MockCategoryRepository) FindAll(ctx context.Context, activeOnly bool) ([]catalog.Category, error) {
	args := m.Called(ctx, activeOnly)
	return args.Get(0).([]catalog.Category), args.Error(1)
}

func (m *MockCategoryRepository) Save(ctx context.Context, category *catalog.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *MockCategoryRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCategoryRepository) EnsureNames(ctx context.Context, names []string) (int, error) {
	args := m.Called(ctx, names)
	return args.Int(0), args.Error(1)
}

func storedProduct(t *testing.T, id int64, name string, stock int) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(name, decimal.RequireFromString("2.50"))
	require.NoError(t, err)
	p.ID = id
	p.Stock = stock
	return p
}

func TestProductService_Create_Success(t *testing.T) {
	mockProductRepo := new(MockProductRepository)
	mockCategoryRepo := new(MockCategoryRepository)
	service := NewProductService(mockProductRepo, mockCategoryRepo)

	ctx := context.Background()
	req := CreateProductRequest{
		Name:      "Coca Cola 500ml",
		SalePrice: decimal.RequireFromString("1.50"),
		Stock:     24,
	}

	mockProductRepo.On("Save", ctx, mock.AnythingOfType("*catalog.Product")).
		Run(func(args mock.Arguments) { args.Get(1).(*catalog.Product).ID = 7 }).
		Return(nil)

	result, err := service.Create(ctx, req)

	require.NoError(t, err)
	assert.Equal(t, int64(7), result.ID)
	assert.Equal(t, "Coca Cola 500ml", result.Name)
	assert.Equal(t, 24, result.Stock)
	assert.Equal(t, catalog.DefaultMinStock, result.MinStock)
	assert.Equal(t, "in_stock", result.StockStatus)
	assert.True(t, result.IsActive)
	assert.Nil(t, result.ProfitMargin)
	mockProductRepo.AssertExpectations(t)
	mockCategoryRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestProductService_Create_WithAllFields(t *testing.T) {
	mockProductRepo := new(MockProductRepository)
	mockCategoryRepo := new(MockCategoryRepository)
	service := NewProductService(mockProductRepo, mockCategoryRepo)

	ctx := context.Background()
	categoryID := int64(3)
	cost := decimal.RequireFromString("1.00")
	minStock := 10
	req := CreateProductRequest{
		Name:        "Papas Lays",
		Description: "Bolsa 150g",
		Barcode:     " 7791234567890 ",
		CategoryID:  &categoryID,
		CostPrice:   &cost,
		SalePrice:   decimal.RequireFromString("1.25"),
		Stock:       4,
		MinStock:    &minStock,
	}
	category, _ := catalog.NewCategory("Snacks", "")

	mockProductRepo.On("ExistsByBarcode", ctx, "7791234567890", int64(0)).Return(false, nil)
	mockCategoryRepo.On("FindByID", ctx, categoryID).Return(category, nil)
	mockProductRepo.On("Save", ctx, mock.AnythingOfType("*catalog.Product")).Return(nil)

	result, err := service.Create(ctx, req)

	require.NoError(t, err)
	assert.Equal(t, "7791234567890", result.Barcode)
	assert.Equal(t, &categoryID, result.CategoryID)
	assert.True(t, result.CostPrice.Equal(cost))
	assert.Equal(t, "low_stock", result.StockStatus)
	require.NotNil(t, result.ProfitMargin)
	assert.True(t, result.ProfitMargin.Equal(decimal.NewFromInt(25)))
	mockProductRepo.AssertExpectations(t)
	mockCategoryRepo.AssertExpectations(t)
}

func TestProductService_Create_DuplicateBarcode(t *testing.T) {
	mockProductRepo := new(MockProductRepository)
	mockCategoryRepo := new(MockCategoryRepository)
	service := NewProductService(mockProductRepo, mockCategoryRepo)

	ctx := context.Background()
	req := CreateProductRequest{
		Name:      "Sprite",
		Barcode:   "123",
		SalePrice: decimal.RequireFromString("1.50"),
	}

	mockProductRepo.On("ExistsByBarcode", ctx, "123", int64(0)).Return(true, nil)

	result, err := service.Create(ctx, req)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	mockProductRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestProductService_Create_InvalidCategory(t *testing.T) {
	mockProductRepo := new(MockProductRepository)
	mockCategoryRepo := new(MockCategoryRepository)
	service := NewProductService(mockProductRepo, mockCategoryRepo)

	ctx := context.Background()
	categoryID := int64(99)
	req := CreateProductRequest{
		Name:       "Sprite",
		CategoryID: &categoryID,
		SalePrice:  decimal.RequireFromString("1.50"),
	}

	mockCategoryRepo.On("FindByID", ctx, categoryID).Return(nil, shared.NewNotFoundError("category", categoryID))

	_, err := service.Create(ctx, req)

	assert.ErrorIs(t, err, shared.ErrNotFound)
	mockProductRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestProductService_Create_Validation(t *testing.T) {
	service := NewProductService(new(MockProductRepository), new(MockCategoryRepository))
	ctx := context.Background()

	tests := []struct {
		name string
		req  CreateProductRequest
	}{
		{"empty name", CreateProductRequest{Name: " ", SalePrice: decimal.NewFromInt(1)}},
		{"negative price", CreateProductRequest{Name: "X", SalePrice: decimal.NewFromInt(-1)}},
		{"three decimals", CreateProductRequest{Name: "X", SalePrice: decimal.RequireFromString("1.005")}},
		{"negative stock", CreateProductRequest{Name: "X", SalePrice: decimal.NewFromInt(1), Stock: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Create(ctx, tt.req)
			assert.ErrorIs(t, err, shared.ErrInvalidInput)
		})
	}
}

func TestProductService_GetByID_NotFound(t *testing.T) {
	mockProductRepo := new(MockProductRepository)
	service := NewProductService(mockProductRepo, new(MockCategoryRepository))

	ctx := context.Background()
	mockProductRepo.On("FindByID", ctx, int64(42)).Return(nil, shared.NewNotFoundError("product", 42))

	result, err := service.GetByID(ctx, 42)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestProductService_List_WithFilters(t *testing.T) {
	mockProductRepo := new(MockProductRepository)
	service := NewProductService(mockProductRepo, new(MockCategoryRepository))

	ctx := context.Background()
	categoryID := int64(2)
	expected := catalog.ProductFilter{
		Filter:     shared.Filter{Page: 2, PageSize: 10, Search: "cola"},
		CategoryID: &categoryID,
		ActiveOnly: true,
	}
	mockProductRepo.On("FindAll", ctx, expected).
		Return([]catalog.Product{*storedProduct(t, 1, "Coca Cola", 3)}, int64(11), nil)

	items, total, err := service.List(ctx, ProductListFilter{
		Search:     "cola",
		CategoryID: &categoryID,
		ActiveOnly: true,
		Page:       2,
		PageSize:   10,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(11), total)
	require.Len(t, items, 1)
	assert.Equal(t, "low_stock", items[0].StockStatus)
	mockProductRepo.AssertExpectations(t)
}

func TestProductService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("partial update keeps untouched fields and stock", func(t *testing.T) {
		mockProductRepo := new(MockProductRepository)
		service := NewProductService(mockProductRepo, new(MockCategoryRepository))
		product := storedProduct(t, 5, "Fanta", 12)
		product.Barcode = "555"

		mockProductRepo.On("FindByID", ctx, int64(5)).Return(product, nil)
		mockProductRepo.On("Save", ctx, product).Return(nil)

		newPrice := decimal.RequireFromString("3.10")
		result, err := service.Update(ctx, 5, UpdateProductRequest{SalePrice: &newPrice})

		require.NoError(t, err)
		assert.Equal(t, "Fanta", result.Name)
		assert.Equal(t, "555", result.Barcode)
		assert.Equal(t, 12, result.Stock)
		assert.True(t, result.SalePrice.Equal(newPrice))
		mockProductRepo.AssertNotCalled(t, "ExistsByBarcode", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("changed barcode must be free", func(t *testing.T) {
		mockProductRepo := new(MockProductRepository)
		service := NewProductService(mockProductRepo, new(MockCategoryRepository))
		product := storedProduct(t, 5, "Fanta", 12)

		mockProductRepo.On("FindByID", ctx, int64(5)).Return(product, nil)
		mockProductRepo.On("ExistsByBarcode", ctx, "999", int64(5)).Return(true, nil)

		barcode := "999"
		_, err := service.Update(ctx, 5, UpdateProductRequest{Barcode: &barcode})

		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
		mockProductRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("zero category clears it", func(t *testing.T) {
		mockProductRepo := new(MockProductRepository)
		service := NewProductService(mockProductRepo, new(MockCategoryRepository))
		product := storedProduct(t, 5, "Fanta", 12)
		categoryID := int64(4)
		product.CategoryID = &categoryID

		mockProductRepo.On("FindByID", ctx, int64(5)).Return(product, nil)
		mockProductRepo.On("Save", ctx, product).Return(nil)

		zero := int64(0)
		result, err := service.Update(ctx, 5, UpdateProductRequest{CategoryID: &zero})

		require.NoError(t, err)
		assert.Nil(t, result.CategoryID)
	})

	t.Run("stale version is a conflict", func(t *testing.T) {
		mockProductRepo := new(MockProductRepository)
		service := NewProductService(mockProductRepo, new(MockCategoryRepository))
		product := storedProduct(t, 5, "Fanta", 12)
		product.Version = 3

		mockProductRepo.On("FindByID", ctx, int64(5)).Return(product, nil)

		stale := 2
		_, err := service.Update(ctx, 5, UpdateProductRequest{Version: &stale})

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		mockProductRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("is_active false deactivates", func(t *testing.T) {
		mockProductRepo := new(MockProductRepository)
		service := NewProductService(mockProductRepo, new(MockCategoryRepository))
		product := storedProduct(t, 5, "Fanta", 12)

		mockProductRepo.On("FindByID", ctx, int64(5)).Return(product, nil)
		mockProductRepo.On("Save", ctx, product).Return(nil)

		inactive := false
		result, err := service.Update(ctx, 5, UpdateProductRequest{IsActive: &inactive})

		require.NoError(t, err)
		assert.False(t, result.IsActive)
	})
}

func TestProductService_Deactivate(t *testing.T) {
	mockProductRepo := new(MockProductRepository)
	service := NewProductService(mockProductRepo, new(MockCategoryRepository))

	ctx := context.Background()
	product := storedProduct(t, 8, "Mentitas", 0)
	mockProductRepo.On("FindByID", ctx, int64(8)).Return(product, nil)
	mockProductRepo.On("Save", ctx, product).Return(nil)

	result, err := service.Deactivate(ctx, 8)
	require.NoError(t, err)
	assert.False(t, result.IsActive)

	_, err = service.Deactivate(ctx, 8)
	assert.Error(t, err)

	result, err = service.Activate(ctx, 8)
	require.NoError(t, err)
	assert.True(t, result.IsActive)
}

func TestProductService_SearchByName(t *testing.T) {
	mockProductRepo := new(MockProductRepository)
	service := NewProductService(mockProductRepo, new(MockCategoryRepository))
	ctx := context.Background()

	_, err := service.SearchByName(ctx, "  ", 5)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	mockProductRepo.On("SearchByName", ctx, "coca", 10).
		Return([]catalog.Product{*storedProduct(t, 1, "Coca Cola", 30)}, nil)

	items, err := service.SearchByName(ctx, " coca ", 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "in_stock", items[0].StockStatus)
}

// MockStockAdjuster is a mock implementation of StockAdjuster
type MockStockAdjuster struct {
	mock.Mock
}

func (m *MockStockAdjuster) AdjustStock(ctx context.Context, productID int64, delta int, reason string) (*catalog.Product, inventory.StockChange, error) {
	args := m.Called(ctx, productID, delta, reason)
	if args.Get(0) == nil {
		return nil, inventory.StockChange{}, args.Error(2)
	}
	return args.Get(0).(*catalog.Product), args.Get(1).(inventory.StockChange), args.Error(2)
}

func TestProductService_AdjustStock(t *testing.T) {
	ctx := context.Background()

	t.Run("reports the clamped change", func(t *testing.T) {
		adjuster := new(MockStockAdjuster)
		service := NewProductService(new(MockProductRepository), new(MockCategoryRepository)).
			WithStockAdjuster(adjuster)
		adjusted := storedProduct(t, 3, "Pan", 0)
		adjuster.On("AdjustStock", ctx, int64(3), -5, "conteo fisico").Return(adjusted, inventory.StockChange{
			ProductID: 3,
			Event:     inventory.EventManualAdjustment,
			Before:    2,
			After:     0,
			Requested: -5,
			Clamped:   true,
		}, nil)

		result, err := service.AdjustStock(ctx, 3, AdjustStockRequest{Adjustment: -5, Reason: " conteo fisico "})

		require.NoError(t, err)
		assert.Equal(t, 0, result.Product.Stock)
		assert.Equal(t, -5, result.Requested)
		assert.Equal(t, -2, result.Applied)
		assert.True(t, result.Clamped)
		assert.Equal(t, "conteo fisico", result.Reason)
		adjuster.AssertExpectations(t)
	})

	t.Run("blank reason", func(t *testing.T) {
		adjuster := new(MockStockAdjuster)
		service := NewProductService(new(MockProductRepository), new(MockCategoryRepository)).
			WithStockAdjuster(adjuster)

		_, err := service.AdjustStock(ctx, 3, AdjustStockRequest{Adjustment: 4, Reason: "  "})

		assert.ErrorIs(t, err, shared.ErrInvalidInput)
		adjuster.AssertNotCalled(t, "AdjustStock", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("not configured", func(t *testing.T) {
		service := NewProductService(new(MockProductRepository), new(MockCategoryRepository))

		_, err := service.AdjustStock(ctx, 3, AdjustStockRequest{Adjustment: 4, Reason: "recuento"})

		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})
}
