package catalog

import (
	"context"
	"strings"

	"github.com/minegocio/backend/internal/domain/catalog"
	"github.com/minegocio/backend/internal/domain/inventory"
	"github.com/minegocio/backend/internal/domain/shared"
)

// StockAdjuster applies a manual stock correction under the product lock
type StockAdjuster interface {
	AdjustStock(ctx context.Context, productID int64, delta int, reason string) (*catalog.Product, inventory.StockChange, error)
}

// ProductService handles product-related business operations
type ProductService struct {
	products   catalog.ProductRepository
	categories catalog.CategoryRepository
	adjuster   StockAdjuster
}

// NewProductService creates a new ProductService
func NewProductService(products catalog.ProductRepository, categories catalog.CategoryRepository) *ProductService {
	return &ProductService{
		products:   products,
		categories: categories,
	}
}

// WithStockAdjuster enables AdjustStock
func (s *ProductService) WithStockAdjuster(adjuster StockAdjuster) *ProductService {
	s.adjuster = adjuster
	return s
}

// Create creates a new product with its opening stock
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	product, err := catalog.NewProduct(req.Name, req.SalePrice)
	if err != nil {
		return nil, err
	}

	if err := s.ensureBarcodeFree(ctx, req.Barcode, 0); err != nil {
		return nil, err
	}
	if err := s.ensureCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	if err := product.Update(req.Name, req.Description, req.Barcode, req.CategoryID); err != nil {
		return nil, err
	}
	if req.CostPrice != nil {
		if err := product.SetPrices(req.CostPrice, req.SalePrice); err != nil {
			return nil, err
		}
	}
	if req.MinStock != nil {
		if err := product.SetMinStock(*req.MinStock); err != nil {
			return nil, err
		}
	}
	if err := product.SetInitialStock(req.Stock); err != nil {
		return nil, err
	}

	if err := s.products.Save(ctx, product); err != nil {
		return nil, err
	}

	resp := ToProductResponse(product)
	return &resp, nil
}

// GetByID retrieves a product by ID
func (s *ProductService) GetByID(ctx context.Context, id int64) (*ProductResponse, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// List retrieves a list of products with filtering and pagination
func (s *ProductService) List(ctx context.Context, filter ProductListFilter) ([]ProductResponse, int64, error) {
	products, total, err := s.products.FindAll(ctx, catalog.ProductFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
			Search:   filter.Search,
		},
		CategoryID: filter.CategoryID,
		ActiveOnly: filter.ActiveOnly,
		LowStock:   filter.LowStock,
	})
	if err != nil {
		return nil, 0, err
	}
	return ToProductResponses(products), total, nil
}

// Update applies the non-nil fields of req. Stock is not writable here.
func (s *ProductService) Update(ctx context.Context, id int64, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Version != nil && *req.Version != product.Version {
		return nil, shared.NewConcurrencyError("update product", nil)
	}

	name := product.Name
	if req.Name != nil {
		name = *req.Name
	}
	description := product.Description
	if req.Description != nil {
		description = *req.Description
	}
	barcode := product.Barcode
	if req.Barcode != nil {
		barcode = strings.TrimSpace(*req.Barcode)
		if barcode != product.Barcode {
			if err := s.ensureBarcodeFree(ctx, barcode, product.ID); err != nil {
				return nil, err
			}
		}
	}
	categoryID := product.CategoryID
	if req.CategoryID != nil {
		// 0 clears the category
		if *req.CategoryID == 0 {
			categoryID = nil
		} else {
			if err := s.ensureCategory(ctx, req.CategoryID); err != nil {
				return nil, err
			}
			categoryID = req.CategoryID
		}
	}
	if err := product.Update(name, description, barcode, categoryID); err != nil {
		return nil, err
	}

	if req.CostPrice != nil || req.SalePrice != nil {
		sale := product.SalePrice
		if req.SalePrice != nil {
			sale = *req.SalePrice
		}
		if err := product.SetPrices(req.CostPrice, sale); err != nil {
			return nil, err
		}
	}
	if req.MinStock != nil {
		if err := product.SetMinStock(*req.MinStock); err != nil {
			return nil, err
		}
	}
	if req.IsActive != nil && *req.IsActive != product.IsActive {
		if *req.IsActive {
			err = product.Activate()
		} else {
			err = product.Deactivate()
		}
		if err != nil {
			return nil, err
		}
	}

	if err := s.products.Save(ctx, product); err != nil {
		return nil, err
	}

	resp := ToProductResponse(product)
	return &resp, nil
}

// Deactivate hides a product from new sales. History is kept.
func (s *ProductService) Deactivate(ctx context.Context, id int64) (*ProductResponse, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := product.Deactivate(); err != nil {
		return nil, err
	}
	if err := s.products.Save(ctx, product); err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// Activate makes a deactivated product sellable again
func (s *ProductService) Activate(ctx context.Context, id int64) (*ProductResponse, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := product.Activate(); err != nil {
		return nil, err
	}
	if err := s.products.Save(ctx, product); err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// AdjustStock corrects stock after a physical count. A decrease past zero
// leaves the product at zero and the response reports the applied change.
func (s *ProductService) AdjustStock(ctx context.Context, id int64, req AdjustStockRequest) (*StockAdjustmentResponse, error) {
	if s.adjuster == nil {
		return nil, shared.NewDomainError(shared.ErrInvalidState.Code, "Stock adjustment is not available")
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, shared.NewValidationError("reason", "is required")
	}
	product, change, err := s.adjuster.AdjustStock(ctx, id, req.Adjustment, reason)
	if err != nil {
		return nil, err
	}
	return &StockAdjustmentResponse{
		Product:   ToProductResponse(product),
		Requested: change.Requested,
		Applied:   change.Applied(),
		Clamped:   change.Clamped,
		Reason:    reason,
	}, nil
}

// LowStock lists active products at or below their threshold, lowest stock first
func (s *ProductService) LowStock(ctx context.Context, limit int) ([]ProductResponse, error) {
	products, err := s.products.FindLowStock(ctx, limit)
	if err != nil {
		return nil, err
	}
	return ToProductResponses(products), nil
}

// SearchByName finds active products by a fragment of their name
func (s *ProductService) SearchByName(ctx context.Context, name string, limit int) ([]ProductResponse, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("name", "is required")
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	products, err := s.products.SearchByName(ctx, name, limit)
	if err != nil {
		return nil, err
	}
	return ToProductResponses(products), nil
}

func (s *ProductService) ensureBarcodeFree(ctx context.Context, barcode string, excludeID int64) error {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil
	}
	exists, err := s.products.ExistsByBarcode(ctx, barcode, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewDomainError("ALREADY_EXISTS", "Product with this barcode already exists")
	}
	return nil
}

func (s *ProductService) ensureCategory(ctx context.Context, categoryID *int64) error {
	if categoryID == nil {
		return nil
	}
	if _, err := s.categories.FindByID(ctx, *categoryID); err != nil {
		return err
	}
	return nil
}
