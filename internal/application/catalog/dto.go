package catalog

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/minegocio/backend/internal/domain/catalog"
)

// CreateProductRequest represents a request to create a new product.
// Stock is the opening stock; afterwards it only moves through sales and purchases.
type CreateProductRequest struct {
	Name        string           `json:"name" binding:"required,min=1,max=200"`
	Description string           `json:"description" binding:"max=2000"`
	Barcode     string           `json:"barcode" binding:"max=50"`
	CategoryID  *int64           `json:"category_id" binding:"omitempty,gt=0"`
	CostPrice   *decimal.Decimal `json:"cost_price" binding:"omitempty,money2"`
	SalePrice   decimal.Decimal  `json:"sale_price" binding:"money2"`
	Stock       int              `json:"stock" binding:"min=0,max=2147483647"`
	MinStock    *int             `json:"min_stock" binding:"omitempty,min=0,max=2147483647"`
}

// UpdateProductRequest represents a request to update a product.
// Nil fields are left unchanged. Version, when set, must match the stored row.
type UpdateProductRequest struct {
	Name        *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Description *string          `json:"description" binding:"omitempty,max=2000"`
	Barcode     *string          `json:"barcode" binding:"omitempty,max=50"`
	CategoryID  *int64           `json:"category_id" binding:"omitempty,gte=0"`
	CostPrice   *decimal.Decimal `json:"cost_price" binding:"omitempty,money2"`
	SalePrice   *decimal.Decimal `json:"sale_price" binding:"omitempty,money2"`
	MinStock    *int             `json:"min_stock" binding:"omitempty,min=0,max=2147483647"`
	IsActive    *bool            `json:"is_active"`
	Version     *int             `json:"version" binding:"omitempty,gt=0"`
}

// AdjustStockRequest corrects stock by a signed amount
type AdjustStockRequest struct {
	Adjustment int    `json:"adjustment" binding:"required,min=-2147483647,max=2147483647"`
	Reason     string `json:"reason" binding:"required,max=255"`
}

// StockAdjustmentResponse reports the product after a manual adjustment
type StockAdjustmentResponse struct {
	Product   ProductResponse `json:"product"`
	Requested int             `json:"requested"`
	Applied   int             `json:"applied"`
	Clamped   bool            `json:"clamped"`
	Reason    string          `json:"reason"`
}

// ProductListFilter represents filter options for the product list
type ProductListFilter struct {
	Search     string `form:"search"`
	CategoryID *int64 `form:"category_id"`
	ActiveOnly bool   `form:"active_only"`
	LowStock   bool   `form:"low_stock"`
	Page       int    `form:"page" binding:"min=0"`
	PageSize   int    `form:"page_size" binding:"min=0,max=100"`
	OrderBy    string `form:"order_by" binding:"omitempty,oneof=name sale_price stock created_at updated_at"`
	OrderDir   string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID           int64            `json:"id"`
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	Barcode      string           `json:"barcode"`
	CategoryID   *int64           `json:"category_id"`
	CostPrice    *decimal.Decimal `json:"cost_price"`
	SalePrice    decimal.Decimal  `json:"sale_price"`
	Stock        int              `json:"stock"`
	MinStock     int              `json:"min_stock"`
	IsActive     bool             `json:"is_active"`
	StockStatus  string           `json:"stock_status"`
	IsLowStock   bool             `json:"is_low_stock"`
	ProfitMargin *decimal.Decimal `json:"profit_margin"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	Version      int              `json:"version"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Barcode:      p.Barcode,
		CategoryID:   p.CategoryID,
		CostPrice:    p.CostPrice,
		SalePrice:    p.SalePrice,
		Stock:        p.Stock,
		MinStock:     p.MinStock,
		IsActive:     p.IsActive,
		StockStatus:  string(p.StockStatus()),
		IsLowStock:   p.IsLowStock(),
		ProfitMargin: p.ProfitMargin(),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
		Version:      p.Version,
	}
}

// ToProductResponses converts a slice of products
func ToProductResponses(products []catalog.Product) []ProductResponse {
	out := make([]ProductResponse, len(products))
	for i := range products {
		out[i] = ToProductResponse(&products[i])
	}
	return out
}

// CreateCategoryRequest represents a request to create a category
type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Description string `json:"description" binding:"max=500"`
}

// UpdateCategoryRequest represents a request to rename a category
type UpdateCategoryRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=100"`
	Description *string `json:"description" binding:"omitempty,max=500"`
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToCategoryResponse converts a domain Category to CategoryResponse
func ToCategoryResponse(c *catalog.Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		IsActive:    c.IsActive,
		CreatedAt:   c.CreatedAt,
	}
}
