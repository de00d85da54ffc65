package handler

import (
	"github.com/gin-gonic/gin"

	appcatalog "github.com/minegocio/backend/internal/application/catalog"
)

// ProductHandler handles product-related API endpoints
type ProductHandler struct {
	BaseHandler
	productService *appcatalog.ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService *appcatalog.ProductService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
	}
}

// Create godoc
// @Summary      Create a product
// @Description  Create a product with its opening stock. Owner only.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        request body appcatalog.CreateProductRequest true "Product"
// @Success      201 {object} dto.Response{data=appcatalog.ProductResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	var req appcatalog.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}
	product, err := h.productService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

// GetByID godoc
// @Summary      Get a product
// @Tags         products
// @Produce      json
// @Param        id path int true "Product ID"
// @Success      200 {object} dto.Response{data=appcatalog.ProductResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /products/{id} [get]
func (h *ProductHandler) GetByID(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	product, err := h.productService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// List godoc
// @Summary      List products
// @Tags         products
// @Produce      json
// @Param        search query string false "Name or barcode fragment"
// @Param        category_id query int false "Category"
// @Param        active_only query bool false "Only active products"
// @Param        low_stock query bool false "Only products at or below their threshold"
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]appcatalog.ProductResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /products [get]
func (h *ProductHandler) List(c *gin.Context) {
	var filter appcatalog.ProductListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	products, total, err := h.productService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, products, total, filter.Page, filter.PageSize)
}

// Update godoc
// @Summary      Update a product
// @Description  Update product fields. Stock is not writable here. Owner only.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id path int true "Product ID"
// @Param        request body appcatalog.UpdateProductRequest true "Changes"
// @Success      200 {object} dto.Response{data=appcatalog.ProductResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /products/{id} [put]
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	var req appcatalog.UpdateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}
	product, err := h.productService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Deactivate hides a product from new sales. Owner only.
func (h *ProductHandler) Deactivate(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	product, err := h.productService.Deactivate(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Activate makes a product sellable again. Owner only.
func (h *ProductHandler) Activate(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	product, err := h.productService.Activate(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// AdjustStock godoc
// @Summary      Adjust product stock
// @Description  Corrects stock after a physical count. Decreases stop at zero. Owner only.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id path int true "Product ID"
// @Param        request body appcatalog.AdjustStockRequest true "Signed adjustment and reason"
// @Success      200 {object} dto.Response{data=appcatalog.StockAdjustmentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /products/{id}/adjust-stock [post]
func (h *ProductHandler) AdjustStock(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	var req appcatalog.AdjustStockRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.productService.AdjustStock(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

type limitQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// LowStock lists active products at or below their threshold
func (h *ProductHandler) LowStock(c *gin.Context) {
	var q limitQuery
	if !h.BindQuery(c, &q) {
		return
	}
	products, err := h.productService.LowStock(c.Request.Context(), q.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, products)
}

type searchQuery struct {
	Name  string `form:"name" binding:"required,max=200"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=50"`
}

// Search finds active products by name
func (h *ProductHandler) Search(c *gin.Context) {
	var q searchQuery
	if !h.BindQuery(c, &q) {
		return
	}
	products, err := h.productService.SearchByName(c.Request.Context(), q.Name, q.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, products)
}
