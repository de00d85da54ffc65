package handler

import (
	"github.com/gin-gonic/gin"

	apptrade "github.com/minegocio/backend/internal/application/trade"
)

// SaleHandler handles sales and their line items
type SaleHandler struct {
	BaseHandler
	saleService *apptrade.SaleService
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(saleService *apptrade.SaleService) *SaleHandler {
	return &SaleHandler{saleService: saleService}
}

// Create godoc
// @Summary      Record a sale
// @Description  Create a sale, optionally with its lines. Stock is taken in the same transaction.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        request body apptrade.CreateSaleRequest true "Sale"
// @Success      201 {object} dto.Response{data=apptrade.SaleResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales [post]
func (h *SaleHandler) Create(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req apptrade.CreateSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	sale, err := h.saleService.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, sale)
}

// GetByID returns a sale with its live lines
func (h *SaleHandler) GetByID(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	sale, err := h.saleService.GetByID(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// List godoc
// @Summary      List sales
// @Description  Owners see every sale, employees their own.
// @Tags         sales
// @Produce      json
// @Param        from query string false "First day (YYYY-MM-DD)"
// @Param        to query string false "Last day (YYYY-MM-DD)"
// @Param        payment_method query string false "cash, card, transfer or credit"
// @Success      200 {object} dto.Response{data=[]apptrade.SaleResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /sales [get]
func (h *SaleHandler) List(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var filter apptrade.SaleListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	sales, total, err := h.saleService.List(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, sales, total, filter.Page, filter.PageSize)
}

// Update godoc
// @Summary      Edit a sale header
// @Description  Customer, payment method, date and notes. Sellers may edit their own sales dated today.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        id path int true "Sale ID"
// @Param        request body apptrade.UpdateSaleRequest true "Fields to change"
// @Success      200 {object} dto.Response{data=apptrade.SaleResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales/{id} [put]
func (h *SaleHandler) Update(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	var req apptrade.UpdateSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	sale, err := h.saleService.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// Stats returns today's, this week's and this month's sale totals
func (h *SaleHandler) Stats(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	stats, err := h.saleService.Stats(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// Delete restores the stock of every line and removes the sale. Owner only.
func (h *SaleHandler) Delete(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	if err := h.saleService.Delete(c.Request.Context(), actor, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ListItems returns the lines of a sale with their summary
func (h *SaleHandler) ListItems(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	items, err := h.saleService.ListItems(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// AddItem godoc
// @Summary      Add a line to a sale
// @Description  Takes stock under a row lock. Send Idempotency-Key to make retries safe.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        id path int true "Sale ID"
// @Param        Idempotency-Key header string false "Client generated key"
// @Param        request body apptrade.CreateSaleItemInput true "Line"
// @Success      201 {object} dto.Response{data=apptrade.SaleItemResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo} "INSUFFICIENT_STOCK with available_stock"
// @Security     BearerAuth
// @Router       /sales/{id}/items [post]
func (h *SaleHandler) AddItem(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	var req apptrade.CreateSaleItemInput
	if !h.BindJSON(c, &req) {
		return
	}
	item, err := h.saleService.AddItem(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, item)
}

// UpdateItem changes quantity or price of a sale line
func (h *SaleHandler) UpdateItem(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	var req apptrade.UpdateSaleItemRequest
	if !h.BindJSON(c, &req) {
		return
	}
	item, err := h.saleService.UpdateItem(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// DeleteItem removes a sale line and returns its units to stock
func (h *SaleHandler) DeleteItem(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	if err := h.saleService.DeleteItem(c.Request.Context(), actor, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
