package handler

import (
	"github.com/gin-gonic/gin"

	apptrade "github.com/minegocio/backend/internal/application/trade"
)

// PurchaseHandler handles received goods and their line items
type PurchaseHandler struct {
	BaseHandler
	purchaseService *apptrade.PurchaseService
}

// NewPurchaseHandler creates a new PurchaseHandler
func NewPurchaseHandler(purchaseService *apptrade.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchaseService: purchaseService}
}

// Create godoc
// @Summary      Record a purchase
// @Description  Create a purchase, optionally with its lines. Stock and cost price move in the same transaction.
// @Tags         purchases
// @Accept       json
// @Produce      json
// @Param        request body apptrade.CreatePurchaseRequest true "Purchase"
// @Success      201 {object} dto.Response{data=apptrade.PurchaseResponse}
// @Security     BearerAuth
// @Router       /purchases [post]
func (h *PurchaseHandler) Create(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req apptrade.CreatePurchaseRequest
	if !h.BindJSON(c, &req) {
		return
	}
	purchase, err := h.purchaseService.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, purchase)
}

// GetByID returns a purchase with its live lines
func (h *PurchaseHandler) GetByID(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	purchase, err := h.purchaseService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, purchase)
}

// List lists purchases
func (h *PurchaseHandler) List(c *gin.Context) {
	var filter apptrade.PurchaseListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	purchases, total, err := h.purchaseService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, purchases, total, filter.Page, filter.PageSize)
}

// Update edits supplier, notes, date or receiver of a purchase
func (h *PurchaseHandler) Update(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	var req apptrade.UpdatePurchaseRequest
	if !h.BindJSON(c, &req) {
		return
	}
	purchase, err := h.purchaseService.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, purchase)
}

// Stats godoc
// @Summary      Purchase statistics
// @Tags         purchases
// @Produce      json
// @Param        date_from query string false "First day (YYYY-MM-DD)"
// @Param        date_to query string false "Last day (YYYY-MM-DD)"
// @Param        received_by query int false "Receiving user"
// @Param        supplier_name query string false "Supplier name fragment"
// @Success      200 {object} dto.Response{data=apptrade.PurchaseStatsResponse}
// @Security     BearerAuth
// @Router       /purchases/stats [get]
func (h *PurchaseHandler) Stats(c *gin.Context) {
	var filter apptrade.PurchaseStatsFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	stats, err := h.purchaseService.Stats(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// Summary returns a purchase with named lines and totals
func (h *PurchaseHandler) Summary(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	summary, err := h.purchaseService.Summary(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

type recentPurchasesQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1"`
}

// Recent lists the latest recorded purchases
func (h *PurchaseHandler) Recent(c *gin.Context) {
	var q recentPurchasesQuery
	if !h.BindQuery(c, &q) {
		return
	}
	purchases, err := h.purchaseService.Recent(c.Request.Context(), q.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, purchases)
}

// ProductHistory godoc
// @Summary      Purchase history of a product
// @Tags         products
// @Produce      json
// @Param        id path int true "Product ID"
// @Param        limit query int false "Lines to return (default 20, max 100)"
// @Success      200 {object} dto.Response{data=[]apptrade.ProductPurchaseResponse}
// @Security     BearerAuth
// @Router       /products/{id}/purchase-history [get]
func (h *PurchaseHandler) ProductHistory(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	var q recentPurchasesQuery
	if !h.BindQuery(c, &q) {
		return
	}
	history, err := h.purchaseService.ProductHistory(c.Request.Context(), id, q.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, history)
}

// Delete removes a purchase created in the last 30 days and takes its
// units back out of stock. Owner only.
func (h *PurchaseHandler) Delete(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	if err := h.purchaseService.Delete(c.Request.Context(), actor, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// AddItem adds a line to a purchase
func (h *PurchaseHandler) AddItem(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	var req apptrade.CreatePurchaseItemInput
	if !h.BindJSON(c, &req) {
		return
	}
	item, err := h.purchaseService.AddItem(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, item)
}

// UpdateItem changes quantity or cost of a purchase line
func (h *PurchaseHandler) UpdateItem(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	var req apptrade.UpdatePurchaseItemRequest
	if !h.BindJSON(c, &req) {
		return
	}
	item, err := h.purchaseService.UpdateItem(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// DeleteItem removes a purchase line
func (h *PurchaseHandler) DeleteItem(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	if err := h.purchaseService.DeleteItem(c.Request.Context(), actor, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
