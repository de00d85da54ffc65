package handler

import (
	"github.com/gin-gonic/gin"

	appbusiness "github.com/minegocio/backend/internal/application/business"
)

// BusinessHandler exposes the single business settings row
type BusinessHandler struct {
	BaseHandler
	businessService *appbusiness.Service
}

// NewBusinessHandler creates a new BusinessHandler
func NewBusinessHandler(businessService *appbusiness.Service) *BusinessHandler {
	return &BusinessHandler{businessService: businessService}
}

// Get godoc
// @Summary      Business settings
// @Description  Returns the settings row, creating the defaults on first access.
// @Tags         business
// @Produce      json
// @Success      200 {object} dto.Response{data=appbusiness.BusinessResponse}
// @Security     BearerAuth
// @Router       /business [get]
func (h *BusinessHandler) Get(c *gin.Context) {
	b, err := h.businessService.GetInstance(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, b)
}

// Update godoc
// @Summary      Update business settings
// @Tags         business
// @Accept       json
// @Produce      json
// @Param        request body appbusiness.UpdateBusinessRequest true "Changes"
// @Success      200 {object} dto.Response{data=appbusiness.BusinessResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /business [put]
func (h *BusinessHandler) Update(c *gin.Context) {
	var req appbusiness.UpdateBusinessRequest
	if !h.BindJSON(c, &req) {
		return
	}
	b, err := h.businessService.Update(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, b)
}

// Currencies lists the supported currencies
func (h *BusinessHandler) Currencies(c *gin.Context) {
	h.Success(c, h.businessService.Currencies())
}
