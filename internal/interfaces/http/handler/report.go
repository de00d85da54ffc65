package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appreport "github.com/minegocio/backend/internal/application/report"
	"github.com/minegocio/backend/internal/infrastructure/logger"
)

// ReportHandler serves the dashboard, sales reports and the XLSX export
type ReportHandler struct {
	BaseHandler
	reportService *appreport.ReportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService *appreport.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

type revenueQuery struct {
	Period string `form:"period"`
}

// Revenue godoc
// @Summary      Revenue summary
// @Tags         reports
// @Produce      json
// @Param        period query string false "today, this_month or last_month" default(today)
// @Success      200 {object} dto.Response{data=report.RevenueSummary}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /reports/revenue [get]
func (h *ReportHandler) Revenue(c *gin.Context) {
	var q revenueQuery
	if !h.BindQuery(c, &q) {
		return
	}
	if q.Period == "" {
		q.Period = "today"
	}
	summary, err := h.reportService.Revenue(c.Request.Context(), q.Period)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

type seriesQuery struct {
	Days   int `form:"days" binding:"omitempty,min=1,max=366"`
	Months int `form:"months" binding:"omitempty,min=1,max=36"`
}

// Daily returns per-day sales over the trailing days
func (h *ReportHandler) Daily(c *gin.Context) {
	var q seriesQuery
	if !h.BindQuery(c, &q) {
		return
	}
	buckets, err := h.reportService.DailySales(c.Request.Context(), q.Days)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, buckets)
}

// Monthly returns per-month sales
func (h *ReportHandler) Monthly(c *gin.Context) {
	var q seriesQuery
	if !h.BindQuery(c, &q) {
		return
	}
	buckets, err := h.reportService.MonthlySales(c.Request.Context(), q.Months)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, buckets)
}

// TopProducts ranks the best sellers
func (h *ReportHandler) TopProducts(c *gin.Context) {
	var filter appreport.TopProductsFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	ranking, err := h.reportService.TopProducts(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ranking)
}

// LowStock lists products that need restocking
func (h *ReportHandler) LowStock(c *gin.Context) {
	items, err := h.reportService.LowStock(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

type productStockQuery struct {
	Name string `form:"name" binding:"required,max=200"`
}

// ProductStock looks up stock by product name
func (h *ReportHandler) ProductStock(c *gin.Context) {
	var q productStockQuery
	if !h.BindQuery(c, &q) {
		return
	}
	items, err := h.reportService.ProductStock(c.Request.Context(), q.Name)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// Dashboard returns the home screen figures
func (h *ReportHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.reportService.Dashboard(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dashboard)
}

// ExportSales godoc
// @Summary      Export sales
// @Description  Streams the live sales of a date range as an XLSX workbook. Owner only.
// @Tags         reports
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        from query string false "First day (YYYY-MM-DD), default start of month"
// @Param        to query string false "Last day (YYYY-MM-DD), default today"
// @Success      200 {file} file
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /reports/sales/export [get]
func (h *ReportHandler) ExportSales(c *gin.Context) {
	var filter appreport.ExportFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	export, err := h.reportService.ExportSales(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.FileName))
	c.Header("Content-Type", export.ContentType())
	c.Status(http.StatusOK)
	if _, err := export.WriteTo(c.Writer); err != nil {
		// Headers are gone; all that is left is to record the failure
		logger.L(c.Request.Context()).Error("Failed to stream sales export", zap.Error(err))
	}
}
