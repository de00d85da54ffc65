package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/minegocio/backend/internal/domain/identity"
	"github.com/minegocio/backend/internal/domain/shared"
	"github.com/minegocio/backend/internal/infrastructure/logger"
	"github.com/minegocio/backend/internal/interfaces/http/dto"
	"github.com/minegocio/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// HandleError converts a service error to the error envelope. Server side
// failures are logged with the request logger; the client only sees a
// generic message.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	info := dto.FromError(err)
	status := dto.GetHTTPStatus(info.Code)
	if status >= http.StatusInternalServerError {
		logger.L(c.Request.Context()).Error("Request failed",
			zap.String("code", info.Code),
			zap.Error(err))
	}
	_ = c.Error(err)
	c.JSON(status, dto.NewErrorResponseFromInfo(info, middleware.GetRequestID(c)))
}

// BindingError answers a request whose body or query could not be bound
func (h *BaseHandler) BindingError(c *gin.Context, err error) {
	info := middleware.BindingError(err)
	c.JSON(dto.GetHTTPStatus(info.Code), dto.NewErrorResponseFromInfo(info, middleware.GetRequestID(c)))
}

// BindJSON binds the body into req, answering the error itself. Returns
// false when the handler must stop.
func (h *BaseHandler) BindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.BindingError(c, err)
		return false
	}
	return true
}

// BindQuery binds query parameters into req
func (h *BaseHandler) BindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		h.BindingError(c, err)
		return false
	}
	return true
}

// PathID parses the :id path parameter
func (h *BaseHandler) PathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.HandleError(c, shared.NewValidationError("id", "must be a positive integer"))
		return 0, false
	}
	return id, true
}

// Actor returns the authenticated caller. Routes using it sit behind the JWT
// middleware, so a missing actor is answered as unauthenticated.
func (h *BaseHandler) Actor(c *gin.Context) (identity.Actor, bool) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		h.HandleError(c, shared.ErrUnauthorized)
		return identity.Actor{}, false
	}
	return actor, true
}
