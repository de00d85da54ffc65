package middleware

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/minegocio/backend/internal/domain/shared"
	"github.com/minegocio/backend/internal/infrastructure/logger"
	"github.com/minegocio/backend/internal/interfaces/http/dto"
)

const (
	// IdempotencyKeyHeader is sent by clients that retry line-item POSTs
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyReplayedHeader marks a response served from the store
	IdempotencyReplayedHeader = "Idempotency-Replayed"

	maxIdempotencyKeyLength = 128
)

// Idempotency answers a repeated request carrying the same Idempotency-Key
// with the response recorded for the first one, so a client retrying after
// a timeout does not move stock twice. Keys are scoped per user and route.
// Server errors release the key so the client may retry. Store failures
// degrade to running the request without protection.
func Idempotency(store shared.IdempotencyStore, cfg shared.IdempotencyConfig) gin.HandlerFunc {
	if store == nil || !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	if cfg.TTL <= 0 {
		cfg.TTL = shared.DefaultIdempotencyConfig().TTL
	}

	return func(c *gin.Context) {
		raw := c.GetHeader(IdempotencyKeyHeader)
		if raw == "" {
			c.Next()
			return
		}
		if len(raw) > maxIdempotencyKeyLength {
			AbortWithError(c, &dto.ErrorInfo{
				Code:    dto.ErrCodeBadRequest,
				Message: "Idempotency-Key is too long",
			})
			return
		}

		ctx := c.Request.Context()
		log := logger.L(ctx)
		key := scopedKey(c, raw)

		if replayStored(c, store, key, log) {
			return
		}

		reserved, err := store.Reserve(ctx, key, cfg.TTL)
		if err != nil {
			log.Warn("Idempotency store unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !reserved {
			// Completed between the lookup and the reservation, or still running
			if replayStored(c, store, key, log) {
				return
			}
			AbortWithError(c, &dto.ErrorInfo{
				Code:    dto.ErrCodeInProgress,
				Message: "A request with this Idempotency-Key is still being processed",
			})
			return
		}

		recorder := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = recorder
		c.Next()

		status := recorder.Status()
		if status >= http.StatusInternalServerError {
			if err := store.Release(ctx, key); err != nil {
				log.Warn("Failed to release idempotency key", zap.Error(err))
			}
			return
		}
		resp := shared.StoredResponse{
			Status:      status,
			ContentType: recorder.Header().Get("Content-Type"),
			Body:        recorder.body.Bytes(),
		}
		if err := store.Complete(ctx, key, resp, cfg.TTL); err != nil {
			log.Warn("Failed to record idempotent response", zap.Error(err))
		}
	}
}

func replayStored(c *gin.Context, store shared.IdempotencyStore, key string, log *zap.Logger) bool {
	stored, err := store.Lookup(c.Request.Context(), key)
	if err != nil {
		log.Warn("Idempotency lookup failed", zap.Error(err))
		return false
	}
	if stored == nil {
		return false
	}
	c.Header(IdempotencyReplayedHeader, "true")
	contentType := stored.ContentType
	if contentType == "" {
		contentType = "application/json; charset=utf-8"
	}
	c.Data(stored.Status, contentType, stored.Body)
	c.Abort()
	return true
}

func scopedKey(c *gin.Context, raw string) string {
	user := "anonymous"
	if actor, ok := GetActor(c); ok {
		user = strconv.FormatInt(actor.UserID, 10)
	}
	return user + ":" + c.Request.Method + ":" + c.FullPath() + ":" + c.Param("id") + ":" + raw
}

// bodyRecorder tees the response body so it can be stored
type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
