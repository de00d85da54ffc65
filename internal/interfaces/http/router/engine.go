package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/minegocio/backend/internal/infrastructure/config"
	"github.com/minegocio/backend/internal/infrastructure/telemetry"
	"github.com/minegocio/backend/internal/interfaces/http/dto"
	"github.com/minegocio/backend/internal/interfaces/http/middleware"
)

// EngineConfig holds what the global middleware chain needs
type EngineConfig struct {
	Logger      *zap.Logger
	CORS        config.CORSConfig
	MaxBodySize int64
	Tracing     middleware.TracingConfig
	Metrics     *telemetry.HTTPMetrics
}

// NewEngine builds a gin engine with the global middleware chain. Recovery
// runs first so panics anywhere below it still produce an error envelope,
// and the request id is set before anything logs.
func NewEngine(cfg EngineConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = false
	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(cfg.Logger),
		middleware.RequestLogger(),
		middleware.Tracing(cfg.Tracing),
		middleware.HTTPMetrics(cfg.Metrics),
		middleware.CORS(cfg.CORS),
		middleware.Secure(),
		middleware.BodyLimit(cfg.MaxBodySize),
	)

	engine.NoRoute(func(c *gin.Context) {
		middleware.AbortWithError(c, &dto.ErrorInfo{
			Code:    dto.ErrCodeRouteNotFound,
			Message: "Route not found",
		})
	})

	return engine
}
