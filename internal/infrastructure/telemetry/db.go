package telemetry

import (
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// InstrumentDB registers otelgorm so every query becomes a child span of
// the request. Query arguments are left out of the spans.
func InstrumentDB(db *gorm.DB, tp trace.TracerProvider, dialect string, logger *zap.Logger) error {
	plugin := otelgorm.NewPlugin(
		otelgorm.WithTracerProvider(tp),
		otelgorm.WithDBName(dialect),
		otelgorm.WithoutQueryVariables(),
	)
	if err := db.Use(plugin); err != nil {
		return err
	}
	if logger != nil {
		logger.Info("Database tracing enabled", zap.String("dialect", dialect))
	}
	return nil
}
