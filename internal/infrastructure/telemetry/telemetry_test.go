package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/minegocio/backend/internal/infrastructure/config"
	"github.com/minegocio/backend/internal/infrastructure/telemetry"
)

func TestNew_Disabled(t *testing.T) {
	ctx := context.Background()
	p, err := telemetry.New(ctx, config.TelemetryConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, p.TracingEnabled())
	assert.NotNil(t, p.TracerProvider())
	assert.NotNil(t, p.Meter())
	assert.NoError(t, p.Shutdown(ctx))
}

func TestBridgeLogger_DisabledReturnsBase(t *testing.T) {
	p, err := telemetry.New(context.Background(), config.TelemetryConfig{}, nil)
	require.NoError(t, err)

	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	bridged := p.BridgeLogger(base, zapcore.InfoLevel)
	bridged.Info("venta registrada")

	assert.Same(t, base, bridged)
	assert.Equal(t, 1, logs.Len())
}
