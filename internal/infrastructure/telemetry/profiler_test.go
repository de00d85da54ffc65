package telemetry_test

import (
	"context"
	"runtime/pprof"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/minegocio/backend/internal/infrastructure/config"
	"github.com/minegocio/backend/internal/infrastructure/telemetry"
)

func TestStartProfiler_Disabled(t *testing.T) {
	p, err := telemetry.StartProfiler(config.TelemetryConfig{
		ServiceName:            "minegocio-backend",
		ProfilingServerAddress: "http://localhost:4040",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, p.Enabled())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop(), "stop is idempotent")
}

func TestStartProfiler_RequiresServerAndName(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.TelemetryConfig
		message string
	}{
		{
			name:    "missing server address",
			cfg:     config.TelemetryConfig{ProfilingEnabled: true, ServiceName: "minegocio-backend"},
			message: "server address is required",
		},
		{
			name:    "missing application name",
			cfg:     config.TelemetryConfig{ProfilingEnabled: true, ProfilingServerAddress: "http://localhost:4040"},
			message: "application name is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := telemetry.StartProfiler(tt.cfg, zaptest.NewLogger(t))
			require.Error(t, err)
			assert.Nil(t, p)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestStartProfiler_UnreachableServer(t *testing.T) {
	if testing.Short() {
		t.Skip("starts the Pyroscope SDK")
	}
	p, err := telemetry.StartProfiler(config.TelemetryConfig{
		ProfilingEnabled:       true,
		ServiceName:            "minegocio-backend",
		ProfilingServerAddress: "http://127.0.0.1:1",
	}, zaptest.NewLogger(t))
	require.NoError(t, err, "uploads are asynchronous so start does not dial")

	assert.True(t, p.Enabled())
	_ = p.Stop()
	assert.NoError(t, p.Stop())
}

func TestNew_ProfilingLabelsRootSpans(t *testing.T) {
	ctx := context.Background()
	providers, err := telemetry.New(ctx, config.TelemetryConfig{
		Enabled:           true,
		CollectorEndpoint: "127.0.0.1:1",
		Insecure:          true,
		SamplingRatio:     1.0,
		ServiceName:       "minegocio-backend",
		ProfilingEnabled:  true,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	spanCtx, span := providers.TracerProvider().Tracer("test").Start(ctx, "POST /api/v1/sales")
	_, labelled := pprof.Label(spanCtx, "span_id")
	assert.True(t, labelled)

	// Shut down before ending the span so nothing is exported to the
	// unreachable collector.
	assert.NoError(t, providers.Shutdown(ctx))
	span.End()
}
