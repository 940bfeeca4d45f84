package observability

import (
	"testing"

	"github.com/smallbiznis/ppmp/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig(config.Config{Environment: "development"})

	assert.Equal(t, "ppmp", cfg.ServiceName)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, "grpc", cfg.OtelExporterProtocol)
	assert.Equal(t, 1.0, cfg.OtelSamplingRatio)
	assert.False(t, cfg.OtelEnabled)
	assert.True(t, cfg.Debug())
}

func TestLoadConfigProduction(t *testing.T) {
	cfg := LoadConfig(config.Config{
		AppName:     "ppmp-admin",
		AppVersion:  " 1.4.0 ",
		Environment: "production",
		Telemetry: config.TelemetryConfig{
			LogLevel:        "warn",
			OTLPEndpoint:    "collector:4318",
			OTLPProtocol:    "http",
			OTelEnabled:     true,
			SamplingRatio:   0.25,
			SlowQueryMillis: 500,
		},
	})

	assert.Equal(t, "ppmp-admin", cfg.ServiceName)
	assert.Equal(t, "1.4.0", cfg.Version)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "http", cfg.OtelExporterProtocol)
	assert.Equal(t, 0.25, cfg.OtelSamplingRatio)
	assert.True(t, cfg.OtelEnabled)
	assert.Equal(t, 500, cfg.DBSlowQueryMillis)
	assert.False(t, cfg.Debug())
}

func TestTracingNeedsEndpoint(t *testing.T) {
	cfg := LoadConfig(config.Config{Telemetry: config.TelemetryConfig{OTelEnabled: true}})
	assert.False(t, cfg.OtelEnabled)
}
