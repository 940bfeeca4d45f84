package observability

import (
	"strings"

	"github.com/smallbiznis/ppmp/internal/config"
)

// Config is the observability view of the service configuration.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64

	DBSlowQueryMillis int
}

func LoadConfig(cfg config.Config) Config {
	serviceName := strings.TrimSpace(cfg.AppName)
	if serviceName == "" {
		serviceName = "ppmp"
	}
	t := cfg.Telemetry

	logFormat := t.LogFormat
	if logFormat == "" {
		logFormat = "json"
		if isDevEnv(cfg.Environment) {
			logFormat = "console"
		}
	}
	protocol := t.OTLPProtocol
	if protocol != "http" {
		protocol = "grpc"
	}
	ratio := t.SamplingRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 1
	}

	return Config{
		ServiceName:          serviceName,
		Environment:          strings.TrimSpace(cfg.Environment),
		Version:              strings.TrimSpace(cfg.AppVersion),
		LogLevel:             t.LogLevel,
		LogFormat:            logFormat,
		OtelEnabled:          t.OTelEnabled && t.OTLPEndpoint != "",
		OtelExporterEndpoint: t.OTLPEndpoint,
		OtelExporterProtocol: protocol,
		OtelSamplingRatio:    ratio,
		DBSlowQueryMillis:    t.SlowQueryMillis,
	}
}

// Debug enables verbose access logs for debug level or a development environment.
func (c Config) Debug() bool {
	if strings.EqualFold(strings.TrimSpace(c.LogLevel), "debug") {
		return true
	}
	return isDevEnv(c.Environment)
}

func isDevEnv(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}
