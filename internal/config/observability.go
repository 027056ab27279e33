package config

import (
	"photokeep/internal/observability"

	"github.com/knadh/koanf/v2"
)

// LoadObservabilityConfig reads the tracing settings. Tracing is optional:
// an empty endpoint disables the exporter entirely.
func LoadObservabilityConfig(config *koanf.Koanf) observability.Config {
	serviceName := config.String("OTEL_SERVICE_NAME")
	if serviceName == "" {
		serviceName = "photokeep"
	}

	return observability.Config{
		OtelEndpoint: config.String("OTEL_EXPORTER_OTLP_ENDPOINT"),
		ServiceName:  serviceName,
		Environment:  config.String("ENVIRONMENT"),
		OtelHeaders:  config.String("OTEL_EXPORTER_OTLP_HEADERS"),
	}
}
