package internal

import (
	"context"
	"errors"

	appconfig "github.com/Sokol111/eventsink/pkg/core/config"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

// NewResource creates an OpenTelemetry resource describing this service.
// Detectors that fail partially (e.g. no process owner in a container) are tolerated.
func NewResource(ctx context.Context, appCfg appconfig.AppConfig) (*resource.Resource, error) {
	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithProcess(),
		resource.WithOS(),
		resource.WithHost(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(appCfg.ServiceName),
			semconv.ServiceVersionKey.String(appCfg.ServiceVersion),
			semconv.DeploymentEnvironmentNameKey.String(appCfg.Environment),
		),
	)
	if errors.Is(err, resource.ErrPartialResource) {
		return res, nil
	}
	return res, err
}
