package metrics

import (
	"go.uber.org/fx"
)

// Module is an Fx module that provides PrometheusRecorder and OpenTelemetryTracer.
var Module = fx.Options(
	fx.Provide(NewPrometheusRecorder),
	fx.Provide(NewOpenTelemetryTracer),
)
