package telemetry

import (
	"go.uber.org/fx"
)

// Module is an Fx module that provides the default telemetry sink.
var Module = fx.Options(
	fx.Provide(NewLogSink),
)
