package validate

import (
	"go.uber.org/fx"

	config "github.com/tigerroll/tidewrite/pkg/ingest/core/config"
)

// NewValidatorFromConfig builds the record validator from the configured schema.
func NewValidatorFromConfig(cfg *config.Config) *Validator {
	return NewValidator(cfg.Tidewrite.Schema)
}

// Module is the Fx module providing the record validator.
var Module = fx.Options(
	fx.Provide(NewValidatorFromConfig),
)
