package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// DecodeAdapterConfig decodes the named raw adapter configuration into out.
// Each adapter owns its configuration struct; the loader keeps the raw map so
// adapters can be added without touching the core configuration types.
func DecodeAdapterConfig(cfg *Config, name string, out interface{}) error {
	namedConfig, ok := cfg.Tidewrite.AdapterConfigs[name]
	if !ok {
		return fmt.Errorf("adapter configuration '%s' not found under 'tidewrite.adapters'", name)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  out,
		TagName: "mapstructure",
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder for adapter config '%s': %w", name, err)
	}
	if err := decoder.Decode(namedConfig); err != nil {
		return fmt.Errorf("failed to decode adapter config '%s': %w", name, err)
	}
	return nil
}

// AdapterType peeks at the "type" key of the named raw adapter configuration.
func AdapterType(cfg *Config, name string) (string, error) {
	var t struct {
		Type string `mapstructure:"type"`
	}
	if err := DecodeAdapterConfig(cfg, name, &t); err != nil {
		return "", err
	}
	if t.Type == "" {
		return "", fmt.Errorf("adapter configuration '%s' has no 'type' key", name)
	}
	return t.Type, nil
}
