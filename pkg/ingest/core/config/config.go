package config

// Package config provides structures and utilities for managing application configuration.

import (
	model "github.com/tigerroll/tidewrite/pkg/ingest/core/model"
)

// EmbeddedConfig holds the content of the configuration file, typically passed from main.go.
// This is used when loading configuration from an embedded source (e.g., a compiled binary).
type EmbeddedConfig []byte

// BatchConfig holds the batch execution settings recognized by the ingestion entry point.
type BatchConfig struct {
	// MaxConcurrency bounds parallel record processing within a batch.
	MaxConcurrency int `yaml:"max_concurrency"`
	// PerRecordTimeoutMs bounds each record's individual store calls, in milliseconds.
	PerRecordTimeoutMs int `yaml:"per_record_timeout_ms"`
	// BatchTimeoutMs bounds the whole batch, in milliseconds.
	BatchTimeoutMs int `yaml:"batch_timeout_ms"`
	// MaxBatchSize is the largest accepted batch size.
	MaxBatchSize int `yaml:"max_batch_size"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the logging level (e.g., "INFO", "DEBUG").
	Level string `yaml:"level"`
}

// SystemConfig holds system-wide settings.
type SystemConfig struct {
	// Logging is the logging configuration.
	Logging LoggingConfig `yaml:"logging"`
}

// TelemetryConfig holds settings for the OpenTelemetry export pipeline.
type TelemetryConfig struct {
	// OTLPEndpoint is the OTLP collector endpoint. Empty disables export.
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	// OTLPProtocol selects the export transport: "grpc" or "http".
	OTLPProtocol string `yaml:"otlp_protocol"`
	// ServiceName overrides the reported service name.
	ServiceName string `yaml:"service_name"`
}

// InfrastructureConfig holds logical dependency settings for infrastructure components.
type InfrastructureConfig struct {
	// PrimaryRef is the adapter config name used for the primary store.
	PrimaryRef string `yaml:"primary_ref"`
	// SecondaryRef is the adapter config name used for the secondary store.
	SecondaryRef string `yaml:"secondary_ref"`
	// ReconciliationRef is the adapter config name used for the reconciliation queue.
	ReconciliationRef string `yaml:"reconciliation_ref"`
	// ArchiveRef is the storage config name used for batch audit export. Empty disables export.
	ArchiveRef string `yaml:"archive_ref"`
	// MigrateOnStart applies pending primary schema migrations during startup.
	MigrateOnStart bool `yaml:"migrate_on_start"`
}

// TidewriteConfig holds all configuration under the "tidewrite" top-level key.
type TidewriteConfig struct {
	// Batch contains batch execution settings.
	Batch BatchConfig `yaml:"batch"`
	// Schema is the record schema contract records are validated against.
	Schema model.Schema `yaml:"schema"`
	// System contains system-wide configurations.
	System SystemConfig `yaml:"system"`
	// Telemetry contains OpenTelemetry export settings.
	Telemetry TelemetryConfig `yaml:"telemetry"`
	// Infrastructure contains logical adapter bindings.
	Infrastructure InfrastructureConfig `yaml:"infrastructure"`
	// AdapterConfigs holds raw configurations for named adapters (stores, queues, storage),
	// decoded by each adapter with mapstructure.
	AdapterConfigs map[string]interface{} `yaml:"adapters"`
}

// Config is the root structure for the entire application configuration.
type Config struct {
	// Tidewrite contains the top-level configuration for the ingestion engine.
	Tidewrite TidewriteConfig `yaml:"tidewrite"`
	// EmbeddedConfig holds configuration loaded from an embedded source, not from YAML.
	EmbeddedConfig EmbeddedConfig `yaml:"-"`
}

// NewConfig returns a new instance of Config with default values.
func NewConfig() *Config {
	return &Config{
		Tidewrite: TidewriteConfig{
			Batch: BatchConfig{
				MaxConcurrency: 4,
				MaxBatchSize:   1000,
			},
			Schema: model.DefaultSchema(),
			System: SystemConfig{
				Logging: LoggingConfig{Level: "INFO"},
			},
			Telemetry: TelemetryConfig{
				OTLPProtocol: "grpc",
				ServiceName:  "tidewrite",
			},
			Infrastructure: InfrastructureConfig{
				PrimaryRef:        "primary",
				SecondaryRef:      "secondary",
				ReconciliationRef: "reconciliation",
			},
			AdapterConfigs: map[string]interface{}{},
		},
	}
}
