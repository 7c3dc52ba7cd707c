package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/tigerroll/tidewrite/pkg/ingest/support/util/exception"
	"github.com/tigerroll/tidewrite/pkg/ingest/support/util/logger"

	"go.uber.org/fx"
)

const moduleName = "config"

// ConfigParams defines the dependencies for NewConfigProvider.
type ConfigParams struct {
	fx.In
	EmbeddedConfig EmbeddedConfig // EmbeddedConfig contains the raw bytes of the configuration file.
	EnvFilePath    string         `name:"envFilePath" optional:"true"` // EnvFilePath is the path to the .env file, if any.
}

// loadConfig loads configuration from a file and environment variables.
// This function is intended to be called only once during application startup.
//
// Parameters:
//   envFilePath: The path to the .env file.
//   embeddedConfig: The embedded configuration bytes.
// Returns:
//   A pointer to the loaded Config and an error if loading fails.
func loadConfig(envFilePath string, embeddedConfig EmbeddedConfig) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			logger.Warnf(".env file (%s) not found or could not be loaded: %v", envFilePath, err)
		}
	} else {
		if err := godotenv.Load(); err != nil {
			logger.Debugf(".env file not found or could not be loaded: %v", err)
		}
	}

	// 1. Load defaults from NewConfig()
	cfg := NewConfig()

	// 2. Load configuration from the YAML source, expanding ${VAR} references
	// from the environment first, into a temporary Config struct.
	var yamlConfig Config
	expanded := os.ExpandEnv(string(embeddedConfig))
	if err := yaml.Unmarshal([]byte(expanded), &yamlConfig); err != nil {
		return nil, exception.NewIngestError(moduleName, "failed to unmarshal embedded config", err, false)
	}

	// 3. Merge YAML configuration into the default configuration.
	mergeConfig(cfg, &yamlConfig)

	// 4. Override with well-known environment variables.
	applyEnvOverrides(cfg)

	return cfg, nil
}

// NewConfigProvider is an Fx provider that loads and provides *Config.
// It initializes the application configuration by loading defaults,
// merging from embedded YAML, and overriding with environment variables.
// It also sets the global logger level.
//
// Parameters:
//   params: ConfigParams containing dependencies like embedded config and env file path.
// Returns:
//   A pointer to the initialized Config and an error if configuration loading fails.
func NewConfigProvider(params ConfigParams) (*Config, error) {
	cfg, err := loadConfig(params.EnvFilePath, params.EmbeddedConfig)
	if err != nil {
		return nil, err
	}

	logger.SetLogLevel(cfg.Tidewrite.System.Logging.Level)
	logger.Infof("Log level set to: %s", cfg.Tidewrite.System.Logging.Level)

	return cfg, nil
}

// LoadConfig loads configuration from configuration files and environment variables.
// This function is expected to be called only once during application startup.
//
// Parameters:
//   envFilePath: The path to the .env file.
//   embeddedConfig: The embedded configuration bytes.
// Returns:
//   A pointer to the loaded Config and an error if loading fails.
func LoadConfig(envFilePath string, embeddedConfig EmbeddedConfig) (*Config, error) {
	return loadConfig(envFilePath, embeddedConfig)
}

// mergeConfig performs a deep merge from sourceConfig into destConfig.
// Values in sourceConfig will overwrite corresponding values in destConfig
// if they are not zero/empty values for their type.
//
// Parameters:
//   destConfig: The destination Config to merge into.
//   sourceConfig: The source Config to merge from.
func mergeConfig(destConfig, sourceConfig *Config) {
	mergeTidewriteConfig(&destConfig.Tidewrite, &sourceConfig.Tidewrite)
}

// mergeTidewriteConfig merges source into dest.
//
// Parameters:
//   dest: The destination TidewriteConfig to merge into.
//   source: The source TidewriteConfig to merge from.
func mergeTidewriteConfig(dest, source *TidewriteConfig) {
	// Merge BatchConfig
	if source.Batch.MaxConcurrency != 0 {
		dest.Batch.MaxConcurrency = source.Batch.MaxConcurrency
	}
	if source.Batch.PerRecordTimeoutMs != 0 {
		dest.Batch.PerRecordTimeoutMs = source.Batch.PerRecordTimeoutMs
	}
	if source.Batch.BatchTimeoutMs != 0 {
		dest.Batch.BatchTimeoutMs = source.Batch.BatchTimeoutMs
	}
	if source.Batch.MaxBatchSize != 0 {
		dest.Batch.MaxBatchSize = source.Batch.MaxBatchSize
	}

	// Merge Schema; a declared schema replaces the default wholesale.
	if len(source.Schema.StatusValues) != 0 || len(source.Schema.Fields) != 0 {
		dest.Schema = source.Schema
	}

	// Merge SystemConfig
	if source.System.Logging.Level != "" {
		dest.System.Logging.Level = source.System.Logging.Level
	}

	// Merge TelemetryConfig
	if source.Telemetry.OTLPEndpoint != "" {
		dest.Telemetry.OTLPEndpoint = source.Telemetry.OTLPEndpoint
	}
	if source.Telemetry.OTLPProtocol != "" {
		dest.Telemetry.OTLPProtocol = source.Telemetry.OTLPProtocol
	}
	if source.Telemetry.ServiceName != "" {
		dest.Telemetry.ServiceName = source.Telemetry.ServiceName
	}

	// Merge InfrastructureConfig
	if source.Infrastructure.PrimaryRef != "" {
		dest.Infrastructure.PrimaryRef = source.Infrastructure.PrimaryRef
	}
	if source.Infrastructure.SecondaryRef != "" {
		dest.Infrastructure.SecondaryRef = source.Infrastructure.SecondaryRef
	}
	if source.Infrastructure.ReconciliationRef != "" {
		dest.Infrastructure.ReconciliationRef = source.Infrastructure.ReconciliationRef
	}
	if source.Infrastructure.ArchiveRef != "" {
		dest.Infrastructure.ArchiveRef = source.Infrastructure.ArchiveRef
	}
	if source.Infrastructure.MigrateOnStart {
		dest.Infrastructure.MigrateOnStart = true
	}

	// Merge AdapterConfigs (this is the critical part for store configs)
	if source.AdapterConfigs != nil {
		if dest.AdapterConfigs == nil {
			dest.AdapterConfigs = make(map[string]interface{})
		}
		for key, value := range source.AdapterConfigs {
			dest.AdapterConfigs[key] = value
		}
	}
}

// applyEnvOverrides overrides well-known settings from TIDEWRITE_* environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TIDEWRITE_LOG_LEVEL"); v != "" {
		cfg.Tidewrite.System.Logging.Level = v
	}
	if v := os.Getenv("TIDEWRITE_MAX_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Tidewrite.Batch.MaxConcurrency = n
		} else {
			logger.Warnf("Ignoring invalid TIDEWRITE_MAX_CONCURRENCY value '%s': %v", v, err)
		}
	}
	if v := os.Getenv("TIDEWRITE_MAX_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Tidewrite.Batch.MaxBatchSize = n
		} else {
			logger.Warnf("Ignoring invalid TIDEWRITE_MAX_BATCH_SIZE value '%s': %v", v, err)
		}
	}
	if v := os.Getenv("TIDEWRITE_BATCH_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Tidewrite.Batch.BatchTimeoutMs = n
		} else {
			logger.Warnf("Ignoring invalid TIDEWRITE_BATCH_TIMEOUT_MS value '%s': %v", v, err)
		}
	}
	if v := os.Getenv("TIDEWRITE_OTLP_ENDPOINT"); v != "" {
		cfg.Tidewrite.Telemetry.OTLPEndpoint = v
	}
}

// Module is an Fx module that provides the application configuration.
var Module = fx.Options(
	fx.Provide(NewConfigProvider),
)
