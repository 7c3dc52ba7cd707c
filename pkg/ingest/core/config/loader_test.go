package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/tigerroll/tidewrite/pkg/ingest/core/config"
)

const testYAML = `
tidewrite:
  batch:
    max_concurrency: 8
    batch_timeout_ms: 60000
  schema:
    max_id_length: 64
    status_values:
      - Open
      - Closed
    fields:
      - name: title
        type: STRING
        required: true
  system:
    logging:
      level: DEBUG
  infrastructure:
    primary_ref: pg_main
    migrate_on_start: true
  adapters:
    pg_main:
      type: postgres
      host: localhost
      port: 5432
      database: tidewrite
`

func TestLoadConfig_MergesYAMLOverDefaults(t *testing.T) {
	cfg, err := config.LoadConfig("", config.EmbeddedConfig(testYAML))
	require.NoError(t, err)

	// Declared values win.
	assert.Equal(t, 8, cfg.Tidewrite.Batch.MaxConcurrency)
	assert.Equal(t, 60000, cfg.Tidewrite.Batch.BatchTimeoutMs)
	assert.Equal(t, "DEBUG", cfg.Tidewrite.System.Logging.Level)
	assert.Equal(t, "pg_main", cfg.Tidewrite.Infrastructure.PrimaryRef)
	assert.True(t, cfg.Tidewrite.Infrastructure.MigrateOnStart)

	// Undeclared values keep their defaults.
	assert.Equal(t, 1000, cfg.Tidewrite.Batch.MaxBatchSize)
	assert.Equal(t, "secondary", cfg.Tidewrite.Infrastructure.SecondaryRef)
	assert.Equal(t, "grpc", cfg.Tidewrite.Telemetry.OTLPProtocol)
}

func TestLoadConfig_SchemaReplacesDefaultWholesale(t *testing.T) {
	cfg, err := config.LoadConfig("", config.EmbeddedConfig(testYAML))
	require.NoError(t, err)

	assert.Equal(t, []string{"Open", "Closed"}, cfg.Tidewrite.Schema.StatusValues)
	assert.Equal(t, 64, cfg.Tidewrite.Schema.MaxIDLength)
	require.Len(t, cfg.Tidewrite.Schema.Fields, 1)
	assert.Equal(t, "title", cfg.Tidewrite.Schema.Fields[0].Name)
}

func TestLoadConfig_EmptyYAMLKeepsDefaults(t *testing.T) {
	cfg, err := config.LoadConfig("", config.EmbeddedConfig(""))
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Tidewrite.Batch.MaxConcurrency)
	assert.Equal(t, 1000, cfg.Tidewrite.Batch.MaxBatchSize)
	assert.Equal(t, "INFO", cfg.Tidewrite.System.Logging.Level)
	assert.Equal(t, "primary", cfg.Tidewrite.Infrastructure.PrimaryRef)
	assert.Equal(t, []string{"Active", "Inactive"}, cfg.Tidewrite.Schema.StatusValues)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("TIDEWRITE_LOG_LEVEL", "WARN")
	t.Setenv("TIDEWRITE_MAX_CONCURRENCY", "16")
	t.Setenv("TIDEWRITE_MAX_BATCH_SIZE", "500")

	cfg, err := config.LoadConfig("", config.EmbeddedConfig(testYAML))
	require.NoError(t, err)

	assert.Equal(t, "WARN", cfg.Tidewrite.System.Logging.Level)
	assert.Equal(t, 16, cfg.Tidewrite.Batch.MaxConcurrency)
	assert.Equal(t, 500, cfg.Tidewrite.Batch.MaxBatchSize)
}

func TestLoadConfig_ExpandsEnvReferences(t *testing.T) {
	t.Setenv("TEST_DB_HOST", "db.internal")

	yamlWithRef := `
tidewrite:
  adapters:
    primary:
      type: postgres
      host: ${TEST_DB_HOST}
`
	cfg, err := config.LoadConfig("", config.EmbeddedConfig(yamlWithRef))
	require.NoError(t, err)

	var dbCfg struct {
		Host string `mapstructure:"host"`
	}
	require.NoError(t, config.DecodeAdapterConfig(cfg, "primary", &dbCfg))
	assert.Equal(t, "db.internal", dbCfg.Host)
}

func TestDecodeAdapterConfig_UnknownName(t *testing.T) {
	cfg, err := config.LoadConfig("", config.EmbeddedConfig(testYAML))
	require.NoError(t, err)

	var out struct{}
	err = config.DecodeAdapterConfig(cfg, "nope", &out)
	assert.Error(t, err)
}

func TestAdapterType(t *testing.T) {
	cfg, err := config.LoadConfig("", config.EmbeddedConfig(testYAML))
	require.NoError(t, err)

	typ, err := config.AdapterType(cfg, "pg_main")
	require.NoError(t, err)
	assert.Equal(t, "postgres", typ)
}
