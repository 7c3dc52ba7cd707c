// Package parquetexport writes sealed batch summaries as Parquet audit files
// to an archive storage connection. Each batch produces one file under a
// Hive-style partition keyed by the batch identifier.
package parquetexport

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"path"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	model "github.com/tigerroll/tidewrite/pkg/ingest/core/model"
	ports "github.com/tigerroll/tidewrite/pkg/ingest/core/ports"
	storage "github.com/tigerroll/tidewrite/pkg/ingest/storage"
	exception "github.com/tigerroll/tidewrite/pkg/ingest/support/util/exception"
	logger "github.com/tigerroll/tidewrite/pkg/ingest/support/util/logger"
)

const moduleName = "parquetexport"

// Config holds the configuration for the Parquet audit exporter.
type Config struct {
	// Bucket is the storage bucket (or local directory) receiving audit files.
	Bucket string `yaml:"bucket" mapstructure:"bucket"`
	// OutputBaseDir is the base directory within the bucket (e.g., "audit/batches").
	OutputBaseDir string `yaml:"output_base_dir" mapstructure:"output_base_dir"`
	// CompressionType is the compression type for Parquet files (e.g., "SNAPPY", "GZIP", "NONE").
	CompressionType string `yaml:"compression_type" mapstructure:"compression_type"`
}

// auditRow is the flat Parquet schema for one record result.
type auditRow struct {
	BatchID          string `parquet:"name=batch_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	RecordID         string `parquet:"name=record_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	InputIndex       int32  `parquet:"name=input_index, type=INT32"`
	PrimaryOutcome   string `parquet:"name=primary_outcome, type=BYTE_ARRAY, convertedtype=UTF8"`
	PrimaryReason    string `parquet:"name=primary_reason, type=BYTE_ARRAY, convertedtype=UTF8"`
	SecondaryOutcome string `parquet:"name=secondary_outcome, type=BYTE_ARRAY, convertedtype=UTF8"`
	SecondaryReason  string `parquet:"name=secondary_reason, type=BYTE_ARRAY, convertedtype=UTF8"`
	FinalState       string `parquet:"name=final_state, type=BYTE_ARRAY, convertedtype=UTF8"`
	Reason           string `parquet:"name=reason, type=BYTE_ARRAY, convertedtype=UTF8"`
	ExportedAt       string `parquet:"name=exported_at, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// Exporter writes batch summaries to archive storage in Parquet format.
type Exporter struct {
	cfg     Config
	archive storage.Connection
}

var _ ports.SummaryArchiver = (*Exporter)(nil)

// NoopArchiver discards summaries. Used when no archive storage is configured.
type NoopArchiver struct{}

// Archive does nothing.
func (NoopArchiver) Archive(ctx context.Context, summary model.BatchSummary) error {
	return nil
}

var _ ports.SummaryArchiver = NoopArchiver{}

// NewExporter creates a new Exporter writing through the given archive connection.
func NewExporter(cfg Config, archive storage.Connection) (*Exporter, error) {
	if cfg.OutputBaseDir == "" {
		cfg.OutputBaseDir = "audit"
	}
	if cfg.CompressionType == "" {
		cfg.CompressionType = "SNAPPY"
	}
	if archive == nil {
		return nil, exception.NewIngestError(moduleName, "archive storage connection is required", nil, false)
	}
	return &Exporter{cfg: cfg, archive: archive}, nil
}

// Archive writes all record results of a sealed summary as one Parquet file.
// The file lands under OutputBaseDir/batch_id=<id>/.
func (e *Exporter) Archive(ctx context.Context, summary model.BatchSummary) error {
	if len(summary.Results) == 0 {
		logger.Debugf("Exporter: batch '%s' has no results, skipping Parquet export.", summary.BatchID)
		return nil
	}

	compressionCodec, err := getCompressionCodec(e.cfg.CompressionType)
	if err != nil {
		return exception.NewIngestError(moduleName,
			fmt.Sprintf("invalid compression type '%s'", e.cfg.CompressionType), err, false)
	}

	exportedAt := time.Now().UTC().Format(time.RFC3339Nano)
	buf := new(bytes.Buffer)
	pw, err := writer.NewParquetWriterFromWriter(buf, new(auditRow), int64(len(summary.Results)))
	if err != nil {
		return exception.NewIngestError(moduleName,
			fmt.Sprintf("failed to create Parquet writer for batch '%s'", summary.BatchID), err, false)
	}
	pw.CompressionType = compressionCodec

	var multiErr error
	for _, res := range summary.Results {
		row := auditRow{
			BatchID:          summary.BatchID,
			RecordID:         res.ID,
			InputIndex:       int32(res.Index),
			PrimaryOutcome:   res.Primary.Kind.String(),
			PrimaryReason:    res.Primary.Reason,
			SecondaryOutcome: res.Secondary.Kind.String(),
			SecondaryReason:  res.Secondary.Reason,
			FinalState:       res.FinalState.String(),
			Reason:           res.Reason,
			ExportedAt:       exportedAt,
		}
		if err := pw.Write(row); err != nil {
			multiErr = multierror.Append(multiErr, exception.NewIngestError(moduleName,
				fmt.Sprintf("failed to write audit row for record '%s' in batch '%s'", res.ID, summary.BatchID), err, false))
		}
	}

	// WriteStop can panic inside the library, convert panics to errors.
	func() {
		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("parquet writer panicked during WriteStop for batch '%s': %v", summary.BatchID, r)
				multiErr = multierror.Append(multiErr, exception.NewIngestError(moduleName, err.Error(), err, false))
				logger.Errorf("Exporter: recovered from panic during WriteStop: %v", r)
			}
		}()
		if err := pw.WriteStop(); err != nil {
			multiErr = multierror.Append(multiErr, exception.NewIngestError(moduleName,
				fmt.Sprintf("failed to stop Parquet writer for batch '%s'", summary.BatchID), err, false))
		}
	}()
	if multiErr != nil {
		return multiErr
	}

	fileName := fmt.Sprintf("results_%s_%s.parquet", time.Now().Format("20060102150405"), randomSuffix(8))
	objectName := path.Join(e.cfg.OutputBaseDir, fmt.Sprintf("batch_id=%s", summary.BatchID), fileName)

	if err := e.archive.Upload(ctx, e.cfg.Bucket, objectName, buf, "application/octet-stream"); err != nil {
		return exception.NewIngestError(moduleName,
			fmt.Sprintf("failed to upload Parquet audit file '%s' for batch '%s'", objectName, summary.BatchID), err, true)
	}

	logger.Infof("Exporter: uploaded Parquet audit file '%s' for batch '%s' (%d rows).", objectName, summary.BatchID, len(summary.Results))
	return nil
}

// getCompressionCodec returns the Parquet compression codec from a string.
func getCompressionCodec(compressionType string) (parquet.CompressionCodec, error) {
	switch strings.ToUpper(compressionType) {
	case "SNAPPY":
		return parquet.CompressionCodec_SNAPPY, nil
	case "GZIP":
		return parquet.CompressionCodec_GZIP, nil
	case "NONE", "":
		return parquet.CompressionCodec_UNCOMPRESSED, nil
	default:
		return 0, fmt.Errorf("unsupported compression type: %s", compressionType)
	}
}

// randomSuffix generates a random string used to keep filenames unique.
func randomSuffix(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyz0123456789"
	seededRand := rand.New(rand.NewSource(time.Now().UnixNano()))
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[seededRand.Intn(len(charset))]
	}
	return string(b)
}
