package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "embed"

	"go.uber.org/fx"

	logger "github.com/tigerroll/tidewrite/pkg/ingest/support/util/logger"
)

// embeddedConfig holds the application YAML configuration compiled into the binary.
//
//go:embed resources/application.yaml
var embeddedConfig []byte

// main is the application entry point. It reads a batch of raw records from a
// JSON file, runs it through the ingestion engine and prints the sealed
// summary as JSON on stdout.
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Warnf("Received signal '%v'. Attempting to stop the batch...", sig)
		cancel()
	}()

	envFilePath := os.Getenv("ENV_FILE_PATH")
	if envFilePath == "" {
		envFilePath = ".env"
	}

	batchFilePath := os.Getenv("TIDEWRITE_BATCH_FILE")
	if len(os.Args) > 1 {
		batchFilePath = os.Args[1]
	}
	if batchFilePath == "" {
		logger.Fatalf("No batch file given. Pass a JSON file as the first argument or set TIDEWRITE_BATCH_FILE.")
	}

	fxApp := fx.New(GetApplicationOptions(ctx, envFilePath, batchFilePath, embeddedConfig)...)
	fxApp.Run()
	if fxApp.Err() != nil {
		logger.Fatalf("Application run failed: %v", fxApp.Err())
	}
	os.Exit(0)
}
