package loadgen

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/okian/podium/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "load_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the load generator.
func ShowHelp() {
	os.Stdout.WriteString(`Podium Load Generator
=====================

A concurrent tool for exercising the Podium ranking service end to end:
it submits evaluated attempts, triggers a reindex sweep, and verifies the
resulting leaderboards.

Usage:
  go run cmd/load-gen/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -attempts int
        Number of attempts to generate and submit (default 10000)
  -challenges int
        Number of challenges to spread attempts over (default 10)
  -top int
        Number of top entries to fetch per leaderboard (default 50)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -admin-token string
        Token for the reindex trigger (or PODIUM_ADMIN_TOKEN)
  -output string
        Output file for generated attempts (default: generated_attempts_TIMESTAMP.json)
  -log string
        Log file for run output (default: load_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Run with default settings
  go run cmd/load-gen/main.go -admin-token sekrit

  # Run with custom parameters
  go run cmd/load-gen/main.go -attempts 50000 -challenges 25 -workers 16
`)
}
