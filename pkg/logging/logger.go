// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	var output io.Writer = cfg.Output
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: cfg.Output}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()

	log.Logger = logger

	return logger
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Component names used across the exporter.
const (
	ComponentExporter   = "exporter"
	ComponentWalker     = "walker"
	ComponentNormalizer = "normalizer"
	ComponentResale     = "resale"
	ComponentResellers  = "resellers"
)

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// NewRunLogger creates a component logger tagged with the id of one export run.
func NewRunLogger(component, runID string) zerolog.Logger {
	return log.With().Str("component", component).Str("run_id", runID).Logger()
}

// Log Level Guidelines:
//
// Debug: page-by-page detail
//   - Each fetched page and its cursor
//   - Resale sources that had no data
//   - Throttle waits
//
// Info: run progress
//   - Run start and end, rows exported
//   - Category finished (pages, items)
//   - Single 429 responses
//
// Warn: degraded but continuing
//   - Retry attempts
//   - Repeated 429 responses
//   - Search page without data ending a category
//   - Reseller list replaced by the error marker
//
// Error: the run stops
//   - Retries exhausted or circuit open
//   - Unexpected 4xx responses
//   - Configuration and export errors
//
// Context Fields:
//   - run_id: id of the export run
//   - endpoint: endpoint label (catalog_search, resellers, ...)
//   - status: HTTP status code
//   - error_class: client, server, rate_limit, network
//   - category: catalog category code
//   - item_id, collectible_id: item being normalized
