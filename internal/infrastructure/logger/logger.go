// Package logger builds the service-wide zerolog root logger. Components
// derive their own logger from it with a "component" field
// (log.With().Str("component", "run-orchestrator")), so every line carries
// service, environment and component.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"docbot/internal/config"
)

// New creates the root logger. Production writes plain JSON for log
// shippers; every other environment gets the human-readable console writer.
func New(cfg *config.Config) zerolog.Logger {
	var out io.Writer = os.Stdout
	if cfg.Environment != "production" {
		out = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	}

	return zerolog.New(out).
		Level(parseLevel(cfg.LogLevel)).
		With().
		Timestamp().
		Str("service", cfg.ServiceName).
		Str("environment", cfg.Environment).
		Logger()
}

// parseLevel maps the configured level name to a zerolog level, falling back
// to info on anything unrecognized.
func parseLevel(raw string) zerolog.Level {
	if raw == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(raw))
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
