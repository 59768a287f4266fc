// Package logger provides structured logging setup for the counsel service.
package logger

import (
	"log/slog"
	"os"
	"strings"

	"github.com/velumlaw/counsel/internal/config"
)

// Default async handler sizing.
const (
	asyncChanSize = 4096
	asyncWorkers  = 2
)

// Setup creates the service logger per the Logging config and installs it as
// the slog default. Output is JSON to stdout with a "service" attribute on
// every record. The returned Closer flushes buffered records on shutdown; in
// synchronous mode it is a no-op.
func Setup(cfg config.Logging) (*slog.Logger, Closer) {
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	})

	closer := Closer(nopCloser{})
	if cfg.Async {
		async := NewAsyncHandler(handler, asyncChanSize, asyncWorkers)
		handler = async
		closer = async
	}

	log := slog.New(handler).With("service", cfg.Service)
	slog.SetDefault(log)
	return log, closer
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
