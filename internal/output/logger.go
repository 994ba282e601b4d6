/*
PURPOSE:
  Provides a structured logger for rag-arena.
  Wraps slog for consistent output.

REQUIREMENTS:
  User-specified:
  - "Sane" CLI output. Not spammy; reports go to stdout, logs to stderr.

  Implementation-discovered:
  - Needs to support Info/Warn/Error levels, plus Debug behind --verbose.

ARCHITECTURE INTEGRATION:
  - Used everywhere.

ERROR HANDLING:
  - N/A

IMPLEMENTATION RULES:
  - Use `log/slog` (Go 1.21+).

USAGE:
  output.Logger.Info("message", "key", "value")

RELATED FILES:
  - All.

MAINTENANCE:
  - Configurable log levels via SetVerbose.
*/

package output

import (
	"log/slog"
	"os"
)

var Logger *slog.Logger

func init() {
	Logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
}

// SetLogger allows overriding the default logger (e.g. for testing).
func SetLogger(l *slog.Logger) {
	Logger = l
}

// SetVerbose switches the default logger to debug level.
func SetVerbose() {
	Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
