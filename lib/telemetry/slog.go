package telemetry

import (
	"log/slog"
	"os"
)

// InitSlog installs the default text logger. Logs always go to stderr:
// stdout is reserved for the wire protocol and a single stray log line
// there would corrupt a response.
func InitSlog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}
