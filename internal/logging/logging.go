// Package logging provides the shared structured logger for the service
// binaries.
package logging

import (
	"log/slog"
	"os"
)

// New returns a JSON slog logger writing to stderr. Lambda collects stderr
// lines into the function's log group.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
