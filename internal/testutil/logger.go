package testutil

import (
	"io"
	"log/slog"
)

// NopLogger returns a slog.Logger that discards everything. The service
// suites pass it in wherever a component wants a structured logger.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
