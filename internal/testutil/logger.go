package testutil

import (
	"io"
	"log/slog"
)

// NopLogger returns a logger that keeps test output quiet
func NopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
