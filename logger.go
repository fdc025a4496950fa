// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package g3d

import (
	"log/slog"

	"github.com/gogpu/g3d/internal/logging"
)

// SetLogger configures the logger for g3d and all its sub-packages.
// By default, g3d produces no log output. Call SetLogger to enable logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by g3d:
//   - [slog.LevelDebug]: per-frame detail (acquired image, slot waits, re-records)
//   - [slog.LevelInfo]: lifecycle events (device opened, swapchain and pipeline rebuilt)
//   - [slog.LevelWarn]: stalled slot waits, shader reload failures
//   - [slog.LevelError]: the fatal error that terminates the engine
//
// Example:
//
//	// Enable info-level logging to stderr:
//	g3d.SetLogger(slog.Default())
//
//	// Enable debug-level logging for full diagnostics:
//	g3d.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	logging.Set(l)
}

// Logger returns the current logger used by g3d.
// The returned logger is never nil.
func Logger() *slog.Logger {
	return logging.Logger()
}
