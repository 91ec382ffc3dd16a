// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps a slog.Logger so that the rest of the application does not depend on the
// concrete handler setup.
type Logger struct {
	*slog.Logger
}

// New returns a Logger that writes text records at or above level to stderr.
func New(level slog.Level) *Logger {
	return NewLogger(level, os.Stderr)
}

// NewLogger returns a Logger that writes text records at or above level to output.
func NewLogger(level slog.Level, output io.Writer) *Logger {
	return &Logger{slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: level}))}
}

// Debugging reports whether debug records are written.
func (l *Logger) Debugging() bool {
	return l.Enabled(context.Background(), slog.LevelDebug)
}

// Err returns the error as a slog attribute with the key "error".
func Err(err error) slog.Attr {
	return slog.Any("error", err)
}
