// Package util holds process plumbing shared by the CLI and the TUI: the
// structured logger and the per-user data directory.
package util

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// NewLogger returns a logger writing to w at level ("debug", "info", "warn",
// "error"). An unknown level falls back to warn.
func NewLogger(w io.Writer, level string) *log.Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "capsule",
	})
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = log.WarnLevel
	}
	l.SetLevel(lvl)
	return l
}

// OpenLogFile opens (appending) name inside dir, creating dir when needed.
// The TUI logs here while it owns the terminal.
func OpenLogFile(dir, name string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// LogError logs err with context if it is non-nil.
func LogError(l *log.Logger, context string, err error) {
	if err != nil && l != nil {
		l.Error(context, "err", err)
	}
}
