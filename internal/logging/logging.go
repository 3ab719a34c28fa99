// SPDX-License-Identifier: MPL-2.0

// Package logging installs the process-wide slog handler: a charmbracelet/log
// logger on stderr, optionally fanned out to a JSON log file.
package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	slogmulti "github.com/samber/slog-multi"
)

const prefix = "vivi"

// Options configures Setup.
type Options struct {
	// Writer receives human-readable records; defaults to os.Stderr.
	Writer io.Writer
	// Verbose lowers the terminal level from warn to debug.
	Verbose bool
	// File, when set, receives every record at debug level as JSON.
	File string
}

// Logger is a configured slog logger and the resources backing it.
type Logger struct {
	*slog.Logger

	terminal *log.Logger
	file     *os.File
}

// New builds a logger from opts without installing it.
func New(opts Options) (*Logger, error) {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	level := log.WarnLevel
	if opts.Verbose {
		level = log.DebugLevel
	}

	terminal := log.NewWithOptions(w, log.Options{
		Prefix: prefix,
		Level:  level,
	})

	handlers := []slog.Handler{terminal}

	var file *os.File
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		file = f
		handlers = append(handlers, log.NewWithOptions(f, log.Options{
			Level:           log.DebugLevel,
			Formatter:       log.JSONFormatter,
			ReportTimestamp: true,
		}))
	}

	return &Logger{
		Logger:   slog.New(slogmulti.Fanout(handlers...)),
		terminal: terminal,
		file:     file,
	}, nil
}

// Setup builds a logger from opts and makes it the slog default.
func Setup(opts Options) (*Logger, error) {
	l, err := New(opts)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(l.Logger)
	return l, nil
}

// SetVerbose switches the terminal level between warn and debug.
func (l *Logger) SetVerbose(verbose bool) {
	if verbose {
		l.terminal.SetLevel(log.DebugLevel)
		return
	}
	l.terminal.SetLevel(log.WarnLevel)
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	if err != nil && !errors.Is(err, os.ErrClosed) {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	return nil
}
