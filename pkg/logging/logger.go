// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package logging builds the slog logger codemedic writes its diagnostics to.
//
// The terminal belongs to prompts, spinners and rendered results, so records
// go to a daily JSON file by default. --verbose adds a stderr handler, and
// tests attach a LogExporter that sees every record synchronously:
//
//	slog.Logger
//	  └── fanout
//	        ├── stderr   (verbose only, text or JSON)
//	        ├── log file (JSON, one per service and day)
//	        └── exporter (tests)
//
// # Basic Usage
//
//	logger := logging.New(logging.Config{
//	    Level:   logging.LevelInfo,
//	    LogDir:  "~/.codemedic/logs",
//	    Service: "codemedic",
//	    Quiet:   true,
//	})
//	defer logger.Close()
//
//	logger.Info("workflow started", "session_id", s.ID, "kind", s.Kind)
//
// # Security Considerations
//
// Nothing is redacted here. Log the presence or length of API keys and
// source text, never the values.
package logging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Level is slog's severity type; the constants below are the four codemedic
// uses.
type Level = slog.Level

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// ParseLevel maps the logging.level config value to a Level. Unknown and
// empty values give LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	}
	return LevelInfo
}

// Config selects where records go.
type Config struct {
	// Level is the minimum level for every destination.
	Level Level

	// LogDir enables "{Service}_{YYYY-MM-DD}.log" JSON files in this
	// directory (created 0750, ~ expanded). Failure to open is not fatal.
	LogDir string

	// Service is attached to every record. Also names the log file.
	Service string

	// JSON formats stderr output as JSON instead of text.
	JSON bool

	// Quiet drops the stderr handler.
	Quiet bool

	// Exporter receives every enabled record.
	Exporter LogExporter
}

// Logger wraps a slog.Logger together with the resources its handlers own.
//
// Children made with With share those resources; only the root is closed.
type Logger struct {
	*slog.Logger
	res *resources
}

type resources struct {
	file     *os.File
	exporter LogExporter
}

// New assembles a Logger from config.
//
// # Outputs
//
//   - *Logger: Never nil. With Quiet, no LogDir and no Exporter every record
//     is discarded.
func New(config Config) *Logger {
	opts := &slog.HandlerOptions{Level: config.Level}
	res := &resources{exporter: config.Exporter}

	var sinks []slog.Handler
	if !config.Quiet {
		if config.JSON {
			sinks = append(sinks, slog.NewJSONHandler(os.Stderr, opts))
		} else {
			sinks = append(sinks, slog.NewTextHandler(os.Stderr, opts))
		}
	}
	if config.LogDir != "" {
		if f, err := openLogFile(config.LogDir, config.Service, time.Now()); err == nil {
			res.file = f
			sinks = append(sinks, slog.NewJSONHandler(f, opts))
		}
	}
	if config.Exporter != nil {
		sinks = append(sinks, &exportHandler{exporter: config.Exporter, level: config.Level})
	}

	var h slog.Handler = slog.DiscardHandler
	switch len(sinks) {
	case 0:
	case 1:
		h = sinks[0]
	default:
		h = fanout(sinks)
	}
	if config.Service != "" {
		h = h.WithAttrs([]slog.Attr{slog.String("service", config.Service)})
	}
	return &Logger{Logger: slog.New(h), res: res}
}

// Nop discards everything. Components fall back to it when given no logger.
func Nop() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler), res: &resources{}}
}

// With returns a child carrying args on every record.
//
//	sessionLog := logger.With("session_id", s.ID, "kind", s.Kind)
//	sessionLog.Info("generation requested", "attempt", s.Attempts+1)
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...), res: l.res}
}

// Slog returns the underlying slog.Logger, for slog.SetDefault.
func (l *Logger) Slog() *slog.Logger {
	return l.Logger
}

// Close flushes and closes the exporter, then syncs and closes the log file.
// A second call is a no-op.
func (l *Logger) Close() error {
	var errs []error
	if ex := l.res.exporter; ex != nil {
		l.res.exporter = nil
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := ex.Flush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flush exporter: %w", err))
		}
		if err := ex.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close exporter: %w", err))
		}
	}
	if f := l.res.file; f != nil {
		l.res.file = nil
		if err := f.Sync(); err != nil {
			errs = append(errs, fmt.Errorf("sync log file: %w", err))
		}
		if err := f.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close log file: %w", err))
		}
	}
	return errors.Join(errs...)
}

func openLogFile(dir, service string, day time.Time) (*os.File, error) {
	dir = ExpandPath(dir)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, err
	}
	if service == "" {
		service = "codemedic"
	}
	name := service + "_" + day.Format(time.DateOnly) + ".log"
	return os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
}

// ExpandPath replaces a leading "~" with the user's home directory.
func ExpandPath(path string) string {
	rest, ok := strings.CutPrefix(path, "~")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}
