// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package logging

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// LogExporter is an extra destination for log records.
//
// Export runs synchronously inside the slog call, so it must be
// quick and safe for concurrent use. Flush and Close run once, from
// Logger.Close.
type LogExporter interface {
	Export(ctx context.Context, entry LogEntry) error
	Flush(ctx context.Context) error
	Close() error
}

// LogEntry is one record as an exporter sees it. Attrs holds resolved
// values, so integers arrive as int64.
type LogEntry struct {
	Timestamp time.Time
	Level     Level
	Message   string
	Service   string
	Attrs     map[string]any
}

func (e *LogEntry) add(prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	key := a.Key
	if prefix != "" && key != "" {
		key = prefix + "." + key
	}
	if a.Value.Kind() == slog.KindGroup {
		if key == "" {
			key = prefix
		}
		for _, ga := range a.Value.Group() {
			e.add(key, ga)
		}
		return
	}
	e.Attrs[key] = a.Value.Any()
}

// BufferedExporter keeps entries in memory for tests.
//
//	exporter := logging.NewBufferedExporter()
//	logger := logging.New(logging.Config{Quiet: true, Exporter: exporter})
//	logger.Warn("response field rejected", "field", "code")
//	hits := exporter.Find("response field rejected")
type BufferedExporter struct {
	mu      sync.Mutex
	entries []LogEntry
}

func NewBufferedExporter() *BufferedExporter {
	return &BufferedExporter{}
}

func (b *BufferedExporter) Export(_ context.Context, entry LogEntry) error {
	b.mu.Lock()
	b.entries = append(b.entries, entry)
	b.mu.Unlock()
	return nil
}

func (b *BufferedExporter) Flush(context.Context) error { return nil }

func (b *BufferedExporter) Close() error { return nil }

// Entries returns a copy of everything exported so far.
func (b *BufferedExporter) Entries() []LogEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.entries)
}

// Find returns the entries whose message is msg.
func (b *BufferedExporter) Find(msg string) []LogEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	var hits []LogEntry
	for _, e := range b.entries {
		if e.Message == msg {
			hits = append(hits, e)
		}
	}
	return hits
}

var _ LogExporter = (*BufferedExporter)(nil)
