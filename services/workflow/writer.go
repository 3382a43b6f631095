// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package workflow

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AleutianAI/codemedic/pkg/logging"
)

// DefaultFilePerm is the mode of written output files.
const DefaultFilePerm os.FileMode = 0o644

// WriteOutcome reports what the writer did. Failures are described in
// Message; they are never returned as errors.
type WriteOutcome struct {
	Path    string `json:"path"`
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// DeriveOutputPath inserts "_<suffix>" before the extension of path.
//
// # Inputs
//
//   - path: Input file path.
//   - suffix: Inserted after the base name, e.g. "fixed".
//   - ext: Replacement extension including the dot, or "" to keep the
//     input's extension.
//
// # Example
//
//	DeriveOutputPath("src/foo.py", "fixed", "")     // "src/foo_fixed.py"
//	DeriveOutputPath("Makefile", "edited", "")      // "Makefile_edited"
//	DeriveOutputPath("foo.py", "explained", ".md")  // "foo_explained.md"
func DeriveOutputPath(path, suffix, ext string) string {
	dir, base := filepath.Split(path)
	origExt := filepath.Ext(base)
	stem := strings.TrimSuffix(base, origExt)
	if stem == "" {
		// Dotfiles such as ".bashrc" have no extension, only a name.
		stem, origExt = base, ""
	}
	if ext == "" {
		ext = origExt
	}
	return dir + stem + "_" + suffix + ext
}

// Writer persists accepted content next to the input file.
type Writer struct {
	perm   os.FileMode
	logger *logging.Logger
}

// NewWriter creates a writer. A nil logger discards logs.
func NewWriter(logger *logging.Logger) *Writer {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Writer{perm: DefaultFilePerm, logger: logger}
}

// Write stores content at path byte for byte.
func (w *Writer) Write(path, content string) WriteOutcome {
	if path == "" {
		return WriteOutcome{Message: "no output path"}
	}
	if err := os.WriteFile(path, []byte(content), w.perm); err != nil {
		w.logger.Error("write failed", "path", path, "error", err)
		return WriteOutcome{
			Path:    path,
			Message: fmt.Sprintf("could not write %s: %v", path, err),
		}
	}
	w.logger.Info("output written", "path", path, "bytes", len(content))
	return WriteOutcome{
		Path:    path,
		OK:      true,
		Message: fmt.Sprintf("wrote %d bytes to %s", len(content), path),
	}
}
