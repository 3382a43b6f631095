// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AleutianAI/codemedic/pkg/ux"
	"github.com/AleutianAI/codemedic/services/workflow"
)

// maxSourceBytes bounds the input file so that prompts stay reasonable.
const maxSourceBytes = 256 * 1024

// language is one entry of the language picker.
type language struct {
	name  string
	label string
	exts  []string
}

var languages = []language{
	{"python", "Python", []string{".py", ".pyi"}},
	{"go", "Go", []string{".go"}},
	{"javascript", "JavaScript", []string{".js", ".jsx", ".mjs", ".cjs"}},
	{"typescript", "TypeScript", []string{".ts", ".tsx", ".mts", ".cts"}},
	{"java", "Java", []string{".java"}},
	{"rust", "Rust", []string{".rs"}},
	{"c", "C", []string{".c", ".h"}},
	{"cpp", "C++", []string{".cpp", ".cc", ".cxx", ".hpp", ".hh"}},
	{"bash", "Shell", []string{".sh", ".bash"}},
	{"ruby", "Ruby", []string{".rb"}},
	{"php", "PHP", []string{".php"}},
	{"csharp", "C#", []string{".cs"}},
	{"kotlin", "Kotlin", []string{".kt", ".kts"}},
	{"swift", "Swift", []string{".swift"}},
}

// detectLanguage maps a file extension to a language name, or "".
func detectLanguage(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return ""
	}
	for _, l := range languages {
		for _, e := range l.exts {
			if e == ext {
				return l.name
			}
		}
	}
	return ""
}

// validateSourcePath checks that path names a readable, non-empty regular
// file no larger than maxSourceBytes.
func validateSourcePath(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("a file path is required")
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s does not exist", path)
		}
		return fmt.Errorf("cannot access %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%s is empty", path)
	}
	if info.Size() > maxSourceBytes {
		return fmt.Errorf("%s is %d bytes; the limit is %d", path, info.Size(), maxSourceBytes)
	}
	return nil
}

// collectRequest holds what the command line already supplied.
type collectRequest struct {
	kind        workflow.Kind
	path        string
	language    string
	description string
}

// collectedInput is everything a session needs.
type collectedInput struct {
	path        string
	language    string
	source      string
	description string
}

// collector fills in whatever the command line left out, prompting when
// the terminal is interactive.
type collector struct {
	prompter    ux.Prompter
	interactive bool
}

// collect gathers file path, language and description.
//
// # Description
//
// Values supplied on the command line skip their prompt. In a
// non-interactive session a missing required value is a *UsageError.
func (c *collector) collect(req collectRequest) (*collectedInput, error) {
	path, err := c.collectPath(req.path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	lang, err := c.collectLanguage(path, req.language)
	if err != nil {
		return nil, err
	}

	desc, err := c.collectDescription(req.kind, req.description)
	if err != nil {
		return nil, err
	}

	return &collectedInput{
		path:        path,
		language:    lang,
		source:      string(data),
		description: desc,
	}, nil
}

func (c *collector) collectPath(given string) (string, error) {
	given = strings.TrimSpace(given)
	if given != "" {
		if err := validateSourcePath(given); err != nil {
			return "", usageErrorf("%v", err)
		}
		return given, nil
	}
	if !c.interactive {
		return "", usageErrorf("missing file argument")
	}
	path, err := c.prompter.Input("Source file", "path/to/file.py", validateSourcePath)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(path), nil
}

func (c *collector) collectLanguage(path, given string) (string, error) {
	if given = strings.TrimSpace(given); given != "" {
		return strings.ToLower(given), nil
	}
	detected := detectLanguage(path)
	if !c.interactive {
		if detected == "" {
			return "", usageErrorf("cannot detect the language of %s; pass --language", filepath.Base(path))
		}
		return detected, nil
	}

	options := make([]ux.PromptOption, 0, len(languages))
	for _, l := range languages {
		options = append(options, ux.PromptOption{
			Label:       l.label,
			Value:       l.name,
			Recommended: l.name == detected,
		})
	}
	return c.prompter.Select("Language", options)
}

func (c *collector) collectDescription(kind workflow.Kind, given string) (string, error) {
	if given = strings.TrimSpace(given); given != "" {
		return given, nil
	}

	var (
		title, placeholder string
		required           = true
	)
	switch kind {
	case workflow.KindEdit:
		title, placeholder = "What should be added?", "e.g. support reading input from stdin"
	case workflow.KindFix:
		title, placeholder = "What goes wrong?", "Paste the error message or describe the wrong behaviour"
	default:
		title, placeholder = "Anything to focus on? (optional)", "Leave empty for a general explanation"
		required = false
	}

	if !c.interactive {
		if required {
			return "", usageErrorf("%s needs --description", kind)
		}
		return "", nil
	}
	desc, err := c.prompter.Text(title, placeholder, required)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(desc), nil
}
