// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package policy screens source text for credentials and personal data
// before it leaves the machine.
package policy

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed patterns.yaml
var embeddedPatterns []byte

// Engine holds compiled classification patterns, highest priority first.
type Engine struct {
	classifications []Classification
}

// New builds an Engine from the patterns compiled into the binary.
//
// # Outputs
//
//   - *Engine: Ready to scan.
//   - error: Only if the embedded file is malformed.
func New() (*Engine, error) {
	return NewFromYAML(embeddedPatterns)
}

// NewFromYAML builds an Engine from a pattern file.
//
// # Description
//
// Unmarshals the file, compiles every regex and sorts classifications by
// descending priority. An invalid regex or confidence value is an error.
func NewFromYAML(data []byte) (*Engine, error) {
	var file patternFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal the pattern file: %w", err)
	}
	if err := file.compile(); err != nil {
		return nil, fmt.Errorf("failed to compile a pattern: %w", err)
	}
	file.sortByPriority()
	return &Engine{classifications: file.Classifications}, nil
}

// Classify returns the name of the highest-priority classification that
// matches data, or ClassPublic.
func (e *Engine) Classify(data []byte) string {
	for _, c := range e.classifications {
		for _, p := range c.Patterns {
			if p.compiled.Match(data) {
				return c.Name
			}
		}
	}
	return ClassPublic
}

// Scan checks every line of content against every pattern.
//
// # Outputs
//
//   - []Finding: One entry per (line, pattern) hit, in line order and then
//     classification priority. Nil when nothing matched.
func (e *Engine) Scan(content string) []Finding {
	var findings []Finding
	for i, line := range strings.Split(content, "\n") {
		for _, c := range e.classifications {
			for _, p := range c.Patterns {
				if !p.compiled.MatchString(line) {
					continue
				}
				findings = append(findings, Finding{
					Line:           i + 1,
					Classification: c.Name,
					PatternID:      p.ID,
					Description:    p.Description,
					Confidence:     p.Confidence,
				})
			}
		}
	}
	return findings
}

// Only filters findings to one classification.
func Only(findings []Finding, classification string) []Finding {
	var out []Finding
	for _, f := range findings {
		if f.Classification == classification {
			out = append(out, f)
		}
	}
	return out
}
