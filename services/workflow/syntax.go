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
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/bash"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// maxSyntaxIssues caps collection on heavily malformed input.
const maxSyntaxIssues = 50

// SyntaxIssue is one ERROR or MISSING node in the parse tree.
type SyntaxIssue struct {
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Message string `json:"message"`
}

// SyntaxReport is the result of CheckSyntax.
type SyntaxReport struct {
	Language string        `json:"language"`
	Checked  bool          `json:"checked"`
	Issues   []SyntaxIssue `json:"issues"`
}

// Valid reports whether no issues were found. Unchecked languages are valid.
func (r SyntaxReport) Valid() bool {
	return len(r.Issues) == 0
}

// Feedback renders the first issue as a retry hint.
func (r SyntaxReport) Feedback() string {
	if r.Valid() {
		return ""
	}
	first := r.Issues[0]
	msg := fmt.Sprintf("the generated %s code does not parse: line %d, column %d: %s",
		r.Language, first.Line, first.Column, first.Message)
	if n := len(r.Issues) - 1; n > 0 {
		msg += fmt.Sprintf(" (and %d more)", n)
	}
	return msg
}

// SupportsSyntaxCheck reports whether a grammar exists for language.
func SupportsSyntaxCheck(language string) bool {
	return grammarFor(language) != nil
}

// CheckSyntax parses code with tree-sitter and collects syntax errors.
//
// # Description
//
// Languages without a grammar return a report with Checked=false and no
// issues. Only a parser failure (for example a cancelled context) is
// returned as an error.
//
// # Example
//
//	report, err := CheckSyntax(ctx, "python", "def f(:\n")
//	if err == nil && !report.Valid() {
//	    fmt.Println(report.Feedback())
//	}
func CheckSyntax(ctx context.Context, language, code string) (SyntaxReport, error) {
	report := SyntaxReport{Language: language, Issues: []SyntaxIssue{}}

	lang := grammarFor(language)
	if lang == nil {
		return report, nil
	}

	parser := sitter.NewParser()
	parser.SetLanguage(lang)

	content := []byte(code)
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return report, fmt.Errorf("parse %s: %w", language, err)
	}
	defer tree.Close()

	report.Checked = true
	collectSyntaxIssues(tree.RootNode(), &report.Issues, 0)
	return report, nil
}

func collectSyntaxIssues(node *sitter.Node, issues *[]SyntaxIssue, depth int) {
	if node == nil || depth > 1000 || len(*issues) >= maxSyntaxIssues {
		return
	}

	if node.IsError() || node.IsMissing() {
		point := node.StartPoint()
		msg := "unexpected syntax"
		if node.IsMissing() {
			msg = fmt.Sprintf("missing %s", node.Type())
		}
		*issues = append(*issues, SyntaxIssue{
			Line:    int(point.Row) + 1,
			Column:  int(point.Column) + 1,
			Message: msg,
		})
		// Children of an ERROR node repeat the same problem.
		if node.IsError() {
			return
		}
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		collectSyntaxIssues(node.Child(i), issues, depth+1)
	}
}

// grammarFor maps a language name or common alias to its grammar.
func grammarFor(language string) *sitter.Language {
	switch strings.ToLower(strings.TrimSpace(language)) {
	case "go", "golang":
		return golang.GetLanguage()
	case "python", "py":
		return python.GetLanguage()
	case "javascript", "js":
		return javascript.GetLanguage()
	case "typescript", "ts":
		return typescript.GetLanguage()
	case "java":
		return java.GetLanguage()
	case "rust", "rs":
		return rust.GetLanguage()
	case "c":
		return c.GetLanguage()
	case "cpp", "c++":
		return cpp.GetLanguage()
	case "bash", "sh", "shell":
		return bash.GetLanguage()
	default:
		return nil
	}
}
