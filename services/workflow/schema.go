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
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/AleutianAI/codemedic/services/llm"
)

// MaxPayloadFieldBytes bounds any single text field of a model payload.
const MaxPayloadFieldBytes = 64 * 1024

// =============================================================================
// Shared Validator Instance
// =============================================================================

// payloadValidator validates model payloads and sessions. Field names in
// errors are the JSON names the model sees.
var payloadValidator *validator.Validate

func init() {
	payloadValidator = validator.New(validator.WithRequiredStructEnabled())
	payloadValidator.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = payloadValidator.RegisterValidation("maxbytes", validateMaxBytes)
}

// validateMaxBytes checks byte length, not rune count.
func validateMaxBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxPayloadFieldBytes
}

// =============================================================================
// Payloads
// =============================================================================

// ExplanationPayload is the explain generator's response.
type ExplanationPayload struct {
	Explanation string `json:"explanation" validate:"required,maxbytes"`
	Summary     string `json:"summary" validate:"required,maxbytes"`
}

// EditPayload is the edit generator's response.
type EditPayload struct {
	Code    string `json:"code" validate:"required,maxbytes"`
	Summary string `json:"summary" validate:"required,maxbytes"`
}

// FixPayload is the fix generator's response.
type FixPayload struct {
	Code        string `json:"code" validate:"required,maxbytes"`
	Explanation string `json:"explanation" validate:"required,maxbytes"`
}

// VerdictPayload is the judge's response. Pass is a pointer so that an
// explicit false is distinguishable from a missing field.
type VerdictPayload struct {
	Pass     *bool  `json:"pass" validate:"required"`
	Feedback string `json:"feedback" validate:"required,maxbytes"`
}

// =============================================================================
// JSON Schemas
// =============================================================================

func objectSchema(name, description string, fields map[string]jsonschema.Definition) *llm.ResponseSchema {
	required := make([]string, 0, len(fields))
	for k := range fields {
		required = append(required, k)
	}
	slices.Sort(required)
	return &llm.ResponseSchema{
		Name:        name,
		Description: description,
		Definition: jsonschema.Definition{
			Type:                 jsonschema.Object,
			Properties:           fields,
			Required:             required,
			AdditionalProperties: false,
		},
	}
}

var (
	explanationSchema = objectSchema("explanation", "Explanation of a source file", map[string]jsonschema.Definition{
		"explanation": {Type: jsonschema.String, Description: "Markdown explanation of what the code does and how"},
		"summary":     {Type: jsonschema.String, Description: "One-sentence summary"},
	})

	editSchema = objectSchema("edit", "Complete edited source file", map[string]jsonschema.Definition{
		"code":    {Type: jsonschema.String, Description: "The full updated file content, no markdown fences"},
		"summary": {Type: jsonschema.String, Description: "Short description of the change"},
	})

	fixSchema = objectSchema("fix", "Complete fixed source file", map[string]jsonschema.Definition{
		"code":        {Type: jsonschema.String, Description: "The full fixed file content, no markdown fences"},
		"explanation": {Type: jsonschema.String, Description: "What was wrong and how it was fixed"},
	})

	verdictSchema = objectSchema("verdict", "Pass/fail judgment of a candidate", map[string]jsonschema.Definition{
		"pass":     {Type: jsonschema.Boolean, Description: "true if the candidate fully satisfies the task"},
		"feedback": {Type: jsonschema.String, Description: "Concrete problems to fix, or a short confirmation"},
	})
)

// =============================================================================
// Decoding
// =============================================================================

// FieldIssue is one rejected field of a payload.
type FieldIssue struct {
	Field string
	Rule  string
	Param string
}

// String renders the issue as a retry hint.
func (f FieldIssue) String() string {
	switch f.Rule {
	case "json":
		return "response was not a valid JSON object: " + f.Param
	case "required":
		return fmt.Sprintf("field %q is required and must be non-empty", f.Field)
	case "required_unless":
		return fmt.Sprintf("field %q is required for this task", f.Field)
	case "maxbytes":
		return fmt.Sprintf("field %q exceeds %d bytes", f.Field, MaxPayloadFieldBytes)
	default:
		if f.Param != "" {
			return fmt.Sprintf("field %q failed %s=%s", f.Field, f.Rule, f.Param)
		}
		return fmt.Sprintf("field %q failed %s", f.Field, f.Rule)
	}
}

// PayloadError reports a structurally invalid model response.
type PayloadError struct {
	Schema string
	Issues []FieldIssue
}

func (e *PayloadError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.String())
	}
	return fmt.Sprintf("invalid %s response: %s", e.Schema, strings.Join(parts, "; "))
}

// decodePayload extracts a JSON object from raw, decodes it strictly into
// out and validates it.
//
// # Description
//
// Models sometimes wrap JSON in markdown fences or add prose around it even
// when asked not to. The outermost {...} span is taken, unknown fields are
// rejected, and validator rules are applied. Any failure is a
// *PayloadError; out must not be used in that case.
func decodePayload(schema string, raw string, out any) error {
	body, err := extractJSONObject(raw)
	if err != nil {
		return &PayloadError{Schema: schema, Issues: []FieldIssue{{Field: "(body)", Rule: "json", Param: err.Error()}}}
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return &PayloadError{Schema: schema, Issues: []FieldIssue{{Field: "(body)", Rule: "json", Param: err.Error()}}}
	}

	if err := payloadValidator.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate %s: %w", schema, err)
		}
		issues := make([]FieldIssue, 0, len(verrs))
		for _, fe := range verrs {
			issues = append(issues, FieldIssue{Field: fe.Field(), Rule: fe.Tag(), Param: fe.Param()})
		}
		return &PayloadError{Schema: schema, Issues: issues}
	}
	return nil
}

// extractJSONObject returns the outermost {...} span of s.
func extractJSONObject(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("empty response")
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return nil, errors.New("no JSON object found")
	}
	return []byte(s[start : end+1]), nil
}

// describeValidation flattens validator errors into one line.
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, FieldIssue{Field: fe.Field(), Rule: fe.Tag(), Param: fe.Param()}.String())
	}
	return strings.Join(parts, "; ")
}
