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
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/codemedic/pkg/logging"
	"github.com/AleutianAI/codemedic/pkg/telemetry"
	"github.com/AleutianAI/codemedic/services/llm"
)

const tracerName = "codemedic.workflow"

// malformedVerdictFeedback replaces judge feedback when the verdict itself
// could not be decoded.
const malformedVerdictFeedback = "the reviewer could not confirm this attempt; re-check the task requirements and return a complete, correct result"

// =============================================================================
// Observer
// =============================================================================

// Observer is told about loop progress. The CLI uses it to drive the
// spinner; tests use it to record transitions.
type Observer interface {
	// StateEntered is called before each step runs.
	StateEntered(s *Session)

	// Rejected is called when an attempt is rejected, with the feedback
	// that will be sent to the next generation.
	Rejected(s *Session, feedback string)
}

type nopObserver struct{}

func (nopObserver) StateEntered(*Session)      {}
func (nopObserver) Rejected(*Session, string) {}

// =============================================================================
// Result
// =============================================================================

// Result summarises a finished run.
type Result struct {
	Session *Session `json:"session"`

	// OutputPath is where the artifact is (or would be) written.
	OutputPath string `json:"output_path"`

	// Write is nil when nothing was written (dry run or no valid content).
	Write *WriteOutcome `json:"write,omitempty"`

	// Passed is true when the judge accepted the final content.
	Passed bool `json:"passed"`

	Duration time.Duration `json:"duration"`
}

// Outcome labels the run for metrics and logs.
func (r *Result) Outcome() string {
	switch {
	case r.Session == nil || !r.Session.HasContent():
		return "no_valid_response"
	case r.Passed:
		return "passed"
	default:
		return "unaccepted"
	}
}

// =============================================================================
// Runner
// =============================================================================

// Runner drives sessions through the generate/judge/write state machine.
type Runner struct {
	client      llm.LLMClient
	writer      *Writer
	logger      *logging.Logger
	metrics     *telemetry.Metrics
	observer    Observer
	params      llm.GenerationParams
	judgeParams llm.GenerationParams
	backend     string
	dryRun      bool
	syntaxCheck bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger. Default: discard.
func WithLogger(l *logging.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetrics sets the metric instruments. Default: global meter provider.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(r *Runner) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithObserver registers a progress observer.
func WithObserver(o Observer) Option {
	return func(r *Runner) {
		if o != nil {
			r.observer = o
		}
	}
}

// WithWriter replaces the output writer.
func WithWriter(w *Writer) Option {
	return func(r *Runner) {
		if w != nil {
			r.writer = w
		}
	}
}

// WithParams sets sampling parameters for generation requests. System and
// Schema are always overridden by the task.
func WithParams(p llm.GenerationParams) Option {
	return func(r *Runner) { r.params = p }
}

// WithJudgeParams sets sampling parameters for judge requests. Default:
// temperature 0.
func WithJudgeParams(p llm.GenerationParams) Option {
	return func(r *Runner) { r.judgeParams = p }
}

// WithBackendName labels spans and logs with the backend in use.
func WithBackendName(name string) Option {
	return func(r *Runner) { r.backend = name }
}

// WithDryRun skips the writer. The run otherwise behaves normally.
func WithDryRun(dryRun bool) Option {
	return func(r *Runner) { r.dryRun = dryRun }
}

// WithSyntaxCheck enables or disables the tree-sitter gate. Default: on.
func WithSyntaxCheck(enabled bool) Option {
	return func(r *Runner) { r.syntaxCheck = enabled }
}

// NewRunner creates a Runner around a model client.
//
// # Example
//
//	runner := workflow.NewRunner(client,
//	    workflow.WithLogger(logger),
//	    workflow.WithBackendName("openai"),
//	)
//	result, err := runner.Run(ctx, session)
func NewRunner(client llm.LLMClient, opts ...Option) *Runner {
	r := &Runner{
		client:      client,
		logger:      logging.Nop(),
		observer:    nopObserver{},
		judgeParams: llm.GenerationParams{Temperature: llm.Float32(0)},
		syntaxCheck: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.writer == nil {
		r.writer = NewWriter(r.logger)
	}
	if r.metrics == nil {
		r.metrics = telemetry.DefaultMetrics()
	}
	return r
}

// Run executes the session until it reaches Done.
//
// # Description
//
// Each iteration of the loop runs exactly one step for the session's
// current State. Generation responses that fail decoding or validation are
// rejected without touching Content. A judge pass, or exhausting the
// attempt budget, moves to Writing.
//
// # Outputs
//
//   - *Result: Always non-nil once the session validates, including when an
//     error is returned.
//   - error: ErrNoValidResponse when no structurally valid artifact was
//     produced, a wrapped transport or context error, or ErrInvalidSession.
//     A run whose content the judge never accepted is not an error; check
//     Result.Passed.
func (r *Runner) Run(ctx context.Context, s *Session) (*Result, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	task, err := TaskFor(s.Kind)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, tracerName, "Runner.Run",
		trace.WithAttributes(
			attribute.String("session.id", s.ID),
			attribute.String("workflow.kind", string(s.Kind)),
			attribute.String("workflow.language", s.Language),
			attribute.String("llm.backend", r.backend),
		),
	)
	defer span.End()

	log := r.logger.With(append([]any{"session_id", s.ID, "kind", string(s.Kind)}, telemetry.TraceAttrs(ctx)...)...)
	log.Info("workflow started", "file", s.FilePath, "language", s.Language, "backend", r.backend)

	result := &Result{Session: s, OutputPath: task.OutputPath(s.FilePath)}
	finish := func(err error) (*Result, error) {
		result.Passed = s.Passed
		result.Duration = time.Since(start)
		outcome := result.Outcome()
		if err != nil && !errors.Is(err, ErrNoValidResponse) {
			outcome = "error"
			r.metrics.RecordError(ctx, "workflow")
			telemetry.RecordError(span, err)
		} else {
			telemetry.SetSpanOK(span)
		}
		r.metrics.RunDuration.Record(ctx, result.Duration.Seconds(), metric.WithAttributes(
			attribute.String("kind", string(s.Kind)),
			attribute.String("outcome", outcome),
		))
		span.SetAttributes(
			attribute.Bool("workflow.passed", s.Passed),
			attribute.Int("workflow.attempts", s.Attempts),
			attribute.Int("workflow.judge_calls", s.JudgeCalls),
			attribute.String("workflow.outcome", outcome),
		)
		log.Info("workflow finished",
			"outcome", outcome,
			"attempts", s.Attempts,
			"judge_calls", s.JudgeCalls,
			"duration_ms", result.Duration.Milliseconds(),
		)
		return result, err
	}

	for s.State != StateDone {
		if err := ctx.Err(); err != nil {
			return finish(fmt.Errorf("%s workflow interrupted: %w", s.Kind, err))
		}
		r.observer.StateEntered(s)

		switch s.State {
		case StateGenerating:
			next, err := r.generate(ctx, log, task, s)
			if err != nil {
				return finish(err)
			}
			s.State = next

		case StateJudging:
			next, err := r.judge(ctx, log, task, s)
			if err != nil {
				return finish(err)
			}
			s.State = next

		case StateWriting:
			r.write(log, result, s)
			s.State = StateDone

		default:
			return finish(fmt.Errorf("%w: unknown state %q", ErrInvalidSession, s.State))
		}
	}

	if !s.HasContent() {
		return finish(ErrNoValidResponse)
	}
	return finish(nil)
}

// generate performs one generation attempt and returns the next state.
func (r *Runner) generate(ctx context.Context, log *logging.Logger, task *Task, s *Session) (State, error) {
	s.Attempts++
	attempt := s.Attempts
	log.Debug("generation requested", "attempt", attempt, "feedback_items", len(s.Feedback))

	prompt, err := task.GeneratePrompt(s)
	if err != nil {
		return "", err
	}

	params := r.params
	params.System = task.System
	params.Schema = task.Schema

	raw, err := r.call(ctx, s, "generate", prompt, params)
	if err != nil {
		return "", fmt.Errorf("generation attempt %d: %w", attempt, err)
	}

	content, summary, err := task.Decode(raw)
	if err != nil {
		var perr *PayloadError
		if !errors.As(err, &perr) {
			return "", err
		}
		r.logIssues(ctx, log, attempt, perr)
		r.countGeneration(ctx, s, "malformed")
		return r.reject(s, perr.Error()), nil
	}

	if task.CheckSyntax() && r.syntaxCheck {
		report, err := CheckSyntax(ctx, s.Language, content)
		if err != nil {
			return "", fmt.Errorf("syntax check: %w", err)
		}
		if !report.Valid() {
			log.Warn("generated code failed syntax check",
				"attempt", attempt,
				"issues", len(report.Issues),
				"line", report.Issues[0].Line,
			)
			r.countGeneration(ctx, s, "syntax_error")
			return r.reject(s, report.Feedback()), nil
		}
	}

	s.setContent(content, summary)
	r.countGeneration(ctx, s, "valid")
	log.Info("candidate accepted for review", "attempt", attempt, "bytes", len(content))
	return StateJudging, nil
}

// judge asks for a verdict on s.Content and returns the next state.
func (r *Runner) judge(ctx context.Context, log *logging.Logger, task *Task, s *Session) (State, error) {
	prompt, err := task.JudgePrompt(s, s.Content)
	if err != nil {
		return "", err
	}

	params := r.judgeParams
	params.System = task.JudgeSystem
	params.Schema = verdictSchema

	s.JudgeCalls++
	raw, err := r.call(ctx, s, "judge", prompt, params)
	if err != nil {
		return "", fmt.Errorf("judge call %d: %w", s.JudgeCalls, err)
	}

	var verdict VerdictPayload
	if err := decodePayload(verdictSchema.Name, raw, &verdict); err != nil {
		var perr *PayloadError
		if errors.As(err, &perr) {
			r.logIssues(ctx, log, s.Attempts, perr)
		}
		r.countVerdict(ctx, s, "malformed")
		return r.reject(s, malformedVerdictFeedback), nil
	}

	if *verdict.Pass {
		s.Passed = true
		r.countVerdict(ctx, s, "pass")
		log.Info("judge passed candidate", "attempt", s.Attempts)
		return StateWriting, nil
	}

	r.countVerdict(ctx, s, "fail")
	log.Info("judge rejected candidate", "attempt", s.Attempts, "feedback", verdict.Feedback)
	return r.reject(s, verdict.Feedback), nil
}

// write hands the content to the writer, unless there is nothing valid to
// write or this is a dry run.
func (r *Runner) write(log *logging.Logger, result *Result, s *Session) {
	switch {
	case !s.HasContent():
		log.Warn("no valid content produced, nothing written", "attempts", s.Attempts)
	case r.dryRun:
		log.Info("dry run, output not written", "path", result.OutputPath)
	default:
		outcome := r.writer.Write(result.OutputPath, s.Content)
		result.Write = &outcome
	}
}

func (r *Runner) reject(s *Session, feedback string) State {
	next := s.reject(feedback)
	r.observer.Rejected(s, feedback)
	return next
}

// call wraps one model request in a span and a duration measurement.
func (r *Runner) call(ctx context.Context, s *Session, step, prompt string, params llm.GenerationParams) (out string, err error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "Runner."+step,
		trace.WithAttributes(
			attribute.String("workflow.kind", string(s.Kind)),
			attribute.Int("workflow.iteration", s.Iteration),
		),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	start := time.Now()
	out, err = r.client.Generate(ctx, prompt, params)
	r.metrics.ModelCallDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
		attribute.String("step", step),
		attribute.String("backend", r.backend),
	))
	if err != nil {
		return "", err
	}
	span.SetAttributes(attribute.Int("llm.response_bytes", len(out)))
	return out, nil
}

func (r *Runner) logIssues(ctx context.Context, log *logging.Logger, attempt int, perr *PayloadError) {
	for _, issue := range perr.Issues {
		log.Warn("response field rejected",
			"schema", perr.Schema,
			"attempt", attempt,
			"field", issue.Field,
			"rule", issue.Rule,
			"param", issue.Param,
		)
		r.metrics.ValidationFailuresTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("schema", perr.Schema),
			attribute.String("rule", issue.Rule),
		))
	}
}

func (r *Runner) countGeneration(ctx context.Context, s *Session, outcome string) {
	r.metrics.GenerationsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", string(s.Kind)),
		attribute.String("outcome", outcome),
	))
}

func (r *Runner) countVerdict(ctx context.Context, s *Session, verdict string) {
	r.metrics.VerdictsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", string(s.Kind)),
		attribute.String("verdict", verdict),
	))
}
