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
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/codemedic/pkg/ux"
	"github.com/AleutianAI/codemedic/services/llm"
	"github.com/AleutianAI/codemedic/services/policy"
	"github.com/AleutianAI/codemedic/services/workflow"
)

// runWorkflow implements explain, edit and fix.
//
// # Description
//
// Collects input, confirms overwriting an existing output, runs the
// generate/judge loop behind a spinner, then shows the result: rendered
// markdown for explain, a diff preview for edit and fix.
//
// # Outputs
//
//   - error: nil on an accepted result; a *CommandError with
//     CLIExitFindings when the judge never passed the result; any other
//     error maps to CLIExitError.
func (c *cli) runWorkflow(cmd *cobra.Command, kind workflow.Kind, path string) error {
	start := time.Now()
	err := c.executeWorkflow(cmd, start, kind, path)
	var cmdErr *CommandError
	if err != nil && c.global.json && !errors.As(err, &cmdErr) {
		// Errors from before the loop have not printed an envelope yet.
		if jerr := OutputJSON(cmd.OutOrStdout(), newCommandResult(string(kind), start, nil, err), false); jerr != nil {
			return errors.Join(err, jerr)
		}
	}
	return err
}

func (c *cli) executeWorkflow(cmd *cobra.Command, start time.Time, kind workflow.Kind, path string) error {
	ctx := cmd.Context()

	env, err := c.setup(ctx)
	if err != nil {
		return err
	}
	defer env.close()

	col := &collector{prompter: c.prompter, interactive: c.interactive()}
	in, err := col.collect(collectRequest{
		kind:        kind,
		path:        path,
		language:    c.flow.language,
		description: c.flow.description,
	})
	if err != nil {
		if errors.Is(err, ux.ErrPromptAborted) {
			ux.Warning("Cancelled")
			return nil
		}
		return err
	}

	session, err := workflow.NewSession(kind, in.path, in.language, in.source, in.description)
	if err != nil {
		return usageErrorf("%v", err)
	}
	task, err := workflow.TaskFor(kind)
	if err != nil {
		return err
	}

	outPath := task.OutputPath(in.path)
	if !c.flow.noWrite {
		proceed, err := c.confirmOverwrite(outPath, col.interactive)
		if err != nil {
			return err
		}
		if !proceed {
			ux.Warning("Cancelled, nothing written")
			return nil
		}
	}

	backend := env.cfg.Backend.Type
	proceed, err := c.screenSource(env, in, col.interactive)
	if err != nil {
		return err
	}
	if !proceed {
		ux.Warning("Cancelled, nothing sent")
		return nil
	}

	client, err := c.newClient(ctx, env.backendConfig())
	if err != nil {
		return err
	}

	if !c.global.json {
		ux.Info(fmt.Sprintf("%s %s with %s (%s)", kind, filepath.Base(in.path), backend, env.modelName()))
	}

	spin := ux.NewSpinner("Generating")
	progress := &progressObserver{spin: spin}
	params := llm.GenerationParams{Temperature: env.cfg.Backend.Temperature}
	runner := workflow.NewRunner(client,
		workflow.WithLogger(env.logger),
		workflow.WithMetrics(env.metrics),
		workflow.WithObserver(progress),
		workflow.WithParams(params),
		workflow.WithBackendName(backend),
		workflow.WithDryRun(c.flow.noWrite),
	)

	spin.Start()
	result, runErr := runner.Run(ctx, session)
	spin.Stop()

	if c.global.json {
		return c.reportJSON(cmd, start, kind, backend, in, result, runErr)
	}
	return c.reportHuman(kind, in, result, runErr)
}

// confirmOverwrite asks before replacing an existing output file.
func (c *cli) confirmOverwrite(outPath string, interactive bool) (bool, error) {
	if c.flow.yes {
		return true, nil
	}
	if _, err := os.Stat(outPath); os.IsNotExist(err) {
		return true, nil
	}
	if !interactive {
		return false, usageErrorf("%s already exists; pass --yes to overwrite", outPath)
	}
	ok, err := c.prompter.Confirm(fmt.Sprintf("%s already exists. Overwrite it?", filepath.Base(outPath)), false)
	if errors.Is(err, ux.ErrPromptAborted) {
		return false, nil
	}
	return ok, err
}

// screenSource looks for credentials in the input before it is sent to a
// hosted backend. Ollama runs locally and is not screened. Findings are
// reported by line and pattern, never by value.
func (c *cli) screenSource(env *appEnv, in *collectedInput, interactive bool) (bool, error) {
	if env.cfg.Backend.Type == llm.BackendOllama {
		return true, nil
	}
	engine, err := policy.New()
	if err != nil {
		return false, err
	}
	secrets := policy.Only(engine.Scan(in.source), policy.ClassSecret)
	if len(secrets) == 0 {
		return true, nil
	}

	env.logger.Warn("source contains possible credentials",
		"file", in.path,
		"findings", len(secrets),
		"backend", env.cfg.Backend.Type,
	)
	var sb strings.Builder
	for _, f := range secrets {
		fmt.Fprintf(&sb, "line %d: %s\n", f.Line, f.Description)
	}
	ux.WarningBox("Possible credentials in "+filepath.Base(in.path), strings.TrimRight(sb.String(), "\n"))

	if c.flow.yes {
		return true, nil
	}
	if !interactive {
		return false, usageErrorf("%s looks like it contains credentials; pass --yes to send it to %s anyway",
			filepath.Base(in.path), env.cfg.Backend.Type)
	}
	ok, err := c.prompter.Confirm(fmt.Sprintf("Send it to %s anyway?", env.cfg.Backend.Type), false)
	if errors.Is(err, ux.ErrPromptAborted) {
		return false, nil
	}
	return ok, err
}

func (c *cli) reportHuman(kind workflow.Kind, in *collectedInput, result *workflow.Result, runErr error) error {
	if runErr != nil && !errors.Is(runErr, workflow.ErrNoValidResponse) {
		return runErr
	}
	s := result.Session
	if errors.Is(runErr, workflow.ErrNoValidResponse) {
		ux.Error(fmt.Sprintf("No valid response after %d attempts", s.Attempts))
		if last := s.LastFeedback(); last != "" {
			ux.Muted("Last problem: " + last)
		}
		return &CommandError{Command: string(kind), ExitCode: CLIExitError, Reported: true, Wrapped: runErr}
	}

	if kind == workflow.KindExplain {
		ux.PrintMarkdown(s.Content)
	} else if ux.GetPersonality().ShowDiff {
		stats, err := ux.PrintDiff(in.path, result.OutputPath, in.source, s.Content)
		if err != nil {
			ux.Warning("could not render diff: " + err.Error())
		} else if stats.Empty() {
			ux.Warning("The result is identical to the input")
		}
	}
	if s.Summary != "" {
		ux.Box("Summary", s.Summary)
	}

	switch {
	case result.Write == nil:
		ux.Muted("Dry run: " + result.OutputPath + " not written")
	case result.Write.OK:
		ux.Success(result.Write.Message)
	default:
		ux.Error(result.Write.Message)
	}

	if !result.Passed {
		ux.WarningBox("Not accepted",
			fmt.Sprintf("The reviewer did not accept the result after %d attempts.\nLast feedback: %s",
				s.Attempts, s.LastFeedback()))
	}
	if result.Write != nil && !result.Write.OK {
		return &CommandError{Command: string(kind), ExitCode: CLIExitError, Reported: true}
	}
	if !result.Passed {
		return &CommandError{Command: string(kind), ExitCode: CLIExitFindings, Reported: true}
	}
	ux.Success(fmt.Sprintf("Accepted after %d attempt(s)", s.Attempts))
	return nil
}

func (c *cli) reportJSON(cmd *cobra.Command, start time.Time, kind workflow.Kind, backend string,
	in *collectedInput, result *workflow.Result, runErr error) error {

	var data *WorkflowResult
	if result != nil {
		s := result.Session
		data = &WorkflowResult{
			SessionID:  s.ID,
			Kind:       string(kind),
			File:       in.path,
			Language:   s.Language,
			Backend:    backend,
			Passed:     result.Passed,
			Attempts:   s.Attempts,
			JudgeCalls: s.JudgeCalls,
			Feedback:   s.Feedback,
			Summary:    s.Summary,
			OutputPath: result.OutputPath,
			Content:    s.Content,
		}
		if result.Write != nil {
			data.Written = result.Write.OK
			data.Message = result.Write.Message
		}
	}

	if err := OutputJSON(cmd.OutOrStdout(), newCommandResult(string(kind), start, data, runErr), false); err != nil {
		return err
	}

	switch {
	case runErr != nil:
		return &CommandError{Command: string(kind), ExitCode: CLIExitError, Reported: true, Wrapped: runErr}
	case result.Write != nil && !result.Write.OK:
		return &CommandError{Command: string(kind), ExitCode: CLIExitError, Reported: true}
	case !result.Passed:
		return &CommandError{Command: string(kind), ExitCode: CLIExitFindings, Reported: true}
	}
	return nil
}

// progressObserver mirrors loop progress on the spinner.
type progressObserver struct {
	spin *ux.Spinner
}

func (p *progressObserver) StateEntered(s *workflow.Session) {
	current := s.Attempts
	if s.State == workflow.StateGenerating {
		current++
	}
	step := map[workflow.State]string{
		workflow.StateGenerating: "generating",
		workflow.StateJudging:    "judging",
		workflow.StateWriting:    "writing",
	}[s.State]

	if ux.GetPersonality().Level == ux.PersonalityMachine {
		ux.Attempt(current, s.MaxAttempts(), step)
		return
	}
	p.spin.UpdateMessage(fmt.Sprintf("attempt %d/%d: %s", current, s.MaxAttempts(), step))
}

func (p *progressObserver) Rejected(s *workflow.Session, feedback string) {
	if ux.GetPersonality().Level == ux.PersonalityMachine {
		ux.Plain("FEEDBACK: " + feedback)
	}
}
