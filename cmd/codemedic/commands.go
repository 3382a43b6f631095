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
	"context"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/codemedic/pkg/ux"
	"github.com/AleutianAI/codemedic/services/llm"
	"github.com/AleutianAI/codemedic/services/workflow"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	backend     string
	model       string
	personality string
	configPath  string
	verbose     bool
	json        bool
}

// workflowFlags are the flags of explain, edit and fix.
type workflowFlags struct {
	language    string
	description string
	noWrite     bool
	yes         bool
}

// cli holds flag values and the dependencies commands are built from.
// Tests replace prompter, newClient and interactive.
type cli struct {
	global globalFlags
	flow   workflowFlags

	prompter    ux.Prompter
	newClient   func(ctx context.Context, cfg llm.BackendConfig) (llm.LLMClient, error)
	interactive func() bool
}

func newCLI() *cli {
	return &cli{
		prompter:    ux.NewHuhPrompter(),
		newClient:   llm.NewClient,
		interactive: ux.IsInteractive,
	}
}

// commandTable lists the subcommands for help and info output.
var commandTable = []CommandInfo{
	{Name: "explain", Alias: "x", Summary: "Explain what a source file does"},
	{Name: "edit", Alias: "e", Summary: "Add a feature to a source file"},
	{Name: "fix", Alias: "f", Summary: "Fix a bug in a source file"},
	{Name: "info", Alias: "i", Summary: "Show backend, credentials and settings"},
}

func summaryOf(name string) string {
	for _, c := range commandTable {
		if c.Name == name {
			return c.Summary
		}
	}
	return ""
}

// newRootCmd builds the command tree.
func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "codemedic",
		Short: "Explain, edit and fix source files with a language model",
		Long: `codemedic asks a language model to explain, edit or fix one source file.
Every result is checked by a second judging request and regenerated with the
judge's feedback, up to 3 retries, before it is written next to the input
as <name>_explained.md, <name>_edited.<ext> or <name>_fixed.<ext>.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			ux.InitPersonality(c.global.personality)
			if c.global.json {
				ux.SetPersonalityLevel(ux.PersonalityMachine)
				// Keep stdout clean for the JSON envelope.
				ux.SetOutput(cmd.ErrOrStderr(), cmd.ErrOrStderr())
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.global.backend, "backend", "", "Model backend: openai, anthropic, gemini or ollama")
	pf.StringVar(&c.global.model, "model", "", "Model name (default depends on backend)")
	pf.StringVar(&c.global.personality, "personality", "", "Output style: full, standard, minimal or machine")
	pf.StringVar(&c.global.configPath, "config", "", "Config file (default ~/.codemedic/config.yaml)")
	pf.BoolVarP(&c.global.verbose, "verbose", "v", false, "Log to stderr at debug level")
	pf.BoolVar(&c.global.json, "json", false, "Print a JSON result envelope on stdout")

	root.AddCommand(
		newWorkflowCmd(c, workflow.KindExplain, "explain [file]", "x"),
		newWorkflowCmd(c, workflow.KindEdit, "edit [file]", "e"),
		newWorkflowCmd(c, workflow.KindFix, "fix [file]", "f"),
		&cobra.Command{
			Use:     "info",
			Aliases: []string{"i"},
			Short:   summaryOf("info"),
			Args:    cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.runInfo(cmd)
			},
		},
	)
	return root
}

func newWorkflowCmd(c *cli, kind workflow.Kind, use, alias string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     use,
		Aliases: []string{alias},
		Short:   summaryOf(string(kind)),
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			return c.runWorkflow(cmd, kind, path)
		},
	}

	descUsage := map[workflow.Kind]string{
		workflow.KindExplain: "Optional focus for the explanation",
		workflow.KindEdit:    "Feature to add",
		workflow.KindFix:     "Error message or wrong behaviour to fix",
	}[kind]

	f := cmd.Flags()
	f.StringVarP(&c.flow.language, "language", "l", "", "Source language (default: detected from extension)")
	f.StringVarP(&c.flow.description, "description", "d", "", descUsage)
	f.BoolVar(&c.flow.noWrite, "no-write", false, "Show the result without writing a file")
	f.BoolVarP(&c.flow.yes, "yes", "y", false, "Overwrite an existing output file without asking")
	return cmd
}
