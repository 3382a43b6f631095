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
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/codemedic/pkg/logging"
	"github.com/AleutianAI/codemedic/pkg/ux"
	"github.com/AleutianAI/codemedic/services/llm"
	"github.com/AleutianAI/codemedic/services/workflow"
)

// runInfo prints version, backend, credential status and settings.
// Credential values are never read into the output, only their presence.
func (c *cli) runInfo(cmd *cobra.Command) error {
	start := time.Now()
	env, err := c.setup(cmd.Context())
	if err != nil {
		return err
	}
	defer env.close()

	info := c.collectInfo(env)

	if c.global.json {
		return OutputJSON(cmd.OutOrStdout(), newCommandResult("info", start, info, nil), false)
	}

	ux.Title("codemedic " + info.Version)
	ux.KeyValue("Backend", info.Backend)
	ux.KeyValue("Model", info.Model)
	if info.BaseURL != "" {
		ux.KeyValue("Base URL", info.BaseURL)
	}
	ux.KeyValue("Config", info.ConfigPath)
	ux.KeyValue("Log dir", info.LogDir)
	ux.KeyValue("Max attempts", fmt.Sprintf("%d (%d retries)", info.MaxIterations+1, info.MaxIterations))

	ux.Plain("")
	for _, name := range llm.Backends() {
		status := info.Credentials[name]
		label := name + " (OLLAMA_BASE_URL)"
		if envs := llm.CredentialEnv(name); len(envs) > 0 {
			label = fmt.Sprintf("%s (%s)", name, strings.Join(envs, " or "))
		}
		ux.KeyValue(status, label)
	}

	var sb strings.Builder
	for _, ci := range info.Commands {
		fmt.Fprintf(&sb, "%-8s %-3s %s\n", ci.Name, ci.Alias, ci.Summary)
	}
	ux.Box("Commands", strings.TrimRight(sb.String(), "\n"))
	return nil
}

func (c *cli) collectInfo(env *appEnv) InfoResult {
	creds := make(map[string]string)
	for name, present := range llm.CredentialStatus() {
		if present {
			creds[name] = "present"
		} else {
			creds[name] = "missing"
		}
	}

	logDir := env.cfg.Logging.Dir
	if logDir != "" {
		logDir = logging.ExpandPath(logDir)
	}

	return InfoResult{
		Version:       version,
		Backend:       env.cfg.Backend.Type,
		Model:         env.modelName(),
		BaseURL:       env.cfg.Backend.BaseURL,
		Credentials:   creds,
		ConfigPath:    env.configPath,
		LogDir:        logDir,
		MaxIterations: workflow.MaxIterations,
		Commands:      commandTable,
	}
}
