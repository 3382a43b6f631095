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

	"github.com/AleutianAI/codemedic/pkg/ux"
)

// CommandError carries a specific exit code out of a cobra RunE.
//
// # Description
//
// Handlers that finish without failing but still need a non-zero exit
// (the judge never accepted the result) return a CommandError with
// Reported set, so main does not print anything further.
//
// # Example
//
//	return &CommandError{Command: "fix", ExitCode: CLIExitFindings, Reported: true}
type CommandError struct {
	// Command is the subcommand that produced the error.
	Command string

	// ExitCode is the process exit code.
	ExitCode int

	// Reported is true when the user was already told about the problem.
	Reported bool

	// Wrapped is the underlying error, may be nil.
	Wrapped error
}

func (e *CommandError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s (exit %d): %v", e.Command, e.ExitCode, e.Wrapped)
	}
	return fmt.Sprintf("%s (exit %d)", e.Command, e.ExitCode)
}

// Unwrap returns the underlying error.
func (e *CommandError) Unwrap() error {
	return e.Wrapped
}

// UsageError reports input that is missing or invalid in a way the user can
// fix on the command line, e.g. a required value in non-interactive mode.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string {
	return e.Msg
}

func usageErrorf(format string, args ...any) error {
	return &UsageError{Msg: fmt.Sprintf(format, args...)}
}

// exitCode maps a command error to the process exit code and prints it.
//
// # Outputs
//
//   - int: CLIExitSuccess for nil, the CommandError's code when present,
//     CLIExitError otherwise.
func exitCode(err error) int {
	if err == nil {
		return CLIExitSuccess
	}

	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		if !cmdErr.Reported && cmdErr.Wrapped != nil {
			ux.Error(cmdErr.Wrapped.Error())
		}
		return cmdErr.ExitCode
	}

	var usage *UsageError
	if errors.As(err, &usage) {
		ux.Error(usage.Msg)
		ux.Muted("Run 'codemedic --help' for usage.")
		return CLIExitError
	}

	ux.Error(err.Error())
	return CLIExitError
}
