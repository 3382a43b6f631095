// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command codemedic explains, edits and fixes a single source file with a
// language model, checking every result with a second judging call.
package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/awnumar/memguard"
	"github.com/joho/godotenv"

	"github.com/AleutianAI/codemedic/pkg/ux"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// Credentials live in memguard enclaves; wipe them on every exit path.
	defer memguard.Purge()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		ux.Warning("could not read .env: " + err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(newCLI())
	err := root.ExecuteContext(ctx)
	return exitCode(err)
}
