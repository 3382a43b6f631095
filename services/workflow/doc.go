// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package workflow runs codemedic's generate/judge/retry loop.
//
// A Session carries everything one command invocation knows about its
// input file and the artifacts produced so far. Runner.Run drives the
// session through a small state machine:
//
//	Generating ──valid──▶ Judging ──pass──▶ Writing ──▶ Done
//	    ▲   │                 │
//	    │   └─malformed/syntax┤
//	    └────────fail─────────┘  (until Iteration > MaxIterations)
//
// Every model response is decoded into a fixed-shape payload and checked
// with go-playground/validator before it may touch the session. Edit and
// fix candidates also pass a tree-sitter syntax gate before the judge is
// consulted. The Writer derives `<base>_<suffix>.<ext>` next to the input
// and reports failures as a message, never as an error.
//
// # Bounds
//
// With MaxIterations = N the loop makes at most N+1 generation requests
// and at most N+1 judge requests, whatever the model returns.
//
// # Thread Safety
//
// A Session belongs to one Run call. Runner is safe to reuse sequentially.
package workflow
