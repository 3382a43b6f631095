// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"fmt"
	"sync"
	"time"
)

// spinnerFrames is the braille animation shown while a model call runs.
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// spinnerInterval is the redraw period.
const spinnerInterval = 80 * time.Millisecond

// Spinner is a single-line status shown while the generate/judge loop waits
// on the model. It redraws "<frame> <message> (<elapsed>)" in place.
//
// The animation goroutine is owned by the spinner and always exits on Stop.
// Stop must be called before any prompt or output that shares the line.
// In machine mode nothing is animated; Start prints one PROGRESS line.
type Spinner struct {
	mu      sync.Mutex
	message string
	started time.Time
	running bool
	quit    chan struct{}
	exited  chan struct{}
}

// NewSpinner returns a stopped spinner showing message.
func NewSpinner(message string) *Spinner {
	return &Spinner{message: message}
}

// Start begins the animation. Calling Start on a running spinner is a no-op.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.started = time.Now()

	if !GetPersonality().Animated() {
		fmt.Fprintf(stdout(), "PROGRESS: %s\n", s.message)
		return
	}
	s.quit = make(chan struct{})
	s.exited = make(chan struct{})
	go s.animate(s.quit, s.exited)
}

func (s *Spinner) animate(quit <-chan struct{}, exited chan<- struct{}) {
	defer close(exited)

	w := stdout()
	tick := time.NewTicker(spinnerInterval)
	defer tick.Stop()

	for frame := 0; ; frame = (frame + 1) % len(spinnerFrames) {
		select {
		case <-quit:
			fmt.Fprint(w, "\r\033[K")
			return
		case <-tick.C:
		}
		s.mu.Lock()
		line := fmt.Sprintf("\r\033[K%s %s %s",
			Styles.Highlight.Render(spinnerFrames[frame]),
			s.message,
			Styles.Muted.Render(formatElapsed(time.Since(s.started))),
		)
		s.mu.Unlock()
		fmt.Fprint(w, line)
	}
}

// Stop clears the line and waits for the animation to exit. It is safe to
// call on a spinner that was never started or is already stopped.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	quit, exited := s.quit, s.exited
	s.quit, s.exited = nil, nil
	s.mu.Unlock()

	if quit == nil {
		return
	}
	close(quit)
	<-exited
}

// UpdateMessage replaces the text shown next to the frame.
func (s *Spinner) UpdateMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// Elapsed is the time since Start, or zero when the spinner never ran.
func (s *Spinner) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started.IsZero() {
		return 0
	}
	return time.Since(s.started)
}

// formatElapsed renders d as "(4s)" or "(1m05s)".
func formatElapsed(d time.Duration) string {
	secs := int(d.Round(time.Second) / time.Second)
	if secs < 60 {
		return fmt.Sprintf("(%ds)", secs)
	}
	return fmt.Sprintf("(%dm%02ds)", secs/60, secs%60)
}
