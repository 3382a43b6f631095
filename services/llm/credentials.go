// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/awnumar/memguard"
)

// ErrMissingCredential is returned when no environment variable or secret
// file provides a backend's API key.
var ErrMissingCredential = errors.New("missing credential")

// secretsDir is where container secrets are mounted (Podman/Docker).
var secretsDir = "/run/secrets"

// Credential is an API key sealed in a memguard enclave.
//
// # Description
//
// The key is read once from the environment (or a secret file) and sealed
// immediately; the plaintext only exists while Reveal's caller holds it.
//
// # Thread Safety
//
// Safe for concurrent use.
type Credential struct {
	source  string
	enclave *memguard.Enclave
}

// LoadCredential reads the first non-empty value among envNames, falling
// back to /run/secrets/<lowercase name> for each, and seals it.
//
// # Inputs
//
//   - envNames: Environment variable names in priority order.
//
// # Outputs
//
//   - *Credential: The sealed key.
//   - error: ErrMissingCredential (wrapped) when nothing is found.
//
// # Example
//
//	cred, err := llm.LoadCredential("GEMINI_API_KEY", "GOOGLE_API_KEY")
func LoadCredential(envNames ...string) (*Credential, error) {
	for _, name := range envNames {
		value, source := lookupCredential(name)
		if value == "" {
			continue
		}
		buf := []byte(value)
		// NewEnclave wipes buf
		enclave := memguard.NewEnclave(buf)
		if enclave == nil {
			continue
		}
		slog.Debug("Loaded credential", "source", source)
		return &Credential{source: source, enclave: enclave}, nil
	}
	return nil, fmt.Errorf("%w: set %s", ErrMissingCredential, strings.Join(envNames, " or "))
}

// CredentialPresent reports whether any of envNames resolves to a value,
// without sealing or returning it.
func CredentialPresent(envNames ...string) bool {
	for _, name := range envNames {
		if value, _ := lookupCredential(name); value != "" {
			return true
		}
	}
	return false
}

// Source names where the key came from (an env var or a secret path).
func (c *Credential) Source() string {
	return c.source
}

// Reveal opens the enclave and returns a copy of the key.
func (c *Credential) Reveal() (string, error) {
	lb, err := c.enclave.Open()
	if err != nil {
		return "", fmt.Errorf("open credential %s: %w", c.source, err)
	}
	defer lb.Destroy()
	return string(lb.Bytes()), nil
}

// lookupCredential returns the value and source for name.
func lookupCredential(name string) (string, string) {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v, name
	}
	path := filepath.Join(secretsDir, strings.ToLower(name))
	content, err := os.ReadFile(path)
	if err != nil {
		return "", ""
	}
	if v := strings.TrimSpace(string(content)); v != "" {
		return v, path
	}
	return "", ""
}
