// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.


package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// restEndpoint is a JSON API reached without an SDK.
type restEndpoint struct {
	client  *http.Client
	url     string
	headers map[string]string
}

func newRESTEndpoint(url string, timeout time.Duration, headers map[string]string) restEndpoint {
	return restEndpoint{client: &http.Client{Timeout: timeout}, url: url, headers: headers}
}

// StatusError is a non-200 reply from a backend.
type StatusError struct {
	Backend string
	Status  int
	Body    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Backend, e.Status, e.Body)
}

// post sends in as JSON and decodes a 200 reply into out. Any other status
// is a *StatusError carrying the body.
func (r restEndpoint) post(ctx context.Context, backend string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", backend, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", backend, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", backend, err)
	}
	defer resp.Body.Close()

	reply, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s reply: %w", backend, err)
	}
	if resp.StatusCode != http.StatusOK {
		return &StatusError{Backend: backend, Status: resp.StatusCode, Body: string(reply)}
	}
	if err := json.Unmarshal(reply, out); err != nil {
		return fmt.Errorf("decode %s reply: %w", backend, err)
	}
	return nil
}
