// SPDX-License-Identifier: MIT

package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Collector accepts status reports. Implementations must be safe for
// concurrent use.
type Collector interface {
	Send(ctx context.Context, report Report) error
}

// HTTPCollector posts reports as JSON to a remote collector endpoint.
type HTTPCollector struct {
	base string
	http *http.Client
}

// NewHTTPCollector creates a collector client for the given base URL.
func NewHTTPCollector(base string) *HTTPCollector {
	return &HTTPCollector{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts one report. No response body contract exists beyond the HTTP
// status code.
func (c *HTTPCollector) Send(ctx context.Context, report Report) error {
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/sessions/playing", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build report request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post report: %w", err)
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 4096))

	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("collector rejected report: %s", res.Status)
	}
	return nil
}
