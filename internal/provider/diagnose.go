package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DiagnosticPaths are the listing and dispatch paths probed by Diagnose.
var DiagnosticPaths = []string{
	"/agents",
	"/agent",
	"/agents/list",
	"/agent/list",
	"/calls",
	"/call",
	"/calls/dispatch",
	"/call/dispatch",
}

const diagnoseConcurrency = 4

// EndpointReport is what one GET against a diagnostic path returned.
type EndpointReport struct {
	Status     int               `json:"status,omitempty"`
	StatusText string            `json:"statusText,omitempty"`
	OK         bool              `json:"ok"`
	Headers    map[string]string `json:"headers,omitempty"`
	Data       any               `json:"data,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// Diagnosis is the result of probing every diagnostic path.
type Diagnosis struct {
	Success bool                      `json:"success"`
	Results map[string]EndpointReport `json:"results"`
	APIKey  string                    `json:"apiKey"`
	BaseURL string                    `json:"baseUrl"`
}

// Diagnose issues a plain GET to each diagnostic path and reports what came
// back. Requests run concurrently; per-path failures are recorded in the
// report rather than returned.
func (c *Client) Diagnose(ctx context.Context) Diagnosis {
	ctx, span := c.tracer.Start(ctx, "provider.diagnose")
	defer span.End()

	var (
		mu      sync.Mutex
		results = make(map[string]EndpointReport, len(DiagnosticPaths))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(diagnoseConcurrency)
	for _, path := range DiagnosticPaths {
		g.Go(func() error {
			report := c.diagnosePath(gctx, path)
			mu.Lock()
			results[path] = report
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return Diagnosis{
		Success: true,
		Results: results,
		APIKey:  c.MaskedAPIKey(),
		BaseURL: c.baseURL,
	}
}

func (c *Client) diagnosePath(ctx context.Context, path string) EndpointReport {
	ctx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return EndpointReport{Error: err.Error()}
	}
	c.setHeaders(req, "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("diagnostic request failed", "path", path, "error", err)
		return EndpointReport{Error: err.Error()}
	}
	defer resp.Body.Close()

	report := EndpointReport{
		Status:     resp.StatusCode,
		StatusText: statusText(resp),
		OK:         resp.StatusCode >= 200 && resp.StatusCode <= 299,
		Headers:    flattenHeaders(resp.Header),
	}
	if report.OK {
		body, err := readLimited(resp)
		if err != nil {
			report.Data = "Could not parse JSON"
		} else if doc, err := decodeJSON(body); err != nil {
			report.Data = "Could not parse JSON"
		} else {
			report.Data = doc
		}
	}
	c.logger.Debug("diagnostic request", "path", path, "status", resp.StatusCode)
	return report
}

// statusText strips the numeric prefix from resp.Status ("404 Not Found").
func statusText(resp *http.Response) string {
	if text, ok := strings.CutPrefix(resp.Status, fmt.Sprintf("%d ", resp.StatusCode)); ok {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[strings.ToLower(k)] = strings.Join(v, ", ")
	}
	return out
}
