package evaluation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"strings"
	"time"

	"github.com/Divas-Gupta30/agentic-assistant/internal/metrics"
)

var ErrNoCredentials = errors.New("evaluation: service API key not configured")

// Record is one answer submitted to the evaluation service.
type Record struct {
	TraceID string
	Project string
	Input   Input
	Local   map[string]any
}

type evaluationRequest struct {
	Project string         `json:"project"`
	TraceID string         `json:"trace_id,omitempty"`
	Inputs  map[string]any `json:"inputs"`
	Outputs map[string]any `json:"outputs"`
	Metrics map[string]any `json:"metrics"`
}

type evaluationResponse struct {
	Scores map[string]float64 `json:"scores"`
}

// Client posts answers to an external evaluation service and returns the
// local metrics enriched with the service's scores.
type Client struct {
	BaseURL string
	APIKey  string
	Project string
	HTTP    *http.Client
}

func NewClient(baseURL, apiKey, project string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Project: project,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Evaluate(ctx context.Context, rec Record) (map[string]any, error) {
	if c.APIKey == "" {
		return nil, ErrNoCredentials
	}

	project := rec.Project
	if project == "" {
		project = c.Project
	}
	body, err := json.Marshal(evaluationRequest{
		Project: project,
		TraceID: rec.TraceID,
		Inputs:  map[string]any{"query": rec.Input.Query, "route": rec.Input.Route},
		Outputs: map[string]any{"response": rec.Input.Response},
		Metrics: rec.Local,
	})
	if err != nil {
		return nil, fmt.Errorf("evaluation: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/v1/evaluations", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("evaluation: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		metrics.ExternalAPICallsTotal.WithLabelValues("evaluation", "error").Inc()
		return nil, fmt.Errorf("evaluation: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.ExternalAPICallsTotal.WithLabelValues("evaluation", "error").Inc()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("evaluation: service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out evaluationResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		metrics.ExternalAPICallsTotal.WithLabelValues("evaluation", "error").Inc()
		return nil, fmt.Errorf("evaluation: malformed response: %w", err)
	}
	metrics.ExternalAPICallsTotal.WithLabelValues("evaluation", "success").Inc()

	merged := make(map[string]any, len(rec.Local)+len(out.Scores)+2)
	maps.Copy(merged, rec.Local)
	for k, v := range out.Scores {
		merged[k] = round2(v)
	}
	merged[KeySource] = "remote"
	merged[KeyRemoteLogged] = true
	return merged, nil
}
