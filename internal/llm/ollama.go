package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Divas-Gupta30/agentic-assistant/internal/metrics"
)

// Ollama generates text through a local Ollama server's /api/generate endpoint.
type Ollama struct {
	BaseURL     string
	Model       string
	Temperature float64
	Client      *http.Client
}

// Option customizes an Ollama client.
type Option func(*Ollama)

func WithTemperature(temp float64) Option {
	return func(o *Ollama) {
		o.Temperature = temp
	}
}

func WithTimeout(d time.Duration) Option {
	return func(o *Ollama) {
		o.Client.Timeout = d
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *Ollama) {
		o.Client = c
	}
}

func NewOllama(baseURL, model string, opts ...Option) *Ollama {
	o := &Ollama{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		Model:       model,
		Temperature: 0.7,
		Client:      &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
}

// Streaming chunks look like { "response": "...", "done": false }.
type generateChunk struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// ErrIncompleteResponse means the stream ended before Ollama marked it done.
var ErrIncompleteResponse = errors.New("ollama stream ended before completion")

// Generate sends one prompt and returns the concatenated streamed response.
func (o *Ollama) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody, err := json.Marshal(generateRequest{
		Model:   o.Model,
		Prompt:  prompt,
		Stream:  true,
		Options: generateOptions{Temperature: o.Temperature},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL+"/api/generate", bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("creating ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.Client.Do(req)
	if err != nil {
		metrics.ExternalAPICallsTotal.WithLabelValues("ollama", "error").Inc()
		return "", fmt.Errorf("calling ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.ExternalAPICallsTotal.WithLabelValues("ollama", "error").Inc()
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama error: status %d, body: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out strings.Builder
	decoder := json.NewDecoder(resp.Body)
	for {
		var chunk generateChunk
		if err := decoder.Decode(&chunk); errors.Is(err, io.EOF) {
			metrics.ExternalAPICallsTotal.WithLabelValues("ollama", "error").Inc()
			return "", ErrIncompleteResponse
		} else if err != nil {
			metrics.ExternalAPICallsTotal.WithLabelValues("ollama", "error").Inc()
			return "", fmt.Errorf("decoding ollama response: %w", err)
		}
		if chunk.Error != "" {
			metrics.ExternalAPICallsTotal.WithLabelValues("ollama", "error").Inc()
			return "", fmt.Errorf("ollama error: %s", chunk.Error)
		}
		out.WriteString(chunk.Response)
		if chunk.Done {
			break
		}
	}

	metrics.ExternalAPICallsTotal.WithLabelValues("ollama", "success").Inc()
	return out.String(), nil
}
