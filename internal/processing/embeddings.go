package processing

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

// EmbeddingDim is the dimension of nomic-embed-text vectors.
const EmbeddingDim = 768

var ErrEmptyInput = errors.New("empty text")

// Embedder turns text into a fixed-size vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// OllamaEmbedder calls a local Ollama server's /api/embeddings endpoint.
type OllamaEmbedder struct {
	BaseURL string
	Model   string
	// Dim is the expected vector size; 0 disables the check.
	Dim    int
	Client *http.Client
}

func NewOllamaEmbedder(baseURL, model string, dim int, timeout time.Duration) *OllamaEmbedder {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OllamaEmbedder{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		Dim:     dim,
		Client:  &http.Client{Timeout: timeout},
	}
}

type embeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}
	data, err := json.Marshal(embeddingRequest{Model: e.Model, Prompt: text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.BaseURL+"/api/embeddings", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.Client.Do(req)
	if err != nil {
		metrics.ExternalAPICallsTotal.WithLabelValues("ollama_embeddings", "error").Inc()
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.ExternalAPICallsTotal.WithLabelValues("ollama_embeddings", "error").Inc()
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama error: status %d, body: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		metrics.ExternalAPICallsTotal.WithLabelValues("ollama_embeddings", "error").Inc()
		return nil, fmt.Errorf("failed decode response: %w", err)
	}
	if e.Dim > 0 && len(out.Embedding) != e.Dim {
		metrics.ExternalAPICallsTotal.WithLabelValues("ollama_embeddings", "error").Inc()
		return nil, fmt.Errorf("expected embedding dim %d, got %d", e.Dim, len(out.Embedding))
	}

	metrics.ExternalAPICallsTotal.WithLabelValues("ollama_embeddings", "success").Inc()
	return out.Embedding, nil
}

// EmbedChunks embeds each chunk in order and stops at the first failure.
func EmbedChunks(ctx context.Context, e Embedder, chunks []string) ([][]float32, error) {
	if len(chunks) == 0 {
		return nil, errors.New("no chunks")
	}
	out := make([][]float32, len(chunks))
	for i, chunk := range chunks {
		emb, err := e.Embed(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("failed embedding chunk %d: %w", i, err)
		}
		out[i] = emb
	}
	return out, nil
}
