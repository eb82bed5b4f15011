package graph

import (
	"context"

	"github.com/Divas-Gupta30/agentic-assistant/internal/evaluation"
	"github.com/Divas-Gupta30/agentic-assistant/internal/weather"
)

// Generator turns a prompt into generated text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ScoredText is one search hit with its relevance in [0,1].
type ScoredText struct {
	Text  string
	Score float64
}

// Searcher returns up to k hits ordered by descending relevance.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]ScoredText, error)
}

// SearchFunc adapts a plain function to Searcher, so storage backends need not
// import this package.
type SearchFunc func(ctx context.Context, query string, k int) ([]ScoredText, error)

func (f SearchFunc) Search(ctx context.Context, query string, k int) ([]ScoredText, error) {
	return f(ctx, query, k)
}

// WeatherFetcher resolves a "City, CC" query to a weather report.
type WeatherFetcher interface {
	Fetch(ctx context.Context, city string) (*weather.Report, error)
}

// Evaluator is the external evaluation service.
type Evaluator interface {
	Evaluate(ctx context.Context, rec evaluation.Record) (map[string]any, error)
}
