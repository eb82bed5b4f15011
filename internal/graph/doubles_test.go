package graph

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/Divas-Gupta30/agentic-assistant/internal/evaluation"
	"github.com/Divas-Gupta30/agentic-assistant/internal/weather"
)

var errUnavailable = errors.New("connection refused")

// scriptedGenerator answers by matching a marker in the prompt, so one double
// can serve every step of the workflow.
type scriptedGenerator struct {
	mu      sync.Mutex
	prompts []string
	answers map[string]string // prompt marker -> answer
	fail    map[string]error  // prompt marker -> error
	err     error             // fails every call when set
}

func (g *scriptedGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	for marker, err := range g.fail {
		if strings.Contains(prompt, marker) {
			return "", err
		}
	}
	for marker, answer := range g.answers {
		if strings.Contains(prompt, marker) {
			return answer, nil
		}
	}
	return "", nil
}

func (g *scriptedGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

// Prompt markers, one per template.
const (
	markRouting  = "classify user queries"
	markCity     = "Identify the city"
	markWeather  = "Analyze the weather data"
	markDocument = "Refer only the given data"
)

type fakeSearcher struct {
	hits  []ScoredText
	err   error
	calls int
	gotK  int
}

func (f *fakeSearcher) Search(_ context.Context, _ string, k int) ([]ScoredText, error) {
	f.calls++
	f.gotK = k
	if f.err != nil {
		return nil, f.err
	}
	if len(f.hits) > k {
		return f.hits[:k], nil
	}
	return f.hits, nil
}

type fakeWeather struct {
	report *weather.Report
	err    error
	cities []string
}

func (f *fakeWeather) Fetch(_ context.Context, city string) (*weather.Report, error) {
	f.cities = append(f.cities, city)
	if f.err != nil {
		return nil, f.err
	}
	return f.report, nil
}

type fakeEvaluator struct {
	scores map[string]any
	err    error
	got    evaluation.Record
}

func (f *fakeEvaluator) Evaluate(_ context.Context, rec evaluation.Record) (map[string]any, error) {
	f.got = rec
	if f.err != nil {
		return nil, f.err
	}
	out := map[string]any{}
	for k, v := range rec.Local {
		out[k] = v
	}
	for k, v := range f.scores {
		out[k] = v
	}
	out[evaluation.KeySource] = "remote"
	return out, nil
}

func parisReport() *weather.Report {
	return &weather.Report{
		City:        "Paris",
		Country:     "FR",
		Condition:   "Clear",
		Description: "clear sky",
		Temperature: 15.2,
		FeelsLike:   14.1,
		Humidity:    65,
		Pressure:    1013,
		Visibility:  10000,
		WindSpeed:   3.1,
		Source:      "api",
	}
}

type panickingGenerator struct{}

func (panickingGenerator) Generate(context.Context, string) (string, error) {
	panic("boom")
}
