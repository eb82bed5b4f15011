package graph

import (
	"maps"
	"slices"
	"strings"

	"github.com/Divas-Gupta30/agentic-assistant/internal/weather"
)

// Route selects the branch that handles a query.
type Route string

const (
	RouteWeather Route = "weather"
	RouteOther   Route = "other"
)

// ParseRoute maps a classifier label to a route. Only "weather" (ignoring
// case, surrounding whitespace, quotes and a trailing period) selects the
// weather branch; every other label, including the empty one, is RouteOther.
func ParseRoute(label string) Route {
	l := strings.ToLower(strings.TrimSpace(label))
	l = strings.Trim(l, "\"'`.")
	if strings.TrimSpace(l) == string(RouteWeather) {
		return RouteWeather
	}
	return RouteOther
}

// State is the per-query record threaded through the workflow. Each step
// fills its own fields; absent fields are zero values and omitted from JSON.
type State struct {
	UserQuery string `json:"user_query"`
	Route     Route  `json:"route,omitempty"`

	WeatherCity string          `json:"weather_city,omitempty"`
	WeatherData *weather.Report `json:"weather_data,omitempty"`

	RetrievedChunks []string `json:"retrieved_chunks,omitempty"`
	RAGContext      string   `json:"rag_context,omitempty"`

	LLMInput    string `json:"llm_input,omitempty"`
	LLMResponse string `json:"llm_response,omitempty"`
	FinalAnswer string `json:"final_answer,omitempty"`

	EvaluationMetrics map[string]any `json:"evaluation_metrics,omitempty"`

	TraceID string   `json:"trace_id,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// Answer is the text shown to the caller: FinalAnswer when set, otherwise
// the raw LLMResponse. Empty means no answer was generated.
func (s State) Answer() string {
	if s.FinalAnswer != "" {
		return s.FinalAnswer
	}
	return s.LLMResponse
}

// HasErrors reports whether any step recorded a failure.
func (s State) HasErrors() bool {
	return len(s.Errors) > 0
}

// clone returns a copy that shares no mutable memory with s.
func (s State) clone() State {
	c := s
	c.RetrievedChunks = slices.Clone(s.RetrievedChunks)
	c.Errors = slices.Clone(s.Errors)
	c.EvaluationMetrics = maps.Clone(s.EvaluationMetrics)
	if s.WeatherData != nil {
		wd := *s.WeatherData
		c.WeatherData = &wd
	}
	return c
}
