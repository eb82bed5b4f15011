package graph

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Divas-Gupta30/agentic-assistant/internal/evaluation"
	"github.com/Divas-Gupta30/agentic-assistant/internal/metrics"
)

// Step names, also used as node ids in the graph.
const (
	StepClassify        = "classify"
	StepCityExtract     = "city_extract"
	StepWeatherFetch    = "weather_fetch"
	StepContextRetrieve = "context_retrieve"
	StepSynthesize      = "synthesize"
	StepEvaluate        = "evaluate"
)

// DefaultTopK is the number of chunks the context step asks for.
const DefaultTopK = 3

// StepFunc is one unit of work. It receives its own copy of the state and
// returns the full state, updated, even when it also returns an error.
type StepFunc func(ctx context.Context, s State) (State, error)

// ClassifyStep asks the generator for a route label. A failing or panicking
// generator never leaves the route unset: it falls back to RouteOther.
func ClassifyStep(gen Generator) StepFunc {
	return func(ctx context.Context, s State) (out State, err error) {
		defer func() {
			if r := recover(); r != nil {
				s.Route = RouteOther
				out, err = s, stepErr(StepClassify, ClassificationFailure, fmt.Errorf("panic: %v", r))
			}
		}()

		label, err := gen.Generate(ctx, render(routingPrompt, map[string]string{
			"user_query": s.UserQuery,
		}))
		if err != nil {
			s.Route = RouteOther
			return s, stepErr(StepClassify, ClassificationFailure, err)
		}
		s.Route = ParseRoute(label)
		return s, nil
	}
}

// CityExtractStep stores the generator's "City, CC" answer verbatim.
func CityExtractStep(gen Generator) StepFunc {
	return func(ctx context.Context, s State) (State, error) {
		city, err := gen.Generate(ctx, render(cityPrompt, map[string]string{
			"user_query": s.UserQuery,
		}))
		if err != nil {
			return s, stepErr(StepCityExtract, ExtractionFailure, err)
		}
		city = strings.TrimSpace(city)
		if city == "" {
			return s, stepErr(StepCityExtract, ExtractionFailure, ErrEmptyResponse)
		}
		s.WeatherCity = city
		return s, nil
	}
}

// WeatherFetchStep looks up the extracted city. Without a city it fails
// fast and never calls the fetcher.
func WeatherFetchStep(w WeatherFetcher) StepFunc {
	return func(ctx context.Context, s State) (State, error) {
		if strings.TrimSpace(s.WeatherCity) == "" {
			return s, stepErr(StepWeatherFetch, FetchFailure, ErrNoCity)
		}
		report, err := w.Fetch(ctx, s.WeatherCity)
		if err != nil {
			return s, stepErr(StepWeatherFetch, FetchFailure, err)
		}
		s.WeatherData = report
		return s, nil
	}
}

// ContextStep retrieves the top k chunks for the query, keeping the order the
// searcher returned them in.
func ContextStep(search Searcher, k int) StepFunc {
	if k <= 0 {
		k = DefaultTopK
	}
	return func(ctx context.Context, s State) (State, error) {
		hits, err := search.Search(ctx, s.UserQuery, k)
		if err != nil {
			return s, stepErr(StepContextRetrieve, FetchFailure, err)
		}
		chunks := make([]string, 0, len(hits))
		for _, h := range hits {
			chunks = append(chunks, h.Text)
		}
		s.RetrievedChunks = chunks
		s.RAGContext = strings.Join(chunks, "\n\n")
		return s, nil
	}
}

// SynthesizeStep formats the route's prompt and generates the answer.
// Missing branch data is stated explicitly in the prompt so a degraded
// answer is still produced.
func SynthesizeStep(gen Generator) StepFunc {
	return func(ctx context.Context, s State) (State, error) {
		if ParseRoute(string(s.Route)) == RouteWeather {
			data := noWeatherData
			if s.WeatherData != nil {
				data = s.WeatherData.Summary()
			}
			s.LLMInput = render(weatherPrompt, map[string]string{
				"user_query":   s.UserQuery,
				"weather_data": data,
			})
		} else {
			rag := s.RAGContext
			if strings.TrimSpace(rag) == "" {
				rag = noRAGContext
			}
			s.LLMInput = render(documentPrompt, map[string]string{
				"user_query":  s.UserQuery,
				"rag_context": rag,
			})
		}

		out, err := gen.Generate(ctx, s.LLMInput)
		if err != nil {
			return s, stepErr(StepSynthesize, SynthesisFailure, err)
		}
		s.LLMResponse = out
		return s, nil
	}
}

// EvaluateStep scores the answer. It prefers the external evaluator and falls
// back to local heuristics, recording why. It never returns an error.
func EvaluateStep(ev Evaluator, project string, log *zap.Logger) StepFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(ctx context.Context, s State) (State, error) {
		in := evaluation.Input{
			Query:          s.UserQuery,
			Response:       s.LLMResponse,
			Route:          string(s.Route),
			HasRAGContext:  s.RAGContext != "",
			HasWeatherData: s.WeatherData != nil,
		}
		local := evaluation.Local(in)

		if ev == nil {
			local[evaluation.KeyError] = evaluation.ErrNoCredentials.Error()
			s.EvaluationMetrics = local
			return s, nil
		}

		remote, err := ev.Evaluate(ctx, evaluation.Record{
			TraceID: s.TraceID,
			Project: project,
			Input:   in,
			Local:   local,
		})
		if err != nil {
			metrics.EvaluationFallbacksTotal.Inc()
			log.Debug("evaluation service unavailable, using local heuristics", zap.Error(err))
			local[evaluation.KeyError] = err.Error()
			s.EvaluationMetrics = local
			return s, nil
		}
		s.EvaluationMetrics = remote
		return s, nil
	}
}
