package graph

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/Divas-Gupta30/agentic-assistant/internal/metrics"
)

// Deps are the capabilities the workflow calls out to.
type Deps struct {
	Generator Generator
	Searcher  Searcher
	Weather   WeatherFetcher
	// Evaluator is optional; without it evaluation is always local.
	Evaluator Evaluator
	// Project tags records sent to the evaluator.
	Project string
	// TopK overrides DefaultTopK for the context step.
	TopK int
	Log  *zap.Logger
}

// Workflow is the query router:
//
//	classify -> city_extract -> weather_fetch -> synthesize -> evaluate
//	         \-> context_retrieve ---------------/
//
// A Workflow holds no per-query data and is safe for concurrent use.
type Workflow struct {
	graph *Graph
	log   *zap.Logger
}

func New(d Deps) (*Workflow, error) {
	if d.Generator == nil || d.Searcher == nil || d.Weather == nil {
		return nil, fmt.Errorf("graph: generator, searcher and weather fetcher are required")
	}
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	g := NewGraph(log.Named("graph"))
	g.AddNode(StepClassify, ClassifyStep(d.Generator))
	g.AddNode(StepCityExtract, CityExtractStep(d.Generator))
	g.AddNode(StepWeatherFetch, WeatherFetchStep(d.Weather))
	g.AddNode(StepContextRetrieve, ContextStep(d.Searcher, d.TopK))
	g.AddNode(StepSynthesize, SynthesizeStep(d.Generator))
	g.AddNode(StepEvaluate, EvaluateStep(d.Evaluator, d.Project, log.Named("evaluation")))

	g.SetEntryPoint(StepClassify)
	g.AddConditionalEdge(StepClassify, routeSelector, StepCityExtract, StepContextRetrieve)
	g.AddEdge(StepCityExtract, StepWeatherFetch)
	g.AddEdge(StepWeatherFetch, StepSynthesize)
	g.AddEdge(StepContextRetrieve, StepSynthesize)
	g.AddEdge(StepSynthesize, StepEvaluate)
	g.AddEdge(StepEvaluate, End)

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &Workflow{graph: g, log: log}, nil
}

// BranchFor maps a route to the first node of its branch.
func BranchFor(r Route) string {
	if r == RouteWeather {
		return StepCityExtract
	}
	return StepContextRetrieve
}

func routeSelector(s State) string {
	return BranchFor(ParseRoute(string(s.Route)))
}

// Run executes the workflow for one query and returns the final state. It
// blocks until evaluation finished; step failures are reported in
// State.Errors, never as a returned error.
func (w *Workflow) Run(ctx context.Context, query string) State {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "workflow.run")
	defer span.End()

	traceID := uuid.NewString()
	if sc := span.SpanContext(); sc.HasTraceID() {
		traceID = sc.TraceID().String()
	}

	s := w.graph.Run(ctx, State{UserQuery: query, TraceID: traceID})

	span.SetAttributes(
		attribute.String("route", string(s.Route)),
		attribute.Int("errors", len(s.Errors)),
	)
	metrics.QueriesTotal.WithLabelValues(string(s.Route)).Inc()
	w.log.Info("query finished",
		zap.String("trace_id", s.TraceID),
		zap.String("route", string(s.Route)),
		zap.Int("errors", len(s.Errors)),
		zap.Bool("answered", s.Answer() != ""),
	)
	return s
}
