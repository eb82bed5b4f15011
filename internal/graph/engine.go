package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Divas-Gupta30/agentic-assistant/internal/metrics"
)

// End is the terminal pseudo-node.
const End = "__end__"

const tracerName = "github.com/Divas-Gupta30/agentic-assistant/internal/graph"

// Selector picks the next node from the state. It must be pure.
type Selector func(s State) string

type transition struct {
	to       string
	selector Selector
	targets  []string
}

// Graph is a small directed acyclic workflow of named steps. Every node has
// exactly one outgoing transition, either fixed or chosen by a selector.
type Graph struct {
	nodes map[string]StepFunc
	order []string
	next  map[string]transition
	entry string
	log   *zap.Logger
}

func NewGraph(log *zap.Logger) *Graph {
	if log == nil {
		log = zap.NewNop()
	}
	return &Graph{
		nodes: make(map[string]StepFunc),
		next:  make(map[string]transition),
		log:   log,
	}
}

func (g *Graph) AddNode(name string, fn StepFunc) {
	if _, ok := g.nodes[name]; !ok {
		g.order = append(g.order, name)
	}
	g.nodes[name] = fn
}

func (g *Graph) AddEdge(from, to string) {
	g.next[from] = transition{to: to}
}

// AddConditionalEdge routes out of from using sel, which must return one of
// targets.
func (g *Graph) AddConditionalEdge(from string, sel Selector, targets ...string) {
	g.next[from] = transition{selector: sel, targets: targets}
}

func (g *Graph) SetEntryPoint(name string) {
	g.entry = name
}

// Validate checks that every edge points at a known node, every node has an
// outgoing transition and that no node can be reached twice on one path.
func (g *Graph) Validate() error {
	if _, ok := g.nodes[g.entry]; !ok {
		return fmt.Errorf("graph: unknown entry point %q", g.entry)
	}
	for _, name := range g.order {
		t, ok := g.next[name]
		if !ok {
			return fmt.Errorf("graph: node %q has no outgoing edge", name)
		}
		for _, to := range t.destinations() {
			if _, ok := g.nodes[to]; !ok && to != End {
				return fmt.Errorf("graph: edge %s -> %s targets unknown node", name, to)
			}
		}
	}
	for from := range g.next {
		if _, ok := g.nodes[from]; !ok {
			return fmt.Errorf("graph: edge from unknown node %q", from)
		}
	}
	return g.checkAcyclic(g.entry, map[string]bool{})
}

func (g *Graph) checkAcyclic(node string, onPath map[string]bool) error {
	if node == End {
		return nil
	}
	if onPath[node] {
		return fmt.Errorf("graph: cycle through %q", node)
	}
	onPath[node] = true
	defer delete(onPath, node)
	for _, to := range g.next[node].destinations() {
		if err := g.checkAcyclic(to, onPath); err != nil {
			return err
		}
	}
	return nil
}

func (t transition) destinations() []string {
	if t.selector != nil {
		return t.targets
	}
	return []string{t.to}
}

// Run walks the graph from the entry point until End. Step errors are
// recorded on the state and never stop the walk. Each node runs at most once.
func (g *Graph) Run(ctx context.Context, s State) State {
	visited := make(map[string]bool, len(g.nodes))
	for cur := g.entry; cur != End; {
		if visited[cur] {
			s.Errors = append(s.Errors, fmt.Sprintf("%s in %s: step already executed", InternalFailure, cur))
			break
		}
		visited[cur] = true

		s = g.runStep(ctx, cur, s)

		next, err := g.resolve(cur, s)
		if err != nil {
			s.Errors = append(s.Errors, err.Error())
			break
		}
		cur = next
	}
	return s
}

func (g *Graph) resolve(from string, s State) (string, error) {
	t, ok := g.next[from]
	if !ok {
		return "", &StepError{Step: from, Kind: InternalFailure, Err: errors.New("no outgoing edge")}
	}
	if t.selector == nil {
		return t.to, nil
	}
	to := t.selector(s)
	for _, target := range t.targets {
		if to == target {
			return to, nil
		}
	}
	return "", &StepError{Step: from, Kind: InternalFailure, Err: fmt.Errorf("selector chose undeclared target %q", to)}
}

// runStep executes one node and merges its result into s. Any error becomes
// an entry in Errors.
func (g *Graph) runStep(ctx context.Context, name string, s State) State {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "step."+name, trace.WithAttributes(
		attribute.String("step", name),
	))
	defer span.End()

	start := time.Now()
	res, err := g.invoke(ctx, name, s.clone())
	metrics.StepDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	out := merge(s, res)

	if err != nil {
		kind := InternalFailure
		var se *StepError
		if errors.As(err, &se) {
			kind = se.Kind
		} else {
			err = &StepError{Step: name, Kind: kind, Err: err}
		}
		out.Errors = append(out.Errors, err.Error())

		metrics.StepFailuresTotal.WithLabelValues(name, kind.String()).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, kind.String())
		g.log.Warn("step failed", zap.String("step", name), zap.Stringer("kind", kind),
			zap.String("trace_id", s.TraceID), zap.Error(err))
	} else {
		g.log.Debug("step finished", zap.String("step", name), zap.String("trace_id", s.TraceID),
			zap.Duration("took", time.Since(start)))
	}
	return out
}

// invoke runs the step and converts a panic into an internal failure so one
// broken step cannot take the query down.
func (g *Graph) invoke(ctx context.Context, name string, s State) (out State, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = s
			err = &StepError{Step: name, Kind: InternalFailure, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return g.nodes[name](ctx, s)
}

// merge overlays the fields a step produced onto the accumulated state.
// Absent (zero) fields in the update never clear earlier values, UserQuery
// and TraceID are fixed for the run, Route is write-once and Errors is owned
// by the engine.
func merge(base, upd State) State {
	out := base.clone()
	if out.Route == "" {
		out.Route = upd.Route
	}
	if upd.WeatherCity != "" {
		out.WeatherCity = upd.WeatherCity
	}
	if upd.WeatherData != nil {
		out.WeatherData = upd.WeatherData
	}
	if upd.RetrievedChunks != nil {
		out.RetrievedChunks = upd.RetrievedChunks
	}
	if upd.RAGContext != "" {
		out.RAGContext = upd.RAGContext
	}
	if upd.LLMInput != "" {
		out.LLMInput = upd.LLMInput
	}
	if upd.LLMResponse != "" {
		out.LLMResponse = upd.LLMResponse
	}
	if upd.FinalAnswer != "" {
		out.FinalAnswer = upd.FinalAnswer
	}
	if upd.EvaluationMetrics != nil {
		out.EvaluationMetrics = upd.EvaluationMetrics
	}
	return out
}
