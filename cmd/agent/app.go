package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Divas-Gupta30/agentic-assistant/internal/config"
	"github.com/Divas-Gupta30/agentic-assistant/internal/evaluation"
	"github.com/Divas-Gupta30/agentic-assistant/internal/graph"
	"github.com/Divas-Gupta30/agentic-assistant/internal/ingestion"
	"github.com/Divas-Gupta30/agentic-assistant/internal/llm"
	"github.com/Divas-Gupta30/agentic-assistant/internal/logger"
	"github.com/Divas-Gupta30/agentic-assistant/internal/processing"
	"github.com/Divas-Gupta30/agentic-assistant/internal/storage"
	"github.com/Divas-Gupta30/agentic-assistant/internal/tracer"
	"github.com/Divas-Gupta30/agentic-assistant/internal/weather"
)

var errStoreUnavailable = errors.New("vector store unavailable")

// app holds the wired dependencies shared by the subcommands.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	store    *storage.Store
	ledger   *storage.Ledger
	embedder *processing.OllamaEmbedder
	cache    weather.Cache

	closers []func()
}

// newApp loads config and builds the logger. fileLogging selects the rotated
// file logger used by long-running commands.
func newApp(cmd *cobra.Command, fileLogging bool) (*app, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	var log *zap.Logger
	if fileLogging {
		log = logger.New(cfg.App.LogFilePath, cfg.IsProduction())
	} else {
		log = logger.NewConsole(debug)
	}

	a := &app{
		cfg: cfg,
		log: log,
		embedder: processing.NewOllamaEmbedder(cfg.LLM.OllamaBaseURL, cfg.LLM.EmbeddingModel,
			cfg.Database.EmbeddingDim, cfg.LLM.Timeout),
	}

	shutdown := tracer.Init(cfg.Tracing, log)
	a.closers = append(a.closers, func() { _ = shutdown(context.Background()) })
	return a, nil
}

// openStore connects to pgvector and makes sure the schema exists.
func (a *app) openStore(ctx context.Context) error {
	st, err := storage.Open(ctx, a.cfg.Database.URL, a.cfg.Database.Table, a.cfg.Database.EmbeddingDim)
	if err != nil {
		return err
	}
	if err := st.EnsureSchema(ctx); err != nil {
		st.Close()
		return err
	}
	a.store = st
	a.closers = append(a.closers, st.Close)
	return nil
}

func (a *app) openLedger(ctx context.Context) error {
	l, err := storage.OpenLedger(ctx, a.cfg.Database.URL)
	if err != nil {
		return err
	}
	a.ledger = l
	a.closers = append(a.closers, func() { _ = l.Close() })
	return nil
}

func (a *app) pipeline() *ingestion.Pipeline {
	splitter := processing.NewSplitter(a.cfg.Ingestion.ChunkSize, a.cfg.Ingestion.ChunkOverlap)
	var ledger ingestion.Ledger
	if a.ledger != nil {
		ledger = a.ledger
	}
	return ingestion.NewPipeline(splitter, a.embedder, a.store, ledger, a.log.Named("ingestion"))
}

// searcher adapts the vector store to the workflow. Without a store every
// search fails, which the workflow records and answers around.
func (a *app) searcher() graph.Searcher {
	if a.store == nil {
		return graph.SearchFunc(func(context.Context, string, int) ([]graph.ScoredText, error) {
			return nil, errStoreUnavailable
		})
	}
	r := storage.NewRetriever(a.store, a.embedder)
	return graph.SearchFunc(func(ctx context.Context, query string, k int) ([]graph.ScoredText, error) {
		matches, err := r.Retrieve(ctx, query, k)
		if err != nil {
			return nil, err
		}
		out := make([]graph.ScoredText, len(matches))
		for i, m := range matches {
			out[i] = graph.ScoredText{Text: m.Content, Score: m.Score}
		}
		return out, nil
	})
}

func (a *app) weatherFetcher() graph.WeatherFetcher {
	wc := a.cfg.Weather
	a.cache = weather.NewCache(wc.RedisAddr, wc.RedisPassword, wc.RedisDB, wc.CacheTTL, a.log.Named("weather"))
	a.closers = append(a.closers, func() { _ = a.cache.Close() })

	client := weather.NewClient(wc.APIKey, wc.BaseURL, wc.Timeout)
	return weather.NewCachedFetcher(client, a.cache, a.log.Named("weather"))
}

// workflow wires the query router. The store should be opened first.
func (a *app) workflow() (*graph.Workflow, error) {
	lc := a.cfg.LLM
	gen := llm.NewOllama(lc.OllamaBaseURL, lc.Model,
		llm.WithTemperature(lc.Temperature),
		llm.WithTimeout(lc.Timeout),
	)
	ec := a.cfg.Evaluation
	ev := evaluation.NewClient(ec.ServiceURL, ec.APIKey, ec.Project, ec.Timeout)

	return graph.New(graph.Deps{
		Generator: gen,
		Searcher:  a.searcher(),
		Weather:   a.weatherFetcher(),
		Evaluator: ev,
		Project:   ec.Project,
		Log:       a.log,
	})
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	_ = a.log.Sync()
}
