package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Divas-Gupta30/agentic-assistant/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API (POST /query, POST /ingest, /health, /metrics)",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, true)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		var ingester server.Ingester
		checks := map[string]server.Check{}
		if err := a.openStore(ctx); err != nil {
			a.log.Warn("vector store unavailable, ingestion disabled", zap.Error(err))
		} else {
			if err := a.openLedger(ctx); err != nil {
				a.log.Warn("ingest ledger unavailable", zap.Error(err))
			}
			ingester = a.pipeline()
			checks["database"] = func(ctx context.Context) error { return a.store.Pool.Ping(ctx) }
		}

		wf, err := a.workflow()
		if err != nil {
			return err
		}
		checks["weather_cache"] = a.cache.Ping

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = a.cfg.App.HTTPAddr
		}
		return server.New(wf, ingester, a.cfg.Ingestion.DocumentsDir, checks, a.log.Named("http")).ListenAndServe(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default: app.http_addr)")

	rootCmd.AddCommand(serveCmd)
}
