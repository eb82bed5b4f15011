// Command weather-service exposes the cached OpenWeatherMap lookup over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Divas-Gupta30/agentic-assistant/internal/config"
	"github.com/Divas-Gupta30/agentic-assistant/internal/logger"
	"github.com/Divas-Gupta30/agentic-assistant/internal/weather"
)

func main() {
	configFile := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	zl := logger.New(cfg.App.LogFilePath, cfg.IsProduction()).Named("weather-service")
	defer func() { _ = zl.Sync() }()

	wc := cfg.Weather
	if wc.APIKey == "" {
		zl.Warn("WEATHER_API_KEY not configured, lookups will fail")
	}
	cache := weather.NewCache(wc.RedisAddr, wc.RedisPassword, wc.RedisDB, wc.CacheTTL, zl)
	defer cache.Close()

	fetcher := weather.NewCachedFetcher(weather.NewClient(wc.APIKey, wc.BaseURL, wc.Timeout), cache, zl)

	server := &http.Server{
		Addr:              ":" + wc.ServicePort,
		Handler:           weather.NewRouter(fetcher, cache, zl),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zl.Info("Weather Service starting", zap.String("port", wc.ServicePort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	zl.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		zl.Error("Server forced to shutdown", zap.Error(err))
		return
	}
	zl.Info("Server exited")
}
