package weather

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Divas-Gupta30/agentic-assistant/internal/metrics"
)

// NewRouter serves GET /weather?city=, GET /health and /metrics.
func NewRouter(f Fetcher, cache Cache, log *zap.Logger) *mux.Router {
	h := &handler{fetcher: f, cache: cache, log: log}

	router := mux.NewRouter()
	router.HandleFunc("/weather", h.getWeather).Methods(http.MethodGet)
	router.HandleFunc("/health", h.health).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler())
	return router
}

type handler struct {
	fetcher Fetcher
	cache   Cache
	log     *zap.Logger
}

func (h *handler) getWeather(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		metrics.HTTPRequestDuration.WithLabelValues("GET", "/weather").Observe(time.Since(start).Seconds())
	}()

	city := r.URL.Query().Get("city")
	if city == "" {
		metrics.HTTPRequestsTotal.WithLabelValues("GET", "/weather", "error").Inc()
		http.Error(w, "City parameter is required", http.StatusBadRequest)
		return
	}

	report, err := h.fetcher.Fetch(r.Context(), city)
	if err != nil {
		metrics.HTTPRequestsTotal.WithLabelValues("GET", "/weather", "error").Inc()
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, ErrEmptyCity):
			status = http.StatusBadRequest
		case errors.Is(err, ErrCityNotFound):
			status = http.StatusNotFound
		case errors.Is(err, ErrNoAPIKey):
			status = http.StatusServiceUnavailable
		}
		h.log.Warn("failed to get weather data", zap.String("city", city), zap.Error(err))
		http.Error(w, err.Error(), status)
		return
	}

	metrics.HTTPRequestsTotal.WithLabelValues("GET", "/weather", "success").Inc()
	writeJSONResponse(w, report)
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	health := map[string]any{
		"status": "healthy",
		"redis":  "disconnected",
	}
	if _, ok := h.cache.(*RedisCache); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.cache.Ping(ctx); err == nil {
			health["redis"] = "connected"
		}
	}
	writeJSONResponse(w, health)
}

func writeJSONResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}
