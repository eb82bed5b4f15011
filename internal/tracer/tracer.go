package tracer

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.uber.org/zap"

	"github.com/Divas-Gupta30/agentic-assistant/internal/config"
)

// Init installs an OTLP/HTTP tracer provider when tracing is enabled and
// returns its shutdown function. With tracing disabled the global no-op
// provider stays in place and the returned function does nothing.
func Init(cfg config.TracingConfig, log *zap.Logger) func(context.Context) error {
	noop := func(context.Context) error { return nil }

	if !cfg.Enabled {
		log.Debug("OpenTelemetry tracing is disabled")
		return noop
	}

	exporter, err := otlptracehttp.New(context.Background(),
		otlptracehttp.WithEndpoint(cfg.OTLPEndpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		log.Warn("failed to create OTLP exporter, tracing disabled", zap.Error(err))
		return noop
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(cfg.ServiceName),
		)),
	)
	otel.SetTracerProvider(tp)
	log.Info("OpenTelemetry tracer initialized", zap.String("endpoint", cfg.OTLPEndpoint))

	return tp.Shutdown
}
