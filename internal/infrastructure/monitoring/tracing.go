package monitoring

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// TracingConfig holds OpenTelemetry tracing configuration
type TracingConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string

	Enabled      bool
	OTLPEndpoint string
	SamplingRate float64
}

// Tracing owns the tracer provider of the process
type Tracing struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
	logger   *zap.Logger
}

// NewTracing sets up tracing. With tracing disabled, or no exporter
// endpoint, spans are recorded by an unexported provider and dropped.
func NewTracing(cfg TracingConfig, logger *zap.Logger) (*Tracing, error) {
	t := &Tracing{logger: logger.Named("tracing")}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
		resource.WithProcess(),
		resource.WithHost(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SamplingRate))),
	}

	if cfg.Enabled && cfg.OTLPEndpoint != "" {
		exporter, err := otlptracehttp.New(
			context.Background(),
			otlptracehttp.WithEndpoint(cfg.OTLPEndpoint),
			otlptracehttp.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
		t.logger.Info("OTLP trace exporter configured", zap.String("endpoint", cfg.OTLPEndpoint))
	} else {
		t.logger.Info("Tracing without exporter")
	}

	t.provider = sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(t.provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	t.tracer = t.provider.Tracer(
		cfg.ServiceName,
		trace.WithInstrumentationVersion(cfg.ServiceVersion),
		trace.WithSchemaURL(semconv.SchemaURL),
	)
	return t, nil
}

// Tracer returns the service tracer
func (t *Tracing) Tracer() trace.Tracer { return t.tracer }

// Provider returns the SDK tracer provider
func (t *Tracing) Provider() trace.TracerProvider { return t.provider }

// Shutdown flushes pending spans
func (t *Tracing) Shutdown(ctx context.Context) error {
	return t.provider.Shutdown(ctx)
}

// StartBusinessSpan starts a span for a rotation operation
func StartBusinessSpan(ctx context.Context, tracer trace.Tracer, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	spanAttrs := append([]attribute.KeyValue{
		attribute.String("business.operation", operation),
	}, attrs...)
	return tracer.Start(ctx, "rotation."+operation,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(spanAttrs...),
	)
}

// RecordError marks the span as failed
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
