package observability

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "solarshare"

// Span attribute keys for the SolarShare aggregates.
const (
	AttrCommunityID     = attribute.Key("solarshare.community_id")
	AttrQuoteRequestID  = attribute.Key("solarshare.quote_request_id")
	AttrProviderQuoteID = attribute.Key("solarshare.provider_quote_id")
	AttrProjectID       = attribute.Key("solarshare.project_id")
	AttrOutboxEventID   = attribute.Key("solarshare.outbox_event_id")
	AttrEventType       = attribute.Key("solarshare.event_type")
	AttrTotalVotes      = attribute.Key("solarshare.tally.total_votes")
)

// Tracer is replaced by InitTracing; until then it is the global no-op tracer.
var Tracer trace.Tracer = otel.Tracer(instrumentationName)

// TracingConfig holds configuration for initializing the tracer.
type TracingConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Enabled        bool
	Exporter       string // "stdout" or "otlp"
	OTLPEndpoint   string
	SamplerRatio   float64
}

// InitTracing installs the tracer provider and returns its shutdown func.
func InitTracing(cfg TracingConfig) (func(context.Context) error, error) {
	if !cfg.Enabled {
		Tracer = otel.Tracer(instrumentationName)
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := newExporter(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracing exporter: %w", err)
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(samplerFor(cfg.SamplerRatio)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	Tracer = tp.Tracer(instrumentationName, trace.WithInstrumentationVersion(cfg.ServiceVersion))

	return tp.Shutdown, nil
}

// newExporter picks the OTLP collector when asked for, stdout otherwise.
// Plain HTTP to the collector is only allowed outside production.
func newExporter(cfg TracingConfig) (sdktrace.SpanExporter, error) {
	if strings.EqualFold(cfg.Exporter, "otlp") {
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.OTLPEndpoint)}
		if !strings.EqualFold(cfg.Environment, "production") {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(context.Background(), opts...)
	}
	return stdouttrace.New(stdouttrace.WithPrettyPrint())
}

// samplerFor respects the caller's sampling decision and samples new traces
// at ratio.
func samplerFor(ratio float64) sdktrace.Sampler {
	switch {
	case ratio >= 1:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	case ratio <= 0:
		return sdktrace.ParentBased(sdktrace.NeverSample())
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	}
}

// Span is an in-flight unit of voting or outbox work.
type Span struct {
	span trace.Span
}

func startSpan(ctx context.Context, name string, kind trace.SpanKind, attrs ...attribute.KeyValue) (*Span, context.Context) {
	ctx, span := Tracer.Start(ctx, name, trace.WithSpanKind(kind), trace.WithAttributes(attrs...))
	return &Span{span: span}, ctx
}

// StartVotingSpan starts "voting.<op>" for one quote request.
func StartVotingSpan(ctx context.Context, op string, requestID uint, attrs ...attribute.KeyValue) (*Span, context.Context) {
	attrs = append(attrs, AttrQuoteRequestID.Int64(int64(requestID)))
	return startSpan(ctx, "voting."+op, trace.SpanKindInternal, attrs...)
}

// StartOutboxSpan starts a producer span for delivering one outbox event.
func StartOutboxSpan(ctx context.Context, eventType string, eventID, aggregateID uint) (*Span, context.Context) {
	return startSpan(ctx, "outbox.deliver "+eventType, trace.SpanKindProducer,
		AttrEventType.String(eventType),
		AttrOutboxEventID.Int64(int64(eventID)),
		attribute.Int64("solarshare.aggregate_id", int64(aggregateID)),
	)
}

// Set adds attributes to the span.
func (s *Span) Set(attrs ...attribute.KeyValue) {
	s.span.SetAttributes(attrs...)
}

// Fail marks the span as errored and returns err unchanged, so callers can
// write `return nil, span.Fail(err)`.
func (s *Span) Fail(err error) error {
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// End ends the span.
func (s *Span) End() {
	s.span.End()
}

// TraceIDFromContext returns the active trace id or an empty string.
func TraceIDFromContext(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
