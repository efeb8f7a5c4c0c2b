// Package otel turns eventbus events into OpenTelemetry spans: one span per
// HTTP request, a child per GraphQL operation and a grandchild per document
// store call.
package otel

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	eventbus "github.com/hanpama/socialgraph/internal/eventbus"
	events "github.com/hanpama/socialgraph/internal/events"
	reqid "github.com/hanpama/socialgraph/internal/reqid"
)

// Setup exports traces to an OTLP/gRPC collector at endpoint and attaches
// span subscribers to bus. If endpoint is empty, no telemetry is configured.
// The returned function flushes and shuts the exporter down.
func Setup(ctx context.Context, bus *eventbus.Bus, endpoint, service string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)

	detach := Attach(bus, tp.Tracer("socialgraph"))
	return func(ctx context.Context) error {
		detach()
		return tp.Shutdown(ctx)
	}, nil
}

// Attach registers the span subscribers on bus and returns a function that
// removes them.
func Attach(bus *eventbus.Bus, tracer trace.Tracer) (detach func()) {
	s := &subscriber{tracer: tracer}
	return s.register(bus)
}

type subscriber struct {
	tracer     trace.Tracer
	httpSpans  sync.Map // reqid token -> trace.Span
	gqlSpans   sync.Map // reqid token -> trace.Span
	storeSpans sync.Map // reqid token -> trace.Span
}

// parent returns ctx carrying the innermost open span of tok among spans.
func (s *subscriber) parent(ctx context.Context, tok string, spans ...*sync.Map) context.Context {
	for _, m := range spans {
		if v, ok := m.Load(tok); ok {
			return trace.ContextWithSpan(ctx, v.(trace.Span))
		}
	}
	return ctx
}

func (s *subscriber) register(bus *eventbus.Bus) func() {
	offs := []func(){
		eventbus.On(bus, func(ctx context.Context, e events.HTTPStart) {
			rid, _ := reqid.FromContext(ctx)
			tok, _ := reqid.Token(ctx)
			_, span := s.tracer.Start(ctx, "http.request", trace.WithSpanKind(trace.SpanKindServer))
			span.SetAttributes(
				semconv.HTTPMethodKey.String(e.Request.Method),
				attribute.String("http.target", e.Request.URL.Path),
				attribute.String("request.id", rid),
			)
			s.httpSpans.Store(tok, span)
		}),

		eventbus.On(bus, func(ctx context.Context, e events.HTTPFinish) {
			tok, _ := reqid.Token(ctx)
			v, ok := s.httpSpans.LoadAndDelete(tok)
			if !ok {
				return
			}
			span := v.(trace.Span)
			span.SetAttributes(semconv.HTTPStatusCodeKey.Int(e.Status))
			if e.Status >= 500 {
				span.SetStatus(codes.Error, "")
			}
			span.End()
		}),

		eventbus.On(bus, func(ctx context.Context, e events.GraphQLStart) {
			tok, _ := reqid.Token(ctx)
			_, span := s.tracer.Start(s.parent(ctx, tok, &s.httpSpans), "graphql.operation")
			span.SetAttributes(
				attribute.String("graphql.operation.name", e.OperationName),
				attribute.String("graphql.operation.type", e.OperationType),
			)
			s.gqlSpans.Store(tok, span)
		}),

		eventbus.On(bus, func(ctx context.Context, e events.GraphQLFinish) {
			tok, _ := reqid.Token(ctx)
			v, ok := s.gqlSpans.LoadAndDelete(tok)
			if !ok {
				return
			}
			span := v.(trace.Span)
			span.SetAttributes(attribute.Int("graphql.error_count", len(e.Errors)))
			if len(e.Errors) > 0 {
				span.SetStatus(codes.Error, e.Errors[0].Error())
			}
			span.End()
		}),

		// A request runs serially, so at most one store call is open per token.
		eventbus.On(bus, func(ctx context.Context, e events.StoreStart) {
			tok, _ := reqid.Token(ctx)
			_, span := s.tracer.Start(s.parent(ctx, tok, &s.gqlSpans, &s.httpSpans), "store."+e.Operation,
				trace.WithSpanKind(trace.SpanKindClient))
			span.SetAttributes(
				semconv.DBOperationKey.String(e.Operation),
				attribute.String("db.collection", e.Collection),
			)
			s.storeSpans.Store(tok, span)
		}),

		eventbus.On(bus, func(ctx context.Context, e events.StoreFinish) {
			tok, _ := reqid.Token(ctx)
			v, ok := s.storeSpans.LoadAndDelete(tok)
			if !ok {
				return
			}
			span := v.(trace.Span)
			if e.Err != nil {
				span.RecordError(e.Err)
				span.SetStatus(codes.Error, e.Err.Error())
			}
			span.End()
		}),
	}
	return func() {
		for _, off := range offs {
			off()
		}
	}
}
