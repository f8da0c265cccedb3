package telemetry

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// OperationNameAttr, OperationSizeAttr and StageIDAttr mirror
// original_source/storm-tape/src/telemetry_attributes.hpp's OtelAttribute
// constants (storm.operation.name, storm.operation.size); StageIDAttr has
// no equivalent there and is specific to this package's stage model.
// Exported so internal/lifecycle can tag its own spans with the same keys.
const (
	OperationNameAttr = "storm.operation.name"
	OperationSizeAttr = "storm.operation.size"
	StageIDAttr       = "storm.stage.id"
)

// SpanMiddleware opens one server span per request, the Go equivalent of
// original_source/storm-tape/src/trace_span.cpp's TraceSpan(name, req)
// constructor: a span scoped to the request's lifetime, carrying the
// operation name as an attribute.
func SpanMiddleware(tracer trace.Tracer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			operation := r.Method + " " + r.URL.Path
			ctx, span := tracer.Start(r.Context(), operation,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(attribute.String(OperationNameAttr, operation)),
			)
			defer span.End()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AnnotateStageID sets the stage-id attribute on the span active in ctx, if
// any. Handlers call this once the stage id is known (it isn't yet at
// SpanMiddleware's construction time, since chi hasn't matched the route).
func AnnotateStageID(ctx context.Context, id string) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String(StageIDAttr, id))
}
