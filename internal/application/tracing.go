package application

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/example/room-booking/internal/application"

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// endSpan closes span, marking it failed only for unexpected errors.
// Expected outcomes such as conflicts and validation failures are recorded as attributes.
func endSpan(span trace.Span, err error) {
	if err != nil {
		kind := ErrorKind(err)
		span.SetAttributes(attribute.String("error.kind", kind))
		if kind == "unexpected" {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}
	span.End()
}
