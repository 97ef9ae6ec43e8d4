package telemetry

import (
	"context"
	"net/http"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestSetup_DisabledInstallsPropagatorsOnly(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{Enabled: false})
	if err != nil {
		t.Fatalf("Setup returned error: %v", err)
	}
	if shutdown == nil {
		t.Fatalf("expected non-nil shutdown func")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown returned error: %v", err)
	}

	fields := otel.GetTextMapPropagator().Fields()
	want := map[string]bool{"traceparent": false, "baggage": false}
	for _, field := range fields {
		if _, ok := want[field]; ok {
			want[field] = true
		}
	}
	for field, seen := range want {
		if !seen {
			t.Fatalf("expected propagator field %q in %v", field, fields)
		}
	}

	header := http.Header{}
	otel.GetTextMapPropagator().Inject(context.Background(), propagation.HeaderCarrier(header))
	if header.Get("traceparent") != "" {
		t.Fatalf("expected no traceparent without an active span, got %q", header.Get("traceparent"))
	}
}

func TestTraceContextStrings_RoundTrip(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	if parent, state := TraceContextStrings(context.Background()); parent != "" || state != "" {
		t.Fatalf("expected empty values without a span, got %q %q", parent, state)
	}
	ctx := context.Background()
	if got := ContextWithTraceContext(ctx, "", ""); got != ctx {
		t.Fatalf("expected ctx unchanged for empty values")
	}

	const traceparent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"
	restored := ContextWithTraceContext(context.Background(), traceparent, "")
	if sc := trace.SpanContextFromContext(restored); !sc.IsValid() || !sc.IsRemote() {
		t.Fatalf("expected a remote span context, got %+v", sc)
	}
	if parent, _ := TraceContextStrings(restored); parent != traceparent {
		t.Fatalf("traceparent = %q, want %q", parent, traceparent)
	}
}
