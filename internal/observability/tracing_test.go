package observability

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestFinishSpanRecordsError(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	func() {
		err := errors.New("boom")
		_, span := TraceLearningFunction(context.Background(), "submit_answer")
		defer FinishSpan(span, &err)
	}()
	func() {
		var err error
		_, span := TraceGatewayFunction(context.Background(), "review")
		defer FinishSpan(span, &err)
	}()

	ended := rec.Ended()
	if len(ended) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(ended))
	}
	if ended[0].Name() != "learning.submit_answer" || ended[0].Status().Code != codes.Error {
		t.Fatalf("unexpected first span: %s %v", ended[0].Name(), ended[0].Status())
	}
	if ended[1].Name() != "ai.review" || ended[1].Status().Code == codes.Error {
		t.Fatalf("unexpected second span: %s %v", ended[1].Name(), ended[1].Status())
	}
}
