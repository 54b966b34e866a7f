package observability

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "insightpath/learning"

// TraceLearningFunction starts a span for one progression engine operation.
func TraceLearningFunction(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "learning."+name, trace.WithAttributes(attrs...))
}

// TraceGatewayFunction starts a span for one AI gateway call.
func TraceGatewayFunction(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "ai."+name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

// FinishSpan records *errp on span and ends it. Intended for defer.
func FinishSpan(span trace.Span, errp *error) {
	if span == nil {
		return
	}
	if errp != nil && *errp != nil {
		span.RecordError(*errp)
		span.SetStatus(codes.Error, (*errp).Error())
	}
	span.End()
}

func AttributeUserID(id uuid.UUID) attribute.KeyValue {
	return attribute.String("user.id", id.String())
}

func AttributeDomainID(id uuid.UUID) attribute.KeyValue {
	return attribute.String("domain.id", id.String())
}

func AttributeInsightID(id uuid.UUID) attribute.KeyValue {
	return attribute.String("insight.id", id.String())
}

func AttributeQuestionID(id uuid.UUID) attribute.KeyValue {
	return attribute.String("question.id", id.String())
}

func AttributeTopic(name string, level int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("topic.name", name),
		attribute.Int("topic.level", level),
	}
}
