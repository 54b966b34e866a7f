package aigateway

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/insightpath-backend/internal/observability"
	"github.com/yungbote/insightpath-backend/internal/platform/logger"
)

const DefaultTimeout = 30 * time.Second

const (
	outcomeSuccess  = "success"
	outcomeFallback = "fallback"
	outcomeTimeout  = "timeout"
)

// FallbackGateway bounds every call with a timeout and replaces any failure with the call's
// deterministic fallback value. Its methods never return an error.
type FallbackGateway struct {
	inner   Gateway
	timeout time.Duration
	log     *logger.Logger
	metrics *observability.Metrics
}

func WithFallback(inner Gateway, timeout time.Duration, log *logger.Logger, metrics *observability.Metrics) *FallbackGateway {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &FallbackGateway{
		inner:   inner,
		timeout: timeout,
		log:     log.With("service", "AIGateway", "transport", inner.Name()),
		metrics: metrics,
	}
}

func (g *FallbackGateway) Name() string { return g.inner.Name() }

func (g *FallbackGateway) GenerateLearningPath(ctx context.Context, req LearningPathRequest) (*LearningPathResponse, error) {
	ctx, span := observability.TraceGatewayFunction(ctx, CallLearningPath,
		attribute.String("domain.name", req.DomainName),
		observability.AttributeUserID(req.UserID),
	)
	defer span.End()

	start := time.Now()
	cctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, callErr := g.inner.GenerateLearningPath(cctx, req)
	if callErr == nil && (resp == nil || len(resp.Topics) == 0) {
		callErr = errors.New("empty learning path")
	}
	if callErr != nil {
		g.degrade(CallLearningPath, start, callErr, "domain", req.DomainName)
		span.RecordError(callErr)
		span.SetAttributes(attribute.Bool("ai.fallback", true))
		return FallbackLearningPath(req.DomainName), nil
	}
	if resp.DomainName == "" {
		resp.DomainName = req.DomainName
	}
	g.metrics.ObserveGatewayCall(CallLearningPath, outcomeSuccess, time.Since(start))
	return resp, nil
}

func (g *FallbackGateway) GenerateInsights(ctx context.Context, req InsightsRequest) ([]InsightDetail, error) {
	attrs := append(observability.AttributeTopic(req.TopicName, req.Level), observability.AttributeUserID(req.UserID))
	ctx, span := observability.TraceGatewayFunction(ctx, CallInsights, attrs...)
	defer span.End()

	start := time.Now()
	cctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	out, callErr := g.inner.GenerateInsights(cctx, req)
	if callErr != nil {
		g.degrade(CallInsights, start, callErr, "topic", req.TopicName, "level", req.Level)
		span.RecordError(callErr)
		span.SetAttributes(attribute.Bool("ai.fallback", true))
		return FallbackInsights(), nil
	}
	if out == nil {
		out = []InsightDetail{}
	}
	if len(out) == 0 {
		g.log.Warn("collaborator returned no insights", "topic", req.TopicName, "level", req.Level)
	}
	span.SetAttributes(attribute.Int("ai.insights", len(out)))
	g.metrics.ObserveGatewayCall(CallInsights, outcomeSuccess, time.Since(start))
	return out, nil
}

func (g *FallbackGateway) GenerateReview(ctx context.Context, req ReviewRequest) (*ReviewResponse, error) {
	ctx, span := observability.TraceGatewayFunction(ctx, CallReview,
		observability.AttributeUserID(req.UserID),
		attribute.String("topic_progress.id", req.TopicProgressID.String()),
	)
	defer span.End()

	start := time.Now()
	cctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, callErr := g.inner.GenerateReview(cctx, req)
	if callErr == nil && resp == nil {
		callErr = errors.New("empty review")
	}
	if callErr != nil {
		g.degrade(CallReview, start, callErr, "topic_progress_id", req.TopicProgressID)
		span.RecordError(callErr)
		span.SetAttributes(attribute.Bool("ai.fallback", true))
		return FallbackReview(), nil
	}
	g.metrics.ObserveGatewayCall(CallReview, outcomeSuccess, time.Since(start))
	return resp, nil
}

func (g *FallbackGateway) degrade(call string, start time.Time, cause error, kv ...interface{}) {
	outcome := outcomeFallback
	if errors.Is(cause, context.DeadlineExceeded) {
		outcome = outcomeTimeout
	}
	g.metrics.ObserveGatewayCall(call, outcome, time.Since(start))
	fields := append([]interface{}{"call", call, "outcome", outcome, "error", cause}, kv...)
	g.log.Warn("ai gateway call failed; using fallback", fields...)
}
