package llm

import (
	"context"
	"errors"
	"time"

	"github.com/yungbote/insightpath-backend/internal/observability"
	"github.com/yungbote/insightpath-backend/internal/platform/ctxutil"
	"github.com/yungbote/insightpath-backend/internal/platform/logger"
)

// ObservedProvider logs and meters every provider round trip, including retried ones.
type ObservedProvider struct {
	inner   Provider
	log     *logger.Logger
	metrics *observability.Metrics
}

func WithObservability(p Provider, log *logger.Logger, metrics *observability.Metrics) Provider {
	if log == nil {
		log = logger.NewNop()
	}
	return &ObservedProvider{inner: p, log: log.With("component", "llm"), metrics: metrics}
}

func (o *ObservedProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	purpose := PurposeFrom(ctx)
	resp, err := o.inner.Generate(ctx, req)
	dur := time.Since(start)

	model := o.inner.ModelID()
	var in, out int
	if resp != nil {
		if resp.Model != "" {
			model = resp.Model
		}
		in, out = resp.Usage.InputTokens, resp.Usage.OutputTokens
	}
	o.metrics.ObserveLLMRequest(model, purpose, statusOf(err), dur, in, out)

	fields := append(ctxutil.LogFields(ctx),
		"purpose", purpose,
		"model", model,
		"latency_ms", dur.Milliseconds(),
		"input_tokens", in,
		"output_tokens", out,
	)
	if err != nil {
		o.log.Warn("llm request failed", append(fields, "error", err)...)
	} else {
		o.log.Debug("llm request", fields...)
	}
	return resp, err
}

func (o *ObservedProvider) ModelID() string { return o.inner.ModelID() }

func statusOf(err error) string {
	if err == nil {
		return "ok"
	}
	var (
		rl   *ErrRateLimit
		inv  *ErrInvalidResponse
		maxT *ErrMaxTokensExceeded
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &rl):
		return "rate_limited"
	case errors.As(err, &inv):
		return "invalid"
	case errors.As(err, &maxT):
		return "max_tokens"
	default:
		return "unavailable"
	}
}
