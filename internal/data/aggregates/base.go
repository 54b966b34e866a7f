package aggregates

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/yungbote/insightpath-backend/internal/platform/apierr"
	"github.com/yungbote/insightpath-backend/internal/platform/dbctx"
)

// WriteDeps is what every transactional engine write needs.
type WriteDeps struct {
	Runner TxRunner
	Hooks  Hooks
}

// ExecuteWrite runs fn inside one transaction, maps the failure into the apierr taxonomy and
// reports the outcome under op.
func ExecuteWrite(ctx context.Context, deps WriteDeps, op string, fn func(dbc dbctx.Context) error) error {
	start := time.Now()
	if deps.Hooks == nil {
		deps.Hooks = noopHooks{}
	}
	op = strings.TrimSpace(op)
	if op == "" {
		op = "engine.write"
	}
	if deps.Runner == nil {
		return apierr.Internal("internal", errors.New(op+": no transaction runner"))
	}
	err := deps.Runner.InTx(ctx, fn)
	mapped := MapError(op, err)

	status := OperationStatus(mapped)
	if mapped != nil {
		if apierr.KindOf(mapped) == apierr.KindConflict {
			deps.Hooks.IncConflict(op)
		}
		if errors.Is(mapped, ErrRetryable) {
			deps.Hooks.IncRetry(op)
		}
	}
	deps.Hooks.ObserveOperation(op, status, time.Since(start))
	return mapped
}

// OperationStatus is the metric label for an operation result.
func OperationStatus(err error) string {
	if err == nil {
		return "success"
	}
	if errors.Is(err, ErrRetryable) {
		return "retryable"
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "canceled"
	}
	return string(apierr.KindOf(err))
}
