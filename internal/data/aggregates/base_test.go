package aggregates

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yungbote/insightpath-backend/internal/platform/apierr"
	"github.com/yungbote/insightpath-backend/internal/platform/dbctx"
)

func TestExecuteWriteObservesSuccessStatus(t *testing.T) {
	hooks := &spyHooks{}

	err := ExecuteWrite(context.Background(), WriteDeps{
		Runner: spyTxRunner{},
		Hooks:  hooks,
	}, "start_domain", func(_ dbctx.Context) error { return nil })
	if err != nil {
		t.Fatalf("ExecuteWrite success: %v", err)
	}
	if len(hooks.Operations) != 1 {
		t.Fatalf("operations count: want=1 got=%d", len(hooks.Operations))
	}
	if hooks.Operations[0].Status != "success" || hooks.Operations[0].Name != "start_domain" {
		t.Fatalf("unexpected operation: %+v", hooks.Operations[0])
	}
}

func TestExecuteWritePassesTaxonomyErrorsThrough(t *testing.T) {
	hooks := &spyHooks{}

	err := ExecuteWrite(context.Background(), WriteDeps{
		Runner: spyTxRunner{},
		Hooks:  hooks,
	}, "get_review", func(_ dbctx.Context) error {
		return apierr.PreconditionFailed("review_not_available", "completed %d of %d", 1, 6)
	})
	var ae *apierr.Error
	if !errors.As(err, &ae) || ae.Code != "review_not_available" {
		t.Fatalf("expected precondition error, got %v", err)
	}
	if hooks.Operations[0].Status != string(apierr.KindPreconditionFailed) {
		t.Fatalf("operation status: got=%s", hooks.Operations[0].Status)
	}
}

func TestExecuteWriteTracksConflictAndRetryCounters(t *testing.T) {
	t.Run("conflict", func(t *testing.T) {
		hooks := &spyHooks{}
		err := ExecuteWrite(context.Background(), WriteDeps{
			Runner: spyTxRunner{},
			Hooks:  hooks,
		}, "start_domain", func(_ dbctx.Context) error {
			return errors.New("UNIQUE constraint failed: user_domain_progress.user_id")
		})
		if apierr.KindOf(err) != apierr.KindConflict {
			t.Fatalf("expected conflict, got=%v", err)
		}
		if len(hooks.Conflicts) != 1 || hooks.Conflicts[0] != "start_domain" {
			t.Fatalf("conflict hooks: %+v", hooks.Conflicts)
		}
		if len(hooks.Retries) != 0 {
			t.Fatalf("retry hooks should be empty, got=%+v", hooks.Retries)
		}
	})

	t.Run("retryable", func(t *testing.T) {
		hooks := &spyHooks{}
		err := ExecuteWrite(context.Background(), WriteDeps{
			Runner: spyTxRunner{},
			Hooks:  hooks,
		}, "submit_answer", func(_ dbctx.Context) error {
			return errors.New("database is locked")
		})
		if !errors.Is(err, ErrRetryable) {
			t.Fatalf("expected retryable, got=%v", err)
		}
		if len(hooks.Retries) != 1 || hooks.Retries[0] != "submit_answer" {
			t.Fatalf("retry hooks: %+v", hooks.Retries)
		}
		if hooks.Operations[0].Status != "retryable" {
			t.Fatalf("unexpected op status: %+v", hooks.Operations)
		}
	})
}

func TestExecuteWriteWithoutRunner(t *testing.T) {
	err := ExecuteWrite(context.Background(), WriteDeps{}, "x", func(_ dbctx.Context) error { return nil })
	if apierr.KindOf(err) != apierr.KindInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestOperationStatus(t *testing.T) {
	if got := OperationStatus(nil); got != "success" {
		t.Fatalf("nil status: got=%s", got)
	}
	if got := OperationStatus(apierr.NotFound("domain_not_found", "")); got != string(apierr.KindNotFound) {
		t.Fatalf("not found status: got=%s", got)
	}
	if got := OperationStatus(context.DeadlineExceeded); got != "canceled" {
		t.Fatalf("deadline status: got=%s", got)
	}
}

type spyTxRunner struct{}

func (spyTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(dbctx.Context{Ctx: ctx})
}

type spyHooks struct {
	Operations []spyOperation
	Conflicts  []string
	Retries    []string
}

type spyOperation struct {
	Name   string
	Status string
}

func (h *spyHooks) ObserveOperation(name, status string, _ time.Duration) {
	h.Operations = append(h.Operations, spyOperation{Name: name, Status: status})
}

func (h *spyHooks) IncConflict(name string) {
	h.Conflicts = append(h.Conflicts, name)
}

func (h *spyHooks) IncRetry(name string) {
	h.Retries = append(h.Retries, name)
}
