package aggregates

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/insightpath-backend/internal/platform/dbctx"
	"github.com/yungbote/insightpath-backend/internal/platform/httpx"
)

// TxRunner provides a shared transaction boundary primitive for engine writes.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

type gormTxRunner struct {
	db          *gorm.DB
	maxAttempts int
	hooks       Hooks
}

// NewGormTxRunner returns a transaction runner backed by GORM transactions. Serialization failures
// and deadlocks re-run fn up to maxAttempts times in total; values below 1 mean a single attempt.
func NewGormTxRunner(db *gorm.DB, maxAttempts int, hooks Hooks) TxRunner {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if hooks == nil {
		hooks = noopHooks{}
	}
	return &gormTxRunner{db: db, maxAttempts: maxAttempts, hooks: hooks}
}

func (r *gormTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	if r == nil || r.db == nil {
		return errors.New("transaction runner has nil db")
	}
	var err error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(dbctx.Context{Ctx: ctx, Tx: tx})
		})
		if err == nil || !IsRetryable(err) || attempt == r.maxAttempts {
			return err
		}
		r.hooks.IncRetry("tx")
		if sleepErr := httpx.Sleep(ctx, httpx.Backoff(attempt, 20*time.Millisecond, 500*time.Millisecond)); sleepErr != nil {
			return err
		}
	}
	return err
}
