package learning

import (
	"context"
	"math/rand"
	"time"

	"github.com/yungbote/insightpath-backend/internal/data/aggregates"
	"github.com/yungbote/insightpath-backend/internal/data/repos"
	types "github.com/yungbote/insightpath-backend/internal/domain"
	"github.com/yungbote/insightpath-backend/internal/observability"
	"github.com/yungbote/insightpath-backend/internal/platform/aigateway"
	"github.com/yungbote/insightpath-backend/internal/platform/dbctx"
	"github.com/yungbote/insightpath-backend/internal/platform/logger"
)

// CatalogCache is the read-through cache in front of the domain list.
type CatalogCache interface {
	Get(ctx context.Context) ([]*types.Domain, bool)
	Set(ctx context.Context, rows []*types.Domain)
}

type UsecasesDeps struct {
	Log     *logger.Logger
	Tx      aggregates.TxRunner
	Hooks   aggregates.Hooks
	Metrics *observability.Metrics

	AI aigateway.Gateway

	Users      repos.UserRepo
	Domains    repos.DomainRepo
	Assessment repos.AssessmentQuestionRepo

	Progress  repos.UserDomainProgressRepo
	Topics    repos.TopicProgressRepo
	Insights  repos.InsightRepo
	Questions repos.QuestionRepo
	Answers   repos.UserAnswerRepo

	Catalog CatalogCache

	// Clock and Rand default to time.Now and math/rand; tests pin them.
	Clock func() time.Time
	Rand  func() float64
}

type Usecases struct {
	deps UsecasesDeps
}

func New(deps UsecasesDeps) Usecases {
	if deps.Log == nil {
		deps.Log = logger.NewNop()
	}
	deps.Log = deps.Log.With("service", "ProgressionEngine")
	if deps.Hooks == nil {
		deps.Hooks = aggregates.NoopHooks()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Rand == nil {
		deps.Rand = rand.Float64
	}
	return Usecases{deps: deps}
}

func (u Usecases) WithLog(log *logger.Logger) Usecases {
	u.deps.Log = log
	return u
}

func (u Usecases) now() time.Time { return u.deps.Clock().UTC() }

// write runs fn in one transaction. The runner may replay fn after a serialization failure;
// collaborator results are kept for the whole operation so a replay never calls it again.
func (u Usecases) write(ctx context.Context, op string, fn func(dbc dbctx.Context) error) error {
	ctx = withCallMemo(ctx)
	return aggregates.ExecuteWrite(ctx, aggregates.WriteDeps{Runner: u.deps.Tx, Hooks: u.deps.Hooks}, op, fn)
}

// read runs fn outside a transaction with the same error mapping and signals as write.
func (u Usecases) read(ctx context.Context, op string, fn func(dbc dbctx.Context) error) error {
	start := time.Now()
	err := aggregates.MapError(op, fn(dbctx.Context{Ctx: ctx}))
	u.deps.Hooks.ObserveOperation(op, aggregates.OperationStatus(err), time.Since(start))
	return err
}
