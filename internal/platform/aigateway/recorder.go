package aigateway

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/insightpath-backend/internal/data/repos"
	types "github.com/yungbote/insightpath-backend/internal/domain"
	"github.com/yungbote/insightpath-backend/internal/observability"
	"github.com/yungbote/insightpath-backend/internal/platform/dbctx"
	"github.com/yungbote/insightpath-backend/internal/platform/logger"
)

const (
	defaultRecorderQueue = 256
	recorderBatchSize    = 32
	maxLoggedPayload     = 16 << 10
)

// Recorder persists one ai_call_log row per gateway call. Rows are queued and written by a
// background writer on its own connection, so logging never joins (or blocks) the caller's
// transaction. A full queue drops the row.
type Recorder struct {
	inner   Gateway
	repo    repos.AICallLogRepo
	log     *logger.Logger
	metrics *observability.Metrics

	queue chan *types.AICallLog
	once  sync.Once
	done  chan struct{}
	mu    sync.RWMutex
	shut  bool
}

func NewRecorder(inner Gateway, repo repos.AICallLogRepo, queueSize int, log *logger.Logger, metrics *observability.Metrics) *Recorder {
	if queueSize <= 0 {
		queueSize = defaultRecorderQueue
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Recorder{
		inner:   inner,
		repo:    repo,
		log:     log.With("service", "AICallRecorder"),
		metrics: metrics,
		queue:   make(chan *types.AICallLog, queueSize),
		done:    make(chan struct{}),
	}
}

func (r *Recorder) Name() string { return r.inner.Name() }

// Start runs the writer until Close is called. ctx only scopes the database writes.
func (r *Recorder) Start(ctx context.Context) {
	r.once.Do(func() {
		go r.run(context.WithoutCancel(ctx))
	})
}

// Close stops accepting rows, drains the queue, and waits for the writer.
func (r *Recorder) Close() {
	r.mu.Lock()
	if !r.shut {
		r.shut = true
		close(r.queue)
	}
	r.mu.Unlock()
	r.Start(context.Background())
	<-r.done
}

func (r *Recorder) GenerateLearningPath(ctx context.Context, req LearningPathRequest) (*LearningPathResponse, error) {
	start := time.Now()
	resp, err := r.inner.GenerateLearningPath(ctx, req)
	r.record(CallLearningPath, req.UserID, uuid.Nil, req, resp, err, start)
	return resp, err
}

func (r *Recorder) GenerateInsights(ctx context.Context, req InsightsRequest) ([]InsightDetail, error) {
	start := time.Now()
	out, err := r.inner.GenerateInsights(ctx, req)
	r.record(CallInsights, req.UserID, req.TopicProgressID, req, out, err, start)
	return out, err
}

func (r *Recorder) GenerateReview(ctx context.Context, req ReviewRequest) (*ReviewResponse, error) {
	start := time.Now()
	resp, err := r.inner.GenerateReview(ctx, req)
	r.record(CallReview, req.UserID, req.TopicProgressID, req, resp, err, start)
	return resp, err
}

func (r *Recorder) record(call string, userID, contextID uuid.UUID, req, resp any, callErr error, start time.Time) {
	row := &types.AICallLog{
		CallType:  call,
		Model:     r.inner.Name(),
		Prompt:    truncatedJSON(req),
		Success:   callErr == nil,
		Fallback:  callErr != nil,
		LatencyMs: time.Since(start).Milliseconds(),
	}
	if userID != uuid.Nil {
		uid := userID
		row.UserID = &uid
	}
	if contextID != uuid.Nil {
		cid := contextID
		row.ContextID = &cid
	}
	if callErr != nil {
		row.Error = callErr.Error()
	} else {
		row.Response = truncatedJSON(resp)
	}
	r.enqueue(row)
}

func (r *Recorder) enqueue(row *types.AICallLog) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.shut {
		return
	}
	select {
	case r.queue <- row:
	default:
		r.metrics.IncCallLogDropped()
		r.log.Debug("ai call log queue full; dropping row", "call", row.CallType)
	}
}

func (r *Recorder) run(ctx context.Context) {
	defer close(r.done)

	batch := make([]*types.AICallLog, 0, recorderBatchSize)
	for row := range r.queue {
		batch = append(batch, row)
	fill:
		for len(batch) < recorderBatchSize {
			select {
			case next, ok := <-r.queue:
				if !ok {
					break fill
				}
				batch = append(batch, next)
			default:
				break fill
			}
		}
		r.flush(ctx, batch)
		batch = batch[:0]
	}
}

func (r *Recorder) flush(ctx context.Context, batch []*types.AICallLog) {
	if len(batch) == 0 || r.repo == nil {
		return
	}
	wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := r.repo.Create(dbctx.Context{Ctx: wctx}, batch); err != nil {
		r.log.Warn("failed to persist ai call log", "rows", len(batch), "error", err)
	}
}

func truncatedJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	if len(b) > maxLoggedPayload {
		b = b[:maxLoggedPayload]
	}
	return string(b)
}
