package app

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/insightpath-backend/internal/catalog"
	"github.com/yungbote/insightpath-backend/internal/data/aggregates"
	"github.com/yungbote/insightpath-backend/internal/modules/learning"
	"github.com/yungbote/insightpath-backend/internal/observability"
	"github.com/yungbote/insightpath-backend/internal/platform/aigateway"
	"github.com/yungbote/insightpath-backend/internal/platform/logger"
	"github.com/yungbote/insightpath-backend/internal/platform/redisclient"
)

type Services struct {
	Tx           aggregates.TxRunner
	CatalogCache *redisclient.CatalogCache
	Gateway      *aigateway.Built
	Engine       learning.Usecases
	Seeder       *catalog.Seeder
}

func wireServices(ctx context.Context, db *gorm.DB, rdb *goredis.Client, log *logger.Logger, cfg Config, r Repos, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	tx := aggregates.NewGormTxRunner(db, cfg.Engine.TxAttempts, aggregates.NewObservabilityHooks(metrics))

	var cache *redisclient.CatalogCache
	if rdb != nil {
		cache = redisclient.NewCatalogCache(rdb, cfg.Redis.CatalogTTL, log, metrics)
	}

	built, err := aigateway.New(ctx, cfg.AI, r.AICallLog, log, metrics)
	if err != nil {
		return Services{}, fmt.Errorf("init ai gateway: %w", err)
	}
	log.Info("AI gateway ready", "mode", cfg.AI.Mode, "adapter", built.Gateway.Name(), "call_log", built.Recorder != nil)

	deps := learning.UsecasesDeps{
		Log:        log,
		Tx:         tx,
		Hooks:      aggregates.NewObservabilityHooks(metrics),
		Metrics:    metrics,
		AI:         built.Gateway,
		Users:      r.User,
		Domains:    r.Domain,
		Assessment: r.AssessmentQuestion,
		Progress:   r.UserDomainProgress,
		Topics:     r.TopicProgress,
		Insights:   r.Insight,
		Questions:  r.Question,
		Answers:    r.UserAnswer,
		Clock:      func() time.Time { return time.Now().UTC() },
	}
	// A nil *CatalogCache inside the interface would still be non-nil, so only set it when present.
	if cache != nil {
		deps.Catalog = cache
	}

	return Services{
		Tx:           tx,
		CatalogCache: cache,
		Gateway:      built,
		Engine:       learning.New(deps),
		Seeder:       catalog.NewSeeder(r.Domain, tx, cache, log),
	}, nil
}
