package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/insightpath-backend/internal/catalog"
	"github.com/yungbote/insightpath-backend/internal/data/db"
	types "github.com/yungbote/insightpath-backend/internal/domain"
	apphttp "github.com/yungbote/insightpath-backend/internal/http"
	"github.com/yungbote/insightpath-backend/internal/observability"
	"github.com/yungbote/insightpath-backend/internal/platform/dbctx"
	"github.com/yungbote/insightpath-backend/internal/platform/logger"
	"github.com/yungbote/insightpath-backend/internal/platform/redisclient"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	DB       *gorm.DB
	Redis    *goredis.Client
	Metrics  *observability.Metrics
	Repos    Repos
	Services Services
	Server   *apphttp.Server

	otelShutdown func(context.Context) error
}

// New opens every dependency and wires the API. Close releases them.
func New(ctx context.Context, cfg Config, log *logger.Logger) (*App, error) {
	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.Otel.Enabled,
		ServiceName: cfg.Otel.ServiceName,
		Environment: cfg.Otel.Environment,
		Endpoint:    cfg.Otel.Endpoint,
		Headers:     cfg.Otel.Headers,
		Insecure:    cfg.Otel.Insecure,
		SampleRatio: cfg.Otel.SampleRatio,
	})
	metrics := observability.Init(log, cfg.Metrics.Enabled, cfg.Metrics.ScrapeInterval)

	theDB, err := db.Open(cfg.Database.toDB(), log)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := db.AutoMigrateAll(theDB); err != nil {
		_ = db.Close(theDB)
		return nil, err
	}

	rdb, err := redisclient.NewClient(ctx, cfg.Redis)
	if err != nil {
		// The catalog cache is optional; the engine reads the store directly without it.
		log.Warn("redis unavailable, catalog cache disabled", "addr", cfg.Redis.Addr, "error", err)
		rdb = nil
	}

	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(ctx, theDB, rdb, log, cfg, reposet, metrics)
	if err != nil {
		_ = db.Close(theDB)
		if rdb != nil {
			_ = rdb.Close()
		}
		return nil, err
	}

	handlerset := wireHandlers(log, theDB, serviceset)
	middleware := wireMiddleware(log, cfg)
	server := apphttp.NewServer(wireRouterConfig(log, cfg, metrics, handlerset, middleware), ":"+strconv.Itoa(cfg.Server.Port))

	return &App{
		Log:          log,
		Cfg:          cfg,
		DB:           theDB,
		Redis:        rdb,
		Metrics:      metrics,
		Repos:        reposet,
		Services:     serviceset,
		Server:       server,
		otelShutdown: otelShutdown,
	}, nil
}

// Run serves HTTP until ctx is canceled, then drains in-flight requests within the shutdown timeout.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	g, gctx := errgroup.WithContext(ctx)

	if rec := a.Services.Gateway.Recorder; rec != nil {
		rec.Start(gctx)
	}
	if a.Cfg.Metrics.Enabled {
		a.Metrics.StartServer(gctx, a.Log, a.Cfg.Metrics.Addr)
		a.Metrics.StartDBCollector(gctx, a.Log, a.DB)
		if a.Redis != nil {
			a.Metrics.StartRedisCollector(gctx, a.Log, a.Redis)
		}
	}

	g.Go(func() error {
		a.Log.Info("HTTP server listening", "port", a.Cfg.Server.Port)
		return a.Server.Run()
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Cfg.Server.ShutdownTimeout)
		defer cancel()
		a.Log.Info("shutting down HTTP server")
		return a.Server.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Seed loads the embedded catalog. A non-empty demoEmail also ensures a learner row with that email.
func (a *App) Seed(ctx context.Context, demoEmail string) error {
	c, err := catalog.Default()
	if err != nil {
		return err
	}
	n, err := a.Services.Seeder.Seed(ctx, c)
	if err != nil {
		return err
	}
	a.Log.Info("catalog seeded", "domains_created", n)
	if demoEmail == "" {
		return nil
	}
	u, err := a.Repos.User.EnsureByEmail(dbctx.Context{Ctx: ctx}, &types.User{Email: demoEmail, FirstName: "Demo", LastName: "Learner"})
	if err != nil {
		return fmt.Errorf("seed demo user: %w", err)
	}
	a.Log.Info("demo learner ready", "email", demoEmail, "user_id", u.ID)
	return nil
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if rec := a.Services.Gateway; rec != nil && rec.Recorder != nil {
		rec.Recorder.Close()
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.DB != nil {
		_ = db.Close(a.DB)
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(context.Background())
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}

// Migrate opens the configured database and applies the schema without wiring the API.
func Migrate(cfg Config, log *logger.Logger) error {
	theDB, err := db.Open(cfg.Database.toDB(), log)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer db.Close(theDB)
	return db.AutoMigrateAll(theDB)
}
