package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	types "github.com/yungbote/insightpath-backend/internal/domain"
	"github.com/yungbote/insightpath-backend/internal/observability"
	"github.com/yungbote/insightpath-backend/internal/platform/logger"
)

const (
	catalogKey        = "ip:catalog:domains"
	defaultCatalogTTL = 10 * time.Minute
)

type Config struct {
	Addr       string        `mapstructure:"addr"`
	Password   string        `mapstructure:"password"`
	DB         int           `mapstructure:"db"`
	CatalogTTL time.Duration `mapstructure:"catalog_ttl"`
}

// NewClient connects and pings. An empty address disables redis and returns (nil, nil).
func NewClient(ctx context.Context, cfg Config) (*goredis.Client, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, nil
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// CatalogCache caches the full domain list. The catalog only changes when it is seeded, so a
// whole-list entry with a TTL is enough. A nil *CatalogCache (or nil client) always misses.
type CatalogCache struct {
	rdb     goredis.UniversalClient
	ttl     time.Duration
	log     *logger.Logger
	metrics *observability.Metrics
}

func NewCatalogCache(rdb goredis.UniversalClient, ttl time.Duration, log *logger.Logger, metrics *observability.Metrics) *CatalogCache {
	if rdb == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultCatalogTTL
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &CatalogCache{rdb: rdb, ttl: ttl, log: log.With("service", "CatalogCache"), metrics: metrics}
}

// cachedDomain drops the association so entries stay small; assessment questions are always
// read from the store.
type cachedDomain struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// Get returns the cached list. Errors are logged and reported as a miss.
func (c *CatalogCache) Get(ctx context.Context) ([]*types.Domain, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, catalogKey).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.log.Warn("catalog cache read failed", "error", err)
			c.metrics.IncCatalogCache("error")
		} else {
			c.metrics.IncCatalogCache("miss")
		}
		return nil, false
	}
	rows, err := decodeDomains(raw)
	if err != nil {
		c.log.Warn("catalog cache entry corrupt", "error", err)
		c.metrics.IncCatalogCache("error")
		return nil, false
	}
	c.metrics.IncCatalogCache("hit")
	return rows, true
}

func (c *CatalogCache) Set(ctx context.Context, rows []*types.Domain) {
	if c == nil || c.rdb == nil {
		return
	}
	raw, err := encodeDomains(rows)
	if err != nil {
		c.log.Warn("catalog cache encode failed", "error", err)
		return
	}
	if err := c.rdb.Set(ctx, catalogKey, raw, c.ttl).Err(); err != nil {
		c.log.Warn("catalog cache write failed", "error", err)
	}
}

func (c *CatalogCache) Invalidate(ctx context.Context) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, catalogKey).Err()
}

func encodeDomains(rows []*types.Domain) ([]byte, error) {
	out := make([]cachedDomain, 0, len(rows))
	for _, d := range rows {
		if d == nil {
			continue
		}
		out = append(out, cachedDomain{ID: d.ID.String(), Name: d.Name, Description: d.Description, Category: d.Category})
	}
	return json.Marshal(out)
}

func decodeDomains(raw []byte) ([]*types.Domain, error) {
	var in []cachedDomain
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, err
	}
	out := make([]*types.Domain, 0, len(in))
	for _, d := range in {
		row := &types.Domain{Name: d.Name, Description: d.Description, Category: d.Category}
		if err := row.ID.UnmarshalText([]byte(d.ID)); err != nil {
			return nil, fmt.Errorf("domain %q: %w", d.Name, err)
		}
		out = append(out, row)
	}
	return out, nil
}
