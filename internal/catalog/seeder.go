package catalog

import (
	"context"
	"fmt"

	"github.com/yungbote/insightpath-backend/internal/data/aggregates"
	"github.com/yungbote/insightpath-backend/internal/data/repos"
	types "github.com/yungbote/insightpath-backend/internal/domain"
	"github.com/yungbote/insightpath-backend/internal/platform/dbctx"
	"github.com/yungbote/insightpath-backend/internal/platform/logger"
)

// Invalidator drops cached catalog reads after a seed changes the table.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

type Seeder struct {
	domains repos.DomainRepo
	tx      aggregates.TxRunner
	cache   Invalidator
	log     *logger.Logger
}

func NewSeeder(domains repos.DomainRepo, tx aggregates.TxRunner, cache Invalidator, baseLog *logger.Logger) *Seeder {
	return &Seeder{
		domains: domains,
		tx:      tx,
		cache:   cache,
		log:     baseLog.With("service", "CatalogSeeder"),
	}
}

// Seed inserts every catalog domain that is not present yet, matching by name. Existing rows are
// left untouched, so running it repeatedly is safe. It returns the number of domains created.
func (s *Seeder) Seed(ctx context.Context, c *Catalog) (int, error) {
	if c == nil {
		return 0, fmt.Errorf("seed: nil catalog")
	}
	created := 0
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		created = 0
		for _, cat := range c.Categories {
			for _, d := range cat.Domains {
				existing, err := s.domains.GetByName(dbc, d.Name)
				if err != nil {
					return fmt.Errorf("lookup domain %q: %w", d.Name, err)
				}
				if existing != nil {
					continue
				}
				if _, err := s.domains.Create(dbc, []*types.Domain{c.Build(cat.Name, d)}); err != nil {
					return fmt.Errorf("create domain %q: %w", d.Name, err)
				}
				created++
				s.log.Debug("created domain", "domain", d.Name, "category", cat.Name)
			}
		}
		return nil
	})
	if err != nil {
		return 0, aggregates.MapError("seed_catalog", err)
	}
	if created > 0 && s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.log.Warn("catalog cache invalidation failed", "error", err)
		}
	}
	s.log.Info("catalog seeded", "created", created, "total", c.DomainCount())
	return created, nil
}
