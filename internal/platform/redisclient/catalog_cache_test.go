package redisclient

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/insightpath-backend/internal/domain"
)

func TestNilCacheAlwaysMisses(t *testing.T) {
	var c *CatalogCache
	if _, ok := c.Get(context.Background()); ok {
		t.Fatalf("nil cache should miss")
	}
	c.Set(context.Background(), []*types.Domain{{Name: "x"}})
	if err := c.Invalidate(context.Background()); err != nil {
		t.Fatalf("nil invalidate: %v", err)
	}
	if NewCatalogCache(nil, time.Minute, nil, nil) != nil {
		t.Fatalf("nil client should give nil cache")
	}
}

func TestNewClientDisabledWithoutAddr(t *testing.T) {
	rdb, err := NewClient(context.Background(), Config{})
	if err != nil || rdb != nil {
		t.Fatalf("expected disabled client, got %v %v", rdb, err)
	}
}

func TestDomainCodecRoundTrip(t *testing.T) {
	id := uuid.New()
	raw, err := encodeDomains([]*types.Domain{{ID: id, Name: "Chess Strategy & Tactics", Category: "Vocational & Practical Skills"}, nil})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	rows, err := decodeDomains(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != id || rows[0].Category != "Vocational & Practical Skills" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	if _, err := decodeDomains([]byte(`[{"id":"nope","name":"x"}]`)); err == nil {
		t.Fatalf("expected bad id error")
	}
}

// Runs against a real server when REDIS_ADDR is set.
func TestCatalogCacheLive(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	rdb, err := NewClient(ctx, Config{Addr: addr})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer rdb.Close()
	c := NewCatalogCache(rdb, time.Minute, nil, nil)
	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, ok := c.Get(ctx); ok {
		t.Fatalf("expected miss after invalidate")
	}
	c.Set(ctx, []*types.Domain{{ID: uuid.New(), Name: "Go"}})
	rows, ok := c.Get(ctx)
	if !ok || len(rows) != 1 || rows[0].Name != "Go" {
		t.Fatalf("expected hit, got %v %v", rows, ok)
	}
	_ = c.Invalidate(ctx)
}
