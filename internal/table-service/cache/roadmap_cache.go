package cache

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/live-tables-platform/pkg/roadmap"
)

// Cache lê os snapshots de roadmap mantidos pelo roadmap-worker
type Cache struct {
	R      *redis.Client
	Prefix string // ex: "roadmap:"
}

func New(r *redis.Client, prefix string) *Cache { return &Cache{R: r, Prefix: prefix} }

func (c *Cache) key(tableID string) string { return c.Prefix + tableID }

// Roadmap devolve (snapshot, true) quando há cache para a mesa
func (c *Cache) Roadmap(ctx context.Context, tableID string) (roadmap.Snapshot, bool, error) {
	var snap roadmap.Snapshot
	b, err := c.R.Get(ctx, c.key(tableID)).Bytes()
	if err == redis.Nil {
		return snap, false, nil
	}
	if err != nil {
		return snap, false, err
	}
	if err := json.Unmarshal(b, &snap); err != nil {
		return snap, false, err
	}
	return snap, true, nil
}
