package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/live-tables-platform/pkg/roadmap"
)

// RedisCache guarda o snapshot de roadmap corrente de cada mesa
// Prefix: prefixo da chave (ex: "roadmap:")
// TTL: expiração; zero mantém a chave até o próximo set
type RedisCache struct {
	Client *redis.Client
	Prefix string
	TTL    time.Duration
}

func NewRedisCache(c *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	return &RedisCache{Client: c, Prefix: prefix, TTL: ttl}
}

func (r *RedisCache) key(tableID string) string { return r.Prefix + tableID }

// SetCurrent sobrescreve o snapshot da mesa
func (r *RedisCache) SetCurrent(ctx context.Context, tableID string, s roadmap.Snapshot) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, r.key(tableID), b, r.TTL).Err()
}
