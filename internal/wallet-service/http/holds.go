package http

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// Holds informa quanto do saldo está preso em apostas abertas nas mesas
type Holds interface {
	Held(ctx context.Context, playerID string) (int64, error)
}

// RedisHolds lê o hash mantido pelo table-service
type RedisHolds struct {
	Client *redis.Client
	Key    string
}

func (h RedisHolds) Held(ctx context.Context, playerID string) (int64, error) {
	v, err := h.Client.HGet(ctx, h.Key, playerID).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}
