package holds

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Mirror replica no Redis a exposição em aberto de cada jogador (hash
// jogador -> centavos) para o wallet-service recusar saques que a cobririam.
type Mirror struct {
	rdb *redis.Client
	key string
	ttl time.Duration
	log *zap.Logger

	mu      sync.Mutex
	pending map[string]int64
}

func NewMirror(rdb *redis.Client, key string, ttl time.Duration, log *zap.Logger) *Mirror {
	return &Mirror{rdb: rdb, key: key, ttl: ttl, log: log, pending: make(map[string]int64)}
}

// Set guarda o último total do jogador; compatível com ledger.Exposure.OnChange
func (m *Mirror) Set(playerID string, total int64) {
	m.mu.Lock()
	m.pending[playerID] = total
	m.mu.Unlock()
}

// Run limpa o hash (a exposição do processo começa vazia) e grava as
// mudanças a cada every até ctx acabar.
func (m *Mirror) Run(ctx context.Context, every time.Duration) {
	if err := m.rdb.Del(ctx, m.key).Err(); err != nil {
		m.log.Warn("holds reset failed", zap.Error(err))
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := m.Flush(ctx); err != nil {
				m.log.Warn("holds flush failed", zap.Error(err))
			}
		}
	}
}

// Flush grava os totais pendentes; total zero remove o jogador do hash
func (m *Mirror) Flush(ctx context.Context) error {
	m.mu.Lock()
	batch := m.pending
	m.pending = make(map[string]int64)
	m.mu.Unlock()

	_, err := m.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for player, total := range batch {
			if total <= 0 {
				p.HDel(ctx, m.key, player)
			} else {
				p.HSet(ctx, m.key, player, strconv.FormatInt(total, 10))
			}
		}
		if m.ttl > 0 {
			p.Expire(ctx, m.key, m.ttl)
		}
		return nil
	})
	if err != nil {
		m.requeue(batch)
	}
	return err
}

// requeue devolve o lote sem sobrescrever totais mais novos
func (m *Mirror) requeue(batch map[string]int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for player, total := range batch {
		if _, newer := m.pending[player]; !newer {
			m.pending[player] = total
		}
	}
}
