package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/live-tables-platform/internal/game"
)

// Cached coloca o Redis na frente das leituras quentes do Store:
// janela de rodadas recentes por mesa e limites de aposta por jogador.
// Saldos e ledger sempre vão direto ao Store.
type Cached struct {
	Store
	R         *redis.Client
	Window    int
	LimitsTTL time.Duration
	log       *zap.Logger
}

func NewCached(s Store, r *redis.Client, window int, limitsTTL time.Duration, log *zap.Logger) *Cached {
	if window <= 0 {
		window = 100
	}
	return &Cached{Store: s, R: r, Window: window, LimitsTTL: limitsTTL, log: log}
}

func keyRecent(tableID string) string { return "rounds:recent:" + tableID }

// marca que a lista foi carregada do banco e está completa até Window
func keyWarm(tableID string) string { return "rounds:warm:" + tableID }

func keyLimits(playerID string, v game.Variant) string {
	return "limits:" + playerID + ":" + string(v)
}

func (c *Cached) AppendRound(ctx context.Context, r game.Round) error {
	if err := c.Store.AppendRound(ctx, r); err != nil {
		return err
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil
	}
	pipe := c.R.TxPipeline()
	pipe.LPush(ctx, keyRecent(r.TableID), b)
	pipe.LTrim(ctx, keyRecent(r.TableID), 0, int64(c.Window-1))
	if _, err := pipe.Exec(ctx); err != nil {
		// a próxima leitura recarrega do banco
		c.R.Del(ctx, keyWarm(r.TableID))
		c.log.Warn("recent rounds cache push failed", zap.String("table_id", r.TableID), zap.Error(err))
	}
	return nil
}

func (c *Cached) RecentRounds(ctx context.Context, q RoundQuery) ([]game.Round, error) {
	if q.Shoe != 0 || q.Limit <= 0 || q.Limit > c.Window {
		return c.Store.RecentRounds(ctx, q)
	}

	warm, err := c.R.Exists(ctx, keyWarm(q.TableID)).Result()
	if err == nil && warm == 1 {
		raw, err := c.R.LRange(ctx, keyRecent(q.TableID), 0, int64(q.Limit-1)).Result()
		if err == nil {
			out := make([]game.Round, 0, len(raw))
			for i := len(raw) - 1; i >= 0; i-- {
				var r game.Round
				if err := json.Unmarshal([]byte(raw[i]), &r); err != nil {
					return c.reload(ctx, q)
				}
				out = append(out, r)
			}
			return out, nil
		}
	}
	return c.reload(ctx, q)
}

// reload lê a janela inteira do banco e reescreve a lista
func (c *Cached) reload(ctx context.Context, q RoundQuery) ([]game.Round, error) {
	rounds, err := c.Store.RecentRounds(ctx, RoundQuery{TableID: q.TableID, Limit: c.Window})
	if err != nil {
		return nil, err
	}

	pipe := c.R.TxPipeline()
	pipe.Del(ctx, keyRecent(q.TableID))
	for _, r := range rounds {
		b, _ := json.Marshal(r)
		pipe.LPush(ctx, keyRecent(q.TableID), b)
	}
	pipe.Set(ctx, keyWarm(q.TableID), "1", 0)
	if _, err := pipe.Exec(ctx); err != nil {
		c.log.Warn("recent rounds cache reload failed", zap.String("table_id", q.TableID), zap.Error(err))
	}

	if len(rounds) > q.Limit {
		rounds = rounds[len(rounds)-q.Limit:]
	}
	return rounds, nil
}

func (c *Cached) BettingLimits(ctx context.Context, playerID string, v game.Variant) (game.Limits, error) {
	b, err := c.R.Get(ctx, keyLimits(playerID, v)).Bytes()
	if err == nil {
		var l game.Limits
		if json.Unmarshal(b, &l) == nil {
			return l, nil
		}
	} else if err != redis.Nil {
		c.log.Warn("limits cache read failed", zap.String("player_id", playerID), zap.Error(err))
	}

	l, err := c.Store.BettingLimits(ctx, playerID, v)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(l); err == nil {
		c.R.Set(ctx, keyLimits(playerID, v), b, c.LimitsTTL)
	}
	return l, nil
}
