// Package settlement calcula e grava o acerto de uma rodada.
// O stake não é debitado na aposta; o acerto grava delta = retorno - stake.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/live-tables-platform/internal/game"
	"github.com/radieske/live-tables-platform/internal/game/odds"
	"github.com/radieske/live-tables-platform/internal/store"
)

// WagerResult é a aposta depois do acerto
type WagerResult struct {
	game.Wager
	Multiplier decimal.Decimal `json:"multiplier"`
	Return     int64           `json:"return"`
}

// PlayerResult agrega o acerto de um jogador
type PlayerResult struct {
	PlayerID string        `json:"playerId"`
	Wagers   []WagerResult `json:"wagers"`
	Stake    int64         `json:"stake"`
	Return   int64         `json:"return"`
	Delta    int64         `json:"delta"`
	Balance  int64         `json:"balance"`
	EntryID  int64         `json:"entryId"`
}

type Settlement struct {
	RoundID string         `json:"roundId"`
	TableID string         `json:"tableId"`
	Reason  string         `json:"reason"`
	Players []PlayerResult `json:"players"`
	// a rodada já estava acertada; nada foi gravado desta vez
	Replayed bool `json:"replayed"`
}

// Compute aplica a tabela de pagamentos às apostas. Função pura.
func Compute(res game.Result, wagers []game.Wager) []WagerResult {
	out := make([]WagerResult, 0, len(wagers))
	for _, w := range wagers {
		m := odds.Multiplier(w.BetType, res)
		ret := odds.Return(w.Amount, m)
		w.Status = odds.Status(w.Amount, ret)
		out = append(out, WagerResult{Wager: w, Multiplier: m, Return: ret})
	}
	return out
}

// refunds devolve todas as apostas integralmente
func refunds(wagers []game.Wager) []WagerResult {
	out := make([]WagerResult, 0, len(wagers))
	for _, w := range wagers {
		w.Status = game.WagerRefunded
		out = append(out, WagerResult{Wager: w, Multiplier: decimal.NewFromInt(1), Return: w.Amount})
	}
	return out
}

// group agrega por jogador em ordem de player_id
func group(results []WagerResult) []PlayerResult {
	idx := make(map[string]int)
	var players []PlayerResult
	for _, r := range results {
		i, ok := idx[r.PlayerID]
		if !ok {
			i = len(players)
			idx[r.PlayerID] = i
			players = append(players, PlayerResult{PlayerID: r.PlayerID})
		}
		p := &players[i]
		p.Wagers = append(p.Wagers, r)
		p.Stake += r.Amount
		p.Return += r.Return
		p.Delta = p.Return - p.Stake
	}
	sort.Slice(players, func(i, j int) bool { return players[i].PlayerID < players[j].PlayerID })
	return players
}

type Engine struct {
	store store.Store
	log   *zap.Logger
}

func NewEngine(s store.Store, log *zap.Logger) *Engine {
	return &Engine{store: s, log: log}
}

// Settle acerta a rodada numa única chamada atômica ao store.
// Uma segunda chamada para a mesma rodada não altera saldos (Replayed=true).
func (e *Engine) Settle(ctx context.Context, round game.Round, wagers []game.Wager) (Settlement, error) {
	return e.apply(ctx, round.ID, round.TableID, store.ReasonSettlement, Compute(round.Result, wagers))
}

// Refund anula a rodada: toda aposta volta como refunded e o delta é zero
func (e *Engine) Refund(ctx context.Context, roundID, tableID string, wagers []game.Wager) (Settlement, error) {
	return e.apply(ctx, roundID, tableID, store.ReasonVoid, refunds(wagers))
}

func (e *Engine) apply(ctx context.Context, roundID, tableID, reason string, results []WagerResult) (Settlement, error) {
	s := Settlement{RoundID: roundID, TableID: tableID, Reason: reason, Players: group(results)}

	req := store.RoundSettlement{RoundID: roundID, TableID: tableID, Reason: reason}
	for _, p := range s.Players {
		ps := store.PlayerSettlement{PlayerID: p.PlayerID, Delta: p.Delta}
		for _, w := range p.Wagers {
			ps.Wagers = append(ps.Wagers, store.SettledWager{
				BetType: w.BetType, Amount: w.Amount, Return: w.Return, Status: w.Status,
			})
		}
		req.Players = append(req.Players, ps)
	}

	entries, err := e.store.SettleRound(ctx, req)
	switch {
	case errors.Is(err, store.ErrAlreadySettled):
		e.log.Info("round already settled, skipping",
			zap.String("round_id", roundID), zap.String("table_id", tableID))
		s.Replayed = true
		entries, err = e.store.RoundLedger(ctx, roundID)
		if err != nil {
			return s, fmt.Errorf("read settled ledger: %w", err)
		}
	case err != nil:
		return s, err
	}

	byPlayer := make(map[string]store.Entry, len(entries))
	for _, en := range entries {
		byPlayer[en.PlayerID] = en
	}
	for i := range s.Players {
		if en, ok := byPlayer[s.Players[i].PlayerID]; ok {
			s.Players[i].Balance = en.After
			s.Players[i].EntryID = en.ID
		}
	}
	return s, nil
}
