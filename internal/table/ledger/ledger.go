// Package ledger guarda as apostas da rodada corrente de uma mesa.
// Não é seguro para uso concorrente: o mutex da mesa protege Ledger e fase juntos.
package ledger

import (
	"sort"

	"github.com/radieske/live-tables-platform/internal/game"
)

// Bet é um item de um pedido de aposta
type Bet struct {
	BetType game.BetType `json:"betType" validate:"required"`
	Amount  int64        `json:"amount" validate:"gt=0"`
}

// Funds é o saldo do jogador lido fora do lock, junto com a versão da exposição
// lida antes dele
type Funds struct {
	Balance int64
	Version uint64
}

type key struct {
	player string
	bet    game.BetType
}

type Ledger struct {
	tableID  string
	variant  game.Variant
	exposure *Exposure

	open   bool
	wagers map[key]*game.Wager
	order  []key
}

func New(tableID string, v game.Variant, exp *Exposure) *Ledger {
	return &Ledger{tableID: tableID, variant: v, exposure: exp, wagers: make(map[key]*game.Wager)}
}

// Open inicia a rodada e aceita apostas
func (l *Ledger) Open() {
	l.open = true
	l.wagers = make(map[key]*game.Wager)
	l.order = nil
}

// Close fecha para escrita; as apostas continuam até o Release
func (l *Ledger) Close() { l.open = false }

// Place valida e aplica um pedido inteiro (tudo ou nada). Apostas do mesmo tipo
// acumulam no mesmo registro. Devolve as apostas do jogador na rodada.
func (l *Ledger) Place(playerID string, bets []Bet, funds Funds, limits game.Limits) ([]game.Wager, error) {
	if !l.open {
		return nil, game.ErrWrongPhase
	}
	if len(bets) == 0 {
		return nil, &game.ValidationError{Field: "bets", Reason: "empty"}
	}

	perType := make(map[game.BetType]int64)
	var total int64
	for _, b := range bets {
		if _, err := game.NewWager(l.variant, playerID, b.BetType, b.Amount); err != nil {
			return nil, err
		}
		perType[b.BetType] += b.Amount
		total += b.Amount
	}
	for bt, amount := range perType {
		existing := int64(0)
		if w, ok := l.wagers[key{playerID, bt}]; ok {
			existing = w.Amount
		}
		if err := limits.Check(bt, existing+amount); err != nil {
			return nil, err
		}
	}

	if err := l.exposure.Reserve(playerID, l.tableID, total, funds.Balance, funds.Version); err != nil {
		return nil, err
	}

	for _, b := range bets {
		k := key{playerID, b.BetType}
		if w, ok := l.wagers[k]; ok {
			w.Amount += b.Amount
			continue
		}
		l.wagers[k] = &game.Wager{PlayerID: playerID, BetType: b.BetType, Amount: b.Amount, Status: game.WagerPending}
		l.order = append(l.order, k)
	}
	return l.PlayerWagers(playerID), nil
}

// Clear remove as apostas do jogador na rodada e libera a exposição
func (l *Ledger) Clear(playerID string) (int64, error) {
	if !l.open {
		return 0, game.ErrWrongPhase
	}
	var released int64
	kept := l.order[:0]
	for _, k := range l.order {
		if k.player != playerID {
			kept = append(kept, k)
			continue
		}
		released += l.wagers[k].Amount
		delete(l.wagers, k)
	}
	l.order = kept
	if released > 0 {
		l.exposure.Release(playerID, l.tableID, released)
	}
	return released, nil
}

// PlayerWagers devolve cópias na ordem de aceitação
func (l *Ledger) PlayerWagers(playerID string) []game.Wager {
	var out []game.Wager
	for _, k := range l.order {
		if k.player == playerID {
			out = append(out, *l.wagers[k])
		}
	}
	return out
}

// Staked é o total apostado pelo jogador nesta rodada
func (l *Ledger) Staked(playerID string) int64 {
	var sum int64
	for _, k := range l.order {
		if k.player == playerID {
			sum += l.wagers[k].Amount
		}
	}
	return sum
}

// Snapshot fecha o ledger e devolve o conjunto congelado, ordenado por jogador
// e tipo de aposta. É a única entrada do acerto.
func (l *Ledger) Snapshot() []game.Wager {
	l.open = false
	out := make([]game.Wager, 0, len(l.order))
	for _, k := range l.order {
		out = append(out, *l.wagers[k])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PlayerID != out[j].PlayerID {
			return out[i].PlayerID < out[j].PlayerID
		}
		return out[i].BetType < out[j].BetType
	})
	return out
}

// Release libera a exposição da rodada (depois do saldo gravado) e esvazia o ledger
func (l *Ledger) Release() {
	staked := make(map[string]int64)
	for _, k := range l.order {
		staked[k.player] += l.wagers[k].Amount
	}
	for player, amount := range staked {
		l.exposure.Release(player, l.tableID, amount)
	}
	l.wagers = make(map[key]*game.Wager)
	l.order = nil
}

func (l *Ledger) Len() int { return len(l.order) }
