// Package resolver transforma a sequência de cartas distribuídas de uma rodada
// no resultado final. Todas as funções são puras.
package resolver

import (
	"errors"
	"fmt"

	"github.com/radieske/live-tables-platform/internal/game"
)

var (
	ErrUnknownVariant = errors.New("unknown variant")
	ErrIncompleteDeal = errors.New("deal is incomplete")
	ErrTooManyCards   = errors.New("too many cards for deal")
)

// Slot indica a mão e a posição que recebe a próxima carta
type Slot struct {
	Hand  string `json:"hand"`
	Index int    `json:"index"`
}

// NextSlot devolve para onde vai a próxima carta. ok=false quando a distribuição
// terminou (ou quando dealt já passou do necessário).
func NextSlot(v game.Variant, dealt []game.Card) (Slot, bool) {
	switch v {
	case game.Baccarat, game.BaccaratNoCommission:
		_, _, next, _ := baccaratDeal(dealt)
		if next == nil {
			return Slot{}, false
		}
		return *next, true
	case game.DragonTiger:
		return dragonTigerSlot(len(dealt))
	case game.BullBull:
		return bullSlot(len(dealt))
	default:
		return Slot{}, false
	}
}

// Resolve pontua uma distribuição completa
func Resolve(v game.Variant, dealt []game.Card) (game.Result, error) {
	switch v {
	case game.Baccarat, game.BaccaratNoCommission:
		return resolveBaccarat(v, dealt)
	case game.DragonTiger:
		return resolveDragonTiger(dealt)
	case game.BullBull:
		return resolveBullBull(dealt)
	default:
		return game.Result{}, fmt.Errorf("%w: %q", ErrUnknownVariant, v)
	}
}

func countError(want, got int) error {
	if got < want {
		return fmt.Errorf("%w: want %d cards, got %d", ErrIncompleteDeal, want, got)
	}
	return fmt.Errorf("%w: want %d cards, got %d", ErrTooManyCards, want, got)
}
