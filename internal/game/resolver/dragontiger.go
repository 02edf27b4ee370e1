package resolver

import "github.com/radieske/live-tables-platform/internal/game"

func dragonTigerSlot(n int) (Slot, bool) {
	switch n {
	case 0:
		return Slot{Hand: game.HandDragon}, true
	case 1:
		return Slot{Hand: game.HandTiger}, true
	}
	return Slot{}, false
}

// uma carta por lado, A (1) é a menor e K (13) a maior
func resolveDragonTiger(dealt []game.Card) (game.Result, error) {
	if len(dealt) != 2 {
		return game.Result{}, countError(2, len(dealt))
	}
	d, t := dealt[0], dealt[1]

	outcome := game.OutcomeTie
	switch {
	case d.Rank > t.Rank:
		outcome = game.OutcomeDragon
	case t.Rank > d.Rank:
		outcome = game.OutcomeTiger
	}

	return game.Result{
		Variant: game.DragonTiger,
		Hands: []game.Hand{
			{Name: game.HandDragon, Cards: []game.Card{d}, Points: int(d.Rank)},
			{Name: game.HandTiger, Cards: []game.Card{t}, Points: int(t.Rank)},
		},
		Outcome: outcome,
		Flags:   game.Flags{SuitedTie: outcome == game.OutcomeTie && d.Suit == t.Suit},
	}, nil
}
