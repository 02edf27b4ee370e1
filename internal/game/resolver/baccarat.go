package resolver

import "github.com/radieske/live-tables-platform/internal/game"

// 10, J, Q, K valem zero
func baccaratValue(r game.Rank) int {
	if r >= game.Ten {
		return 0
	}
	return int(r)
}

func baccaratScore(cards []game.Card) int {
	total := 0
	for _, c := range cards {
		total += baccaratValue(c.Rank)
	}
	return total % 10
}

// regra da terceira carta da banca, dada a terceira carta do jogador
func bankerShouldDraw(bankerScore, playerThird int) bool {
	switch bankerScore {
	case 0, 1, 2:
		return true
	case 3:
		return playerThird != 8
	case 4:
		return playerThird >= 2 && playerThird <= 7
	case 5:
		return playerThird >= 4 && playerThird <= 7
	case 6:
		return playerThird == 6 || playerThird == 7
	default:
		return false
	}
}

// baccaratDeal distribui dealt na ordem P,B,P,B + terceiras cartas.
// next != nil indica a próxima posição; used é quantas cartas a rodada consome.
func baccaratDeal(dealt []game.Card) (player, banker []game.Card, next *Slot, used int) {
	n := len(dealt)
	for i := 0; i < 4 && i < n; i++ {
		if i%2 == 0 {
			player = append(player, dealt[i])
		} else {
			banker = append(banker, dealt[i])
		}
	}
	if n < 4 {
		hand := game.HandPlayer
		if n%2 == 1 {
			hand = game.HandBanker
		}
		return player, banker, &Slot{Hand: hand, Index: n / 2}, n
	}

	ps, bs := baccaratScore(player), baccaratScore(banker)
	if ps >= 8 || bs >= 8 {
		return player, banker, nil, 4
	}

	pos := 4
	if ps <= 5 {
		if n <= pos {
			return player, banker, &Slot{Hand: game.HandPlayer, Index: 2}, n
		}
		third := dealt[pos]
		player = append(player, third)
		pos++
		if !bankerShouldDraw(bs, baccaratValue(third.Rank)) {
			return player, banker, nil, pos
		}
	} else if bs > 5 {
		return player, banker, nil, pos
	}

	if n <= pos {
		return player, banker, &Slot{Hand: game.HandBanker, Index: 2}, n
	}
	banker = append(banker, dealt[pos])
	return player, banker, nil, pos + 1
}

func resolveBaccarat(v game.Variant, dealt []game.Card) (game.Result, error) {
	player, banker, next, used := baccaratDeal(dealt)
	if next != nil {
		return game.Result{}, countError(used+1, len(dealt))
	}
	if used != len(dealt) {
		return game.Result{}, countError(used, len(dealt))
	}

	ps, bs := baccaratScore(player), baccaratScore(banker)
	outcome := game.OutcomeTie
	switch {
	case ps > bs:
		outcome = game.OutcomePlayer
	case bs > ps:
		outcome = game.OutcomeBanker
	}

	return game.Result{
		Variant: v,
		Hands: []game.Hand{
			{Name: game.HandPlayer, Cards: player, Points: ps},
			{Name: game.HandBanker, Cards: banker, Points: bs},
		},
		Outcome: outcome,
		Flags: game.Flags{
			PlayerPair: player[0].Rank == player[1].Rank,
			BankerPair: banker[0].Rank == banker[1].Rank,
			BankerSix:  outcome == game.OutcomeBanker && bs == 6,
		},
	}, nil
}
