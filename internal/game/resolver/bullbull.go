package resolver

import (
	"fmt"

	"github.com/radieske/live-tables-platform/internal/game"
)

const (
	bullHandSize = 5
	bullClassNo  = 0
	bullClassBB  = 10
	bullClassFF  = 11
)

// banca primeiro, depois player1..3
var bullHands = []string{game.HandBanker, game.HandSeat1, game.HandSeat2, game.HandSeat3}

// as 10 combinações de 3 entre 5 cartas
var bullTriples = [10][3]int{
	{0, 1, 2}, {0, 1, 3}, {0, 1, 4}, {0, 2, 3}, {0, 2, 4},
	{0, 3, 4}, {1, 2, 3}, {1, 2, 4}, {1, 3, 4}, {2, 3, 4},
}

func bullSlot(n int) (Slot, bool) {
	if n >= bullHandSize*len(bullHands) {
		return Slot{}, false
	}
	return Slot{Hand: bullHands[n%len(bullHands)], Index: n / len(bullHands)}, true
}

// A vale 1, 10/J/Q/K valem 10
func bullValue(r game.Rank) int {
	if r >= game.Ten {
		return 10
	}
	return int(r)
}

// BullClass avalia a melhor decomposição da mão: 0 sem bull, 1..9 bull N,
// 10 bull-bull, 11 cinco figuras.
func BullClass(cards []game.Card) int {
	allFace := true
	for _, c := range cards {
		if !c.Rank.IsFace() {
			allFace = false
			break
		}
	}
	if allFace {
		return bullClassFF
	}

	best := bullClassNo
	total := 0
	for _, c := range cards {
		total += bullValue(c.Rank)
	}
	for _, t := range bullTriples {
		sum := bullValue(cards[t[0]].Rank) + bullValue(cards[t[1]].Rank) + bullValue(cards[t[2]].Rank)
		if sum%10 != 0 {
			continue
		}
		rest := (total - sum) % 10
		class := rest
		if rest == 0 {
			class = bullClassBB
		}
		if class > best {
			best = class
		}
	}
	return best
}

// BullMultiplier é o multiplicador da classe usado no pagamento
func BullMultiplier(class int) int {
	switch {
	case class == bullClassFF:
		return 5
	case class == bullClassBB:
		return 3
	case class >= 7:
		return 2
	default:
		return 1
	}
}

func bullClassName(class int) string {
	switch class {
	case bullClassNo:
		return "no_bull"
	case bullClassBB:
		return "bull_bull"
	case bullClassFF:
		return "five_face"
	default:
		return fmt.Sprintf("bull_%d", class)
	}
}

// maior carta por valor de face e depois naipe (espadas > copas > paus > ouros)
func highCard(cards []game.Card) game.Card {
	best := cards[0]
	for _, c := range cards[1:] {
		if c.Rank > best.Rank || (c.Rank == best.Rank && c.Suit > best.Suit) {
			best = c
		}
	}
	return best
}

// beats indica se a mão a vence b; igualdade exata fica com b (a banca)
func beats(classA int, a []game.Card, classB int, b []game.Card) bool {
	if classA != classB {
		return classA > classB
	}
	ha, hb := highCard(a), highCard(b)
	if ha.Rank != hb.Rank {
		return ha.Rank > hb.Rank
	}
	return ha.Suit > hb.Suit
}

func resolveBullBull(dealt []game.Card) (game.Result, error) {
	want := bullHandSize * len(bullHands)
	if len(dealt) != want {
		return game.Result{}, countError(want, len(dealt))
	}

	cards := make([][]game.Card, len(bullHands))
	for i, c := range dealt {
		h := i % len(bullHands)
		cards[h] = append(cards[h], c)
	}

	res := game.Result{Variant: game.BullBull}
	classes := make([]int, len(bullHands))
	for i, name := range bullHands {
		classes[i] = BullClass(cards[i])
		res.Hands = append(res.Hands, game.Hand{
			Name:   name,
			Cards:  cards[i],
			Points: classes[i],
			Class:  bullClassName(classes[i]),
		})
	}

	wins := 0
	for i := 1; i < len(bullHands); i++ {
		win := beats(classes[i], cards[i], classes[0], cards[0])
		if win {
			wins++
		}
		res.Seats = append(res.Seats, game.SeatResult{
			Seat:       bullHands[i],
			Win:        win,
			Class:      bullClassName(classes[i]),
			Multiplier: BullMultiplier(classes[i]),
		})
	}

	switch wins {
	case 0:
		res.Outcome = game.OutcomeBankerSweep
	case len(bullHands) - 1:
		res.Outcome = game.OutcomePlayersSweep
	default:
		res.Outcome = game.OutcomeSplit
	}
	return res, nil
}
