package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/live-tables-platform/internal/game"
)

func cards(t *testing.T, specs ...string) []game.Card {
	t.Helper()
	out := make([]game.Card, 0, len(specs))
	for _, s := range specs {
		c, err := game.ParseCard(s)
		require.NoError(t, err)
		out = append(out, c)
	}
	return out
}

func TestResolveBaccaratGolden(t *testing.T) {
	tests := []struct {
		name        string
		dealt       []string
		outcome     game.Outcome
		player      int
		banker      int
		playerCards int
		bankerCards int
		playerPair  bool
		bankerPair  bool
		bankerSix   bool
	}{
		{
			name:    "banker natural nine",
			dealt:   []string{"9:clubs", "5:hearts", "2:diamonds", "4:spades"},
			outcome: game.OutcomeBanker, player: 1, banker: 9, playerCards: 2, bankerCards: 2,
		},
		{
			name:    "player natural eight",
			dealt:   []string{"8:spades", "3:hearts", "K:diamonds", "3:clubs"},
			outcome: game.OutcomePlayer, player: 8, banker: 6, playerCards: 2, bankerCards: 2,
			bankerPair: true,
		},
		{
			name:    "player draws banker stands on six",
			dealt:   []string{"2:spades", "K:hearts", "3:diamonds", "6:clubs", "9:hearts"},
			outcome: game.OutcomeBanker, player: 4, banker: 6, playerCards: 3, bankerCards: 2,
			bankerSix: true,
		},
		{
			name:    "player stands banker draws",
			dealt:   []string{"Q:spades", "2:hearts", "6:diamonds", "2:clubs", "3:spades"},
			outcome: game.OutcomeBanker, player: 6, banker: 7, playerCards: 2, bankerCards: 3,
			bankerPair: true,
		},
		{
			name:    "both draw",
			dealt:   []string{"A:spades", "4:hearts", "2:diamonds", "K:clubs", "5:spades", "5:hearts"},
			outcome: game.OutcomeBanker, player: 8, banker: 9, playerCards: 3, bankerCards: 3,
		},
		{
			name:    "tie on seven",
			dealt:   []string{"7:spades", "7:hearts", "K:diamonds", "Q:clubs"},
			outcome: game.OutcomeTie, player: 7, banker: 7, playerCards: 2, bankerCards: 2,
		},
		{
			name:    "player pair",
			dealt:   []string{"3:spades", "J:hearts", "3:hearts", "K:clubs", "A:diamonds"},
			outcome: game.OutcomePlayer, player: 6, banker: 1, playerCards: 2, bankerCards: 3,
			playerPair: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dealt := cards(t, tt.dealt...)
			res, err := Resolve(game.Baccarat, dealt)
			require.NoError(t, err)

			p, _ := res.Hand(game.HandPlayer)
			b, _ := res.Hand(game.HandBanker)
			assert.Equal(t, tt.outcome, res.Outcome)
			assert.Equal(t, tt.player, p.Points)
			assert.Equal(t, tt.banker, b.Points)
			assert.Len(t, p.Cards, tt.playerCards)
			assert.Len(t, b.Cards, tt.bankerCards)
			assert.Equal(t, tt.playerPair, res.Flags.PlayerPair)
			assert.Equal(t, tt.bankerPair, res.Flags.BankerPair)
			assert.Equal(t, tt.bankerSix, res.Flags.BankerSix)

			again, err := Resolve(game.Baccarat, dealt)
			require.NoError(t, err)
			assert.Equal(t, res, again)
		})
	}
}

func TestBaccaratNextSlot(t *testing.T) {
	dealt := cards(t, "A:spades", "4:hearts", "2:diamonds", "K:clubs", "5:spades", "5:hearts")
	want := []Slot{
		{Hand: game.HandPlayer, Index: 0},
		{Hand: game.HandBanker, Index: 0},
		{Hand: game.HandPlayer, Index: 1},
		{Hand: game.HandBanker, Index: 1},
		{Hand: game.HandPlayer, Index: 2},
		{Hand: game.HandBanker, Index: 2},
	}
	for i, w := range want {
		slot, ok := NextSlot(game.Baccarat, dealt[:i])
		require.True(t, ok, "step %d", i)
		assert.Equal(t, w, slot, "step %d", i)
	}
	_, ok := NextSlot(game.Baccarat, dealt)
	assert.False(t, ok)

	natural := cards(t, "9:clubs", "5:hearts", "2:diamonds", "4:spades")
	_, ok = NextSlot(game.BaccaratNoCommission, natural)
	assert.False(t, ok)

	playerStands := cards(t, "Q:spades", "2:hearts", "6:diamonds", "2:clubs")
	slot, ok := NextSlot(game.Baccarat, playerStands)
	require.True(t, ok)
	assert.Equal(t, Slot{Hand: game.HandBanker, Index: 2}, slot)
}

func TestBaccaratCardCountErrors(t *testing.T) {
	_, err := Resolve(game.Baccarat, cards(t, "9:clubs", "5:hearts", "2:diamonds"))
	assert.ErrorIs(t, err, ErrIncompleteDeal)

	_, err = Resolve(game.Baccarat, cards(t, "9:clubs", "5:hearts", "2:diamonds", "4:spades", "A:spades"))
	assert.ErrorIs(t, err, ErrTooManyCards)

	_, err = Resolve(game.Variant("poker"), nil)
	assert.ErrorIs(t, err, ErrUnknownVariant)
}

func TestResolveDragonTiger(t *testing.T) {
	tests := []struct {
		name      string
		dealt     []string
		outcome   game.Outcome
		suitedTie bool
	}{
		{"king beats ace", []string{"K:spades", "A:hearts"}, game.OutcomeDragon, false},
		{"tiger higher", []string{"3:clubs", "9:diamonds"}, game.OutcomeTiger, false},
		{"suited tie", []string{"7:hearts", "7:hearts"}, game.OutcomeTie, true},
		{"plain tie", []string{"7:hearts", "7:spades"}, game.OutcomeTie, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Resolve(game.DragonTiger, cards(t, tt.dealt...))
			require.NoError(t, err)
			assert.Equal(t, tt.outcome, res.Outcome)
			assert.Equal(t, tt.suitedTie, res.Flags.SuitedTie)
		})
	}

	slot, ok := NextSlot(game.DragonTiger, nil)
	assert.True(t, ok)
	assert.Equal(t, game.HandDragon, slot.Hand)
	_, ok = NextSlot(game.DragonTiger, cards(t, "K:spades", "A:hearts"))
	assert.False(t, ok)

	_, err := Resolve(game.DragonTiger, cards(t, "K:spades"))
	assert.ErrorIs(t, err, ErrIncompleteDeal)
}

func TestBullClass(t *testing.T) {
	tests := []struct {
		name  string
		hand  []string
		class int
	}{
		{"five face", []string{"K:spades", "Q:hearts", "J:clubs", "J:diamonds", "K:hearts"}, 11},
		{"tens are not faces", []string{"10:spades", "J:hearts", "Q:clubs", "K:diamonds", "10:hearts"}, 10},
		{"bull nine", []string{"3:spades", "7:hearts", "K:clubs", "5:diamonds", "4:hearts"}, 9},
		{"bull six", []string{"A:spades", "2:hearts", "3:clubs", "4:diamonds", "6:hearts"}, 6},
		{"no bull", []string{"A:spades", "A:hearts", "2:clubs", "2:diamonds", "3:hearts"}, 0},
		{"bull bull", []string{"5:spades", "5:hearts", "K:clubs", "5:diamonds", "5:clubs"}, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.class, BullClass(cards(t, tt.hand...)))
		})
	}
}

func TestBullMultiplier(t *testing.T) {
	assert.Equal(t, 1, BullMultiplier(0))
	assert.Equal(t, 1, BullMultiplier(6))
	assert.Equal(t, 2, BullMultiplier(7))
	assert.Equal(t, 2, BullMultiplier(9))
	assert.Equal(t, 3, BullMultiplier(10))
	assert.Equal(t, 5, BullMultiplier(11))
}

func interleave(hands ...[]game.Card) []game.Card {
	var out []game.Card
	for j := 0; j < bullHandSize; j++ {
		for _, h := range hands {
			out = append(out, h[j])
		}
	}
	return out
}

func TestResolveBullBull(t *testing.T) {
	banker := cards(t, "A:clubs", "A:diamonds", "2:clubs", "2:diamonds", "3:spades")
	seat1 := cards(t, "K:spades", "Q:hearts", "J:clubs", "J:diamonds", "K:hearts")
	seat2 := cards(t, "A:spades", "2:hearts", "3:clubs", "4:diamonds", "6:hearts")
	seat3 := cards(t, "A:hearts", "A:spades", "2:hearts", "2:spades", "3:diamonds")

	res, err := Resolve(game.BullBull, interleave(banker, seat1, seat2, seat3))
	require.NoError(t, err)
	assert.Equal(t, game.OutcomeSplit, res.Outcome)

	b, _ := res.Hand(game.HandBanker)
	assert.Equal(t, banker, b.Cards)
	assert.Equal(t, "no_bull", b.Class)

	s1, _ := res.Seat(game.HandSeat1)
	assert.True(t, s1.Win)
	assert.Equal(t, "five_face", s1.Class)
	assert.Equal(t, 5, s1.Multiplier)

	s2, _ := res.Seat(game.HandSeat2)
	assert.True(t, s2.Win)
	assert.Equal(t, "bull_6", s2.Class)

	// mesma classe, 3♦ perde para o 3♠ da banca
	s3, _ := res.Seat(game.HandSeat3)
	assert.False(t, s3.Win)

	sweep, err := Resolve(game.BullBull, interleave(seat1, seat2, seat3, banker))
	require.NoError(t, err)
	assert.Equal(t, game.OutcomeBankerSweep, sweep.Outcome)
}

func TestBullExactTieGoesToBanker(t *testing.T) {
	h := cards(t, "3:spades", "7:hearts", "K:clubs", "5:diamonds", "4:hearts")
	assert.False(t, beats(BullClass(h), h, BullClass(h), h))
}

func TestBullNextSlot(t *testing.T) {
	slot, ok := NextSlot(game.BullBull, nil)
	require.True(t, ok)
	assert.Equal(t, Slot{Hand: game.HandBanker, Index: 0}, slot)

	slot, ok = NextSlot(game.BullBull, make([]game.Card, 5))
	require.True(t, ok)
	assert.Equal(t, Slot{Hand: game.HandSeat1, Index: 1}, slot)

	slot, ok = NextSlot(game.BullBull, make([]game.Card, 19))
	require.True(t, ok)
	assert.Equal(t, Slot{Hand: game.HandSeat3, Index: 4}, slot)

	_, ok = NextSlot(game.BullBull, make([]game.Card, 20))
	assert.False(t, ok)
}
