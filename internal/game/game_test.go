package game

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeckHas52DistinctCards(t *testing.T) {
	deck := NewDeck()
	require.Len(t, deck, 52)
	seen := make(map[Card]bool, 52)
	for _, c := range deck {
		assert.False(t, seen[c], "duplicate %s", c)
		seen[c] = true
	}
}

func TestCardTextRoundTrip(t *testing.T) {
	b, err := json.Marshal([]Card{{Suit: Hearts, Rank: Ten}, {Suit: Spades, Rank: Queen}})
	require.NoError(t, err)
	assert.JSONEq(t, `["10:hearts","Q:spades"]`, string(b))

	var back []Card
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, []Card{{Suit: Hearts, Rank: Ten}, {Suit: Spades, Rank: Queen}}, back)

	_, err = ParseCard("Z:hearts")
	assert.Error(t, err)
	_, err = ParseCard("A:stars")
	assert.Error(t, err)
}

func TestNewWagerValidation(t *testing.T) {
	tests := []struct {
		name    string
		variant Variant
		bet     BetType
		amount  int64
		wantErr bool
	}{
		{"banker on baccarat", Baccarat, BetBanker, 100, false},
		{"dragon on baccarat", Baccarat, BetDragon, 100, true},
		{"seat on dragon tiger", DragonTiger, BetSeat1, 100, true},
		{"zero amount", DragonTiger, BetDragon, 0, true},
		{"negative amount", BullBull, BetSeat2, -5, true},
		{"seat on bull", BullBull, BetSeat3, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := NewWager(tt.variant, "p1", tt.bet, tt.amount)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, WagerPending, w.Status)
		})
	}
}

func TestLimitsCheck(t *testing.T) {
	l := DefaultLimits(Baccarat, 100, 1000)
	assert.NoError(t, l.Check(BetBanker, 100))
	assert.ErrorIs(t, l.Check(BetBanker, 99), ErrValidation)
	assert.ErrorIs(t, l.Check(BetTie, 1001), ErrValidation)
}

func TestParseVariant(t *testing.T) {
	v, err := ParseVariant("dragon_tiger")
	require.NoError(t, err)
	assert.Equal(t, DragonTiger, v)
	assert.Equal(t, 2, v.MaxCards())
	assert.True(t, v.HasRoadmap())
	assert.False(t, BullBull.HasRoadmap())

	_, err = ParseVariant("poker")
	assert.Error(t, err)
}
