package odds

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/radieske/live-tables-platform/internal/game"
)

func TestMultiplier(t *testing.T) {
	bankerWin := game.Result{Variant: game.Baccarat, Outcome: game.OutcomeBanker}
	bankerSix := game.Result{Variant: game.BaccaratNoCommission, Outcome: game.OutcomeBanker, Flags: game.Flags{BankerSix: true}}
	tie := game.Result{Variant: game.Baccarat, Outcome: game.OutcomeTie, Flags: game.Flags{PlayerPair: true}}
	dtTie := game.Result{Variant: game.DragonTiger, Outcome: game.OutcomeTie, Flags: game.Flags{SuitedTie: true}}
	dtDragon := game.Result{Variant: game.DragonTiger, Outcome: game.OutcomeDragon}
	bull := game.Result{Variant: game.BullBull, Outcome: game.OutcomeSplit, Seats: []game.SeatResult{
		{Seat: "player1", Win: true, Multiplier: 3},
		{Seat: "player2", Win: false, Multiplier: 2},
	}}

	tests := []struct {
		name string
		bet  game.BetType
		res  game.Result
		want string
	}{
		{"banker with commission", game.BetBanker, bankerWin, "1.95"},
		{"player loses", game.BetPlayer, bankerWin, "0"},
		{"no commission banker six", game.BetBanker, bankerSix, "1.5"},
		{"player push on tie", game.BetPlayer, tie, "1"},
		{"tie bet", game.BetTie, tie, "9"},
		{"player pair", game.BetPlayerPair, tie, "12"},
		{"banker pair misses", game.BetBankerPair, tie, "0"},
		{"dragon half back on tie", game.BetDragon, dtTie, "0.5"},
		{"suited tie", game.BetSuitedTie, dtTie, "51"},
		{"dragon wins", game.BetDragon, dtDragon, "2"},
		{"tiger loses", game.BetTiger, dtDragon, "0"},
		{"bull seat win", game.BetSeat1, bull, "4"},
		{"bull seat loss", game.BetSeat2, bull, "0"},
		{"bull seat missing", game.BetSeat3, bull, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Multiplier(tt.bet, tt.res)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestReturnFloorsToCent(t *testing.T) {
	assert.Equal(t, int64(195), Return(100, baccaratBanker))
	assert.Equal(t, int64(1), Return(1, baccaratBanker))
	assert.Equal(t, int64(50), Return(101, dragonTigerHalf))
	assert.Equal(t, int64(0), Return(100, zero))
}

func TestStatus(t *testing.T) {
	assert.Equal(t, game.WagerWon, Status(100, 195))
	assert.Equal(t, game.WagerRefunded, Status(100, 100))
	assert.Equal(t, game.WagerLost, Status(100, 50))
	assert.Equal(t, game.WagerLost, Status(100, 0))
}

func TestTableCoversEveryBetType(t *testing.T) {
	for _, v := range []game.Variant{game.Baccarat, game.BaccaratNoCommission, game.DragonTiger, game.BullBull} {
		tbl := Table(v)
		for _, bt := range v.BetTypes() {
			_, ok := tbl[bt]
			assert.True(t, ok, "%s/%s", v, bt)
		}
	}
}
