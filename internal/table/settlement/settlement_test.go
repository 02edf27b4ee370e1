package settlement

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/live-tables-platform/internal/game"
	"github.com/radieske/live-tables-platform/internal/game/odds"
	"github.com/radieske/live-tables-platform/internal/store"
)

func fund(t *testing.T, s store.Store, player string, amount int64) {
	t.Helper()
	_, err := s.MutateBalanceAndAudit(context.Background(), store.Mutation{PlayerID: player, Delta: amount, Reason: store.ReasonDeposit})
	require.NoError(t, err)
}

func tieRound() game.Round {
	return game.Round{
		ID:      "r-tie",
		TableID: "bac-1",
		Result: game.Result{
			Variant: game.Baccarat,
			Outcome: game.OutcomeTie,
			Flags:   game.Flags{PlayerPair: true},
		},
		CreatedAt: time.Now(),
	}
}

func TestComputeStatuses(t *testing.T) {
	results := Compute(tieRound().Result, []game.Wager{
		{PlayerID: "a", BetType: game.BetTie, Amount: 100},
		{PlayerID: "a", BetType: game.BetBanker, Amount: 100},
		{PlayerID: "b", BetType: game.BetBankerPair, Amount: 50},
		{PlayerID: "b", BetType: game.BetPlayerPair, Amount: 50},
	})
	require.Len(t, results, 4)
	assert.Equal(t, game.WagerWon, results[0].Status)
	assert.Equal(t, int64(900), results[0].Return)
	assert.Equal(t, game.WagerRefunded, results[1].Status)
	assert.Equal(t, int64(100), results[1].Return)
	assert.Equal(t, game.WagerLost, results[2].Status)
	assert.Equal(t, int64(600), results[3].Return)
}

func TestSettleConservation(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	fund(t, mem, "a", 10_000)
	fund(t, mem, "b", 10_000)
	fund(t, mem, "c", 10_000)

	round := game.Round{
		ID: "r1", TableID: "dt-1",
		Result: game.Result{Variant: game.DragonTiger, Outcome: game.OutcomeTie, Flags: game.Flags{SuitedTie: true}},
	}
	wagers := []game.Wager{
		{PlayerID: "a", BetType: game.BetDragon, Amount: 333},
		{PlayerID: "a", BetType: game.BetSuitedTie, Amount: 10},
		{PlayerID: "b", BetType: game.BetTiger, Amount: 1000},
		{PlayerID: "c", BetType: game.BetTie, Amount: 75},
	}

	e := NewEngine(mem, zap.NewNop())
	s, err := e.Settle(ctx, round, wagers)
	require.NoError(t, err)
	assert.False(t, s.Replayed)

	var paid, expected int64
	for _, p := range s.Players {
		paid += p.Return
	}
	for _, w := range wagers {
		expected += odds.Return(w.Amount, odds.Multiplier(w.BetType, round.Result))
	}
	assert.Equal(t, expected, paid)

	// dragon 333 no empate devolve 166 (metade, arredondada para baixo)
	a := s.Players[0]
	assert.Equal(t, "a", a.PlayerID)
	assert.Equal(t, int64(166+510), a.Return)
	assert.Equal(t, int64(166+510-343), a.Delta)
	assert.Equal(t, 10_000+a.Delta, a.Balance)

	ledger, err := mem.RoundLedger(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, ledger, 3)
	for _, en := range ledger {
		assert.Equal(t, en.Before+en.Delta, en.After)
		bal, _ := mem.Balance(ctx, en.PlayerID)
		assert.Equal(t, en.After, bal)
	}
}

func TestSettleTwiceIsNoop(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	fund(t, mem, "a", 1000)
	e := NewEngine(mem, zap.NewNop())

	round := tieRound()
	wagers := []game.Wager{{PlayerID: "a", BetType: game.BetTie, Amount: 100}}

	first, err := e.Settle(ctx, round, wagers)
	require.NoError(t, err)
	balance, _ := mem.Balance(ctx, "a")
	assert.Equal(t, int64(1800), balance)

	second, err := e.Settle(ctx, round, wagers)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	again, _ := mem.Balance(ctx, "a")
	assert.Equal(t, balance, again)
	assert.Equal(t, first.Players[0].Balance, second.Players[0].Balance)

	entries, _ := mem.LedgerEntries(ctx, "a", 10)
	assert.Len(t, entries, 2)
}

func TestRefundKeepsBalance(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	fund(t, mem, "a", 1000)
	e := NewEngine(mem, zap.NewNop())

	s, err := e.Refund(ctx, "r-void", "bac-1", []game.Wager{
		{PlayerID: "a", BetType: game.BetBanker, Amount: 300},
		{PlayerID: "a", BetType: game.BetTie, Amount: 50},
	})
	require.NoError(t, err)
	require.Len(t, s.Players, 1)
	assert.Equal(t, int64(0), s.Players[0].Delta)
	for _, w := range s.Players[0].Wagers {
		assert.Equal(t, game.WagerRefunded, w.Status)
	}

	bal, _ := mem.Balance(ctx, "a")
	assert.Equal(t, int64(1000), bal)
	ledger, _ := mem.RoundLedger(ctx, "r-void")
	require.Len(t, ledger, 1)
	assert.Equal(t, store.ReasonVoid, ledger[0].Reason)
}

func TestSettleFailureLeavesNothing(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	fund(t, mem, "a", 1000)
	mem.FailWrites(1)
	e := NewEngine(mem, zap.NewNop())

	_, err := e.Settle(ctx, tieRound(), []game.Wager{{PlayerID: "a", BetType: game.BetTie, Amount: 100}})
	assert.ErrorIs(t, err, store.ErrPersistence)
	bal, _ := mem.Balance(ctx, "a")
	assert.Equal(t, int64(1000), bal)
	ledger, _ := mem.RoundLedger(ctx, "r-tie")
	assert.Empty(t, ledger)
}

func TestBullBullSeatPayout(t *testing.T) {
	res := game.Result{
		Variant: game.BullBull,
		Seats: []game.SeatResult{
			{Seat: "player1", Win: true, Multiplier: 3},
			{Seat: "player2", Win: false, Multiplier: 1},
		},
	}
	results := Compute(res, []game.Wager{
		{PlayerID: "a", BetType: game.BetSeat1, Amount: 100},
		{PlayerID: "a", BetType: game.BetSeat2, Amount: 100},
	})
	assert.Equal(t, int64(400), results[0].Return)
	assert.Equal(t, int64(0), results[1].Return)

	players := group(results)
	require.Len(t, players, 1)
	assert.Equal(t, int64(200), players[0].Delta)
}
