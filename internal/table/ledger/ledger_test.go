package ledger

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/live-tables-platform/internal/game"
)

var wide = game.DefaultLimits(game.Baccarat, 1, 1_000_000)

func open(t *testing.T, exp *Exposure) *Ledger {
	t.Helper()
	l := New("bac-1", game.Baccarat, exp)
	l.Open()
	return l
}

func TestSameTypeAccumulates(t *testing.T) {
	exp := NewExposure()
	l := open(t, exp)

	_, err := l.Place("p1", []Bet{{BetType: game.BetBanker, Amount: 50}}, Funds{Balance: 1000}, wide)
	require.NoError(t, err)
	wagers, err := l.Place("p1", []Bet{{BetType: game.BetBanker, Amount: 30}}, Funds{Balance: 1000}, wide)
	require.NoError(t, err)

	require.Len(t, wagers, 1)
	assert.Equal(t, int64(80), wagers[0].Amount)
	assert.Equal(t, game.WagerPending, wagers[0].Status)
	assert.Equal(t, 1, l.Len())
	assert.Equal(t, int64(80), exp.Total("p1"))
}

func TestPlaceRejections(t *testing.T) {
	tests := []struct {
		name   string
		bets   []Bet
		funds  int64
		limits game.Limits
		want   error
	}{
		{"empty request", nil, 1000, wide, game.ErrValidation},
		{"zero amount", []Bet{{BetType: game.BetBanker, Amount: 0}}, 1000, wide, game.ErrValidation},
		{"foreign bet type", []Bet{{BetType: game.BetDragon, Amount: 10}}, 1000, wide, game.ErrValidation},
		{"below min", []Bet{{BetType: game.BetTie, Amount: 5}}, 1000, game.DefaultLimits(game.Baccarat, 10, 100), game.ErrValidation},
		{"above max summed", []Bet{{BetType: game.BetTie, Amount: 60}, {BetType: game.BetTie, Amount: 60}}, 1000, game.DefaultLimits(game.Baccarat, 10, 100), game.ErrValidation},
		{"over balance", []Bet{{BetType: game.BetPlayer, Amount: 600}, {BetType: game.BetBanker, Amount: 500}}, 1000, wide, game.ErrInsufficientBalance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp := NewExposure()
			l := open(t, exp)
			_, err := l.Place("p1", tt.bets, Funds{Balance: tt.funds}, tt.limits)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, 0, l.Len(), "rejected request must not leave wagers")
			assert.Equal(t, int64(0), exp.Total("p1"))
		})
	}
}

func TestLimitCountsExistingAmount(t *testing.T) {
	l := open(t, NewExposure())
	limits := game.DefaultLimits(game.Baccarat, 10, 100)
	_, err := l.Place("p1", []Bet{{BetType: game.BetTie, Amount: 70}}, Funds{Balance: 1000}, limits)
	require.NoError(t, err)
	_, err = l.Place("p1", []Bet{{BetType: game.BetTie, Amount: 40}}, Funds{Balance: 1000}, limits)
	assert.ErrorIs(t, err, game.ErrValidation)
}

func TestWrongPhase(t *testing.T) {
	l := open(t, NewExposure())
	l.Close()
	_, err := l.Place("p1", []Bet{{BetType: game.BetBanker, Amount: 10}}, Funds{Balance: 1000}, wide)
	assert.ErrorIs(t, err, game.ErrWrongPhase)
	_, err = l.Clear("p1")
	assert.ErrorIs(t, err, game.ErrWrongPhase)
}

func TestClearReleasesExposure(t *testing.T) {
	exp := NewExposure()
	l := open(t, exp)
	_, _ = l.Place("p1", []Bet{{BetType: game.BetBanker, Amount: 100}, {BetType: game.BetTie, Amount: 20}}, Funds{Balance: 1000}, wide)
	_, _ = l.Place("p2", []Bet{{BetType: game.BetPlayer, Amount: 10}}, Funds{Balance: 1000}, wide)

	released, err := l.Clear("p1")
	require.NoError(t, err)
	assert.Equal(t, int64(120), released)
	assert.Empty(t, l.PlayerWagers("p1"))
	assert.Len(t, l.PlayerWagers("p2"), 1)
	assert.Equal(t, int64(0), exp.Total("p1"))
	assert.Equal(t, uint64(1), exp.Version("p1"))
}

func TestSnapshotFreezesLedger(t *testing.T) {
	l := open(t, NewExposure())
	_, _ = l.Place("p2", []Bet{{BetType: game.BetTie, Amount: 10}}, Funds{Balance: 1000}, wide)
	_, _ = l.Place("p1", []Bet{{BetType: game.BetPlayer, Amount: 10}, {BetType: game.BetBanker, Amount: 5}}, Funds{Balance: 1000}, wide)

	snap := l.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "p1", snap[0].PlayerID)
	assert.Equal(t, game.BetBanker, snap[0].BetType)
	assert.Equal(t, "p2", snap[2].PlayerID)

	_, err := l.Place("p1", []Bet{{BetType: game.BetPlayer, Amount: 10}}, Funds{Balance: 1000}, wide)
	assert.ErrorIs(t, err, game.ErrWrongPhase)
	assert.Len(t, l.Snapshot(), 3)
}

func TestExposureAcrossTables(t *testing.T) {
	exp := NewExposure()
	a := New("bac-1", game.Baccarat, exp)
	b := New("dt-1", game.DragonTiger, exp)
	a.Open()
	b.Open()

	_, err := a.Place("p1", []Bet{{BetType: game.BetBanker, Amount: 700}}, Funds{Balance: 1000}, wide)
	require.NoError(t, err)

	dtLimits := game.DefaultLimits(game.DragonTiger, 1, 1_000_000)
	_, err = b.Place("p1", []Bet{{BetType: game.BetDragon, Amount: 400}}, Funds{Balance: 1000}, dtLimits)
	assert.ErrorIs(t, err, game.ErrInsufficientBalance)
	_, err = b.Place("p1", []Bet{{BetType: game.BetDragon, Amount: 300}}, Funds{Balance: 1000}, dtLimits)
	require.NoError(t, err)

	a.Snapshot()
	a.Release()
	assert.Equal(t, int64(300), exp.Total("p1"))
}

func TestExposureReportsTotals(t *testing.T) {
	exp := NewExposure()
	var got []int64
	exp.OnChange = func(playerID string, total int64) {
		assert.Equal(t, "p1", playerID)
		got = append(got, total)
	}

	require.NoError(t, exp.Reserve("p1", "bac-1", 700, 1000, 0))
	require.NoError(t, exp.Reserve("p1", "dt-1", 300, 1000, 0))
	assert.ErrorIs(t, exp.Reserve("p1", "dt-1", 1, 1000, 0), game.ErrInsufficientBalance)
	exp.Release("p1", "bac-1", 700)
	exp.Release("p1", "dt-1", 300)

	assert.Equal(t, []int64{700, 1000, 300, 0}, got)
}

func TestStaleBalanceAfterRelease(t *testing.T) {
	exp := NewExposure()
	l := open(t, exp)
	_, _ = l.Place("p1", []Bet{{BetType: game.BetBanker, Amount: 100}}, Funds{Balance: 1000}, wide)

	seen := exp.Version("p1")
	exp.Release("p1", "other", 0)

	_, err := l.Place("p1", []Bet{{BetType: game.BetBanker, Amount: 100}}, Funds{Balance: 1000, Version: seen}, wide)
	assert.ErrorIs(t, err, ErrStaleBalance)
	assert.Equal(t, int64(100), l.Staked("p1"))
}

func TestExposureConcurrentReserve(t *testing.T) {
	exp := NewExposure()
	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if exp.Reserve("p1", "bac-1", 100, 1000, 0) == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, accepted)
	assert.Equal(t, int64(1000), exp.Total("p1"))
}
