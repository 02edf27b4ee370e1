package bot

import (
	"context"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/live-tables-platform/internal/shared/config"
	"github.com/radieske/live-tables-platform/internal/shared/metrics"
	"github.com/radieske/live-tables-platform/internal/store"
	"github.com/radieske/live-tables-platform/internal/table"
	"github.com/radieske/live-tables-platform/internal/table-service/dto"
	"github.com/radieske/live-tables-platform/internal/table-service/ws"
	"github.com/radieske/live-tables-platform/internal/table/ledger"
)

func serveTable(t *testing.T, mem *store.Memory) (*table.Table, string) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m, err := table.NewManager(config.Config{
		Tables:          []config.TableSpec{{ID: "bac-1", Variant: "baccarat"}},
		DeckCount:       8,
		BettingDuration: time.Hour,
		DefaultMinBet:   1,
		DefaultMaxBet:   1000,
	}, table.Deps{Store: mem, Exposure: ledger.NewExposure(), Metrics: metrics.NewTableMetrics(reg)})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = m.Run(ctx) }()
	tb, err := m.Get("bac-1")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return tb.Phase() == table.PhaseBetting }, time.Second, 5*time.Millisecond)

	hub := ws.NewHub(m, metrics.NewTableMetrics(prometheus.NewRegistry()), zap.NewNop(), false, func(*http.Request) bool { return true })
	r := chi.NewRouter()
	r.Get("/ws/tables/{id}", hub.HandleWS)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return tb, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/tables/bac-1"
}

func TestBotBetsDuringBetting(t *testing.T) {
	mem := store.NewMemory()
	_, err := mem.MutateBalanceAndAudit(context.Background(), store.Mutation{PlayerID: "bot-1", Delta: 1000, Reason: store.ReasonDeposit})
	require.NoError(t, err)
	tb, url := serveTable(t, mem)

	var accepted atomic.Int32
	b := &Bot{
		URL:        url + "?playerId=bot-1",
		Log:        zap.NewNop(),
		Stake:      25,
		Rand:       rand.New(rand.NewPCG(1, 2)),
		Reconnect:  10 * time.Millisecond,
		OnAccepted: func() { accepted.Add(1) },
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { b.Start(ctx); close(done) }()

	require.Eventually(t, func() bool { return accepted.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	st, err := tb.State(context.Background(), "bot-1")
	require.NoError(t, err)
	require.Len(t, st.Wagers, 1)
	assert.Equal(t, int64(25), st.Wagers[0].Amount)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("bot did not stop")
	}
}

func TestBotReportsRejections(t *testing.T) {
	_, url := serveTable(t, store.NewMemory()) // bot sem saldo

	codes := make(chan string, 1)
	b := &Bot{
		URL:       url + "?playerId=broke",
		Log:       zap.NewNop(),
		Stake:     25,
		Reconnect: 10 * time.Millisecond,
		OnRejected: func(code string) {
			select {
			case codes <- code:
			default:
			}
		},
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Start(ctx)

	select {
	case code := <-codes:
		assert.Equal(t, dto.CodeInsufficientBalance, code)
	case <-time.After(2 * time.Second):
		t.Fatal("no rejection reported")
	}
}
