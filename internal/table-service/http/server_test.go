package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/live-tables-platform/internal/game"
	"github.com/radieske/live-tables-platform/internal/shared/config"
	"github.com/radieske/live-tables-platform/internal/shared/metrics"
	"github.com/radieske/live-tables-platform/internal/store"
	"github.com/radieske/live-tables-platform/internal/table"
	"github.com/radieske/live-tables-platform/internal/table-service/dto"
	"github.com/radieske/live-tables-platform/internal/table/ledger"
	"github.com/radieske/live-tables-platform/pkg/roadmap"
)

type fakeRoadmaps map[string]roadmap.Snapshot

func (f fakeRoadmaps) Roadmap(_ context.Context, id string) (roadmap.Snapshot, bool, error) {
	s, ok := f[id]
	return s, ok, nil
}

// startTables sobe mesas presas em Betting (duração longa)
func startTables(t *testing.T, mem *store.Memory) *table.Manager {
	t.Helper()
	m, err := table.NewManager(config.Config{
		Tables: []config.TableSpec{
			{ID: "bac-1", Variant: "baccarat"},
			{ID: "bull-1", Variant: "bull_bull"},
		},
		DeckCount:       8,
		BettingDuration: time.Hour,
		DefaultMinBet:   10,
		DefaultMaxBet:   10_000,
	}, table.Deps{
		Store:    mem,
		Exposure: ledger.NewExposure(),
		Metrics:  metrics.NewTableMetrics(prometheus.NewRegistry()),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = m.Run(ctx) }()
	require.Eventually(t, func() bool {
		for _, tb := range m.List() {
			if tb.Phase() != table.PhaseBetting {
				return false
			}
		}
		return true
	}, time.Second, 5*time.Millisecond)
	return m
}

func newAPI(t *testing.T) (*API, *store.Memory) {
	mem := store.NewMemory()
	_, err := mem.MutateBalanceAndAudit(context.Background(), store.Mutation{PlayerID: "p1", Delta: 1000, Reason: store.ReasonDeposit})
	require.NoError(t, err)
	return &API{Tables: startTables(t, mem), Rounds: mem, Log: zap.NewNop()}, mem
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeErr(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error.Code
}

func TestPlaceBetsEndpoint(t *testing.T) {
	api, _ := newAPI(t)
	h := api.Router()

	tests := []struct {
		name   string
		path   string
		body   any
		status int
		code   string
	}{
		{"accepted", "/v1/tables/bac-1/bets", dto.PlaceBetsRequest{PlayerID: "p1", Bets: []ledger.Bet{{BetType: game.BetBanker, Amount: 100}}}, http.StatusOK, ""},
		{"missing player", "/v1/tables/bac-1/bets", dto.PlaceBetsRequest{Bets: []ledger.Bet{{BetType: game.BetBanker, Amount: 100}}}, http.StatusBadRequest, dto.CodeValidation},
		{"empty bets", "/v1/tables/bac-1/bets", dto.PlaceBetsRequest{PlayerID: "p1"}, http.StatusBadRequest, dto.CodeValidation},
		{"foreign bet type", "/v1/tables/bac-1/bets", dto.PlaceBetsRequest{PlayerID: "p1", Bets: []ledger.Bet{{BetType: game.BetDragon, Amount: 100}}}, http.StatusBadRequest, dto.CodeValidation},
		{"below minimum", "/v1/tables/bac-1/bets", dto.PlaceBetsRequest{PlayerID: "p1", Bets: []ledger.Bet{{BetType: game.BetTie, Amount: 5}}}, http.StatusBadRequest, dto.CodeValidation},
		{"over balance", "/v1/tables/bac-1/bets", dto.PlaceBetsRequest{PlayerID: "p1", Bets: []ledger.Bet{{BetType: game.BetPlayer, Amount: 5000}}}, http.StatusPaymentRequired, dto.CodeInsufficientBalance},
		{"unknown table", "/v1/tables/nope/bets", dto.PlaceBetsRequest{PlayerID: "p1", Bets: []ledger.Bet{{BetType: game.BetBanker, Amount: 100}}}, http.StatusNotFound, dto.CodeTableNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, tt.path, tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.code != "" {
				assert.Equal(t, tt.code, decodeErr(t, rec))
			}
		})
	}
}

func TestPlaceBetsBadJSON(t *testing.T) {
	api, _ := newAPI(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/tables/bac-1/bets", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	api.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, dto.CodeValidation, decodeErr(t, rec))
}

func TestStateAndClear(t *testing.T) {
	api, _ := newAPI(t)
	h := api.Router()

	rec := do(t, h, http.MethodPost, "/v1/tables/bac-1/bets", dto.PlaceBetsRequest{PlayerID: "p1", Bets: []ledger.Bet{{BetType: game.BetTie, Amount: 40}}})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/v1/tables/bac-1/state?playerId=p1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var st table.State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, table.PhaseBetting, st.Phase)
	require.Len(t, st.Wagers, 1)
	assert.Equal(t, int64(960), st.Available)
	assert.NotNil(t, st.Roadmap)

	rec = do(t, h, http.MethodDelete, "/v1/tables/bac-1/bets?playerId=p1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var res table.PlaceResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, int64(1000), res.Available)

	rec = do(t, h, http.MethodDelete, "/v1/tables/bac-1/bets", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAskRoadEndpoint(t *testing.T) {
	api, _ := newAPI(t)
	h := api.Router()

	rec := do(t, h, http.MethodGet, "/v1/tables/bac-1/ask?outcome=player", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var d roadmap.Delta
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	require.NotNil(t, d.Cell)
	assert.Equal(t, roadmap.Player, d.Cell.Outcome)

	rec = do(t, h, http.MethodGet, "/v1/tables/bull-1/ask?outcome=banker", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, dto.CodeValidation, decodeErr(t, rec))
}

func TestLobbyPrefersFreshCache(t *testing.T) {
	api, _ := newAPI(t)
	api.Roadmaps = fakeRoadmaps{"bac-1": {Shoe: 1, History: []roadmap.Outcome{roadmap.Tie}}}
	h := api.Router()

	rec := do(t, h, http.MethodGet, "/v1/tables", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var out []dto.TableSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 2)
	assert.Equal(t, "bac-1", out[0].TableID)
	require.NotNil(t, out[0].Roadmap)
	assert.Len(t, out[0].Roadmap.History, 1)
	assert.Nil(t, out[1].Roadmap, "bull-bull has no roadmap")
}

func TestRoundsEndpoint(t *testing.T) {
	api, mem := newAPI(t)
	require.NoError(t, mem.AppendRound(context.Background(), game.Round{ID: "r1", TableID: "bac-1", ShoeNumber: 1, RoundNumber: 1}))
	h := api.Router()

	rec := do(t, h, http.MethodGet, "/v1/tables/bac-1/rounds?limit=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var rounds []game.Round
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rounds))
	require.Len(t, rounds, 1)
	assert.Equal(t, "r1", rounds[0].ID)

	rec = do(t, h, http.MethodGet, "/v1/tables/bac-1/rounds?limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
