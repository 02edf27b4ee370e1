package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/radieske/live-tables-platform/internal/store"
	"github.com/radieske/live-tables-platform/internal/table"
	"github.com/radieske/live-tables-platform/internal/table-service/dto"
	"github.com/radieske/live-tables-platform/pkg/roadmap"
)

// Tables é o conjunto de mesas hospedadas neste processo
type Tables interface {
	Get(id string) (*table.Table, error)
	List() []*table.Table
}

// RoadmapCache é o snapshot mantido pelo roadmap-worker
type RoadmapCache interface {
	Roadmap(ctx context.Context, tableID string) (roadmap.Snapshot, bool, error)
}

// API expõe as operações das mesas em REST; o WS é montado em /ws/tables/{id}
type API struct {
	Tables   Tables
	Rounds   store.Store  // histórico (normalmente o store com cache Redis)
	Roadmaps RoadmapCache // opcional
	WS       http.HandlerFunc
	Log      *zap.Logger

	validate *validator.Validate
}

// Router retorna o roteador HTTP com os endpoints REST e o WS
func (a *API) Router() http.Handler {
	a.validate = validator.New()

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/v1/tables", a.lobby)                  // Lista mesas com fase e roadmap
	r.Get("/v1/tables/{id}/state", a.state)       // ?playerId=
	r.Post("/v1/tables/{id}/bets", a.placeBets)   // {playerId, bets}
	r.Delete("/v1/tables/{id}/bets", a.clearBets) // ?playerId=
	r.Get("/v1/tables/{id}/ask", a.askRoad)       // ?outcome=banker|player|tie|dragon|tiger
	r.Get("/v1/tables/{id}/rounds", a.rounds)     // ?shoe=&limit=
	if a.WS != nil {
		r.Get("/ws/tables/{id}", a.WS)
	}
	return r
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *API) writeError(w http.ResponseWriter, err error) {
	p, status := dto.ErrorCode(err)
	if status == http.StatusInternalServerError {
		a.Log.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, dto.ErrorResponse{Error: p})
}

func (a *API) table(w http.ResponseWriter, r *http.Request) (*table.Table, bool) {
	t, err := a.Tables.Get(chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, err)
		return nil, false
	}
	return t, true
}

// lobby lista as mesas; o roadmap vem do cache do worker e, sem cache, da própria mesa
func (a *API) lobby(w http.ResponseWriter, r *http.Request) {
	out := make([]dto.TableSummary, 0)
	for _, t := range a.Tables.List() {
		st, err := t.State(r.Context(), "")
		if err != nil {
			a.writeError(w, err)
			return
		}
		sum := dto.TableSummary{
			TableID:     st.TableID,
			Variant:     st.Variant,
			Phase:       st.Phase,
			Countdown:   st.Countdown,
			RoundNumber: st.RoundNumber,
			ShoeNumber:  st.ShoeNumber,
			Roadmap:     st.Roadmap,
		}
		if a.Roadmaps != nil && st.Roadmap != nil {
			snap, ok, err := a.Roadmaps.Roadmap(r.Context(), st.TableID)
			if err != nil {
				a.Log.Warn("roadmap cache read failed", zap.String("table_id", st.TableID), zap.Error(err))
			} else if ok && snap.Shoe == st.Roadmap.Shoe && len(snap.History) >= len(st.Roadmap.History) {
				sum.Roadmap = &snap
			}
		}
		out = append(out, sum)
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) state(w http.ResponseWriter, r *http.Request) {
	t, ok := a.table(w, r)
	if !ok {
		return
	}
	st, err := t.State(r.Context(), r.URL.Query().Get("playerId"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (a *API) placeBets(w http.ResponseWriter, r *http.Request) {
	t, ok := a.table(w, r)
	if !ok {
		return
	}
	var req dto.PlaceBetsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: dto.ErrPayload{Code: dto.CodeValidation, Msg: "bad json"}})
		return
	}
	if err := a.validate.Struct(req); err != nil {
		a.writeError(w, err)
		return
	}
	res, err := t.PlaceBets(r.Context(), req.PlayerID, req.Bets)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) clearBets(w http.ResponseWriter, r *http.Request) {
	t, ok := a.table(w, r)
	if !ok {
		return
	}
	playerID := r.URL.Query().Get("playerId")
	if playerID == "" {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: dto.ErrPayload{Code: dto.CodeValidation, Msg: "playerId required"}})
		return
	}
	res, err := t.ClearBets(r.Context(), playerID)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) askRoad(w http.ResponseWriter, r *http.Request) {
	t, ok := a.table(w, r)
	if !ok {
		return
	}
	d, err := t.AskRoad(r.URL.Query().Get("outcome"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (a *API) rounds(w http.ResponseWriter, r *http.Request) {
	t, ok := a.table(w, r)
	if !ok {
		return
	}
	q := store.RoundQuery{TableID: t.ID(), Limit: 100}
	if v := r.URL.Query().Get("shoe"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: dto.ErrPayload{Code: dto.CodeValidation, Msg: "invalid shoe"}})
			return
		}
		q.Shoe = n
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 1000 {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: dto.ErrPayload{Code: dto.CodeValidation, Msg: "invalid limit"}})
			return
		}
		q.Limit = n
	}
	rounds, err := a.Rounds.RecentRounds(r.Context(), q)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rounds)
}
