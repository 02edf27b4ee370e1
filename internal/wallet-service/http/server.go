package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/radieske/live-tables-platform/internal/store"
	"github.com/radieske/live-tables-platform/internal/wallet-service/dto"
)

const defaultLedgerLimit = 50

// Repo define a interface de operações de carteira usadas pelo handler HTTP
type Repo interface {
	Balance(ctx context.Context, playerID string) (int64, error)
	MutateBalanceAndAudit(ctx context.Context, m store.Mutation) (store.Entry, error)
	LedgerEntries(ctx context.Context, playerID string, limit int) ([]store.Entry, error)
}

// ErrFundsHeld: o saque tocaria em saldo preso em apostas abertas
var ErrFundsHeld = errors.New("funds held by open bets")

// Server expõe endpoints HTTP para operações de carteira (wallet)
type Server struct {
	log      *zap.Logger
	repo     Repo
	holds    Holds // nil desliga a checagem
	validate *validator.Validate
}

// NewServer instancia o servidor HTTP de wallet
func NewServer(log *zap.Logger, repo Repo, holds Holds) *Server {
	return &Server{log: log, repo: repo, holds: holds, validate: validator.New()}
}

// Router retorna o mux HTTP com as rotas da API de wallet
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/wallet", s.getWallet)         // GET ?playerId=...
	mux.HandleFunc("/wallet/deposit", s.deposit)   // POST
	mux.HandleFunc("/wallet/withdraw", s.withdraw) // POST
	mux.HandleFunc("/wallet/ledger", s.ledger)     // GET ?playerId=...&limit=...
	return mux
}

// getWallet retorna o saldo do jogador (zero se ainda não houver carteira)
func (s *Server) getWallet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	playerID := r.URL.Query().Get("playerId")
	if playerID == "" {
		http.Error(w, "playerId required", http.StatusBadRequest)
		return
	}
	bal, err := s.repo.Balance(r.Context(), playerID)
	if err != nil {
		s.internal(w, err)
		return
	}
	writeJSON(w, dto.WalletResponse{PlayerID: playerID, BalanceCents: bal})
}

// deposit adiciona saldo à carteira do jogador
func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	var req dto.DepositRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.mutate(w, r, store.Mutation{
		PlayerID:    req.PlayerID,
		Delta:       req.AmountCents,
		Reason:      store.ReasonDeposit,
		ExternalRef: req.ExternalRef,
	})
}

// withdraw retira saldo; saldo insuficiente ou preso em apostas responde 409
func (s *Server) withdraw(w http.ResponseWriter, r *http.Request) {
	var req dto.WithdrawRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.checkHolds(r.Context(), req.PlayerID, req.AmountCents); err != nil {
		if errors.Is(err, ErrFundsHeld) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		s.internal(w, err)
		return
	}
	s.mutate(w, r, store.Mutation{
		PlayerID:    req.PlayerID,
		Delta:       -req.AmountCents,
		Reason:      store.ReasonWithdraw,
		ExternalRef: req.ExternalRef,
	})
}

// checkHolds é melhor esforço: uma aposta aceita entre a leitura e o débito
// ainda passa, e o espelho no Redis anda alguns instantes atrás das mesas.
func (s *Server) checkHolds(ctx context.Context, playerID string, amount int64) error {
	if s.holds == nil {
		return nil
	}
	held, err := s.holds.Held(ctx, playerID)
	if err != nil || held <= 0 {
		return err
	}
	bal, err := s.repo.Balance(ctx, playerID)
	if err != nil {
		return err
	}
	if bal-held < amount {
		return fmt.Errorf("%w: %d of %d held", ErrFundsHeld, held, bal)
	}
	return nil
}

func (s *Server) mutate(w http.ResponseWriter, r *http.Request, m store.Mutation) {
	entry, err := s.repo.MutateBalanceAndAudit(r.Context(), m)
	if err != nil {
		if errors.Is(err, store.ErrInsufficientFunds) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		s.internal(w, err)
		return
	}
	s.log.Info("wallet mutation",
		zap.String("player_id", m.PlayerID),
		zap.String("reason", m.Reason),
		zap.Int64("delta", m.Delta),
		zap.Int64("entry_id", entry.ID))
	writeJSON(w, dto.MutationResponse{PlayerID: m.PlayerID, BalanceCents: entry.After, Entry: entry})
}

// ledger lista as últimas entradas do jogador, mais recentes primeiro
func (s *Server) ledger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	playerID := r.URL.Query().Get("playerId")
	if playerID == "" {
		http.Error(w, "playerId required", http.StatusBadRequest)
		return
	}
	limit := defaultLedgerLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	entries, err := s.repo.LedgerEntries(r.Context(), playerID, limit)
	if err != nil {
		s.internal(w, err)
		return
	}
	writeJSON(w, dto.LedgerResponse{PlayerID: playerID, Entries: entries})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		http.Error(w, "invalid payload: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) internal(w http.ResponseWriter, err error) {
	s.log.Error("wallet request failed", zap.Error(err))
	http.Error(w, "internal error", http.StatusInternalServerError)
}

// writeJSON serializa e envia resposta JSON
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
