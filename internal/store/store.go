// Package store é o armazenamento durável das mesas: rodadas, carteiras, ledger
// e acertos. Toda mutação de saldo grava a entrada de ledger na mesma transação.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/radieske/live-tables-platform/internal/game"
)

var (
	// ErrPersistence marca falhas de escrita/leitura que podem ser repetidas
	ErrPersistence = errors.New("persistence failure")
	// ErrAlreadySettled indica que a rodada já foi acertada; repetir é no-op
	ErrAlreadySettled    = errors.New("round already settled")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Motivos gravados no ledger
const (
	ReasonDeposit    = "deposit"
	ReasonWithdraw   = "withdraw"
	ReasonSettlement = "round_settlement"
	ReasonVoid       = "round_void"
)

// Entry é uma linha do ledger: before + delta == after
type Entry struct {
	ID          int64     `json:"id"`
	PlayerID    string    `json:"playerId"`
	Reason      string    `json:"reason"`
	Delta       int64     `json:"delta"`
	Before      int64     `json:"before"`
	After       int64     `json:"after"`
	RoundID     string    `json:"roundId,omitempty"`
	ExternalRef string    `json:"externalRef,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Mutation é uma alteração externa de saldo (depósito/saque).
// ExternalRef, quando informado, torna a operação idempotente por jogador.
type Mutation struct {
	PlayerID    string
	Delta       int64
	Reason      string
	RoundID     string
	ExternalRef string
}

type SettledWager struct {
	BetType game.BetType
	Amount  int64
	Return  int64
	Status  game.WagerStatus
}

type PlayerSettlement struct {
	PlayerID string
	Delta    int64
	Wagers   []SettledWager
}

// RoundSettlement é gravado inteiro ou não é gravado
type RoundSettlement struct {
	RoundID string
	TableID string
	Reason  string
	Players []PlayerSettlement
}

type RoundQuery struct {
	TableID string
	Shoe    int // 0 = todos os sapatos
	Limit   int
}

// Store é o colaborador durável consumido pelas mesas e pela carteira
type Store interface {
	// AppendRound é idempotente pelo ID da rodada
	AppendRound(ctx context.Context, r game.Round) error
	// RecentRounds devolve as últimas rodadas em ordem cronológica
	RecentRounds(ctx context.Context, q RoundQuery) ([]game.Round, error)
	Balance(ctx context.Context, playerID string) (int64, error)
	MutateBalanceAndAudit(ctx context.Context, m Mutation) (Entry, error)
	// SettleRound devolve ErrAlreadySettled se a rodada já tiver acerto gravado
	SettleRound(ctx context.Context, s RoundSettlement) ([]Entry, error)
	// BettingLimits devolve apenas os limites específicos do jogador (pode ser vazio)
	BettingLimits(ctx context.Context, playerID string, v game.Variant) (game.Limits, error)
	LedgerEntries(ctx context.Context, playerID string, limit int) ([]Entry, error)
	RoundLedger(ctx context.Context, roundID string) ([]Entry, error)
}

func persistErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}
