package dto

import "github.com/radieske/live-tables-platform/internal/store"

type WalletResponse struct {
	PlayerID     string `json:"playerId"`
	BalanceCents int64  `json:"balance_cents"`
}

// MutationResponse devolve o saldo e a entrada de ledger gravada
type MutationResponse struct {
	PlayerID     string      `json:"playerId"`
	BalanceCents int64       `json:"balance_cents"`
	Entry        store.Entry `json:"entry"`
}

type LedgerResponse struct {
	PlayerID string        `json:"playerId"`
	Entries  []store.Entry `json:"entries"`
}
