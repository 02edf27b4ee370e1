package ws

import (
	"github.com/radieske/live-tables-platform/internal/table-service/dto"
	"github.com/radieske/live-tables-platform/internal/table/ledger"
)

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// Type: state | place_bets | clear_bets | ask_road | ping
type ClientMsg struct {
	Type    string       `json:"type" validate:"required,oneof=state place_bets clear_bets ask_road ping"`
	ReqID   string       `json:"reqId,omitempty"`
	Bets    []ledger.Bet `json:"bets,omitempty" validate:"required_if=Type place_bets,dive"`
	Outcome string       `json:"outcome,omitempty" validate:"required_if=Type ask_road"`
}

// ServerMsg é a resposta a um ClientMsg (reply | error | pong).
// Eventos da mesa são enviados como events.Envelope, sem este invólucro.
type ServerMsg struct {
	Type  string          `json:"type"`
	ReqID string          `json:"reqId,omitempty"`
	Data  any             `json:"data,omitempty"`
	Error *dto.ErrPayload `json:"error,omitempty"`
}
