package dto

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/radieske/live-tables-platform/internal/game"
	"github.com/radieske/live-tables-platform/internal/table"
	"github.com/radieske/live-tables-platform/internal/table/ledger"
	"github.com/radieske/live-tables-platform/pkg/roadmap"
)

// Códigos de erro expostos no REST e no WS
const (
	CodeValidation          = "validation"
	CodeInsufficientBalance = "insufficient_balance"
	CodeWrongPhase          = "wrong_phase"
	CodeTableNotFound       = "table_not_found"
	CodeInternal            = "internal"
)

type PlaceBetsRequest struct {
	PlayerID string       `json:"playerId" validate:"required"`
	Bets     []ledger.Bet `json:"bets" validate:"required,min=1,dive"`
}

type ErrPayload struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

type ErrorResponse struct {
	Error ErrPayload `json:"error"`
}

// TableSummary é uma linha do lobby
type TableSummary struct {
	TableID     string            `json:"tableId"`
	Variant     game.Variant      `json:"variant"`
	Phase       table.Phase       `json:"phase"`
	Countdown   float64           `json:"countdown"`
	RoundNumber int               `json:"roundNumber"`
	ShoeNumber  int               `json:"shoeNumber"`
	Roadmap     *roadmap.Snapshot `json:"roadmap,omitempty"`
}

// ErrorCode traduz um erro de domínio para o código público e o status HTTP.
// Erros fora do domínio viram "internal" e não vazam a mensagem.
func ErrorCode(err error) (ErrPayload, int) {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, game.ErrValidation), errors.As(err, &verrs), errors.Is(err, roadmap.ErrNoRoadmap):
		return ErrPayload{Code: CodeValidation, Msg: err.Error()}, http.StatusBadRequest
	case errors.Is(err, game.ErrInsufficientBalance):
		return ErrPayload{Code: CodeInsufficientBalance, Msg: err.Error()}, http.StatusPaymentRequired
	case errors.Is(err, game.ErrWrongPhase), errors.Is(err, ledger.ErrStaleBalance):
		return ErrPayload{Code: CodeWrongPhase, Msg: err.Error()}, http.StatusConflict
	case errors.Is(err, table.ErrTableNotFound):
		return ErrPayload{Code: CodeTableNotFound, Msg: err.Error()}, http.StatusNotFound
	}
	return ErrPayload{Code: CodeInternal, Msg: "internal error"}, http.StatusInternalServerError
}
