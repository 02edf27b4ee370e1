package game

import (
	"errors"
	"fmt"
)

// WagerStatus segue pending -> won|lost|refunded; não volta para pending
type WagerStatus string

const (
	WagerPending  WagerStatus = "pending"
	WagerWon      WagerStatus = "won"
	WagerLost     WagerStatus = "lost"
	WagerRefunded WagerStatus = "refunded"
)

// Wager é o registro único por (jogador, tipo de aposta, rodada); valores em centavos
type Wager struct {
	PlayerID string      `json:"playerId"`
	BetType  BetType     `json:"betType"`
	Amount   int64       `json:"amount"`
	Status   WagerStatus `json:"status"`
}

var (
	ErrValidation          = errors.New("validation error")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrWrongPhase          = errors.New("betting is closed")
)

// ValidationError descreve uma aposta malformada ou fora dos limites
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NewWager valida o tipo de aposta contra a variante e o valor positivo
func NewWager(v Variant, playerID string, bt BetType, amount int64) (Wager, error) {
	if playerID == "" {
		return Wager{}, &ValidationError{Field: "playerId", Reason: "required"}
	}
	if !v.Accepts(bt) {
		return Wager{}, &ValidationError{Field: "betType", Reason: fmt.Sprintf("%q not offered on %s", bt, v)}
	}
	if amount <= 0 {
		return Wager{}, &ValidationError{Field: "amount", Reason: "must be positive"}
	}
	return Wager{PlayerID: playerID, BetType: bt, Amount: amount, Status: WagerPending}, nil
}

// Range é o limite mínimo/máximo em centavos de um tipo de aposta
type Range struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// Limits são os limites por tipo de aposta de um jogador em uma variante
type Limits map[BetType]Range

// DefaultLimits aplica o mesmo intervalo a todos os tipos da variante
func DefaultLimits(v Variant, min, max int64) Limits {
	out := make(Limits, len(variantBets[v]))
	for _, bt := range variantBets[v] {
		out[bt] = Range{Min: min, Max: max}
	}
	return out
}

// Check valida o total acumulado de um tipo de aposta contra o limite
func (l Limits) Check(bt BetType, total int64) error {
	r, ok := l[bt]
	if !ok {
		return nil
	}
	if r.Min > 0 && total < r.Min {
		return &ValidationError{Field: "amount", Reason: fmt.Sprintf("%s below minimum %d", bt, r.Min)}
	}
	if r.Max > 0 && total > r.Max {
		return &ValidationError{Field: "amount", Reason: fmt.Sprintf("%s above maximum %d", bt, r.Max)}
	}
	return nil
}
