package events

import (
	"encoding/json"
	"time"

	"github.com/radieske/live-tables-platform/pkg/roadmap"
)

// Tipos de evento difundidos por mesa (WS local, Redis pub/sub entre instâncias)
const (
	TypePhaseChanged   = "phase_changed"
	TypeCardDealt      = "card_dealt"
	TypeRoundResult    = "round_result"
	TypeSettlement     = "settlement"
	TypeRoadmapUpdated = "roadmap_updated"
	TypeRoundVoided    = "round_voided"
)

// Envelope é o formato comum de todo evento de mesa.
// PlayerID preenchido indica evento endereçado a um único jogador.
type Envelope struct {
	Type     string          `json:"type"`
	TableID  string          `json:"tableId"`
	Seq      int64           `json:"seq"`
	PlayerID string          `json:"playerId,omitempty"`
	Ts       time.Time       `json:"ts"`
	Payload  json.RawMessage `json:"payload"`
}

func NewEnvelope(typ, tableID string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: typ, TableID: tableID, Ts: time.Now().UTC(), Payload: raw}, nil
}

type PhaseChanged struct {
	Phase       string    `json:"phase"`
	Countdown   float64   `json:"countdown"` // segundos até o fim da fase
	EndsAt      time.Time `json:"endsAt"`
	RoundNumber int       `json:"roundNumber"`
	ShoeNumber  int       `json:"shoeNumber"`
}

type CardDealt struct {
	RoundNumber int    `json:"roundNumber"`
	Hand        string `json:"hand"`
	Index       int    `json:"index"`
	Card        string `json:"card"`
}

// RoundResult também é a mensagem do tópico round_results; Round traz o JSON completo da rodada
type RoundResult struct {
	RoundID     string          `json:"roundId"`
	TableID     string          `json:"tableId"`
	Variant     string          `json:"variant"`
	ShoeNumber  int             `json:"shoeNumber"`
	RoundNumber int             `json:"roundNumber"`
	Outcome     string          `json:"outcome"`
	Round       json.RawMessage `json:"round"`
	Ts          time.Time       `json:"ts"`
}

type WagerOutcome struct {
	BetType string `json:"betType"`
	Amount  int64  `json:"amount"`
	Return  int64  `json:"return"`
	Status  string `json:"status"`
}

// PlayerSettlement é o acerto de um jogador em uma rodada
type PlayerSettlement struct {
	PlayerID string         `json:"playerId"`
	Wagers   []WagerOutcome `json:"wagers"`
	Stake    int64          `json:"stake"`
	Return   int64          `json:"return"`
	Delta    int64          `json:"delta"`
	Balance  int64          `json:"balance"`
	EntryID  int64          `json:"entryId"`
}

// RoundSettled é a mensagem do tópico round_settled (e do DLQ quando a auditoria falha)
type RoundSettled struct {
	RoundID string             `json:"roundId"`
	TableID string             `json:"tableId"`
	Reason  string             `json:"reason"`
	Players []PlayerSettlement `json:"players"`
	Ts      time.Time          `json:"ts"`
	// preenchido apenas no DLQ
	Violations []string `json:"violations,omitempty"`
}

type RoundVoided struct {
	RoundID     string    `json:"roundId"`
	TableID     string    `json:"tableId"`
	ShoeNumber  int       `json:"shoeNumber"`
	RoundNumber int       `json:"roundNumber"`
	Reason      string    `json:"reason"`
	Refunded    int       `json:"refunded"` // apostas devolvidas
	Ts          time.Time `json:"ts"`
}

type RoadmapUpdated struct {
	TableID string           `json:"tableId"`
	Roadmap roadmap.Snapshot `json:"roadmap"`
}
