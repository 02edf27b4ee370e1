package game

import "time"

// Hand é um grupo nomeado de cartas com a pontuação calculada pelo resolver
type Hand struct {
	Name   string `json:"name"`
	Cards  []Card `json:"cards"`
	Points int    `json:"points"`
	// Class só é preenchido no Bull-Bull (no_bull, bull_1..bull_9, bull_bull, five_face)
	Class string `json:"class,omitempty"`
}

// Flags são os resultados paralelos da rodada
type Flags struct {
	PlayerPair bool `json:"playerPair,omitempty"`
	BankerPair bool `json:"bankerPair,omitempty"`
	SuitedTie  bool `json:"suitedTie,omitempty"`
	// banca venceu com 6 pontos (pagamento reduzido no sem-comissão)
	BankerSix bool `json:"bankerSix,omitempty"`
}

// SeatResult é o confronto de um assento do Bull-Bull contra a banca
type SeatResult struct {
	Seat       string `json:"seat"`
	Win        bool   `json:"win"`
	Class      string `json:"class"`
	Multiplier int    `json:"multiplier"`
}

// Result é a saída pura do resolver
type Result struct {
	Variant Variant      `json:"variant"`
	Hands   []Hand       `json:"hands"`
	Outcome Outcome      `json:"outcome"`
	Flags   Flags        `json:"flags"`
	Seats   []SeatResult `json:"seats,omitempty"`
}

// Hand procura uma mão pelo nome
func (r Result) Hand(name string) (Hand, bool) {
	for _, h := range r.Hands {
		if h.Name == name {
			return h, true
		}
	}
	return Hand{}, false
}

// Seat procura o resultado de um assento do Bull-Bull
func (r Result) Seat(name string) (SeatResult, bool) {
	for _, s := range r.Seats {
		if s.Seat == name {
			return s, true
		}
	}
	return SeatResult{}, false
}

// Round é imutável depois de resolvido e é a unidade lida pelo roadmap
type Round struct {
	ID          string    `json:"id"`
	TableID     string    `json:"tableId"`
	ShoeNumber  int       `json:"shoeNumber"`
	RoundNumber int       `json:"roundNumber"`
	CreatedAt   time.Time `json:"createdAt"`
	Result
}
