package game

import "fmt"

// Variant identifica o jogo da mesa
type Variant string

const (
	Baccarat             Variant = "baccarat"
	BaccaratNoCommission Variant = "baccarat_no_commission"
	DragonTiger          Variant = "dragon_tiger"
	BullBull             Variant = "bull_bull"
)

// Outcome é o resultado principal da rodada; o conjunto válido depende da variante
type Outcome string

const (
	OutcomePlayer Outcome = "player"
	OutcomeBanker Outcome = "banker"
	OutcomeTie    Outcome = "tie"

	OutcomeDragon Outcome = "dragon"
	OutcomeTiger  Outcome = "tiger"

	// Bull-Bull: resumo da comparação banca x assentos
	OutcomeBankerSweep  Outcome = "banker_sweep"
	OutcomePlayersSweep Outcome = "players_sweep"
	OutcomeSplit        Outcome = "split"
)

// BetType é fechado por variante; use Variant.BetTypes / NewWager para validar
type BetType string

const (
	BetPlayer     BetType = "player"
	BetBanker     BetType = "banker"
	BetTie        BetType = "tie"
	BetPlayerPair BetType = "player_pair"
	BetBankerPair BetType = "banker_pair"

	BetDragon    BetType = "dragon"
	BetTiger     BetType = "tiger"
	BetSuitedTie BetType = "suited_tie"

	BetSeat1 BetType = "player1"
	BetSeat2 BetType = "player2"
	BetSeat3 BetType = "player3"
)

// Nomes das mãos, na ordem em que aparecem no Round
const (
	HandPlayer = "player"
	HandBanker = "banker"
	HandDragon = "dragon"
	HandTiger  = "tiger"
	HandSeat1  = "player1"
	HandSeat2  = "player2"
	HandSeat3  = "player3"
)

var variantBets = map[Variant][]BetType{
	Baccarat:             {BetPlayer, BetBanker, BetTie, BetPlayerPair, BetBankerPair},
	BaccaratNoCommission: {BetPlayer, BetBanker, BetTie, BetPlayerPair, BetBankerPair},
	DragonTiger:          {BetDragon, BetTiger, BetTie, BetSuitedTie},
	BullBull:             {BetSeat1, BetSeat2, BetSeat3},
}

// máximo de cartas consumidas do sapato em uma rodada
var variantMaxCards = map[Variant]int{
	Baccarat:             6,
	BaccaratNoCommission: 6,
	DragonTiger:          2,
	BullBull:             20,
}

// ParseVariant valida o nome recebido da configuração
func ParseVariant(s string) (Variant, error) {
	v := Variant(s)
	if _, ok := variantBets[v]; !ok {
		return "", fmt.Errorf("unknown variant %q", s)
	}
	return v, nil
}

// BetTypes devolve os tipos de aposta aceitos pela variante
func (v Variant) BetTypes() []BetType {
	bets := variantBets[v]
	out := make([]BetType, len(bets))
	copy(out, bets)
	return out
}

// Accepts indica se o tipo de aposta pertence à variante
func (v Variant) Accepts(bt BetType) bool {
	for _, b := range variantBets[v] {
		if b == bt {
			return true
		}
	}
	return false
}

// MaxCards é o pior caso de cartas por rodada (piso para reembaralhar)
func (v Variant) MaxCards() int { return variantMaxCards[v] }

// HasRoadmap indica se a variante produz resultados binários com empate
func (v Variant) HasRoadmap() bool { return v != BullBull }
