package shoe

import (
	crand "crypto/rand"
	"errors"
	"math/rand/v2"

	"github.com/radieske/live-tables-platform/internal/game"
)

var ErrShoeExhausted = errors.New("shoe exhausted")

// Shoe é o sapato de uma única mesa; não é seguro para uso concorrente
// (o Phase Clock da mesa é o único dono).
type Shoe struct {
	deckCount int
	cards     []game.Card
	cursor    int
	number    int
	rng       *rand.Rand
}

// New monta e embaralha deckCount baralhos. rng nil usa uma semente aleatória.
func New(deckCount int, rng *rand.Rand) *Shoe {
	return NewNumbered(deckCount, 1, rng)
}

// NewNumbered é como New, mas o primeiro sapato recebe o número informado
// (continuação da numeração persistida da mesa)
func NewNumbered(deckCount, number int, rng *rand.Rand) *Shoe {
	if deckCount < 1 {
		deckCount = 1
	}
	if number < 1 {
		number = 1
	}
	if rng == nil {
		rng = NewRand()
	}
	s := &Shoe{deckCount: deckCount, rng: rng, number: number - 1}
	s.Reshuffle()
	return s
}

// NewRand cria um gerador ChaCha8 com semente de crypto/rand
func NewRand() *rand.Rand {
	var seed [32]byte
	_, _ = crand.Read(seed[:])
	return rand.New(rand.NewChaCha8(seed))
}

// Reshuffle substitui a sequência inteira e incrementa o número do sapato.
// Chamado apenas entre rodadas.
func (s *Shoe) Reshuffle() {
	cards := make([]game.Card, 0, 52*s.deckCount)
	for i := 0; i < s.deckCount; i++ {
		cards = append(cards, game.NewDeck()...)
	}
	// Fisher-Yates
	for i := len(cards) - 1; i > 0; i-- {
		j := s.rng.IntN(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
	s.cards = cards
	s.cursor = 0
	s.number++
}

// Draw devolve a próxima carta e avança o cursor
func (s *Shoe) Draw() (game.Card, error) {
	if s.cursor >= len(s.cards) {
		return game.Card{}, ErrShoeExhausted
	}
	c := s.cards[s.cursor]
	s.cursor++
	return c, nil
}

// Burn descarta n cartas (queima após embaralhar)
func (s *Shoe) Burn(n int) int {
	burned := 0
	for ; burned < n && s.cursor < len(s.cards); burned++ {
		s.cursor++
	}
	return burned
}

func (s *Shoe) Remaining() int { return len(s.cards) - s.cursor }

func (s *Shoe) Size() int { return len(s.cards) }

// Number é o número sequencial do sapato (começa em 1)
func (s *Shoe) Number() int { return s.number }

func (s *Shoe) NeedsReshuffle(threshold int) bool { return s.Remaining() < threshold }
