package game

import (
	"fmt"
	"strings"
)

// Suit é o naipe da carta. A ordem numérica é usada como desempate no Bull-Bull
// (espadas > copas > paus > ouros).
type Suit int

const (
	Diamonds Suit = iota
	Clubs
	Hearts
	Spades
)

var suitNames = [...]string{"diamonds", "clubs", "hearts", "spades"}
var suitSymbols = [...]string{"♦", "♣", "♥", "♠"}

// Suits lista os quatro naipes na ordem de construção do baralho
var Suits = []Suit{Spades, Hearts, Diamonds, Clubs}

func (s Suit) String() string {
	if s < Diamonds || s > Spades {
		return "unknown"
	}
	return suitNames[s]
}

// Rank vai de Ace (1) a King (13)
type Rank int

const (
	Ace Rank = iota + 1
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
)

var rankNames = [...]string{"", "A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}

func (r Rank) String() string {
	if r < Ace || r > King {
		return "?"
	}
	return rankNames[r]
}

// IsFace indica J, Q ou K
func (r Rank) IsFace() bool { return r >= Jack && r <= King }

// Card é um valor imutável
type Card struct {
	Suit Suit
	Rank Rank
}

func (c Card) String() string { return c.Rank.String() + suitSymbols[c.Suit%4] }

// MarshalText/UnmarshalText usam o formato "<rank>:<suit>", ex: "10:hearts"
func (c Card) MarshalText() ([]byte, error) {
	return []byte(c.Rank.String() + ":" + c.Suit.String()), nil
}

func (c *Card) UnmarshalText(b []byte) error {
	parsed, err := ParseCard(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCard interpreta "<rank>:<suit>" (ex.: "Q:spades")
func ParseCard(s string) (Card, error) {
	rs, ss, ok := strings.Cut(s, ":")
	if !ok {
		return Card{}, fmt.Errorf("invalid card %q", s)
	}
	var c Card
	found := false
	for r := Ace; r <= King; r++ {
		if rankNames[r] == rs {
			c.Rank, found = r, true
			break
		}
	}
	if !found {
		return Card{}, fmt.Errorf("invalid card rank %q", rs)
	}
	found = false
	for i, name := range suitNames {
		if name == ss {
			c.Suit, found = Suit(i), true
			break
		}
	}
	if !found {
		return Card{}, fmt.Errorf("invalid card suit %q", ss)
	}
	return c, nil
}

// NewDeck retorna um baralho ordenado de 52 cartas
func NewDeck() []Card {
	deck := make([]Card, 0, 52)
	for _, s := range Suits {
		for r := Ace; r <= King; r++ {
			deck = append(deck, Card{Suit: s, Rank: r})
		}
	}
	return deck
}
