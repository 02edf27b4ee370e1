// Package roadmap constrói os "roads" de leitura de uma mesa (Big Road, Big Eye Boy,
// Small Road, Cockroach Pig e Bead Plate) a partir do histórico de resultados de um
// sapato. É a mesma biblioteca usada pelo loop autoritativo e por qualquer preview
// de cliente, então tudo aqui é determinístico e sem efeitos colaterais.
package roadmap

import (
	"errors"
	"fmt"
)

// Outcome é o resultado binário-com-empate lido pelos roads
type Outcome string

const (
	Banker Outcome = "banker"
	Player Outcome = "player"
	Tie    Outcome = "tie"
)

var ErrNoRoadmap = errors.New("outcome has no roadmap representation")

// FromOutcome mapeia o resultado de uma variante: dragon fica do lado da banca,
// tiger do lado do jogador. Resultados do Bull-Bull não têm road.
func FromOutcome(s string) (Outcome, error) {
	switch s {
	case "banker", "dragon":
		return Banker, nil
	case "player", "tiger":
		return Player, nil
	case "tie":
		return Tie, nil
	}
	return "", fmt.Errorf("%w: %q", ErrNoRoadmap, s)
}

func (o Outcome) valid() bool { return o == Banker || o == Player || o == Tie }
