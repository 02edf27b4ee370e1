package roadmap

import (
	"errors"
	"fmt"
	"sync"
)

var ErrStaleRound = errors.New("round is older than roadmap history")

// Snapshot é a fotografia completa dos roads de um sapato
type Snapshot struct {
	Shoe         int       `json:"shoe"`
	History      []Outcome `json:"history"`
	BigRoad      BigRoad   `json:"bigRoad"`
	BigEyeBoy    []Color   `json:"bigEyeBoy"`
	SmallRoad    []Color   `json:"smallRoad"`
	CockroachPig []Color   `json:"cockroachPig"`
	BeadPlate    []Bead    `json:"beadPlate"`
}

// Derived devolve a sequência de um road derivado
func (s Snapshot) Derived(r Road) []Color {
	switch r {
	case BigEyeBoy:
		return s.BigEyeBoy
	case SmallRoad:
		return s.SmallRoad
	case CockroachPig:
		return s.CockroachPig
	}
	return nil
}

// Delta é o que um único resultado acrescenta aos roads
type Delta struct {
	Outcome      Outcome `json:"outcome"`
	Cell         *Cell   `json:"cell,omitempty"`
	PendingTies  int     `json:"pendingTies"`
	BigEyeBoy    *Color  `json:"bigEyeBoy,omitempty"`
	SmallRoad    *Color  `json:"smallRoad,omitempty"`
	CockroachPig *Color  `json:"cockroachPig,omitempty"`
	Bead         Bead    `json:"bead"`
}

func (d *Delta) set(r Road, c Color) {
	switch r {
	case BigEyeBoy:
		d.BigEyeBoy = &c
	case SmallRoad:
		d.SmallRoad = &c
	case CockroachPig:
		d.CockroachPig = &c
	}
}

type state struct {
	history []Outcome
	big     *bigRoad
	derived [len(derivedRoads)][]Color
}

func newState() *state {
	s := &state{big: newBigRoad()}
	for i := range s.derived {
		s.derived[i] = []Color{}
	}
	return s
}

func replay(history []Outcome) *state {
	s := newState()
	for _, o := range history {
		s.append(o)
	}
	return s
}

// append acrescenta um resultado; cada road derivado ganha no máximo um marcador
func (s *state) append(o Outcome) Delta {
	d := Delta{Outcome: o, Bead: beadAt(len(s.history), o)}
	s.history = append(s.history, o)

	cell, ok := s.big.add(o)
	d.PendingTies = s.big.pendingTies
	if !ok {
		return d
	}
	d.Cell = &cell

	depth := s.big.runs[cell.Run].length - 1
	lengths := s.big.lengths()
	for i, r := range derivedRoads {
		if m, ok := marker(lengths, cell.Run, depth, int(r)); ok {
			s.derived[i] = append(s.derived[i], m)
			d.set(r, m)
		}
	}
	return d
}

func (s *state) snapshot(shoe int) Snapshot {
	history := make([]Outcome, len(s.history))
	copy(history, s.history)
	snap := Snapshot{
		Shoe:      shoe,
		History:   history,
		BigRoad:   s.big.view(),
		BeadPlate: BeadPlate(history),
	}
	snap.BigEyeBoy = append([]Color{}, s.derived[0]...)
	snap.SmallRoad = append([]Color{}, s.derived[1]...)
	snap.CockroachPig = append([]Color{}, s.derived[2]...)
	return snap
}

// Build reconstrói todos os roads do zero
func Build(history []Outcome) Snapshot {
	return replay(history).snapshot(0)
}

// Ask simula o próximo resultado numa cópia do histórico e devolve só o que ele
// acrescentaria. history não é alterado.
func Ask(history []Outcome, next Outcome) (Delta, error) {
	if !next.valid() {
		return Delta{}, fmt.Errorf("%w: %q", ErrNoRoadmap, next)
	}
	hypothetical := make([]Outcome, len(history), len(history)+1)
	copy(hypothetical, history)
	hypothetical = append(hypothetical, next)

	base := replay(history)
	sim := replay(hypothetical)

	d := Delta{
		Outcome:     next,
		PendingTies: sim.big.pendingTies,
		Bead:        beadAt(len(history), next),
	}
	if len(sim.big.cells) > len(base.big.cells) {
		c := sim.big.cells[len(base.big.cells)]
		d.Cell = &c
	}
	for i, r := range derivedRoads {
		if len(sim.derived[i]) > len(base.derived[i]) {
			d.set(r, sim.derived[i][len(base.derived[i])])
		}
	}
	return d, nil
}

// Engine guarda os roads do sapato corrente de uma mesa. Cada mesa tem o seu.
type Engine struct {
	mu        sync.RWMutex
	shoe      int
	lastRound int
	st        *state
}

func NewEngine() *Engine {
	return &Engine{st: newState()}
}

// Append incorpora o resultado da rodada. Um sapato novo zera o histórico;
// rodadas repetidas ou fora de ordem são rejeitadas com ErrStaleRound.
func (e *Engine) Append(shoe, round int, o Outcome) (Delta, error) {
	if !o.valid() {
		return Delta{}, fmt.Errorf("%w: %q", ErrNoRoadmap, o)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case shoe < e.shoe:
		return Delta{}, fmt.Errorf("%w: shoe %d < %d", ErrStaleRound, shoe, e.shoe)
	case shoe > e.shoe:
		e.shoe = shoe
		e.lastRound = 0
		e.st = newState()
	}
	if round <= e.lastRound {
		return Delta{}, fmt.Errorf("%w: round %d <= %d", ErrStaleRound, round, e.lastRound)
	}
	e.lastRound = round
	return e.st.append(o), nil
}

// Reset inicia um sapato vazio (reembaralhamento sem rodadas ainda)
func (e *Engine) Reset(shoe int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.shoe = shoe
	e.lastRound = 0
	e.st = newState()
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.st.snapshot(e.shoe)
}

// Ask opera sobre uma cópia do histórico tirada sob o lock de leitura
func (e *Engine) Ask(next Outcome) (Delta, error) {
	e.mu.RLock()
	history := make([]Outcome, len(e.st.history))
	copy(history, e.st.history)
	e.mu.RUnlock()
	return Ask(history, next)
}

func (e *Engine) Shoe() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.shoe
}

// LastRound é o número da última rodada incorporada no sapato corrente (0 se vazio)
func (e *Engine) LastRound() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastRound
}
