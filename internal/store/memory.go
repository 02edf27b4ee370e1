package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/radieske/live-tables-platform/internal/game"
)

// Memory é o store em processo (STORE_DRIVER=memory e testes).
// Um único mutex serializa todas as mutações, inclusive por jogador.
type Memory struct {
	mu       sync.Mutex
	rounds   map[string][]game.Round // por mesa, em ordem de gravação
	roundIDs map[string]bool
	balances map[string]int64
	ledger   []Entry
	refs     map[string]int // player|ref -> índice no ledger
	settled  map[string]bool
	wagers   map[string][]SettledWager // round|player
	limits   map[string]game.Limits    // player|variant
	nextID   int64
	failNext int
}

func NewMemory() *Memory {
	return &Memory{
		rounds:   make(map[string][]game.Round),
		roundIDs: make(map[string]bool),
		balances: make(map[string]int64),
		refs:     make(map[string]int),
		settled:  make(map[string]bool),
		wagers:   make(map[string][]SettledWager),
		limits:   make(map[string]game.Limits),
	}
}

// FailWrites faz as próximas n escritas falharem
func (m *Memory) FailWrites(n int) {
	m.mu.Lock()
	m.failNext = n
	m.mu.Unlock()
}

func (m *Memory) shouldFail(op string) error {
	if m.failNext > 0 {
		m.failNext--
		return persistErr(op, errInjected)
	}
	return nil
}

var errInjected = errors.New("injected failure")

// SetLimits grava limites específicos de um jogador
func (m *Memory) SetLimits(playerID string, v game.Variant, l game.Limits) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limits[playerID+"|"+string(v)] = l
}

func (m *Memory) AppendRound(_ context.Context, r game.Round) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.roundIDs[r.ID] {
		return nil
	}
	if err := m.shouldFail("append round"); err != nil {
		return err
	}
	m.roundIDs[r.ID] = true
	m.rounds[r.TableID] = append(m.rounds[r.TableID], r)
	return nil
}

func (m *Memory) RecentRounds(_ context.Context, q RoundQuery) ([]game.Round, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []game.Round
	for _, r := range m.rounds[q.TableID] {
		if q.Shoe == 0 || r.ShoeNumber == q.Shoe {
			out = append(out, r)
		}
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[len(out)-q.Limit:]
	}
	return append([]game.Round(nil), out...), nil
}

func (m *Memory) Balance(_ context.Context, playerID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[playerID], nil
}

func (m *Memory) MutateBalanceAndAudit(_ context.Context, mut Mutation) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if mut.ExternalRef != "" {
		if i, ok := m.refs[mut.PlayerID+"|"+mut.ExternalRef]; ok {
			return m.ledger[i], nil
		}
	}
	before := m.balances[mut.PlayerID]
	if before+mut.Delta < 0 {
		return Entry{}, ErrInsufficientFunds
	}
	if err := m.shouldFail("mutate balance"); err != nil {
		return Entry{}, err
	}
	e := m.record(mut.PlayerID, mut.Reason, mut.Delta, mut.RoundID, mut.ExternalRef)
	if mut.ExternalRef != "" {
		m.refs[mut.PlayerID+"|"+mut.ExternalRef] = len(m.ledger) - 1
	}
	return e, nil
}

// record precisa do mutex
func (m *Memory) record(playerID, reason string, delta int64, roundID, ref string) Entry {
	before := m.balances[playerID]
	m.nextID++
	e := Entry{
		ID:          m.nextID,
		PlayerID:    playerID,
		Reason:      reason,
		Delta:       delta,
		Before:      before,
		After:       before + delta,
		RoundID:     roundID,
		ExternalRef: ref,
		CreatedAt:   time.Now().UTC(),
	}
	m.balances[playerID] = e.After
	m.ledger = append(m.ledger, e)
	return e
}

func (m *Memory) SettleRound(_ context.Context, s RoundSettlement) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.settled[s.RoundID] {
		return nil, ErrAlreadySettled
	}
	if err := m.shouldFail("settle round"); err != nil {
		return nil, err
	}

	players := append([]PlayerSettlement(nil), s.Players...)
	sort.Slice(players, func(i, j int) bool { return players[i].PlayerID < players[j].PlayerID })

	m.settled[s.RoundID] = true
	entries := make([]Entry, 0, len(players))
	for _, p := range players {
		m.wagers[s.RoundID+"|"+p.PlayerID] = append([]SettledWager(nil), p.Wagers...)
		entries = append(entries, m.record(p.PlayerID, s.Reason, p.Delta, s.RoundID, ""))
	}
	return entries, nil
}

func (m *Memory) BettingLimits(_ context.Context, playerID string, v game.Variant) (game.Limits, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := game.Limits{}
	for bt, r := range m.limits[playerID+"|"+string(v)] {
		out[bt] = r
	}
	return out, nil
}

func (m *Memory) LedgerEntries(_ context.Context, playerID string, limit int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Entry
	for i := len(m.ledger) - 1; i >= 0; i-- {
		if m.ledger[i].PlayerID != playerID {
			continue
		}
		out = append(out, m.ledger[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *Memory) RoundLedger(_ context.Context, roundID string) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Entry
	for _, e := range m.ledger {
		if e.RoundID == roundID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Wagers devolve as apostas gravadas de um jogador numa rodada
func (m *Memory) Wagers(roundID, playerID string) []SettledWager {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SettledWager(nil), m.wagers[roundID+"|"+playerID]...)
}
