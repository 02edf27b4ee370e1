package table

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/radieske/live-tables-platform/internal/game"
	"github.com/radieske/live-tables-platform/internal/shared/config"
	"github.com/radieske/live-tables-platform/internal/shared/logger"
)

var ErrTableNotFound = errors.New("table not found")

// Manager mantém as mesas de um processo. Cada mesa tem sua goroutine e seu
// mutex; o único estado compartilhado é a exposição por jogador.
type Manager struct {
	tables map[string]*Table
	order  []string
	log    *zap.Logger
}

// NewManager monta uma mesa por entrada de cfg.Tables
func NewManager(cfg config.Config, d Deps) (*Manager, error) {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	m := &Manager{tables: make(map[string]*Table), log: d.Log}
	for _, spec := range cfg.Tables {
		v, err := game.ParseVariant(spec.Variant)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", spec.ID, err)
		}
		if _, dup := m.tables[spec.ID]; dup {
			return nil, fmt.Errorf("table %s: duplicated id", spec.ID)
		}

		td := d
		td.Log = logger.ForTable(d.Log, spec.ID, string(v))
		t, err := New(Config{
			ID:                 spec.ID,
			Variant:            v,
			DeckCount:          cfg.DeckCount,
			ReshuffleThreshold: cfg.ReshuffleThreshold,
			BurnCards:          cfg.BurnCards,
			BettingDuration:    cfg.BettingDuration,
			SealedDuration:     cfg.SealedDuration,
			CardInterval:       cfg.CardInterval,
			ResultDuration:     cfg.ResultDuration,
			HistoryWindow:      cfg.HistoryWindow,
			DefaultMinBet:      cfg.DefaultMinBet,
			DefaultMaxBet:      cfg.DefaultMaxBet,
			TopicRoundResults:  cfg.TopicRoundResults,
			TopicRoundSettled:  cfg.TopicRoundSettled,
			TopicRoundVoided:   cfg.TopicRoundVoided,
		}, td)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", spec.ID, err)
		}
		m.tables[spec.ID] = t
		m.order = append(m.order, spec.ID)
	}
	sort.Strings(m.order)
	return m, nil
}

func (m *Manager) Get(id string) (*Table, error) {
	t, ok := m.tables[id]
	if !ok {
		return nil, ErrTableNotFound
	}
	return t, nil
}

// List devolve as mesas ordenadas por id
func (m *Manager) List() []*Table {
	out := make([]*Table, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.tables[id])
	}
	return out
}

// Run carrega o histórico de cada mesa e roda os clocks até o ctx ser cancelado.
// Um clock que falha não derruba as outras mesas.
func (m *Manager) Run(ctx context.Context) error {
	for _, t := range m.List() {
		if err := t.Init(ctx); err != nil {
			return fmt.Errorf("init table %s: %w", t.ID(), err)
		}
	}

	var wg sync.WaitGroup
	for _, t := range m.List() {
		wg.Add(1)
		go func(t *Table) {
			defer wg.Done()
			if err := t.Run(ctx); err != nil {
				m.log.Error("table clock failed", zap.String("table_id", t.ID()), zap.Error(err))
			}
		}(t)
	}
	wg.Wait()
	return nil
}
