package consumer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/radieske/live-tables-platform/internal/game"
	"github.com/radieske/live-tables-platform/internal/store"
	"github.com/radieske/live-tables-platform/pkg/contracts/events"
	"github.com/radieske/live-tables-platform/pkg/roadmap"
)

// ErrSkipped marca rodadas que não alteram o roadmap (Bull-Bull, repetidas, fora de ordem)
var ErrSkipped = errors.New("round skipped")

// History é a fonte usada para aquecer uma mesa vista pela primeira vez
type History interface {
	RecentRounds(ctx context.Context, q store.RoundQuery) ([]game.Round, error)
}

// Folder mantém um roadmap.Engine por mesa
type Folder struct {
	History History // opcional
	Window  int

	mu      sync.Mutex
	engines map[string]*roadmap.Engine
}

func NewFolder(h History, window int) *Folder {
	if window <= 0 {
		window = 100
	}
	return &Folder{History: h, Window: window, engines: map[string]*roadmap.Engine{}}
}

// Fold incorpora o resultado e devolve o snapshot atualizado da mesa
func (f *Folder) Fold(ctx context.Context, ev events.RoundResult) (roadmap.Snapshot, error) {
	o, err := roadmap.FromOutcome(ev.Outcome)
	if err != nil {
		return roadmap.Snapshot{}, fmt.Errorf("%w: %w", ErrSkipped, err)
	}
	eng, err := f.engine(ctx, ev)
	if err != nil {
		return roadmap.Snapshot{}, err
	}
	if _, err := eng.Append(ev.ShoeNumber, ev.RoundNumber, o); err != nil {
		if errors.Is(err, roadmap.ErrStaleRound) {
			return roadmap.Snapshot{}, fmt.Errorf("%w: %w", ErrSkipped, err)
		}
		return roadmap.Snapshot{}, err
	}
	return eng.Snapshot(), nil
}

// engine devolve o engine da mesa. Na primeira vez, ou quando falta alguma
// rodada antes de ev, ele é reconstruído com as rodadas anteriores do mesmo sapato.
func (f *Folder) engine(ctx context.Context, ev events.RoundResult) (*roadmap.Engine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if eng, ok := f.engines[ev.TableID]; ok && !f.missing(eng, ev) {
		return eng, nil
	}
	eng := roadmap.NewEngine()
	if f.History != nil {
		rounds, err := f.History.RecentRounds(ctx, store.RoundQuery{TableID: ev.TableID, Shoe: ev.ShoeNumber, Limit: f.Window})
		if err != nil {
			return nil, fmt.Errorf("warm roadmap %s: %w", ev.TableID, err)
		}
		for _, r := range rounds {
			if r.RoundNumber >= ev.RoundNumber {
				break
			}
			o, err := roadmap.FromOutcome(string(r.Outcome))
			if err != nil {
				continue
			}
			_, _ = eng.Append(r.ShoeNumber, r.RoundNumber, o)
		}
	}
	f.engines[ev.TableID] = eng
	return eng, nil
}

// missing indica um buraco entre a última rodada conhecida e ev
func (f *Folder) missing(eng *roadmap.Engine, ev events.RoundResult) bool {
	if f.History == nil {
		return false
	}
	switch shoe := eng.Shoe(); {
	case ev.ShoeNumber == shoe:
		return ev.RoundNumber > eng.LastRound()+1
	case ev.ShoeNumber > shoe:
		return ev.RoundNumber > 1
	}
	return false
}
