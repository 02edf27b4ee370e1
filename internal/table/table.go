// Package table roda uma mesa: o Phase Clock (uma goroutine por mesa) e as
// operações dos jogadores. Um único mutex protege fase, ledger e sapato.
// Nenhuma I/O acontece com o mutex travado.
package table

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/live-tables-platform/internal/game"
	"github.com/radieske/live-tables-platform/internal/game/odds"
	"github.com/radieske/live-tables-platform/internal/game/shoe"
	"github.com/radieske/live-tables-platform/internal/shared/metrics"
	"github.com/radieske/live-tables-platform/internal/store"
	"github.com/radieske/live-tables-platform/internal/table/ledger"
	"github.com/radieske/live-tables-platform/internal/table/settlement"
	ctopics "github.com/radieske/live-tables-platform/pkg/contracts/topics"
	"github.com/radieske/live-tables-platform/pkg/roadmap"
)

type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseBetting Phase = "betting"
	PhaseSealed  Phase = "sealed"
	PhaseDealing Phase = "dealing"
	PhaseResult  Phase = "result"
)

// número de releituras de saldo quando uma liberação de stake corre em paralelo
const placeAttempts = 3

type Config struct {
	ID                 string
	Variant            game.Variant
	DeckCount          int
	ReshuffleThreshold int
	BurnCards          int
	BettingDuration    time.Duration
	SealedDuration     time.Duration
	CardInterval       time.Duration
	ResultDuration     time.Duration
	HistoryWindow      int
	DefaultMinBet      int64
	DefaultMaxBet      int64
	PersistBackoff     time.Duration
	// tópicos do fluxo durável; vazios usam os padrões de pkg/contracts/topics
	TopicRoundResults string
	TopicRoundSettled string
	TopicRoundVoided  string
	// nil usa semente aleatória
	Rand *rand.Rand
}

// Deps são os colaboradores compartilhados entre mesas (sem locks em comum)
type Deps struct {
	Store    store.Store
	Exposure *ledger.Exposure
	Notifier Notifier
	Metrics  *metrics.TableMetrics
	Log      *zap.Logger
}

type DealtCard struct {
	Hand  string    `json:"hand"`
	Index int       `json:"index"`
	Card  game.Card `json:"card"`
}

type Table struct {
	cfg      Config
	store    store.Store
	exposure *ledger.Exposure
	settle   *settlement.Engine
	notify   Notifier
	metrics  *metrics.TableMetrics
	log      *zap.Logger
	road     *roadmap.Engine // nil no Bull-Bull
	seq      atomic.Int64

	mu               sync.Mutex
	phase            Phase
	phaseEnds        time.Time
	roundID          string
	roundNumber      int
	pendingReshuffle bool
	shoe             *shoe.Shoe
	ledger           *ledger.Ledger
	dealt            []DealtCard
	history          []game.Round
}

func New(cfg Config, d Deps) (*Table, error) {
	if _, err := game.ParseVariant(string(cfg.Variant)); err != nil {
		return nil, err
	}
	if d.Store == nil || d.Exposure == nil || d.Metrics == nil {
		return nil, errors.New("table: store, exposure and metrics are required")
	}
	if d.Notifier == nil {
		d.Notifier = nopNotifier{}
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	// o piso nunca é menor que o pior caso de cartas por rodada
	if cfg.ReshuffleThreshold < cfg.Variant.MaxCards() {
		cfg.ReshuffleThreshold = cfg.Variant.MaxCards()
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = 100
	}
	if cfg.PersistBackoff <= 0 {
		cfg.PersistBackoff = 200 * time.Millisecond
	}
	if cfg.TopicRoundResults == "" {
		cfg.TopicRoundResults = ctopics.RoundResults
	}
	if cfg.TopicRoundSettled == "" {
		cfg.TopicRoundSettled = ctopics.RoundSettled
	}
	if cfg.TopicRoundVoided == "" {
		cfg.TopicRoundVoided = ctopics.RoundVoided
	}

	t := &Table{
		cfg:      cfg,
		store:    d.Store,
		exposure: d.Exposure,
		settle:   settlement.NewEngine(d.Store, d.Log),
		notify:   d.Notifier,
		metrics:  d.Metrics,
		log:      d.Log,
		phase:    PhaseIdle,
		shoe:     shoe.New(cfg.DeckCount, cfg.Rand),
		ledger:   ledger.New(cfg.ID, cfg.Variant, d.Exposure),
	}
	t.shoe.Burn(cfg.BurnCards)
	if cfg.Variant.HasRoadmap() {
		t.road = roadmap.NewEngine()
		t.road.Reset(t.shoe.Number())
	}
	return t, nil
}

// Init carrega a janela de histórico e continua a numeração de sapatos do store
func (t *Table) Init(ctx context.Context) error {
	rounds, err := t.store.RecentRounds(ctx, store.RoundQuery{TableID: t.cfg.ID, Limit: t.cfg.HistoryWindow})
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.history = rounds
	if n := len(rounds); n > 0 {
		t.shoe = shoe.NewNumbered(t.cfg.DeckCount, rounds[n-1].ShoeNumber+1, t.cfg.Rand)
		t.shoe.Burn(t.cfg.BurnCards)
		if t.road != nil {
			t.road.Reset(t.shoe.Number())
		}
	}
	return nil
}

func (t *Table) ID() string            { return t.cfg.ID }
func (t *Table) Variant() game.Variant { return t.cfg.Variant }

func (t *Table) Phase() Phase {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.phase
}

// limits junta os limites padrão com os específicos do jogador
func (t *Table) limits(ctx context.Context, playerID string) (game.Limits, error) {
	l := game.DefaultLimits(t.cfg.Variant, t.cfg.DefaultMinBet, t.cfg.DefaultMaxBet)
	custom, err := t.store.BettingLimits(ctx, playerID, t.cfg.Variant)
	if err != nil {
		return nil, err
	}
	for bt, r := range custom {
		l[bt] = r
	}
	return l, nil
}

// PlaceResult é a resposta de um pedido aceito
type PlaceResult struct {
	Wagers    []game.Wager `json:"wagers"`
	Balance   int64        `json:"balance"`
	Available int64        `json:"available"`
}

// PlaceBets valida e registra um pedido inteiro. O saldo é lido antes do lock;
// a checagem de fase e a gravação no ledger acontecem sob o mesmo lock que
// fecha as apostas, então um pedido que chega depois do Sealed é rejeitado.
func (t *Table) PlaceBets(ctx context.Context, playerID string, bets []ledger.Bet) (PlaceResult, error) {
	if t.Phase() != PhaseBetting {
		t.reject(game.ErrWrongPhase)
		return PlaceResult{}, game.ErrWrongPhase
	}
	limits, err := t.limits(ctx, playerID)
	if err != nil {
		return PlaceResult{}, err
	}

	for attempt := 0; attempt < placeAttempts; attempt++ {
		version := t.exposure.Version(playerID)
		balance, err := t.store.Balance(ctx, playerID)
		if err != nil {
			return PlaceResult{}, err
		}

		t.mu.Lock()
		var wagers []game.Wager
		if t.phase != PhaseBetting {
			err = game.ErrWrongPhase
		} else {
			wagers, err = t.ledger.Place(playerID, bets, ledger.Funds{Balance: balance, Version: version}, limits)
		}
		t.mu.Unlock()

		if errors.Is(err, ledger.ErrStaleBalance) {
			continue
		}
		if err != nil {
			t.reject(err)
			return PlaceResult{}, err
		}

		t.metrics.BetsAccepted.WithLabelValues(string(t.cfg.Variant)).Add(float64(len(bets)))
		return PlaceResult{
			Wagers:    wagers,
			Balance:   balance,
			Available: balance - t.exposure.Total(playerID),
		}, nil
	}
	t.reject(ledger.ErrStaleBalance)
	return PlaceResult{}, ledger.ErrStaleBalance
}

func (t *Table) reject(err error) {
	reason := "internal"
	switch {
	case errors.Is(err, game.ErrValidation):
		reason = "validation"
	case errors.Is(err, game.ErrInsufficientBalance):
		reason = "insufficient_balance"
	case errors.Is(err, game.ErrWrongPhase):
		reason = "wrong_phase"
	case errors.Is(err, ledger.ErrStaleBalance):
		reason = "stale_balance"
	}
	t.metrics.BetsRejected.WithLabelValues(reason).Inc()
	t.log.Debug("bet rejected", zap.String("reason", reason), zap.Error(err))
}

// ClearBets apaga as apostas do jogador na rodada corrente
func (t *Table) ClearBets(ctx context.Context, playerID string) (PlaceResult, error) {
	t.mu.Lock()
	var err error
	if t.phase != PhaseBetting {
		err = game.ErrWrongPhase
	} else {
		_, err = t.ledger.Clear(playerID)
	}
	t.mu.Unlock()
	if err != nil {
		t.reject(err)
		return PlaceResult{}, err
	}

	balance, err := t.store.Balance(ctx, playerID)
	if err != nil {
		return PlaceResult{}, err
	}
	return PlaceResult{Balance: balance, Available: balance - t.exposure.Total(playerID)}, nil
}

// State é a resposta de requestState
type State struct {
	TableID     string                           `json:"tableId"`
	Variant     game.Variant                     `json:"variant"`
	Phase       Phase                            `json:"phase"`
	Countdown   float64                          `json:"countdown"`
	RoundID     string                           `json:"roundId"`
	RoundNumber int                              `json:"roundNumber"`
	ShoeNumber  int                              `json:"shoeNumber"`
	CardsLeft   int                              `json:"cardsLeft"`
	Dealt       []DealtCard                      `json:"dealt"`
	Wagers      []game.Wager                     `json:"wagers"`
	Balance     int64                            `json:"balance"`
	Available   int64                            `json:"available"`
	History     []game.Round                     `json:"history"`
	Roadmap     *roadmap.Snapshot                `json:"roadmap,omitempty"`
	Odds        map[game.BetType]decimal.Decimal `json:"odds"`
}

// State devolve a visão da mesa; playerID vazio é um espectador
func (t *Table) State(ctx context.Context, playerID string) (State, error) {
	var balance int64
	if playerID != "" {
		b, err := t.store.Balance(ctx, playerID)
		if err != nil {
			return State{}, err
		}
		balance = b
	}

	t.mu.Lock()
	st := State{
		TableID:     t.cfg.ID,
		Variant:     t.cfg.Variant,
		Phase:       t.phase,
		RoundID:     t.roundID,
		RoundNumber: t.roundNumber,
		ShoeNumber:  t.shoe.Number(),
		CardsLeft:   t.shoe.Remaining(),
		Dealt:       append([]DealtCard(nil), t.dealt...),
		History:     append([]game.Round(nil), t.history...),
		Odds:        odds.Table(t.cfg.Variant),
	}
	// o sapato novo já foi anunciado; a troca acontece no Dealing
	if t.pendingReshuffle && (t.phase == PhaseBetting || t.phase == PhaseSealed) {
		st.ShoeNumber++
	}
	if !t.phaseEnds.IsZero() {
		st.Countdown = max(time.Until(t.phaseEnds).Seconds(), 0)
	}
	if playerID != "" {
		st.Wagers = t.ledger.PlayerWagers(playerID)
	}
	t.mu.Unlock()

	if playerID != "" {
		st.Balance = balance
		st.Available = balance - t.exposure.Total(playerID)
	}
	if t.road != nil {
		snap := t.road.Snapshot()
		st.Roadmap = &snap
	}
	return st, nil
}

// AskRoad simula o próximo resultado sem alterar os roads
func (t *Table) AskRoad(outcome string) (roadmap.Delta, error) {
	if t.road == nil {
		return roadmap.Delta{}, roadmap.ErrNoRoadmap
	}
	o, err := roadmap.FromOutcome(outcome)
	if err != nil {
		return roadmap.Delta{}, err
	}
	return t.road.Ask(o)
}
