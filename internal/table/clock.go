package table

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/live-tables-platform/internal/game"
	"github.com/radieske/live-tables-platform/internal/game/resolver"
	"github.com/radieske/live-tables-platform/internal/game/shoe"
	"github.com/radieske/live-tables-platform/internal/store"
	"github.com/radieske/live-tables-platform/internal/table/settlement"
	"github.com/radieske/live-tables-platform/pkg/contracts/events"
	"github.com/radieske/live-tables-platform/pkg/roadmap"
)

const maxPersistBackoff = 10 * time.Second

// Run é o Phase Clock: Betting → Sealed → Dealing → Result → Betting até o ctx
// ser cancelado. Um cancelamento no meio da rodada não exige estorno, pois
// nenhum stake foi debitado.
func (t *Table) Run(ctx context.Context) error {
	t.log.Info("table clock started",
		zap.Int("shoe", t.shoeNumber()), zap.Int("deck_count", t.cfg.DeckCount))
	for {
		err := t.round(ctx)
		if ctx.Err() != nil {
			t.log.Info("table clock stopped")
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (t *Table) round(ctx context.Context) error {
	t.enterBetting(ctx)
	if err := sleep(ctx, t.cfg.BettingDuration); err != nil {
		return err
	}

	wagers := t.enterSealed(ctx)
	if err := sleep(ctx, t.cfg.SealedDuration); err != nil {
		return err
	}

	res, err := t.deal(ctx)
	if errors.Is(err, shoe.ErrShoeExhausted) {
		t.log.Warn("shoe exhausted mid-deal, voiding round", zap.Error(err))
		return t.voidRound(ctx, wagers)
	}
	if err != nil {
		return err
	}

	if err := t.enterResult(ctx, res, wagers); err != nil {
		return err
	}
	return sleep(ctx, t.cfg.ResultDuration)
}

func (t *Table) enterBetting(ctx context.Context) {
	t.mu.Lock()
	t.pendingReshuffle = t.shoe.NeedsReshuffle(t.cfg.ReshuffleThreshold)
	shoeNumber := t.shoe.Number()
	if t.pendingReshuffle {
		t.roundNumber = 1
		shoeNumber++
	} else {
		t.roundNumber++
	}
	t.roundID = uuid.NewString()
	t.dealt = nil
	t.ledger.Open()
	t.phase = PhaseBetting
	t.phaseEnds = time.Now().Add(t.cfg.BettingDuration)
	ev := t.phaseEvent(shoeNumber)
	t.mu.Unlock()

	t.emit(ctx, events.TypePhaseChanged, "", ev)
}

// enterSealed fecha o ledger sob o mesmo lock usado pelo PlaceBets e devolve o
// conjunto congelado de apostas da rodada
func (t *Table) enterSealed(ctx context.Context) []game.Wager {
	t.mu.Lock()
	wagers := t.ledger.Snapshot()
	t.phase = PhaseSealed
	t.phaseEnds = time.Now().Add(t.cfg.SealedDuration)
	ev := t.phaseEvent(t.shoe.Number() + b2i(t.pendingReshuffle))
	t.mu.Unlock()

	t.emit(ctx, events.TypePhaseChanged, "", ev)
	return wagers
}

func (t *Table) deal(ctx context.Context) (game.Result, error) {
	t.mu.Lock()
	if t.pendingReshuffle {
		t.shoe.Reshuffle()
		t.shoe.Burn(t.cfg.BurnCards)
		t.pendingReshuffle = false
		if t.road != nil {
			t.road.Reset(t.shoe.Number())
		}
		t.log.Info("shoe reshuffled", zap.Int("shoe", t.shoe.Number()))
	}
	t.phase = PhaseDealing
	t.phaseEnds = time.Time{}
	ev := t.phaseEvent(t.shoe.Number())
	roundNumber := t.roundNumber
	t.mu.Unlock()
	t.emit(ctx, events.TypePhaseChanged, "", ev)

	var cards []game.Card
	for {
		slot, ok := resolver.NextSlot(t.cfg.Variant, cards)
		if !ok {
			break
		}

		t.mu.Lock()
		c, err := t.shoe.Draw()
		if err == nil {
			cards = append(cards, c)
			t.dealt = append(t.dealt, DealtCard{Hand: slot.Hand, Index: slot.Index, Card: c})
		}
		t.mu.Unlock()
		if err != nil {
			return game.Result{}, err
		}

		t.emit(ctx, events.TypeCardDealt, "", events.CardDealt{
			RoundNumber: roundNumber, Hand: slot.Hand, Index: slot.Index, Card: c.String(),
		})
		if err := sleep(ctx, t.cfg.CardInterval); err != nil {
			return game.Result{}, err
		}
	}
	return resolver.Resolve(t.cfg.Variant, cards)
}

// enterResult grava a rodada e o acerto antes de qualquer difusão; a exposição
// só é liberada depois que o saldo foi gravado
func (t *Table) enterResult(ctx context.Context, res game.Result, wagers []game.Wager) error {
	t.mu.Lock()
	round := game.Round{
		ID:          t.roundID,
		TableID:     t.cfg.ID,
		ShoeNumber:  t.shoe.Number(),
		RoundNumber: t.roundNumber,
		CreatedAt:   time.Now().UTC(),
		Result:      res,
	}
	t.phase = PhaseResult
	t.phaseEnds = time.Now().Add(t.cfg.ResultDuration)
	ev := t.phaseEvent(round.ShoeNumber)
	t.mu.Unlock()

	log := t.log.With(zap.String("round_id", round.ID), zap.Int("round", round.RoundNumber))

	if err := t.persist(ctx, "round", func(pctx context.Context) error {
		return t.store.AppendRound(pctx, round)
	}); err != nil {
		return err
	}

	start := time.Now()
	var s settlement.Settlement
	if err := t.persist(ctx, "settlement", func(pctx context.Context) (err error) {
		s, err = t.settle.Settle(pctx, round, wagers)
		return err
	}); err != nil {
		return err
	}
	t.metrics.SettlementSeconds.Observe(time.Since(start).Seconds())

	t.mu.Lock()
	t.ledger.Release()
	t.history = append(t.history, round)
	if extra := len(t.history) - t.cfg.HistoryWindow; extra > 0 {
		t.history = append([]game.Round(nil), t.history[extra:]...)
	}
	t.mu.Unlock()

	t.metrics.RoundsResolved.WithLabelValues(string(t.cfg.Variant), string(res.Outcome)).Inc()
	log.Info("round resolved",
		zap.String("outcome", string(res.Outcome)),
		zap.Int("wagers", len(wagers)),
		zap.Int("players", len(s.Players)))

	t.emit(ctx, events.TypePhaseChanged, "", ev)

	rr, err := roundResultEvent(round)
	if err != nil {
		log.Error("encode round result", zap.Error(err))
	} else {
		t.emit(ctx, events.TypeRoundResult, "", rr)
		t.notify.Record(ctx, t.cfg.TopicRoundResults, t.cfg.ID, rr)
	}

	t.emitSettlement(ctx, s)

	if t.road != nil {
		if err := t.foldRoadmap(ctx, round); err != nil {
			log.Error("roadmap append", zap.Error(err))
		}
	}
	return nil
}

func (t *Table) foldRoadmap(ctx context.Context, round game.Round) error {
	o, err := roadmap.FromOutcome(string(round.Outcome))
	if err != nil {
		return err
	}
	if _, err := t.road.Append(round.ShoeNumber, round.RoundNumber, o); err != nil {
		return err
	}
	t.emit(ctx, events.TypeRoadmapUpdated, "", events.RoadmapUpdated{
		TableID: t.cfg.ID, Roadmap: t.road.Snapshot(),
	})
	return nil
}

// voidRound estorna as apostas da rodada, força um novo sapato e reinicia a
// numeração de rodadas
func (t *Table) voidRound(ctx context.Context, wagers []game.Wager) error {
	t.mu.Lock()
	roundID, roundNumber, shoeNumber := t.roundID, t.roundNumber, t.shoe.Number()
	t.phase = PhaseResult
	t.phaseEnds = time.Time{}
	t.mu.Unlock()

	var s settlement.Settlement
	if len(wagers) > 0 {
		if err := t.persist(ctx, "void", func(pctx context.Context) (err error) {
			s, err = t.settle.Refund(pctx, roundID, t.cfg.ID, wagers)
			return err
		}); err != nil {
			return err
		}
	}

	t.mu.Lock()
	t.ledger.Release()
	t.shoe.Reshuffle()
	t.shoe.Burn(t.cfg.BurnCards)
	t.pendingReshuffle = false
	t.roundNumber = 0
	t.dealt = nil
	if t.road != nil {
		t.road.Reset(t.shoe.Number())
	}
	t.mu.Unlock()

	t.metrics.RoundsVoided.WithLabelValues(string(t.cfg.Variant)).Inc()
	ev := events.RoundVoided{
		RoundID:     roundID,
		TableID:     t.cfg.ID,
		ShoeNumber:  shoeNumber,
		RoundNumber: roundNumber,
		Reason:      shoe.ErrShoeExhausted.Error(),
		Refunded:    len(wagers),
		Ts:          time.Now().UTC(),
	}
	t.emit(ctx, events.TypeRoundVoided, "", ev)
	t.notify.Record(ctx, t.cfg.TopicRoundVoided, t.cfg.ID, ev)
	if len(wagers) > 0 {
		t.emitSettlement(ctx, s)
	}
	return nil
}

// persist repete op com backoff exponencial até gravar. A escrita em andamento
// não é abortada pelo shutdown; só a espera entre tentativas respeita o ctx.
func (t *Table) persist(ctx context.Context, stage string, op func(context.Context) error) error {
	pctx := context.WithoutCancel(ctx)
	backoff := t.cfg.PersistBackoff
	for {
		err := op(pctx)
		if err == nil {
			return nil
		}
		t.metrics.PersistRetries.WithLabelValues(stage).Inc()
		t.log.Error("persist failed, retrying",
			zap.String("stage", stage),
			zap.Bool("persistence", errors.Is(err, store.ErrPersistence)),
			zap.Duration("backoff", backoff),
			zap.Error(err))
		if err := sleep(ctx, backoff); err != nil {
			return err
		}
		backoff = min(backoff*2, maxPersistBackoff)
	}
}

func (t *Table) emitSettlement(ctx context.Context, s settlement.Settlement) {
	if s.Replayed {
		return
	}
	players := make([]events.PlayerSettlement, 0, len(s.Players))
	for _, p := range s.Players {
		ps := events.PlayerSettlement{
			PlayerID: p.PlayerID,
			Stake:    p.Stake,
			Return:   p.Return,
			Delta:    p.Delta,
			Balance:  p.Balance,
			EntryID:  p.EntryID,
		}
		for _, w := range p.Wagers {
			ps.Wagers = append(ps.Wagers, events.WagerOutcome{
				BetType: string(w.BetType), Amount: w.Amount, Return: w.Return, Status: string(w.Status),
			})
		}
		players = append(players, ps)
		t.emit(ctx, events.TypeSettlement, p.PlayerID, ps)
	}
	if len(players) == 0 {
		return
	}
	t.notify.Record(ctx, t.cfg.TopicRoundSettled, t.cfg.ID, events.RoundSettled{
		RoundID: s.RoundID,
		TableID: s.TableID,
		Reason:  s.Reason,
		Players: players,
		Ts:      time.Now().UTC(),
	})
}

func (t *Table) emit(ctx context.Context, typ, playerID string, payload any) {
	env, err := events.NewEnvelope(typ, t.cfg.ID, payload)
	if err != nil {
		t.log.Error("encode event", zap.String("type", typ), zap.Error(err))
		return
	}
	env.Seq = t.seq.Add(1)
	env.PlayerID = playerID
	t.notify.Publish(ctx, env)
}

// phaseEvent monta o payload da fase corrente; chamar com t.mu travado
func (t *Table) phaseEvent(shoeNumber int) events.PhaseChanged {
	ev := events.PhaseChanged{
		Phase:       string(t.phase),
		RoundNumber: t.roundNumber,
		ShoeNumber:  shoeNumber,
	}
	if !t.phaseEnds.IsZero() {
		ev.EndsAt = t.phaseEnds.UTC()
		ev.Countdown = max(time.Until(t.phaseEnds).Seconds(), 0)
	}
	return ev
}

func (t *Table) shoeNumber() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.shoe.Number()
}

func roundResultEvent(r game.Round) (events.RoundResult, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return events.RoundResult{}, err
	}
	return events.RoundResult{
		RoundID:     r.ID,
		TableID:     r.TableID,
		Variant:     string(r.Variant),
		ShoeNumber:  r.ShoeNumber,
		RoundNumber: r.RoundNumber,
		Outcome:     string(r.Outcome),
		Round:       raw,
		Ts:          r.CreatedAt,
	}, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
