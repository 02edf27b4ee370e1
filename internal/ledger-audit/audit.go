// Package audit confere cada acerto publicado em round_settled contra o ledger gravado.
// Acertos inconsistentes vão para o DLQ com a lista de violações.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/live-tables-platform/internal/store"
	"github.com/radieske/live-tables-platform/pkg/contracts/events"
)

const readRetries = 3

type Reader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// Ledger é a leitura do ledger por rodada (store.Store atende)
type Ledger interface {
	RoundLedger(ctx context.Context, roundID string) ([]store.Entry, error)
}

// DLQ recebe os acertos reprovados
type DLQ interface {
	Write(ctx context.Context, key string, payload []byte) error
}

type Auditor struct {
	Log    *zap.Logger
	Reader Reader
	Ledger Ledger
	DLQ    DLQ // opcional
	// RetryBackoff é a espera base entre leituras do ledger que falharam
	RetryBackoff time.Duration

	OnAudited   func()
	OnViolation func()
	OnError     func(string)
}

// Check compara o acerto com as entradas do ledger e devolve as violações encontradas
func Check(ev events.RoundSettled, entries []store.Entry) []string {
	var out []string
	byPlayer := map[string][]store.Entry{}
	for _, e := range entries {
		byPlayer[e.PlayerID] = append(byPlayer[e.PlayerID], e)
		if e.Before+e.Delta != e.After {
			out = append(out, fmt.Sprintf("entry %d: before %d + delta %d != after %d", e.ID, e.Before, e.Delta, e.After))
		}
		if e.Reason != ev.Reason {
			out = append(out, fmt.Sprintf("entry %d: reason %q, settlement says %q", e.ID, e.Reason, ev.Reason))
		}
	}

	seen := map[string]bool{}
	for _, p := range ev.Players {
		seen[p.PlayerID] = true

		var stake, ret int64
		for _, w := range p.Wagers {
			stake += w.Amount
			ret += w.Return
		}
		if stake != p.Stake || ret != p.Return {
			out = append(out, fmt.Sprintf("player %s: wagers sum to stake %d return %d, settlement says %d/%d", p.PlayerID, stake, ret, p.Stake, p.Return))
		}
		if p.Return-p.Stake != p.Delta {
			out = append(out, fmt.Sprintf("player %s: return %d - stake %d != delta %d", p.PlayerID, p.Return, p.Stake, p.Delta))
		}

		es := byPlayer[p.PlayerID]
		switch {
		case len(es) == 0:
			out = append(out, fmt.Sprintf("player %s: no ledger entry", p.PlayerID))
			continue
		case len(es) > 1:
			out = append(out, fmt.Sprintf("player %s: %d ledger entries for one round", p.PlayerID, len(es)))
		}
		e := es[0]
		if e.Delta != p.Delta {
			out = append(out, fmt.Sprintf("player %s: ledger delta %d != settled delta %d", p.PlayerID, e.Delta, p.Delta))
		}
		if p.EntryID != 0 && (e.ID != p.EntryID || e.After != p.Balance) {
			out = append(out, fmt.Sprintf("player %s: entry %d balance %d, settlement says entry %d balance %d", p.PlayerID, e.ID, e.After, p.EntryID, p.Balance))
		}
	}

	var extra []string
	for id := range byPlayer {
		if !seen[id] {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)
	for _, id := range extra {
		out = append(out, fmt.Sprintf("player %s: ledger entry without settlement", id))
	}
	return out
}

// Run consome round_settled até o cancelamento do contexto
func (a *Auditor) Run(ctx context.Context) error {
	for {
		m, err := a.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			a.Log.Warn("kafka read", zap.Error(err))
			a.fail("read")
			time.Sleep(time.Second)
			continue
		}
		if err := a.Handle(ctx, m.Value); err != nil && ctx.Err() == nil {
			a.Log.Error("audit round", zap.Error(err))
		}
	}
}

// Handle audita uma mensagem; falha persistente de leitura também vai para o DLQ
func (a *Auditor) Handle(ctx context.Context, value []byte) error {
	var ev events.RoundSettled
	if err := json.Unmarshal(value, &ev); err != nil {
		a.fail("decode")
		return fmt.Errorf("unmarshal round_settled: %w", err)
	}

	entries, err := a.readLedger(ctx, ev.RoundID)
	if err != nil {
		a.fail("ledger")
		ev.Violations = []string{"ledger unreadable: " + err.Error()}
		return a.reject(ctx, ev)
	}

	if a.OnAudited != nil {
		a.OnAudited()
	}
	ev.Violations = Check(ev, entries)
	if len(ev.Violations) == 0 {
		a.Log.Debug("round audited", zap.String("round_id", ev.RoundID), zap.Int("players", len(ev.Players)))
		return nil
	}
	if a.OnViolation != nil {
		a.OnViolation()
	}
	a.Log.Error("ledger mismatch",
		zap.String("round_id", ev.RoundID),
		zap.String("table_id", ev.TableID),
		zap.Strings("violations", ev.Violations))
	return a.reject(ctx, ev)
}

// readLedger tenta algumas vezes antes de desistir
func (a *Auditor) readLedger(ctx context.Context, roundID string) ([]store.Entry, error) {
	backoff := a.RetryBackoff
	if backoff <= 0 {
		backoff = 300 * time.Millisecond
	}
	var err error
	for i := 0; i <= readRetries; i++ {
		var entries []store.Entry
		if entries, err = a.Ledger.RoundLedger(ctx, roundID); err == nil {
			return entries, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(i+1) * backoff):
		}
	}
	return nil, err
}

func (a *Auditor) reject(ctx context.Context, ev events.RoundSettled) error {
	if a.DLQ == nil {
		return nil
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := a.DLQ.Write(ctx, ev.RoundID, b); err != nil {
		a.fail("dlq")
		return fmt.Errorf("write dlq: %w", err)
	}
	return nil
}

func (a *Auditor) fail(stage string) {
	if a.OnError != nil {
		a.OnError(stage)
	}
}
