package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/live-tables-platform/pkg/contracts/events"
	"github.com/radieske/live-tables-platform/pkg/roadmap"
)

// Reader é o subconjunto de *kafka.Reader usado pelo processor
type Reader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type SnapshotCache interface {
	SetCurrent(ctx context.Context, tableID string, s roadmap.Snapshot) error
}

type Broadcaster interface {
	Publish(ctx context.Context, env events.Envelope) error
}

// Processor consome round_results, atualiza o roadmap da mesa, grava no cache
// e difunde roadmap_updated. Callbacks de métricas são opcionais.
type Processor struct {
	Log         *zap.Logger
	Reader      Reader
	Folder      *Folder
	Cache       SnapshotCache
	Broadcaster Broadcaster // opcional

	OnConsumed func()
	OnCached   func()
	OnError    func(string) // métricas por fase
}

// Run inicia o loop de consumo; retorna quando o contexto é cancelado
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			p.fail("read")
			time.Sleep(500 * time.Millisecond)
			continue
		}
		if p.OnConsumed != nil {
			p.OnConsumed()
		}
		p.Handle(ctx, m.Value)
	}
}

// Handle processa uma mensagem já lida
func (p *Processor) Handle(ctx context.Context, value []byte) {
	var ev events.RoundResult
	if err := json.Unmarshal(value, &ev); err != nil || ev.TableID == "" {
		p.Log.Warn("invalid message", zap.Error(err))
		p.fail("decode")
		return
	}

	snap, err := p.Folder.Fold(ctx, ev)
	if err != nil {
		if errors.Is(err, ErrSkipped) {
			p.Log.Debug("round skipped", zap.String("table_id", ev.TableID), zap.Int("round", ev.RoundNumber), zap.Error(err))
			return
		}
		p.Log.Warn("roadmap fold failed", zap.String("table_id", ev.TableID), zap.Error(err))
		p.fail("fold")
		return
	}

	if err := p.Cache.SetCurrent(ctx, ev.TableID, snap); err != nil {
		p.Log.Warn("redis set failed", zap.String("table_id", ev.TableID), zap.Error(err))
		p.fail("cache")
		// segue para o broadcast mesmo sem cache
	} else if p.OnCached != nil {
		p.OnCached()
	}

	if p.Broadcaster == nil {
		return
	}
	env, err := events.NewEnvelope(events.TypeRoadmapUpdated, ev.TableID, events.RoadmapUpdated{TableID: ev.TableID, Roadmap: snap})
	if err != nil {
		p.fail("encode")
		return
	}
	pctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	if err := p.Broadcaster.Publish(pctx, env); err != nil {
		p.Log.Warn("roadmap broadcast failed", zap.String("table_id", ev.TableID), zap.Error(err))
		p.fail("broadcast")
	}
}

func (p *Processor) fail(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}
