// Package publisher entrega os eventos das mesas: WS local, Redis pub/sub
// (instâncias de borda) e o fluxo durável no Kafka.
package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/live-tables-platform/pkg/contracts/events"
)

const (
	queueSize     = 1024
	writeAttempts = 3
	drainTimeout  = 5 * time.Second
)

// Broadcaster é o Hub WS local
type Broadcaster interface {
	Broadcast(env events.Envelope)
}

// Sink grava uma mensagem em um tópico durável
type Sink interface {
	Write(ctx context.Context, topic, key string, payload []byte) error
}

type record struct {
	topic   string
	key     string
	payload []byte
}

// Publisher implementa table.Notifier. Publish é síncrono (hub + Redis);
// Record entra numa fila drenada por Run para o Kafka não segurar o clock.
type Publisher struct {
	hub     Broadcaster
	redis   *redis.Client
	channel string
	sink    Sink
	queue   chan record
	log     *zap.Logger

	OnDropped func() // métricas
}

// New monta o publisher; redis e sink podem ser nil
func New(hub Broadcaster, r *redis.Client, channel string, sink Sink, log *zap.Logger) *Publisher {
	return &Publisher{
		hub:     hub,
		redis:   r,
		channel: channel,
		sink:    sink,
		queue:   make(chan record, queueSize),
		log:     log,
	}
}

func (p *Publisher) Publish(ctx context.Context, env events.Envelope) {
	if p.hub != nil {
		p.hub.Broadcast(env)
	}
	if p.redis == nil {
		return
	}
	b, err := json.Marshal(env)
	if err != nil {
		p.log.Error("encode envelope", zap.String("type", env.Type), zap.Error(err))
		return
	}
	if err := p.redis.Publish(ctx, p.channel, b).Err(); err != nil {
		p.log.Warn("redis publish failed", zap.String("type", env.Type), zap.Error(err))
	}
}

func (p *Publisher) Record(_ context.Context, topic, key string, msg any) {
	if p.sink == nil {
		return
	}
	b, err := json.Marshal(msg)
	if err != nil {
		p.log.Error("encode record", zap.String("topic", topic), zap.Error(err))
		return
	}
	select {
	case p.queue <- record{topic: topic, key: key, payload: b}:
	default:
		p.log.Error("record queue full, dropping", zap.String("topic", topic), zap.String("key", key))
		if p.OnDropped != nil {
			p.OnDropped()
		}
	}
}

// Run drena a fila até o ctx ser cancelado; no shutdown tenta esvaziar o que
// restou por até drainTimeout
func (p *Publisher) Run(ctx context.Context) {
	for {
		select {
		case rec := <-p.queue:
			p.write(ctx, rec)
		case <-ctx.Done():
			dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), drainTimeout)
			defer cancel()
			for {
				select {
				case rec := <-p.queue:
					p.write(dctx, rec)
				default:
					return
				}
			}
		}
	}
}

func (p *Publisher) write(ctx context.Context, rec record) {
	backoff := 100 * time.Millisecond
	for attempt := 1; ; attempt++ {
		err := p.sink.Write(ctx, rec.topic, rec.key, rec.payload)
		if err == nil {
			return
		}
		if attempt == writeAttempts || ctx.Err() != nil {
			p.log.Error("kafka write failed, giving up",
				zap.String("topic", rec.topic), zap.String("key", rec.key), zap.Int("attempts", attempt), zap.Error(err))
			if p.OnDropped != nil {
				p.OnDropped()
			}
			return
		}
		p.log.Warn("kafka write failed, retrying", zap.String("topic", rec.topic), zap.Error(err))
		select {
		case <-ctx.Done():
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}
