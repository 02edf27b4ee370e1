package table

import (
	"context"

	"github.com/radieske/live-tables-platform/pkg/contracts/events"
)

// Notifier recebe o que a mesa difunde. Publish é o evento em tempo real
// (WS / pub/sub); Record é o fluxo durável (tópico Kafka, chave, mensagem).
// Implementações não devem bloquear o clock por muito tempo.
type Notifier interface {
	Publish(ctx context.Context, env events.Envelope)
	Record(ctx context.Context, topic, key string, msg any)
}

type nopNotifier struct{}

func (nopNotifier) Publish(context.Context, events.Envelope)    {}
func (nopNotifier) Record(context.Context, string, string, any) {}
