package audit

import (
	"context"

	"github.com/radieske/live-tables-platform/internal/shared/kafka"
)

// KafkaDLQ escreve no tópico de DLQ via kafka-go
type KafkaDLQ struct {
	W *kafka.Writer
}

func (d KafkaDLQ) Write(ctx context.Context, key string, payload []byte) error {
	return kafka.WriteJSON(ctx, d.W, key, payload)
}
