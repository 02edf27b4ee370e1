package publisher

import (
	"context"
	"errors"
	"sync"

	"github.com/radieske/live-tables-platform/internal/shared/kafka"
)

// KafkaSink mantém um writer por tópico, criado na primeira escrita
type KafkaSink struct {
	brokers string
	mu      sync.Mutex
	writers map[string]*kafka.Writer
}

func NewKafkaSink(brokers string) *KafkaSink {
	return &KafkaSink{brokers: brokers, writers: make(map[string]*kafka.Writer)}
}

func (k *KafkaSink) writer(topic string) *kafka.Writer {
	k.mu.Lock()
	defer k.mu.Unlock()
	w, ok := k.writers[topic]
	if !ok {
		w = kafka.NewWriter(k.brokers, topic)
		k.writers[topic] = w
	}
	return w
}

func (k *KafkaSink) Write(ctx context.Context, topic, key string, payload []byte) error {
	return kafka.WriteJSON(ctx, k.writer(topic), key, payload)
}

func (k *KafkaSink) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	var errs []error
	for _, w := range k.writers {
		errs = append(errs, w.Close())
	}
	return errors.Join(errs...)
}
