package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBrokers(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"localhost:9092", []string{"localhost:9092"}},
		{"a:9092,b:9092", []string{"a:9092", "b:9092"}},
		{" a:9092 , ,b:9092,", []string{"a:9092", "b:9092"}},
		{"", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Brokers(tt.in), tt.in)
	}
}

func TestNewWriterUsesEveryBroker(t *testing.T) {
	w := NewWriter("a:9092,b:9092", "round-results")
	assert.Equal(t, "round-results", w.Topic)
	assert.Contains(t, w.Addr.String(), "a:9092")
	assert.Contains(t, w.Addr.String(), "b:9092")

	r := NewReader("a:9092,b:9092", "round-results", "roadmap-worker")
	defer r.Close()
	assert.Equal(t, []string{"a:9092", "b:9092"}, r.Config().Brokers)
	assert.Equal(t, "roadmap-worker", r.Config().GroupID)
}
