package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/live-tables-platform/pkg/contracts/events"
)

type hubSpy struct {
	mu   sync.Mutex
	envs []events.Envelope
}

func (h *hubSpy) Broadcast(env events.Envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.envs = append(h.envs, env)
}

type sinkSpy struct {
	mu      sync.Mutex
	fail    int
	written []string
}

func (s *sinkSpy) Write(_ context.Context, topic, key string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail > 0 {
		s.fail--
		return errors.New("broker unavailable")
	}
	s.written = append(s.written, topic+"|"+key+"|"+string(payload))
	return nil
}

func (s *sinkSpy) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.written)
}

func TestPublishFansOutToHubAndRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx := context.Background()
	sub := rdb.Subscribe(ctx, "table_events_broadcast")
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	hub := &hubSpy{}
	p := New(hub, rdb, "table_events_broadcast", nil, zap.NewNop())

	env, err := events.NewEnvelope(events.TypeCardDealt, "bac-1", events.CardDealt{Hand: "player", Index: 0, Card: "A♠"})
	require.NoError(t, err)
	env.Seq = 9
	p.Publish(ctx, env)

	require.Len(t, hub.envs, 1)
	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	var got events.Envelope
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, int64(9), got.Seq)
	assert.Equal(t, "bac-1", got.TableID)
}

func TestRecordIsWrittenWithRetry(t *testing.T) {
	sink := &sinkSpy{fail: 1}
	p := New(nil, nil, "", sink, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { p.Run(ctx); close(done) }()

	p.Record(ctx, "round_results", "bac-1", map[string]int{"round": 1})
	require.Eventually(t, func() bool { return sink.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, `round_results|bac-1|{"round":1}`, sink.written[0])

	cancel()
	<-done
}

func TestRunDrainsOnShutdown(t *testing.T) {
	sink := &sinkSpy{}
	p := New(nil, nil, "", sink, zap.NewNop())
	for i := 0; i < 5; i++ {
		p.Record(context.Background(), "round_settled", "dt-1", i)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.Run(ctx)
	assert.Equal(t, 5, sink.count())
}

func TestRecordDropsWhenQueueFull(t *testing.T) {
	dropped := 0
	p := New(nil, nil, "", &sinkSpy{}, zap.NewNop())
	p.OnDropped = func() { dropped++ }
	for i := 0; i < queueSize+3; i++ {
		p.Record(context.Background(), "round_results", "k", i)
	}
	assert.Equal(t, 3, dropped)
}
