package main

import (
	"context"
	"fmt"
	"net/url"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/live-tables-platform/internal/shared/config"
	"github.com/radieske/live-tables-platform/internal/shared/logger"
	"github.com/radieske/live-tables-platform/internal/shared/metrics"
	bot "github.com/radieske/live-tables-platform/internal/table-bot"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	base, err := url.Parse(cfg.BotTableURL)
	if err != nil {
		log.Fatal("invalid BOT_TABLE_URL", zap.Error(err))
	}

	accepted := prometheus.NewCounter(prometheus.CounterOpts{Name: "bot_bets_accepted_total", Help: "apostas aceitas"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "bot_bets_rejected_total", Help: "apostas rejeitadas por código"}, []string{"code"})
	prometheus.MustRegister(accepted, rejected)

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, nil)
	defer metricsSrv.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// um bot por jogador: bot-1, bot-2, ...
	var wg sync.WaitGroup
	for i := 1; i <= cfg.BotPlayers; i++ {
		u := *base
		q := u.Query()
		q.Set("playerId", fmt.Sprintf("bot-%d", i))
		u.RawQuery = q.Encode()

		b := &bot.Bot{
			URL:        u.String(),
			Log:        log.With(zap.Int("bot", i)),
			Stake:      cfg.BotStake,
			OnAccepted: accepted.Inc,
			OnRejected: func(code string) { rejected.WithLabelValues(code).Inc() },
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Start(ctx)
		}()
	}
	log.Info("table-bot started", zap.String("table", cfg.BotTableURL), zap.Int("players", cfg.BotPlayers))
	wg.Wait()
	log.Info("table-bot stopped")
}
