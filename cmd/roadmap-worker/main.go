package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/live-tables-platform/internal/roadmap-worker/cache"
	"github.com/radieske/live-tables-platform/internal/roadmap-worker/consumer"
	"github.com/radieske/live-tables-platform/internal/roadmap-worker/pubsub"
	sharedcache "github.com/radieske/live-tables-platform/internal/shared/cache"
	"github.com/radieske/live-tables-platform/internal/shared/config"
	"github.com/radieske/live-tables-platform/internal/shared/db"
	"github.com/radieske/live-tables-platform/internal/shared/kafka"
	"github.com/radieske/live-tables-platform/internal/shared/logger"
	"github.com/radieske/live-tables-platform/internal/shared/metrics"
	"github.com/radieske/live-tables-platform/internal/store"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Postgres só é lido para aquecer o roadmap de mesas já em andamento
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	redisClient, err := sharedcache.ConnectRedis(context.Background(), cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	// Consumer group roadmap-worker no tópico de resultados
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicRoundResults, "roadmap-worker")
	defer reader.Close()

	// Métricas Prometheus para monitoramento do processamento
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "roadmap_messages_consumed_total", Help: "mensagens consumidas"})
	cached := prometheus.NewCounter(prometheus.CounterOpts{Name: "roadmap_cache_sets_total", Help: "snapshots gravados no cache"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "roadmap_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, cached, errorsBy)

	proc := &consumer.Processor{
		Log:         log,
		Reader:      reader,
		Folder:      consumer.NewFolder(store.NewPostgres(pg), cfg.HistoryWindow),
		Cache:       cache.NewRedisCache(redisClient, cfg.RedisRoadmapKeyPrefix, 0),
		Broadcaster: pubsub.NewRedisBroadcaster(redisClient, cfg.RedisLobbyChannel),
		OnConsumed:  consumed.Inc,
		OnCached:    cached.Inc,
		OnError:     func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return redisClient.Ping(ctx).Err()
	})
	defer metricsSrv.Close()

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("roadmap-worker started", zap.String("consume", cfg.TopicRoundResults))
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}
	log.Info("roadmap-worker stopped")
}
