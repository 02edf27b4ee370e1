package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/live-tables-platform/internal/shared/cache"
	"github.com/radieske/live-tables-platform/internal/shared/config"
	"github.com/radieske/live-tables-platform/internal/shared/db"
	"github.com/radieske/live-tables-platform/internal/shared/logger"
	"github.com/radieske/live-tables-platform/internal/shared/metrics"
	"github.com/radieske/live-tables-platform/internal/store"
	"github.com/radieske/live-tables-platform/internal/table"
	tcache "github.com/radieske/live-tables-platform/internal/table-service/cache"
	"github.com/radieske/live-tables-platform/internal/table-service/holds"
	httpapi "github.com/radieske/live-tables-platform/internal/table-service/http"
	"github.com/radieske/live-tables-platform/internal/table-service/publisher"
	"github.com/radieske/live-tables-platform/internal/table-service/ws"
	"github.com/radieske/live-tables-platform/internal/table/ledger"
)

// tablesRef quebra o ciclo hub -> manager -> publisher -> hub
type tablesRef struct{ *table.Manager }

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("starting service",
		zap.String("service", cfg.ServiceName),
		zap.String("env", cfg.Env),
		zap.Bool("edge_mode", cfg.EdgeMode))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient, err := cache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	// Store durável: Postgres (padrão) ou memória para demo local
	var base store.Store
	health := func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	switch cfg.StoreDriver {
	case "memory":
		base = store.NewMemory()
		log.Warn("using in-memory store, data is lost on restart")
	default:
		pg, err := db.ConnectPostgres(cfg.PostgresDSN)
		if err != nil {
			log.Fatal("postgres connect", zap.Error(err))
		}
		defer pg.Close()
		if err := db.Migrate(ctx, pg); err != nil {
			log.Fatal("postgres migrate", zap.Error(err))
		}
		base = store.NewPostgres(pg)
		health = func(ctx context.Context) error {
			if err := pg.PingContext(ctx); err != nil {
				return err
			}
			return redisClient.Ping(ctx).Err()
		}
	}
	st := store.NewCached(base, redisClient, cfg.HistoryWindow, time.Minute, log)

	m := metrics.NewTableMetrics(prometheus.DefaultRegisterer)
	dropped := prometheus.NewCounter(prometheus.CounterOpts{Name: "table_events_dropped_total", Help: "eventos descartados com a fila do Kafka cheia"})
	prometheus.MustRegister(dropped)

	// Hub WS; em modo edge ele só repassa o que chega pelo Redis
	ref := &tablesRef{}
	hub := ws.NewHub(ref, m, log, cfg.EdgeMode, func(*http.Request) bool { return true })

	sink := publisher.NewKafkaSink(cfg.KafkaBrokers)
	defer sink.Close()
	pub := publisher.New(hub, redisClient, cfg.RedisPubSubChannel, sink, log)
	pub.OnDropped = dropped.Inc

	tablesCfg := cfg
	if cfg.EdgeMode {
		tablesCfg.Tables = nil
	}
	// Espelho da exposição para o wallet-service barrar saques do saldo apostado
	exposure := ledger.NewExposure()
	mirror := holds.NewMirror(redisClient, cfg.RedisHoldsKey, time.Minute, log)
	exposure.OnChange = mirror.Set

	mgr, err := table.NewManager(tablesCfg, table.Deps{
		Store:    st,
		Exposure: exposure,
		Notifier: pub,
		Metrics:  m,
		Log:      log,
	})
	if err != nil {
		log.Fatal("tables config", zap.Error(err))
	}
	ref.Manager = mgr

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		pub.Run(ctx)
	}()
	// edge não hospeda mesas e não pode zerar o hash de quem hospeda
	if !cfg.EdgeMode {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mirror.Run(ctx, 200*time.Millisecond)
		}()
	}
	go func() {
		defer wg.Done()
		if err := mgr.Run(ctx); err != nil {
			log.Error("tables stopped", zap.Error(err))
		}
	}()
	if cfg.EdgeMode {
		ws.StartRedisSubscriber(ctx, redisClient, cfg.RedisPubSubChannel, hub, log)
	}

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, health)
	log.Info("metrics/health listening", zap.String("addr", metricsSrv.Addr))

	api := &httpapi.API{
		Tables:   mgr,
		Rounds:   st,
		Roadmaps: tcache.New(redisClient, cfg.RedisRoadmapKeyPrefix),
		WS:       hub.HandleWS,
		Log:      log,
	}
	apiSrv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: api.Router()}
	go func() {
		log.Info("api listening", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("api srv", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = apiSrv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
	wg.Wait()
	log.Info("table-service stopped")
}
