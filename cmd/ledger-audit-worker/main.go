package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	audit "github.com/radieske/live-tables-platform/internal/ledger-audit"
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

	// Leitura do ledger gravado pelas mesas
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()

	// Kafka consumer: round_settled; producer: DLQ dos acertos reprovados
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicRoundSettled, "ledger-audit")
	defer reader.Close()

	var dlq audit.DLQ
	if cfg.TopicRoundSettledDLQ != "" {
		w := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicRoundSettledDLQ)
		defer w.Close()
		dlq = audit.KafkaDLQ{W: w}
	}

	audited := prometheus.NewCounter(prometheus.CounterOpts{Name: "ledger_audit_rounds_total", Help: "rodadas auditadas"})
	violations := prometheus.NewCounter(prometheus.CounterOpts{Name: "ledger_audit_violations_total", Help: "rodadas com divergência no ledger"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ledger_audit_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(audited, violations, errorsBy)

	a := &audit.Auditor{
		Log:         log,
		Reader:      reader,
		Ledger:      store.NewPostgres(pg),
		DLQ:         dlq,
		OnAudited:   audited.Inc,
		OnViolation: violations.Inc,
		OnError:     func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, pg.PingContext)
	defer metricsSrv.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("ledger-audit-worker started",
		zap.String("consume", cfg.TopicRoundSettled),
		zap.String("dlq", cfg.TopicRoundSettledDLQ),
	)
	if err := a.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("auditor stopped with error", zap.Error(err))
	}
	log.Info("ledger-audit-worker stopped")
}
