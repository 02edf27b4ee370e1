package metrics

import "github.com/prometheus/client_golang/prometheus"

// TableMetrics agrupa as métricas das mesas (apostas, rodadas, liquidação, WS)
type TableMetrics struct {
	BetsAccepted      *prometheus.CounterVec
	BetsRejected      *prometheus.CounterVec
	RoundsResolved    *prometheus.CounterVec
	RoundsVoided      *prometheus.CounterVec
	SettlementSeconds prometheus.Histogram
	PersistRetries    *prometheus.CounterVec
	WSConnections     prometheus.Gauge
}

// NewTableMetrics cria e registra as métricas no registerer informado
// (prometheus.DefaultRegisterer nos binários, registry isolado nos testes)
func NewTableMetrics(reg prometheus.Registerer) *TableMetrics {
	m := &TableMetrics{
		BetsAccepted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "table_bets_accepted_total",
			Help: "apostas aceitas por variante",
		}, []string{"variant"}),
		BetsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "table_bets_rejected_total",
			Help: "apostas rejeitadas por motivo",
		}, []string{"reason"}),
		RoundsResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "table_rounds_resolved_total",
			Help: "rodadas resolvidas por variante e resultado",
		}, []string{"variant", "outcome"}),
		RoundsVoided: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "table_rounds_voided_total",
			Help: "rodadas anuladas (sapato esgotado)",
		}, []string{"variant"}),
		SettlementSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "table_settlement_duration_seconds",
			Help:    "duração da liquidação de uma rodada",
			Buckets: prometheus.DefBuckets,
		}),
		PersistRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "table_persist_retries_total",
			Help: "novas tentativas de persistência por etapa",
		}, []string{"stage"}),
		WSConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "table_ws_connections",
			Help: "Clientes WebSocket conectados",
		}),
	}
	reg.MustRegister(
		m.BetsAccepted, m.BetsRejected, m.RoundsResolved, m.RoundsVoided,
		m.SettlementSeconds, m.PersistRetries, m.WSConnections,
	)
	return m
}
