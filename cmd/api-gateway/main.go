package main

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/radieske/live-tables-platform/internal/shared/config"
	"github.com/radieske/live-tables-platform/internal/shared/logger"
	"github.com/radieske/live-tables-platform/internal/shared/metrics"
)

func rp(to string) (*httputil.ReverseProxy, error) {
	u, err := url.Parse(to)
	if err != nil {
		return nil, err
	}
	return httputil.NewSingleHostReverseProxy(u), nil
}

// newRouter monta as rotas públicas; o proxy também repassa o upgrade do WebSocket
func newRouter(tablesURL, walletURL string) (http.Handler, error) {
	tables, err := rp(tablesURL)
	if err != nil {
		return nil, err
	}
	wallet, err := rp(walletURL)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()

	// mesas (ex.: /api/tables/bac-1/state -> table-service /v1/tables/bac-1/state)
	mux.Handle("/api/tables", toV1(tables))
	mux.Handle("/api/tables/", toV1(tables))

	// wallet (ex.: /api/wallet/deposit -> wallet-service /wallet/deposit)
	mux.Handle("/api/wallet", http.StripPrefix("/api", wallet))
	mux.Handle("/api/wallet/", http.StripPrefix("/api", wallet))

	// websocket das mesas
	mux.Handle("/ws/", tables)

	return withCORS(mux), nil
}

func toV1(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r2 := r.Clone(r.Context())
		r2.URL.Path = "/v1" + strings.TrimPrefix(r.URL.Path, "/api")
		r2.URL.RawPath = ""
		h.ServeHTTP(w, r2)
	})
}

func main() {
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	// targets
	tablesURL := os.Getenv("TABLES_URL")
	if tablesURL == "" {
		tablesURL = "http://localhost:8083"
	}
	walletURL := os.Getenv("WALLET_URL")
	if walletURL == "" {
		walletURL = "http://localhost:8082"
	}
	h, err := newRouter(tablesURL, walletURL)
	if err != nil {
		log.Fatal("invalid upstream url", zap.Error(err))
	}

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, nil)
	defer metricsSrv.Close()

	addr := ":" + cfg.HTTPPort
	log.Info("api-gateway listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, h); err != nil && err != http.ErrServerClosed {
		log.Fatal("gateway failed", zap.Error(err))
	}
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}
