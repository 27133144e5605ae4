package main

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/betting-ledger/internal/gateway"
	"github.com/radieske/betting-ledger/internal/shared/config"
	"github.com/radieske/betting-ledger/internal/shared/logger"
)

func main() {
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	// /api/ledger/* -> ledger-service, /api/odds/* -> odds-service
	h, err := gateway.New(cfg.LedgerURL, cfg.OddsURL, cfg.CORSOrigins, log)
	if err != nil {
		log.Fatal("gateway config", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Info("api-gateway listening",
		zap.String("addr", srv.Addr),
		zap.String("ledger", cfg.LedgerURL),
		zap.String("odds", cfg.OddsURL))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("gateway failed", zap.Error(err))
	}
}
