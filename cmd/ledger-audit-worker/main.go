package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/betting-ledger/internal/audit"
	"github.com/radieske/betting-ledger/internal/shared/config"
	"github.com/radieske/betting-ledger/internal/shared/db"
	"github.com/radieske/betting-ledger/internal/shared/kafka"
	"github.com/radieske/betting-ledger/internal/shared/logger"
	"github.com/radieske/betting-ledger/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Conexão com o ledger para conferir saldo x transações
	store, conn, err := db.OpenLedger(ctx, cfg.DBDriver, cfg.PostgresDSN, cfg.SQLitePath)
	if err != nil {
		log.Fatal("ledger connect", zap.Error(err))
	}
	defer conn.Close()

	auditor := audit.New(store, log, audit.NewMetrics(prometheus.DefaultRegisterer))

	// Servidor HTTP para métricas Prometheus e healthcheck
	metrics.StartMetricsServer(cfg.MetricsPort, store.Ping)
	log.Info("metrics/health", zap.String("addr", ":"+cfg.MetricsPort))

	// Varredura completa antes de começar a consumir
	if _, err := auditor.Sweep(ctx); err != nil {
		log.Error("initial sweep", zap.Error(err))
	}

	// Kafka consumer: ledger_events; mensagens ilegíveis vão para a DLQ
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicLedgerEvents, cfg.AuditGroupID)
	defer reader.Close()

	var dlq *kafka.Writer
	if cfg.TopicLedgerEventsDLQ != "" {
		dlq = kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicLedgerEventsDLQ)
		defer dlq.Close()
	}

	log.Info("ledger-audit-worker started",
		zap.String("consume", cfg.TopicLedgerEvents),
		zap.String("dlq", cfg.TopicLedgerEventsDLQ))

	auditor.Run(ctx, reader, dlq)
	log.Info("ledger-audit-worker stopped")
}
