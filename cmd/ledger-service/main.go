package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	lhttp "github.com/radieske/betting-ledger/internal/ledger-service/http"
	"github.com/radieske/betting-ledger/internal/ledger-service/auth"
	kpub "github.com/radieske/betting-ledger/internal/ledger-service/producer"
	"github.com/radieske/betting-ledger/internal/ledger-service/session"
	"github.com/radieske/betting-ledger/internal/shared/cache"
	"github.com/radieske/betting-ledger/internal/shared/config"
	"github.com/radieske/betting-ledger/internal/shared/db"
	"github.com/radieske/betting-ledger/internal/shared/kafka"
	"github.com/radieske/betting-ledger/internal/shared/logger"
	"github.com/radieske/betting-ledger/internal/shared/metrics"
	"github.com/radieske/betting-ledger/internal/wager"
)

func main() {
	cfg := config.Load()
	log, err := logger.NewWithFile(cfg.ServiceName, cfg.Env, logger.File{
		Path:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	ctx := context.Background()

	// Ledger (Postgres ou SQLite) com schema aplicado
	store, conn, err := db.OpenLedger(ctx, cfg.DBDriver, cfg.PostgresDSN, cfg.SQLitePath)
	if err != nil {
		log.Fatal("ledger db", zap.Error(err))
	}
	defer conn.Close()
	log.Info("ledger connected", zap.String("driver", store.Dialect().Name()))

	// Sessões: Redis quando configurado, memória no dev local
	rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}
	var sessions session.Store = session.NewMemory(cfg.SessionTTL)
	if rdb != nil {
		defer rdb.Close()
		sessions = session.NewRedis(rdb, cfg.SessionTTL)
	}

	// Kafka writer (topic ledger_events)
	opts := []wager.Option{wager.WithMetrics(wager.NewMetrics(prometheus.DefaultRegisterer))}
	if cfg.KafkaBrokers != "" {
		writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicLedgerEvents)
		defer writer.Close()
		opts = append(opts, wager.WithPublisher(kpub.NewKafkaPublisher(writer, cfg.TopicLedgerEvents)))
	}
	engine := wager.NewEngine(store, log, opts...)

	if err := auth.EnsureAdmin(ctx, store, engine, log, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatal("admin bootstrap", zap.Error(err))
	}

	// metrics/health
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := store.Ping(ctx); err != nil {
			return err
		}
		if rdb != nil {
			return rdb.Ping(ctx).Err()
		}
		return nil
	})
	log.Info("metrics/health", zap.String("addr", ":"+cfg.MetricsPort))

	// HTTP público
	api := lhttp.NewServer(log, engine, store, sessions, cfg.SessionTTL)
	apiSrv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info("ledger-service listening", zap.String("addr", apiSrv.Addr))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
