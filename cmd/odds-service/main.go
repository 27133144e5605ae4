package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	ocache "github.com/radieske/betting-ledger/internal/odds-service/cache"
	httpapi "github.com/radieske/betting-ledger/internal/odds-service/http"
	"github.com/radieske/betting-ledger/internal/odds-service/invalidate"
	"github.com/radieske/betting-ledger/internal/odds-service/repo"
	"github.com/radieske/betting-ledger/internal/shared/cache"
	"github.com/radieske/betting-ledger/internal/shared/config"
	"github.com/radieske/betting-ledger/internal/shared/db"
	"github.com/radieske/betting-ledger/internal/shared/kafka"
	"github.com/radieske/betting-ledger/internal/shared/logger"
	"github.com/radieske/betting-ledger/internal/shared/metrics"
)

func main() {
	// carrega config
	cfg := config.Load()

	// inicia logger
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

	log.Info("starting service", zap.String("service", cfg.ServiceName), zap.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// conecta no ledger (somente leitura por aqui)
	store, conn, err := db.OpenLedger(ctx, cfg.DBDriver, cfg.PostgresDSN, cfg.SQLitePath)
	if err != nil {
		log.Fatal("failed to open ledger", zap.Error(err))
	}
	defer conn.Close()
	log.Info("ledger connected", zap.String("driver", store.Dialect().Name()))

	api := &httpapi.API{ReadRepo: &repo.ReadRepo{Store: store}, TTL: cfg.BoardCacheTTL, Log: log}

	// conecta com cache Redis
	redisClient, err := cache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatal("failed to connect redis", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
		oc := ocache.New(redisClient)
		api.Cache = oc
		log.Info("redis connected")

		// invalida o cache a cada evento de partida do ledger
		if cfg.KafkaBrokers != "" {
			reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicLedgerEvents, cfg.ServiceName+"-cache")
			defer reader.Close()
			go invalidate.Run(ctx, reader, oc, log)
			log.Info("cache invalidation consumer started", zap.String("topic", cfg.TopicLedgerEvents))
		}
	}

	// sobe servidor de métricas e health
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := store.Ping(ctx); err != nil {
			return err
		}
		if redisClient != nil {
			return redisClient.Ping(ctx).Err()
		}
		return nil
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	log.Info("odds api listening", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api server failed", zap.Error(err))
	}
}
