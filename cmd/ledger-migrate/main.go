package main

import (
	"context"
	"flag"
	"os"

	"go.uber.org/zap"

	"github.com/radieske/betting-ledger/internal/ledger-service/upload"
	"github.com/radieske/betting-ledger/internal/shared/config"
	"github.com/radieske/betting-ledger/internal/shared/db"
	"github.com/radieske/betting-ledger/internal/shared/logger"
	"github.com/radieske/betting-ledger/internal/wager"
)

func main() {
	results := flag.String("results", "", "CSV with historical results to import after migrating")
	flag.Parse()

	cfg := config.Load()
	log, err := logger.New("ledger-migrate", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx := context.Background()

	// OpenLedger já aplica o schema (idempotente)
	store, conn, err := db.OpenLedger(ctx, cfg.DBDriver, cfg.PostgresDSN, cfg.SQLitePath)
	if err != nil {
		log.Fatal("migrate", zap.Error(err))
	}
	defer conn.Close()
	log.Info("schema applied", zap.String("driver", store.Dialect().Name()))

	if *results == "" {
		return
	}

	f, err := os.Open(*results)
	if err != nil {
		log.Fatal("open results", zap.Error(err))
	}
	defer f.Close()

	rows, err := upload.ParseResults(f)
	if err != nil {
		log.Fatal("parse results", zap.String("file", *results), zap.Error(err))
	}
	sum, err := wager.NewEngine(store, log).ImportResults(ctx, rows)
	if err != nil {
		log.Fatal("import results", zap.Error(err))
	}
	log.Info("results imported",
		zap.String("file", *results),
		zap.Int("inserted", sum.Inserted),
		zap.Int("skipped", sum.Skipped))
}
