package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/radieske/betting-ledger/internal/ledger"
)

func ConnectPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}

// ConnectSQLite abre o arquivo com foreign keys ligadas e uma única conexão,
// o que serializa as transações do ledger
func ConnectSQLite(path string) (*sql.DB, error) {
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_time_format=sqlite"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

// OpenLedger conecta no banco escolhido em DB_DRIVER e aplica o schema
func OpenLedger(ctx context.Context, driver, postgresDSN, sqlitePath string) (*ledger.Store, *sql.DB, error) {
	var (
		conn *sql.DB
		d    ledger.Dialect
		err  error
	)
	switch driver {
	case "postgres", "":
		conn, err = ConnectPostgres(postgresDSN)
		d = ledger.Postgres
	case "sqlite":
		conn, err = ConnectSQLite(sqlitePath)
		d = ledger.SQLite
	default:
		return nil, nil, fmt.Errorf("unknown db driver %q", driver)
	}
	if err != nil {
		return nil, nil, err
	}

	store := ledger.NewStore(conn, d)
	if err := store.Migrate(ctx); err != nil {
		conn.Close()
		return nil, nil, err
	}
	return store, conn, nil
}
