package ledger

import (
	"errors"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect isola o pouco que muda entre Postgres e SQLite.
// O SQL usa placeholders $N, aceitos pelos dois drivers.
type Dialect interface {
	Name() string
	// sufixos de lock pessimista; vazios quando o banco serializa sozinho
	ForUpdate() string
	ForShare() string
	Schema() []string
	// constraint traduz violações de constraint do driver para os erros do domínio
	constraint(err error) error
}

type postgresDialect struct{}

// Postgres é o dialeto de produção (lib/pq)
var Postgres Dialect = postgresDialect{}

func (postgresDialect) Name() string      { return "postgres" }
func (postgresDialect) ForUpdate() string { return " FOR UPDATE" }
func (postgresDialect) ForShare() string  { return " FOR SHARE" }
func (postgresDialect) Schema() []string  { return postgresSchema }

func (postgresDialect) constraint(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case "23503": // foreign_key_violation
		return missingRef(err)
	case "23505", "23514": // unique_violation, check_violation
		return integrity(err)
	}
	return err
}

type sqliteDialect struct{}

// SQLite roda com uma única conexão; as transações já são serializadas
var SQLite Dialect = sqliteDialect{}

func (sqliteDialect) Name() string      { return "sqlite" }
func (sqliteDialect) ForUpdate() string { return "" }
func (sqliteDialect) ForShare() string  { return "" }
func (sqliteDialect) Schema() []string  { return sqliteSchema }

func (sqliteDialect) constraint(err error) error {
	var sqErr *sqlite.Error
	if !errors.As(err, &sqErr) {
		return err
	}
	if sqErr.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
		return err
	}
	if sqErr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY {
		return missingRef(err)
	}
	return integrity(err)
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS teams (
		id   BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS matches (
		id           BIGSERIAL PRIMARY KEY,
		home_team_id BIGINT NOT NULL REFERENCES teams(id),
		away_team_id BIGINT NOT NULL REFERENCES teams(id),
		kickoff      TIMESTAMPTZ NOT NULL,
		home_score   INTEGER,
		away_score   INTEGER,
		status       TEXT NOT NULL DEFAULT 'SCHEDULED',
		CHECK (home_team_id <> away_team_id),
		CHECK (status IN ('SCHEDULED','COMPLETED','CANCELLED'))
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS matches_fixture_uq
		ON matches(home_team_id, away_team_id, kickoff)
		WHERE status IN ('SCHEDULED','COMPLETED')`,
	`CREATE TABLE IF NOT EXISTS odds (
		match_id  BIGINT PRIMARY KEY REFERENCES matches(id),
		odds_home NUMERIC(12,4) NOT NULL,
		odds_draw NUMERIC(12,4) NOT NULL,
		odds_away NUMERIC(12,4) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGSERIAL PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		token_balance NUMERIC(20,4) NOT NULL CHECK (token_balance >= 0),
		is_admin      BOOLEAN NOT NULL DEFAULT FALSE,
		created_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS combo_bets (
		id               BIGSERIAL PRIMARY KEY,
		user_id          BIGINT NOT NULL REFERENCES users(id),
		total_wager      NUMERIC(20,4) NOT NULL CHECK (total_wager > 0),
		potential_payout NUMERIC(20,4) NOT NULL,
		status           TEXT NOT NULL DEFAULT 'ACTIVE',
		created_at       TIMESTAMPTZ NOT NULL,
		UNIQUE (id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS bets (
		id                BIGSERIAL PRIMARY KEY,
		user_id           BIGINT NOT NULL REFERENCES users(id),
		match_id          BIGINT NOT NULL REFERENCES matches(id),
		combo_bet_id      BIGINT,
		bet_type          TEXT NOT NULL CHECK (bet_type IN ('HOME_WIN','DRAW','AWAY_WIN')),
		wager             NUMERIC(20,4) NOT NULL CHECK (wager > 0),
		odds_at_placement NUMERIC(12,4) NOT NULL,
		potential_payout  NUMERIC(20,4) NOT NULL,
		status            TEXT NOT NULL DEFAULT 'ACTIVE',
		created_at        TIMESTAMPTZ NOT NULL,
		FOREIGN KEY (combo_bet_id, user_id) REFERENCES combo_bets(id, user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS bets_match_idx ON bets(match_id, status)`,
	`CREATE INDEX IF NOT EXISTS bets_user_idx ON bets(user_id)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id           BIGSERIAL PRIMARY KEY,
		user_id      BIGINT NOT NULL REFERENCES users(id),
		bet_id       BIGINT REFERENCES bets(id),
		combo_bet_id BIGINT REFERENCES combo_bets(id),
		type         TEXT NOT NULL,
		amount       NUMERIC(20,4) NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS transactions_user_idx ON transactions(user_id)`,
}

// no SQLite os valores monetários ficam em TEXT para não virarem REAL
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS teams (
		id   INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS matches (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		home_team_id INTEGER NOT NULL REFERENCES teams(id),
		away_team_id INTEGER NOT NULL REFERENCES teams(id),
		kickoff      TIMESTAMP NOT NULL,
		home_score   INTEGER,
		away_score   INTEGER,
		status       TEXT NOT NULL DEFAULT 'SCHEDULED',
		CHECK (home_team_id <> away_team_id),
		CHECK (status IN ('SCHEDULED','COMPLETED','CANCELLED'))
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS matches_fixture_uq
		ON matches(home_team_id, away_team_id, kickoff)
		WHERE status IN ('SCHEDULED','COMPLETED')`,
	`CREATE TABLE IF NOT EXISTS odds (
		match_id  INTEGER PRIMARY KEY REFERENCES matches(id),
		odds_home TEXT NOT NULL,
		odds_draw TEXT NOT NULL,
		odds_away TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		username      TEXT NOT NULL UNIQUE,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		token_balance TEXT NOT NULL,
		is_admin      BOOLEAN NOT NULL DEFAULT 0,
		created_at    TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS combo_bets (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id          INTEGER NOT NULL REFERENCES users(id),
		total_wager      TEXT NOT NULL,
		potential_payout TEXT NOT NULL,
		status           TEXT NOT NULL DEFAULT 'ACTIVE',
		created_at       TIMESTAMP NOT NULL,
		UNIQUE (id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS bets (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id           INTEGER NOT NULL REFERENCES users(id),
		match_id          INTEGER NOT NULL REFERENCES matches(id),
		combo_bet_id      INTEGER,
		bet_type          TEXT NOT NULL CHECK (bet_type IN ('HOME_WIN','DRAW','AWAY_WIN')),
		wager             TEXT NOT NULL,
		odds_at_placement TEXT NOT NULL,
		potential_payout  TEXT NOT NULL,
		status            TEXT NOT NULL DEFAULT 'ACTIVE',
		created_at        TIMESTAMP NOT NULL,
		FOREIGN KEY (combo_bet_id, user_id) REFERENCES combo_bets(id, user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS bets_match_idx ON bets(match_id, status)`,
	`CREATE INDEX IF NOT EXISTS bets_user_idx ON bets(user_id)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id      INTEGER NOT NULL REFERENCES users(id),
		bet_id       INTEGER REFERENCES bets(id),
		combo_bet_id INTEGER REFERENCES combo_bets(id),
		type         TEXT NOT NULL,
		amount       TEXT NOT NULL,
		created_at   TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS transactions_user_idx ON transactions(user_id)`,
}
