package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pkg/errors"
)

// querier é o que *sql.DB e *sql.Tx têm em comum
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store é o ledger persistente. Leituras avulsas podem ser feitas direto no Store;
// toda escrita passa por WithTx.
type Store struct {
	reader
	db *sql.DB
}

// NewStore recebe uma conexão já aberta (ver internal/shared/db)
func NewStore(db *sql.DB, d Dialect) *Store {
	return &Store{reader: reader{q: db, d: d}, db: db}
}

func (s *Store) Dialect() Dialect { return s.d }

// Migrate aplica o schema de forma idempotente
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range s.d.Schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "migrate %s", s.d.Name())
		}
	}
	return nil
}

// Ping verifica a conexão (usado no /healthz)
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// WithTx executa fn dentro de uma transação.
// Commit só acontece se fn retornar nil; qualquer erro ou panic faz rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Tx) error) (err error) {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}

	committed := false
	defer func() {
		if !committed {
			_ = sqlTx.Rollback()
		}
	}()

	if err = fn(&Tx{reader: reader{q: sqlTx, d: s.d}}); err != nil {
		return err
	}

	if err = sqlTx.Commit(); err != nil {
		return errors.Wrap(err, "commit tx")
	}
	committed = true
	return nil
}

// wrap adiciona contexto e traduz violações de constraint
func (r reader) wrap(err error, op string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(r.d.constraint(err), op)
}

// notFoundOr converte sql.ErrNoRows em ErrNotFound para a entidade informada
func notFoundOr(err error, entity string, id any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return NotFoundf("%s %v not found", entity, id)
	}
	return errors.Wrap(err, fmt.Sprintf("load %s %v", entity, id))
}
