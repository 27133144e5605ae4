// Package ledgertest sobe um ledger SQLite descartável para testes
package ledgertest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/radieske/betting-ledger/internal/ledger"
	"github.com/radieske/betting-ledger/internal/shared/db"
)

func NewStore(t testing.TB) *ledger.Store {
	t.Helper()

	conn, err := db.ConnectSQLite(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	store := ledger.NewStore(conn, ledger.SQLite)
	require.NoError(t, store.Migrate(context.Background()))
	return store
}
