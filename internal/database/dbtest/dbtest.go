// Package dbtest provides migrated in-memory databases for tests.
package dbtest

import (
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/database"
)

// New returns a fresh in-memory SQLite database with all migrations applied.
// It is closed when the test ends.
func New(t testing.TB) *sqlx.DB {
	t.Helper()

	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}
