package database

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestDB opens a migrated SQLite database in a temp directory.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "bridgesync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate(context.Background()))
	return db
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open("mysql", "dsn")
	assert.Error(t, err)
}

func TestMigrate_IsRepeatable(t *testing.T) {
	db := newTestDB(t)
	assert.NoError(t, db.Migrate(context.Background()))
}

func TestSchemaFor(t *testing.T) {
	lite := schemaFor(DriverSQLite)
	assert.NotContains(t, lite, "NUMERIC")
	assert.Contains(t, lite, "balance     TEXT")
	assert.Contains(t, lite, "amount         TEXT")

	for _, driver := range []string{DriverPostgres, DriverPgx} {
		pg := schemaFor(driver)
		assert.Equal(t, 2, strings.Count(pg, "NUMERIC"), driver)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"lib/pq unique", &pq.Error{Code: "23505"}, true},
		{"lib/pq foreign key", &pq.Error{Code: "23503"}, false},
		{"pgx unique", &pgconn.PgError{Code: "23505"}, true},
		{"pgx wrapped", fmt.Errorf("failed to select account: %w", &pgconn.PgError{Code: "23505"}), true},
		{"pgx serialization", &pgconn.PgError{Code: "40001"}, false},
		{"sqlite unique", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}, true},
		{"sqlite primary key", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintPrimaryKey}, true},
		{"sqlite not null", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintNotNull}, false},
		{"sqlite busy", sqlite3.Error{Code: sqlite3.ErrBusy}, false},
		{"plain error", errors.New("duplicate key value"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUniqueViolation(tt.err))
		})
	}
}

func TestRebindNumbered(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"SELECT 1", "SELECT 1"},
		{"WHERE a = $1 AND b = $2", "WHERE a = ?1 AND b = ?2"},
		{"VALUES ($1, $10, $1)", "VALUES (?1, ?10, ?1)"},
		{"WHERE name = '$1' AND id = $1", "WHERE name = '$1' AND id = ?1"},
		{"SELECT '$' || $3", "SELECT '$' || ?3"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, rebindNumbered(tt.in), tt.in)
	}
}

func TestSanitizeQuery(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"placeholders kept", "SELECT * FROM t WHERE id = $1", "SELECT * FROM t WHERE id = $1"},
		{"string literal", "SELECT * FROM t WHERE email = 'a@b.c'", "SELECT * FROM t WHERE email = '?'"},
		{"escaped quote", "SELECT 'it''s'", "SELECT '?'"},
		{"numeric literal", "SELECT * FROM t LIMIT 50", "SELECT * FROM t LIMIT ?"},
		{"identifier digits", "SELECT col1 FROM t2", "SELECT col1 FROM t2"},
		{"whitespace collapsed", "SELECT\n\t a\n FROM t", "SELECT a FROM t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeQuery(tt.in))
		})
	}
}

func TestExtractSQLVerb(t *testing.T) {
	assert.Equal(t, "INSERT", extractSQLVerb("\n\t insert INTO t VALUES ($1)"))
	assert.Equal(t, "COMMIT", extractSQLVerb("commit"))
}

func TestSplitStatements(t *testing.T) {
	script := `
-- leading comment
CREATE TABLE a (id INT);

CREATE INDEX idx ON a (id); -- trailing
;
`
	stmts := splitStatements(script)
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE a (id INT)", stmts[0])
	assert.Equal(t, "CREATE INDEX idx ON a (id)", stmts[1])
}

func TestNowUTC_StrictlyIncreasing(t *testing.T) {
	prev := nowUTC()
	for i := 0; i < 1000; i++ {
		next := nowUTC()
		require.True(t, next.After(prev), "nowUTC went backwards or repeated")
		prev = next
	}
	assert.Equal(t, 0, prev.Nanosecond()%1000)
}
