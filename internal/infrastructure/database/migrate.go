package database

import (
	"context"
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

//go:embed schema.sql
var schemaSQL string

var numericType = regexp.MustCompile(`\bNUMERIC\b`)

// Migrate creates the tables and indexes if they do not exist.
// The schema uses only syntax shared by Postgres and SQLite.
func (db *DB) Migrate(ctx context.Context) error {
	statements := splitStatements(schemaFor(db.driver))
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %q: %w", extractSQLVerb(stmt), err)
		}
	}
	log.Info().Str("driver", db.driver).Int("statements", len(statements)).Msg("database schema applied")
	return nil
}

// schemaFor adapts the schema to the driver. SQLite gives NUMERIC columns
// REAL affinity, which rounds money past 15 significant digits, so there the
// decimal columns hold the exact text form instead.
func schemaFor(driver string) string {
	if driver == DriverSQLite {
		return numericType.ReplaceAllString(schemaSQL, "TEXT")
	}
	return schemaSQL
}

func splitStatements(script string) []string {
	var out []string
	for _, part := range strings.Split(script, ";") {
		var lines []string
		for _, line := range strings.Split(part, "\n") {
			if strings.HasPrefix(strings.TrimSpace(line), "--") {
				continue
			}
			lines = append(lines, line)
		}
		stmt := strings.TrimSpace(strings.Join(lines, "\n"))
		if stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
