package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// ErrNewerSchema is returned when the database was written by a newer
// version of the input method.
var ErrNewerSchema = errors.New("phrase database schema is newer than supported")

// schemaSteps upgrade the schema one version each; step i takes the
// database from user_version i to i+1.
var schemaSteps = []string{
	`CREATE TABLE IF NOT EXISTS user_phrases (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		reading     TEXT NOT NULL,
		value       TEXT NOT NULL,
		created_at  INTEGER NOT NULL,
		UNIQUE (reading, value)
	);
	CREATE INDEX IF NOT EXISTS idx_user_phrases_reading ON user_phrases(reading);`,

	`CREATE INDEX IF NOT EXISTS idx_user_phrases_value ON user_phrases(value);`,
}

// LatestSchema is the schema version MigrateDB brings a database to.
var LatestSchema = len(schemaSteps)

// SchemaVersion returns the schema version recorded in db.
func SchemaVersion(db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

// MigrateDB upgrades db to LatestSchema. Each step runs in its own
// transaction together with the version bump.
func MigrateDB(db *sql.DB) error {
	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}
	if current > LatestSchema {
		return fmt.Errorf("%w: version %d, supported %d", ErrNewerSchema, current, LatestSchema)
	}

	for v := current; v < LatestSchema; v++ {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin schema step %d: %w", v+1, err)
		}
		if _, err := tx.Exec(schemaSteps[v]); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply schema step %d: %w", v+1, err)
		}
		// PRAGMA does not take bound parameters.
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", v+1)); err != nil {
			tx.Rollback()
			return fmt.Errorf("record schema version %d: %w", v+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit schema step %d: %w", v+1, err)
		}
	}
	return nil
}

// ValidateSchema checks that the phrase table and its indexes exist.
func ValidateSchema(db *sql.DB) error {
	want := []struct{ kind, name string }{
		{"table", "user_phrases"},
		{"index", "idx_user_phrases_reading"},
		{"index", "idx_user_phrases_value"},
	}
	for _, w := range want {
		var n int
		err := db.QueryRow(
			"SELECT COUNT(*) FROM sqlite_master WHERE type = ? AND name = ?",
			w.kind, w.name,
		).Scan(&n)
		if err != nil {
			return fmt.Errorf("check %s %s: %w", w.kind, w.name, err)
		}
		if n == 0 {
			return fmt.Errorf("missing %s: %s", w.kind, w.name)
		}
	}
	return nil
}
