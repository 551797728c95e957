package migrations

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            username TEXT NOT NULL UNIQUE,
            password TEXT NOT NULL,
            role TEXT NOT NULL CHECK (role IN ('admin', 'staff')),
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        );`,
	`CREATE TABLE IF NOT EXISTS sale_journal (
            id TEXT PRIMARY KEY,
            item_id TEXT NOT NULL,
            item_name TEXT NOT NULL,
            quantity INTEGER NOT NULL,
            prior_quantity INTEGER NOT NULL,
            new_quantity INTEGER NOT NULL,
            stage TEXT NOT NULL,
            note TEXT NOT NULL DEFAULT '',
            created_at TEXT NOT NULL,
            updated_at TEXT NOT NULL
        );`,
	`CREATE INDEX IF NOT EXISTS sale_journal_stage ON sale_journal (stage, created_at);`,
}

// Run creates the database schema, exiting on failure.
func Run(db *sqlx.DB) {
	if err := Apply(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
}

// Apply creates the database schema.
func Apply(db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
