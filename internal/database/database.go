package database

import (
	"log"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Connect opens the SQLite database holding users and the sale journal.
func Connect(dsn string) *sqlx.DB {
	db, err := Open(dsn)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	return db
}

// Open is Connect without the fatal exit.
func Open(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// A single connection keeps in-memory databases shared and serialises
	// writers.
	db.SetMaxOpenConns(1)
	return db, nil
}
