package db

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Database wraps the sqlite connection used by the repositories
type Database struct {
	db *sql.DB
}

// NewDatabase opens the sqlite database at the given DSN and ensures the
// schema exists
func NewDatabase(dsn string) (*Database, error) {
	if dsn == "" {
		return nil, errors.New("database path is required")
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	// Verify we can actually connect to the database
	if err := db.Ping(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("ping failed: %w, close failed: %v", err, closeErr)
		}
		return nil, err
	}

	// Try to create tables - if this fails, the database is not usable
	if err := createTables(db); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("create tables failed: %w, close failed: %v", err, closeErr)
		}
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &Database{db: db}, nil
}

// GetDB returns the underlying sql.DB for repository construction
func (d *Database) GetDB() *sql.DB {
	return d.db
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS communications (
			id TEXT PRIMARY KEY,
			reservation_id INTEGER NOT NULL,
			source TEXT NOT NULL,
			external_id TEXT NOT NULL,
			content TEXT NOT NULL DEFAULT '',
			direction TEXT NOT NULL,
			sender_name TEXT,
			sender_phone TEXT,
			communicated_at INTEGER NOT NULL,
			metadata TEXT,
			created_at INTEGER NOT NULL,
			UNIQUE(source, external_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_communications_reservation
			ON communications(reservation_id, communicated_at)`,
		`CREATE TABLE IF NOT EXISTS guest_analyses (
			id TEXT PRIMARY KEY,
			reservation_id INTEGER NOT NULL UNIQUE,
			summary TEXT NOT NULL,
			sentiment TEXT NOT NULL,
			sentiment_reason TEXT NOT NULL,
			flags TEXT NOT NULL DEFAULT '[]',
			analyzed_at INTEGER NOT NULL,
			analyzed_by TEXT NOT NULL,
			communication_ids TEXT NOT NULL DEFAULT '[]'
		)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	return nil
}
