// Package sqlite is the persistence layer: users, predictions, payments,
// and the crystal catalog, backed by a single SQLite file via the pure-Go
// modernc driver.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const timeLayout = "2006-01-02 15:04:05"

// DB wraps the SQLite handle. All store operations hang off it.
type DB struct {
	db *sql.DB
}

// Open creates (if needed) and opens the database under dir, applies
// pragmas, and runs all migrations.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	path := filepath.Join(dir, "crystal.db")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// modernc serializes at the driver level; a single connection avoids
	// SQLITE_BUSY under concurrent writers.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		`PRAGMA journal_mode = WAL`,
		`PRAGMA foreign_keys = ON`,
		`PRAGMA busy_timeout = 5000`,
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragma: %w", err)
		}
	}

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the underlying handle.
func (db *DB) Close() error {
	return db.db.Close()
}

// Ping verifies the connection, for health checks.
func (db *DB) Ping() error {
	return db.db.Ping()
}

// ─── Schema ─────────────────────────────────────────────────────────────────

// Migrations returns the schema migration statements.
// Each string is a single SQL statement (SQLite executes one at a time).
func Migrations() []string {
	return []string{
		// Accounts. New users start with one free reading credit.
		`CREATE TABLE IF NOT EXISTS users (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			full_name     TEXT NOT NULL DEFAULT '',
			credits       INTEGER NOT NULL DEFAULT 1,
			created_at    TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at    TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,

		// Completed readings. The derived chart, scores, recommendation, and
		// narrative are stored as JSON payloads alongside the raw birth input.
		`CREATE TABLE IF NOT EXISTS predictions (
			id                  INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id             INTEGER NOT NULL REFERENCES users(id),
			birth_date          TEXT NOT NULL,
			birth_time          TEXT NOT NULL,
			birth_location      TEXT NOT NULL DEFAULT '',
			chart_json          TEXT NOT NULL,
			fortune_json        TEXT NOT NULL,
			recommendation_json TEXT NOT NULL,
			narrative_json      TEXT NOT NULL,
			created_at          TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_predictions_user ON predictions(user_id, created_at)`,

		// Payment orders. out_trade_no is the merchant-side order number
		// carried through the Alipay round trip.
		`CREATE TABLE IF NOT EXISTS payments (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id        INTEGER NOT NULL REFERENCES users(id),
			amount         REAL NOT NULL,
			currency       TEXT NOT NULL DEFAULT 'CNY',
			status         TEXT NOT NULL DEFAULT 'pending',
			method         TEXT NOT NULL DEFAULT 'alipay',
			out_trade_no   TEXT NOT NULL UNIQUE,
			transaction_id TEXT NOT NULL DEFAULT '',
			credits_added  INTEGER NOT NULL DEFAULT 2,
			created_at     TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at     TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_user ON payments(user_id, created_at)`,

		// Crystal catalog. Element, property, and audience lists are JSON
		// arrays; five_elements holds the Han element characters so LIKE
		// filters work without json1.
		`CREATE TABLE IF NOT EXISTS crystals (
			id                 INTEGER PRIMARY KEY AUTOINCREMENT,
			name               TEXT NOT NULL UNIQUE,
			chinese_name       TEXT NOT NULL,
			category           TEXT NOT NULL DEFAULT '',
			color              TEXT NOT NULL DEFAULT '',
			five_elements      TEXT NOT NULL DEFAULT '[]',
			healing_properties TEXT NOT NULL DEFAULT '[]',
			suitable_for       TEXT NOT NULL DEFAULT '[]',
			image_url          TEXT NOT NULL DEFAULT '',
			price              REAL NOT NULL DEFAULT 0,
			description        TEXT NOT NULL DEFAULT '',
			created_at         TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
	}
}

func (db *DB) migrate() error {
	for _, stmt := range Migrations() {
		if _, err := db.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}
