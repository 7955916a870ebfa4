// ABOUTME: Database schema definitions for the shop store and run bookkeeping
// ABOUTME: Ships the reference shop tables for SQLite and portable migration_runs DDL
package db

import (
	"context"
	"fmt"
)

// shopSchema is the reference target schema used for local SQLite stores.
// Production stores already carry these tables.
const shopSchema = `
CREATE TABLE IF NOT EXISTS clients (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	company_name TEXT,
	phone TEXT,
	email TEXT,
	address TEXT,
	city TEXT,
	state TEXT,
	zip TEXT
);

CREATE INDEX IF NOT EXISTS idx_clients_name ON clients(name);

CREATE TABLE IF NOT EXISTS repairs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	claim_number TEXT NOT NULL UNIQUE,
	client_id INTEGER,
	brand TEXT,
	model TEXT,
	serial TEXT,
	issue TEXT,
	work_performed TEXT,
	status TEXT NOT NULL DEFAULT 'checked_in' CHECK(status IN ('checked_in', 'completed', 'picked_up')),
	created_at TEXT,
	completed_date TEXT,
	closed_date TEXT,
	is_shipped_in INTEGER NOT NULL DEFAULT 0,
	FOREIGN KEY (client_id) REFERENCES clients(id)
);

CREATE INDEX IF NOT EXISTS idx_repairs_client_id ON repairs(client_id);

CREATE TABLE IF NOT EXISTS parts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	description TEXT,
	aliases TEXT,
	vendor TEXT,
	cost REAL,
	price REAL,
	quantity REAL,
	last_ordered TEXT,
	active INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS repair_parts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	repair_id INTEGER NOT NULL,
	part_id INTEGER NOT NULL,
	quantity REAL NOT NULL DEFAULT 1,
	price REAL,
	FOREIGN KEY (repair_id) REFERENCES repairs(id),
	FOREIGN KEY (part_id) REFERENCES parts(id)
);

CREATE INDEX IF NOT EXISTS idx_repair_parts_repair_id ON repair_parts(repair_id);
`

// runsSchema is written in the subset of DDL every supported store accepts.
// %s is the dialect's timestamp type.
const runsSchema = `
CREATE TABLE IF NOT EXISTS migration_runs (
	id VARCHAR(36) PRIMARY KEY,
	kind VARCHAR(32) NOT NULL,
	status VARCHAR(16) NOT NULL,
	started_at %[1]s NOT NULL,
	finished_at %[1]s NULL,
	records_read INTEGER NOT NULL DEFAULT 0,
	skipped INTEGER NOT NULL DEFAULT 0,
	rejected INTEGER NOT NULL DEFAULT 0,
	valid_records INTEGER NOT NULL DEFAULT 0,
	duplicates INTEGER NOT NULL DEFAULT 0,
	inserted INTEGER NOT NULL DEFAULT 0,
	updated INTEGER NOT NULL DEFAULT 0,
	unchanged INTEGER NOT NULL DEFAULT 0,
	pending INTEGER NOT NULL DEFAULT 0,
	write_failed INTEGER NOT NULL DEFAULT 0,
	details TEXT,
	error_message TEXT
)`

func timestampType(d Dialect) string {
	if d == Postgres {
		return "TIMESTAMP"
	}
	return "DATETIME"
}

// InitSchema creates migration_runs on every store and the reference shop
// tables on SQLite. Statements are idempotent.
func InitSchema(ctx context.Context, db *DB) error {
	if db.Dialect() == SQLite {
		if _, err := db.ExecContext(ctx, shopSchema); err != nil {
			return fmt.Errorf("failed to create shop schema: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf(runsSchema, timestampType(db.Dialect()))); err != nil {
		return fmt.Errorf("failed to create migration_runs: %w", err)
	}
	return nil
}

// Tables lists the shop tables in dependency order.
var Tables = []string{"clients", "repairs", "parts", "repair_parts"}

// TableExists reports whether table is present.
func TableExists(ctx context.Context, q Queryer, table string) (bool, error) {
	var query string
	switch q.Dialect() {
	case SQLite:
		query = `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`
	case MySQL:
		query = `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?`
	default:
		query = `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = ?`
	}

	var count int
	if err := q.QueryRowContext(ctx, query, table).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", table, err)
	}
	return count > 0, nil
}

// CountRows returns the number of rows in table. table must be one of the
// known shop tables or migration_runs.
func CountRows(ctx context.Context, q Queryer, table string) (int, error) {
	if !knownTable(table) {
		return 0, fmt.Errorf("unknown table %q", table)
	}
	var count int
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return count, nil
}

func knownTable(table string) bool {
	if table == "migration_runs" {
		return true
	}
	for _, t := range Tables {
		if t == table {
			return true
		}
	}
	return false
}
