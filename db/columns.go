// ABOUTME: Additive column migrations with per-dialect existence checks
// ABOUTME: Adds missing columns inside one transaction so reruns are no-ops
package db

import (
	"context"
	"fmt"
)

// Column is a column an additive migration wants present.
type Column struct {
	Table string
	Name  string
	Type  string
}

// RawColumns are the columns that preserve heuristic inputs for review.
var RawColumns = []Column{
	{Table: "clients", Name: "raw_city_state_zip", Type: "TEXT"},
	{Table: "repairs", Name: "raw_unit_info", Type: "TEXT"},
}

// ColumnExists reports whether table has column.
func ColumnExists(ctx context.Context, q Queryer, table, column string) (bool, error) {
	var query string
	switch q.Dialect() {
	case SQLite:
		query = `SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`
	case MySQL:
		query = `SELECT COUNT(*) FROM information_schema.columns
			WHERE table_schema = DATABASE() AND table_name = ? AND column_name = ?`
	default:
		query = `SELECT COUNT(*) FROM information_schema.columns
			WHERE table_schema = current_schema() AND table_name = ? AND column_name = ?`
	}

	var count int
	if err := q.QueryRowContext(ctx, query, table, column).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check column %s.%s: %w", table, column, err)
	}
	return count > 0, nil
}

// AddMissingColumns adds every column in cols that is not present yet, all
// in one transaction. It returns the columns it added.
// MySQL commits DDL implicitly, so there a failure can leave earlier
// columns in place; the existence check makes the rerun pick up the rest.
func AddMissingColumns(ctx context.Context, db *DB, cols []Column) ([]Column, error) {
	var added []Column
	err := db.InTx(ctx, func(tx *Tx) error {
		for _, c := range cols {
			exists, err := ColumnExists(ctx, tx, c.Table, c.Name)
			if err != nil {
				return err
			}
			if exists {
				continue
			}
			if !knownTable(c.Table) {
				return fmt.Errorf("unknown table %q", c.Table)
			}
			stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", c.Table, c.Name, c.Type)
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to add column %s.%s: %w", c.Table, c.Name, err)
			}
			added = append(added, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// HasRawColumn reports whether the raw column of table exists.
func HasRawColumn(ctx context.Context, q Queryer, table string) (bool, error) {
	for _, c := range RawColumns {
		if c.Table == table {
			return ColumnExists(ctx, q, c.Table, c.Name)
		}
	}
	return false, nil
}
