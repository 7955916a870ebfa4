// ABOUTME: File backups of SQLite stores before destructive migrations
// ABOUTME: Checkpoints the WAL and copies the database next to itself
package db

import (
	"context"
	"fmt"
	"os"
	"time"
)

// Backup copies the SQLite database file to <path>.backup.YYYYMMDD-HHMMSS
// and returns the copy's path. Other stores have their own tooling.
func (db *DB) Backup(ctx context.Context, now time.Time) (string, error) {
	if db.dialect != SQLite || db.path == "" {
		return "", fmt.Errorf("backup needs a file-backed sqlite store")
	}

	if _, err := db.ExecContext(ctx, `PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		return "", fmt.Errorf("failed to checkpoint wal: %w", err)
	}

	input, err := os.ReadFile(db.path)
	if err != nil {
		return "", fmt.Errorf("failed to read database: %w", err)
	}

	backupPath := fmt.Sprintf("%s.backup.%s", db.path, now.Format("20060102-150405"))
	if err := os.WriteFile(backupPath, input, 0644); err != nil {
		return "", fmt.Errorf("failed to create backup: %w", err)
	}
	return backupPath, nil
}
