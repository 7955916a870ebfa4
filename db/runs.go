// ABOUTME: Database operations for the migration_runs bookkeeping table
// ABOUTME: Records each migration's kind, status, timing and disposition counters
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/shopmigrate/models"
)

type runDetails struct {
	Reasons    map[string]int `json:"reasons,omitempty"`
	FileErrors []string       `json:"file_errors,omitempty"`
}

// StartRun records a running migration of kind.
func StartRun(ctx context.Context, q Queryer, kind string) (*models.MigrationRun, error) {
	run := &models.MigrationRun{
		ID:        uuid.New().String(),
		Kind:      kind,
		Status:    models.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO migration_runs (id, kind, status, started_at)
		VALUES (?, ?, ?, ?)
	`, run.ID, run.Kind, run.Status, run.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}
	return run, nil
}

// FinishRun stores the final status, counters and error of run.
func FinishRun(ctx context.Context, q Queryer, run *models.MigrationRun) error {
	now := time.Now().UTC()
	run.FinishedAt = &now

	details, err := json.Marshal(runDetails{Reasons: run.Stats.Reasons, FileErrors: run.Stats.FileErrors})
	if err != nil {
		return fmt.Errorf("failed to encode run details: %w", err)
	}

	var errMsg sql.NullString
	if run.Error != "" {
		errMsg = sql.NullString{String: run.Error, Valid: true}
	}

	s := run.Stats
	_, err = q.ExecContext(ctx, `
		UPDATE migration_runs SET
			status = ?, finished_at = ?,
			records_read = ?, skipped = ?, rejected = ?, valid_records = ?, duplicates = ?,
			inserted = ?, updated = ?, unchanged = ?, pending = ?, write_failed = ?,
			details = ?, error_message = ?
		WHERE id = ?
	`, run.Status, now,
		s.Read, s.Skipped, s.Rejected, s.Valid, s.Duplicates,
		s.Inserted, s.Updated, s.Unchanged, s.Pending, s.WriteFailed,
		string(details), errMsg, run.ID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

const runColumns = `id, kind, status, started_at, finished_at,
	records_read, skipped, rejected, valid_records, duplicates,
	inserted, updated, unchanged, pending, write_failed, details, error_message`

// GetRun retrieves one run, or nil when id is unknown.
func GetRun(ctx context.Context, q Queryer, id string) (*models.MigrationRun, error) {
	row := q.QueryRowContext(ctx, `SELECT `+runColumns+` FROM migration_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first.
func ListRuns(ctx context.Context, q Queryer, limit int) ([]models.MigrationRun, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := q.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM migration_runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []models.MigrationRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

func scanRun(s scanner) (*models.MigrationRun, error) {
	var run models.MigrationRun
	var finishedAt sql.NullTime
	var details, errMsg sql.NullString
	st := &run.Stats

	err := s.Scan(&run.ID, &run.Kind, &run.Status, &run.StartedAt, &finishedAt,
		&st.Read, &st.Skipped, &st.Rejected, &st.Valid, &st.Duplicates,
		&st.Inserted, &st.Updated, &st.Unchanged, &st.Pending, &st.WriteFailed,
		&details, &errMsg)
	if err != nil {
		return nil, err
	}

	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Time
	}
	run.Error = errMsg.String
	if details.Valid && details.String != "" {
		var d runDetails
		if err := json.Unmarshal([]byte(details.String), &d); err != nil {
			return nil, fmt.Errorf("failed to decode run details: %w", err)
		}
		st.Reasons = d.Reasons
		st.FileErrors = d.FileErrors
	}
	return &run, nil
}
