// ABOUTME: Repair table operations for truncate-and-reload migrations
// ABOUTME: Clears dependent repair_parts first and writes repairs in multi-row batches
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/harperreed/shopmigrate/models"
)

// ClearRepairs deletes repair_parts and then repairs.
func ClearRepairs(ctx context.Context, q Queryer) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM repair_parts`); err != nil {
		return fmt.Errorf("failed to clear repair_parts: %w", err)
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM repairs`); err != nil {
		return fmt.Errorf("failed to clear repairs: %w", err)
	}
	return nil
}

// InsertRepairs writes repairs with one multi-row INSERT. withRaw includes
// raw_unit_info.
func InsertRepairs(ctx context.Context, q Queryer, repairs []models.Repair, withRaw bool) (int64, error) {
	if len(repairs) == 0 {
		return 0, nil
	}

	cols := []string{"claim_number", "client_id", "brand", "model", "serial", "issue", "work_performed",
		"status", "created_at", "completed_date", "closed_date", "is_shipped_in"}
	if withRaw {
		cols = append(cols, "raw_unit_info")
	}

	args := make([]any, 0, len(repairs)*len(cols))
	for _, r := range repairs {
		args = append(args, r.ClaimNumber, r.ClientID, r.Brand, r.Model, r.Serial, r.Issue, r.WorkPerformed,
			r.Status, r.CreatedAt, r.CompletedDate, r.ClosedDate, r.IsShippedIn)
		if withRaw {
			args = append(args, r.RawUnitInfo)
		}
	}

	query := fmt.Sprintf("INSERT INTO repairs (%s) VALUES %s",
		strings.Join(cols, ", "), placeholders(len(repairs), len(cols)))
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert repairs: %w", err)
	}
	return res.RowsAffected()
}

// GetRepairByClaim returns the repair with claim, or nil.
func GetRepairByClaim(ctx context.Context, q Queryer, claim string) (*models.Repair, error) {
	withRaw, err := HasRawColumn(ctx, q, "repairs")
	if err != nil {
		return nil, err
	}

	var r models.Repair
	var clientID sql.NullInt64
	var brand, model, serial, issue, work, created, completed, closed, raw sql.NullString
	err = q.QueryRowContext(ctx, `
		SELECT id, claim_number, client_id, brand, model, serial, issue, work_performed, status,
			created_at, completed_date, closed_date, is_shipped_in, `+rawSelect(withRaw, "raw_unit_info")+`
		FROM repairs WHERE claim_number = ?
	`, claim).Scan(&r.ID, &r.ClaimNumber, &clientID, &brand, &model, &serial, &issue, &work, &r.Status,
		&created, &completed, &closed, &r.IsShippedIn, &raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get repair %s: %w", claim, err)
	}

	if clientID.Valid {
		r.ClientID = &clientID.Int64
	}
	r.Brand = brand.String
	r.Model = model.String
	r.Serial = serial.String
	r.Issue = issue.String
	r.WorkPerformed = work.String
	r.CreatedAt = nullStringPtr(created)
	r.CompletedDate = nullStringPtr(completed)
	r.ClosedDate = nullStringPtr(closed)
	r.RawUnitInfo = raw.String
	return &r, nil
}

// BackfillRepairRaw sets raw_unit_info on the repair with claim when it is
// still empty.
func BackfillRepairRaw(ctx context.Context, q Queryer, claim, raw string) (int64, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE repairs SET raw_unit_info = ?
		WHERE claim_number = ? AND (raw_unit_info IS NULL OR raw_unit_info = '')
	`, raw, claim)
	if err != nil {
		return 0, fmt.Errorf("failed to backfill repair %s: %w", claim, err)
	}
	return res.RowsAffected()
}

func nullStringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
