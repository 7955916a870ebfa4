// ABOUTME: Parts table operations for the inventory reload
// ABOUTME: Aliases are stored as a JSON array in one text column
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/harperreed/shopmigrate/models"
)

// ClearParts deletes repair_parts and then parts.
func ClearParts(ctx context.Context, q Queryer) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM repair_parts`); err != nil {
		return fmt.Errorf("failed to clear repair_parts: %w", err)
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM parts`); err != nil {
		return fmt.Errorf("failed to clear parts: %w", err)
	}
	return nil
}

// InsertParts writes parts with one multi-row INSERT.
func InsertParts(ctx context.Context, q Queryer, parts []models.Part) (int64, error) {
	if len(parts) == 0 {
		return 0, nil
	}

	const cols = 9
	args := make([]any, 0, len(parts)*cols)
	for _, p := range parts {
		var aliases *string
		if len(p.Aliases) > 0 {
			data, err := json.Marshal(p.Aliases)
			if err != nil {
				return 0, fmt.Errorf("failed to encode aliases of %s: %w", p.Name, err)
			}
			s := string(data)
			aliases = &s
		}
		args = append(args, p.Name, p.Description, aliases, p.Vendor, p.Cost, p.Price, p.Quantity,
			p.LastOrdered, p.Active)
	}

	res, err := q.ExecContext(ctx, `
		INSERT INTO parts (name, description, aliases, vendor, cost, price, quantity, last_ordered, active)
		VALUES `+placeholders(len(parts), cols), args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert parts: %w", err)
	}
	return res.RowsAffected()
}

// ListParts returns parts ordered by name.
func ListParts(ctx context.Context, q Queryer, limit int) ([]models.Part, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := q.QueryContext(ctx, `
		SELECT id, name, description, aliases, vendor, cost, price, quantity, last_ordered, active
		FROM parts ORDER BY name LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query parts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.Part
	for rows.Next() {
		var p models.Part
		var desc, aliases, vendor, lastOrdered sql.NullString
		var cost, price, qty sql.NullFloat64
		if err := rows.Scan(&p.ID, &p.Name, &desc, &aliases, &vendor, &cost, &price, &qty, &lastOrdered, &p.Active); err != nil {
			return nil, fmt.Errorf("failed to scan part: %w", err)
		}
		p.Description = desc.String
		p.Vendor = vendor.String
		p.Cost = nullFloatPtr(cost)
		p.Price = nullFloatPtr(price)
		p.Quantity = nullFloatPtr(qty)
		p.LastOrdered = nullStringPtr(lastOrdered)
		if aliases.Valid && aliases.String != "" {
			if err := json.Unmarshal([]byte(aliases.String), &p.Aliases); err != nil {
				return nil, fmt.Errorf("failed to decode aliases of %s: %w", p.Name, err)
			}
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating parts: %w", err)
	}
	return out, nil
}

func nullFloatPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}
