// ABOUTME: Client table operations for the loader and the review tools
// ABOUTME: Multi-row inserts, name lookups for linkage and address corrections
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/harperreed/shopmigrate/models"
)

// NamedID is a client id with its stored name.
type NamedID struct {
	ID   int64
	Name string
}

// ClientNames returns every client's id and name ordered by id.
func ClientNames(ctx context.Context, q Queryer) ([]NamedID, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, name FROM clients ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query client names: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []NamedID
	for rows.Next() {
		var n NamedID
		if err := rows.Scan(&n.ID, &n.Name); err != nil {
			return nil, fmt.Errorf("failed to scan client name: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating client names: %w", err)
	}
	return out, nil
}

// InsertClients writes clients with one multi-row INSERT. withRaw includes
// raw_city_state_zip, which only exists after the raw-columns migration.
func InsertClients(ctx context.Context, q Queryer, clients []models.Client, withRaw bool) (int64, error) {
	if len(clients) == 0 {
		return 0, nil
	}

	cols := []string{"name", "company_name", "phone", "email", "address", "city", "state", "zip"}
	if withRaw {
		cols = append(cols, "raw_city_state_zip")
	}

	args := make([]any, 0, len(clients)*len(cols))
	for _, c := range clients {
		args = append(args, c.Name, c.CompanyName, c.Phone, c.Email, c.Address, c.City, c.State, c.Zip)
		if withRaw {
			args = append(args, c.RawCityStateZip)
		}
	}

	query := fmt.Sprintf("INSERT INTO clients (%s) VALUES %s",
		strings.Join(cols, ", "), placeholders(len(clients), len(cols)))
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert clients: %w", err)
	}
	return res.RowsAffected()
}

// GetClient returns one client, or nil when id is unknown.
func GetClient(ctx context.Context, q Queryer, id int64) (*models.Client, error) {
	withRaw, err := HasRawColumn(ctx, q, "clients")
	if err != nil {
		return nil, err
	}

	query := `SELECT id, name, company_name, phone, email, address, city, state, zip, ` +
		rawSelect(withRaw, "raw_city_state_zip") + ` FROM clients WHERE id = ?`
	row := q.QueryRowContext(ctx, query, id)

	c, err := scanClient(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return c, nil
}

// FindClients returns clients whose name contains query, ignoring case.
// An empty query lists every client.
func FindClients(ctx context.Context, q Queryer, query string, limit int) ([]models.Client, error) {
	withRaw, err := HasRawColumn(ctx, q, "clients")
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := q.QueryContext(ctx, `
		SELECT id, name, company_name, phone, email, address, city, state, zip, `+rawSelect(withRaw, "raw_city_state_zip")+`
		FROM clients
		WHERE LOWER(name) LIKE ?
		ORDER BY name
		LIMIT ?
	`, "%"+strings.ToLower(query)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find clients: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clients: %w", err)
	}
	return out, nil
}

// ClientsWithRawAddress returns clients that carry a raw city/state/zip
// value, ordered by name. It returns nothing before the raw-columns
// migration has run.
func ClientsWithRawAddress(ctx context.Context, q Queryer, limit int) ([]models.Client, error) {
	withRaw, err := HasRawColumn(ctx, q, "clients")
	if err != nil || !withRaw {
		return nil, err
	}
	if limit <= 0 {
		limit = 500
	}

	rows, err := q.QueryContext(ctx, `
		SELECT id, name, company_name, phone, email, address, city, state, zip, raw_city_state_zip
		FROM clients
		WHERE raw_city_state_zip IS NOT NULL AND raw_city_state_zip <> ''
		ORDER BY name
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clients: %w", err)
	}
	return out, nil
}

// UpdateClientAddress stores a reviewed city/state/zip split.
func UpdateClientAddress(ctx context.Context, q Queryer, id int64, city, state, zip string) error {
	res, err := q.ExecContext(ctx, `UPDATE clients SET city = ?, state = ?, zip = ? WHERE id = ?`,
		city, state, zip, id)
	if err != nil {
		return fmt.Errorf("failed to update client address: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update client address: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("client %d not found", id)
	}
	return nil
}

// BackfillClientRaw sets raw_city_state_zip on the client named name when
// it is still empty. It returns the number of rows changed.
func BackfillClientRaw(ctx context.Context, q Queryer, name, raw string) (int64, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE clients SET raw_city_state_zip = ?
		WHERE name = ? AND (raw_city_state_zip IS NULL OR raw_city_state_zip = '')
	`, raw, name)
	if err != nil {
		return 0, fmt.Errorf("failed to backfill client %q: %w", name, err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanClient(s scanner) (*models.Client, error) {
	var c models.Client
	var company, phone, email, address, city, state, zip, raw sql.NullString
	if err := s.Scan(&c.ID, &c.Name, &company, &phone, &email, &address, &city, &state, &zip, &raw); err != nil {
		return nil, err
	}
	c.CompanyName = company.String
	c.Phone = phone.String
	c.Email = email.String
	c.Address = address.String
	c.City = city.String
	c.State = state.String
	c.Zip = zip.String
	c.RawCityStateZip = raw.String
	return &c, nil
}

// rawSelect selects column when present and NULL otherwise so scans keep
// one shape.
func rawSelect(present bool, column string) string {
	if present {
		return column
	}
	return "NULL"
}
