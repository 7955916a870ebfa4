// ABOUTME: Data models for migrated shop entities
// ABOUTME: Defines Client, Repair, Part rows plus decoded legacy records and run counters
package models

import (
	"time"
)

// Repair status values written to repairs.status.
const (
	StatusCheckedIn = "checked_in"
	StatusCompleted = "completed"
	StatusPickedUp  = "picked_up"
)

// Migration kinds recorded in migration_runs.kind.
const (
	KindClients    = "clients"
	KindRepairs    = "repairs"
	KindInventory  = "inventory"
	KindRawColumns = "raw-columns"
)

// Run status values.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Claim number bounds accepted from legacy repair files.
const (
	MinClaimNumber = 1000
	MaxClaimNumber = 2000000
)

type Client struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	CompanyName     string `json:"company_name,omitempty"`
	Phone           string `json:"phone,omitempty"`
	Email           string `json:"email,omitempty"`
	Address         string `json:"address,omitempty"`
	City            string `json:"city,omitempty"`
	State           string `json:"state,omitempty"`
	Zip             string `json:"zip,omitempty"`
	RawCityStateZip string `json:"raw_city_state_zip,omitempty"`
}

type Repair struct {
	ID            int64   `json:"id"`
	ClaimNumber   string  `json:"claim_number"`
	ClientID      *int64  `json:"client_id,omitempty"`
	Brand         string  `json:"brand"`
	Model         string  `json:"model"`
	Serial        string  `json:"serial,omitempty"`
	Issue         string  `json:"issue,omitempty"`
	WorkPerformed string  `json:"work_performed,omitempty"`
	Status        string  `json:"status"`
	CreatedAt     *string `json:"created_at,omitempty"`
	CompletedDate *string `json:"completed_date,omitempty"`
	ClosedDate    *string `json:"closed_date,omitempty"`
	IsShippedIn   bool    `json:"is_shipped_in"`
	RawUnitInfo   string  `json:"raw_unit_info,omitempty"`
}

type Part struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Aliases     []string `json:"aliases,omitempty"`
	Vendor      string   `json:"vendor,omitempty"`
	Cost        *float64 `json:"cost,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Quantity    *float64 `json:"quantity,omitempty"`
	LastOrdered *string  `json:"last_ordered,omitempty"`
	Active      bool     `json:"active"`
}

type RepairPart struct {
	ID       int64    `json:"id"`
	RepairID int64    `json:"repair_id"`
	PartID   int64    `json:"part_id"`
	Quantity float64  `json:"quantity"`
	Price    *float64 `json:"price,omitempty"`
}

// ParsedCustomer is a client candidate decoded from one customer record.
type ParsedCustomer struct {
	Name            string `json:"name"`
	CompanyName     string `json:"company_name,omitempty"`
	Phone           string `json:"phone,omitempty"`
	Email           string `json:"email,omitempty"`
	Address         string `json:"address,omitempty"`
	City            string `json:"city,omitempty"`
	State           string `json:"state,omitempty"`
	Zip             string `json:"zip,omitempty"`
	RawCityStateZip string `json:"raw_city_state_zip,omitempty"`
	RawPhone        string `json:"raw_phone,omitempty"`
}

// Client converts the decoded record into a row for the clients table.
func (p *ParsedCustomer) Client() Client {
	return Client{
		Name:            p.Name,
		CompanyName:     p.CompanyName,
		Phone:           p.Phone,
		Email:           p.Email,
		Address:         p.Address,
		City:            p.City,
		State:           p.State,
		Zip:             p.Zip,
		RawCityStateZip: p.RawCityStateZip,
	}
}

// ParsedRepair is a repair candidate decoded from one claim record.
type ParsedRepair struct {
	ClaimNumber   int     `json:"claim_number"`
	ClientName    string  `json:"client_name"`
	ClientNameKey string  `json:"client_name_key"`
	Address       string  `json:"address,omitempty"`
	Phone         string  `json:"phone,omitempty"`
	Brand         string  `json:"brand"`
	Model         string  `json:"model"`
	Serial        string  `json:"serial,omitempty"`
	RawUnitInfo   string  `json:"raw_unit_info,omitempty"`
	Issue         string  `json:"issue,omitempty"`
	WorkPerformed string  `json:"work_performed,omitempty"`
	Status        string  `json:"status"`
	DateIn        *string `json:"date_in,omitempty"`
	DateCompleted *string `json:"date_completed,omitempty"`
	DateClosed    *string `json:"date_closed,omitempty"`
	SourceFile    string  `json:"source_file"`
}

// MigrationRun is one row of migration_runs.
type MigrationRun struct {
	ID         string     `json:"id"`
	Kind       string     `json:"kind"`
	Status     string     `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Stats      RunStats   `json:"stats"`
	Error      string     `json:"error,omitempty"`
}

// QuarantineEntry is a legacy record a migration did not load, kept with
// its raw bytes for later inspection.
type QuarantineEntry struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	Kind      string    `json:"kind"`
	Source    string    `json:"source"`
	Index     int       `json:"index"`
	Outcome   string    `json:"outcome"`
	Reason    string    `json:"reason"`
	Raw       []byte    `json:"raw"`
	CreatedAt time.Time `json:"created_at"`
}
