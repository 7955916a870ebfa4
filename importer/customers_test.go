// ABOUTME: Tests for the clients migration
// ABOUTME: Covers counters, dedup, dry runs, batch failures and quarantine
package importer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/shopmigrate/db"
	"github.com/harperreed/shopmigrate/legacy"
	"github.com/harperreed/shopmigrate/legacy/legacytest"
	"github.com/harperreed/shopmigrate/models"
)

func writeCustomers(t *testing.T, dir string) {
	t.Helper()
	legacytest.WriteFile(t, dir, "CUSTOMER.DAT",
		legacytest.CustomerRecord(legacytest.Customer{
			Name: "John Smith", CityStateZip: "Tampa, FL 33601", Phone: "2374800813",
		}),
		make([]byte, legacy.CustomerRecordSize),
		legacytest.CustomerRecord(legacytest.Customer{Name: "Ann Lee", CityStateZip: "Clearwater 33755"}),
		legacytest.CustomerRecord(legacytest.Customer{Name: "  JOHN   smith "}),
		[]byte("short tail"),
	)
}

func TestMigrateClients(t *testing.T) {
	database := setupTestDB(t)
	dir := t.TempDir()
	writeCustomers(t, dir)
	ctx := context.Background()

	run, err := newTestLoader(t, database, dir).Run(ctx, models.KindClients)
	require.NoError(t, err)
	requireBalanced(t, run)

	assert.Equal(t, models.RunStatusCompleted, run.Status)
	assert.Equal(t, 5, run.Stats.Read)
	assert.Equal(t, 1, run.Stats.Skipped)
	assert.Equal(t, 1, run.Stats.Rejected)
	assert.Equal(t, 1, run.Stats.Duplicates, "names match case- and space-insensitively")
	assert.Equal(t, 2, run.Stats.Inserted)
	assert.Equal(t, map[string]int{legacy.ReasonEmptyName: 1, legacy.ReasonShortRecord: 1}, run.Stats.Reasons)
	assert.Equal(t, 2, countRows(t, database, "clients"))

	names, err := db.ClientNames(ctx, database)
	require.NoError(t, err)
	c, err := db.GetClient(ctx, database, names[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "John Smith", c.Name)
	assert.Equal(t, "(813) 237-4800", c.Phone)
	assert.Equal(t, "Tampa", c.City)
	assert.Equal(t, "FL", c.State)
	assert.Equal(t, "33601", c.Zip)

	stored, err := db.GetRun(ctx, database, run.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, models.RunStatusCompleted, stored.Status)
	assert.Equal(t, 2, stored.Stats.Inserted)
}

func TestMigrateClientsRerunInsertsNothing(t *testing.T) {
	database := setupTestDB(t)
	dir := t.TempDir()
	writeCustomers(t, dir)
	ctx := context.Background()
	l := newTestLoader(t, database, dir)

	_, err := l.Run(ctx, models.KindClients)
	require.NoError(t, err)

	run, err := l.Run(ctx, models.KindClients)
	require.NoError(t, err)
	requireBalanced(t, run)
	assert.Equal(t, 0, run.Stats.Inserted)
	assert.Equal(t, 3, run.Stats.Duplicates)
	assert.Equal(t, 2, countRows(t, database, "clients"))
}

func TestMigrateClientsTwoRecordFile(t *testing.T) {
	database := setupTestDB(t)
	dir := t.TempDir()
	legacytest.WriteFile(t, dir, "customer.dat",
		legacytest.CustomerRecord(legacytest.Customer{Name: "John Smith"}),
		make([]byte, legacy.CustomerRecordSize),
	)

	run, err := newTestLoader(t, database, dir).Run(context.Background(), models.KindClients)
	require.NoError(t, err)
	assert.Equal(t, 1, run.Stats.Inserted)
	assert.Equal(t, 1, countRows(t, database, "clients"))
}

func TestMigrateClientsMissingFile(t *testing.T) {
	database := setupTestDB(t)

	run, err := newTestLoader(t, database, t.TempDir()).Run(context.Background(), models.KindClients)
	require.Error(t, err)
	assert.Equal(t, models.RunStatusFailed, run.Status)
	assert.NotEmpty(t, run.Error)
}

func TestMigrateClientsDryRun(t *testing.T) {
	database := setupTestDB(t)
	dir := t.TempDir()
	writeCustomers(t, dir)

	run, err := newTestLoader(t, database, dir, WithDryRun(true)).Run(context.Background(), models.KindClients)
	require.NoError(t, err)
	requireBalanced(t, run)
	assert.Equal(t, 2, run.Stats.Pending)
	assert.Equal(t, 0, run.Stats.Inserted)
	assert.NotNil(t, run.FinishedAt)
	assert.Equal(t, 0, countRows(t, database, "clients"))
	assert.Equal(t, 0, countRows(t, database, "migration_runs"), "dry runs leave no trace")
}

func TestMigrateClientsBatchFailure(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()
	_, err := database.ExecContext(ctx, `
		CREATE TRIGGER reject_boom BEFORE INSERT ON clients
		WHEN NEW.name = 'Boom Box'
		BEGIN SELECT RAISE(ABORT, 'boom'); END
	`)
	require.NoError(t, err)

	dir := t.TempDir()
	legacytest.WriteFile(t, dir, "CUSTOMER.DAT",
		legacytest.CustomerRecord(legacytest.Customer{Name: "Ann Lee"}),
		legacytest.CustomerRecord(legacytest.Customer{Name: "Bob Jones"}),
		legacytest.CustomerRecord(legacytest.Customer{Name: "Boom Box"}),
		legacytest.CustomerRecord(legacytest.Customer{Name: "Cara Diaz"}),
		legacytest.CustomerRecord(legacytest.Customer{Name: "Dan Evans"}),
	)

	run, err := newTestLoader(t, database, dir, WithBatchSize(2)).Run(ctx, models.KindClients)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch 2")
	requireBalanced(t, run)

	assert.Equal(t, models.RunStatusFailed, run.Status)
	assert.Equal(t, 2, run.Stats.WriteFailed, "the whole failed batch rolls back")
	assert.Equal(t, 3, run.Stats.Inserted, "later batches still load")
	assert.Equal(t, 3, countRows(t, database, "clients"))
}

func TestMigrateClientsQuarantine(t *testing.T) {
	database := setupTestDB(t)
	dir := t.TempDir()
	writeCustomers(t, dir)
	q := &memoryQuarantine{}

	run, err := newTestLoader(t, database, dir, WithQuarantine(q)).Run(context.Background(), models.KindClients)
	require.NoError(t, err)

	require.Len(t, q.entries, 2)
	assert.Equal(t, run.ID, q.entries[0].RunID)
	assert.Equal(t, models.KindClients, q.entries[0].Kind)
	assert.Equal(t, "CUSTOMER.DAT", q.entries[0].Source)
	assert.Equal(t, 1, q.entries[0].Index)
	assert.Equal(t, "rejected", q.entries[0].Outcome)
	assert.Len(t, q.entries[0].Raw, legacy.CustomerRecordSize)
	assert.Equal(t, "skipped", q.entries[1].Outcome)
	assert.Equal(t, []byte("short tail"), q.entries[1].Raw)
}
