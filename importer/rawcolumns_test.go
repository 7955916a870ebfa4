// ABOUTME: Tests for the raw-columns add and backfill migration
// ABOUTME: Reruns must leave existing values alone
package importer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/shopmigrate/db"
	"github.com/harperreed/shopmigrate/models"
)

func loadShop(t *testing.T, l *Loader) {
	t.Helper()
	for _, kind := range []string{models.KindClients, models.KindRepairs} {
		_, err := l.Run(context.Background(), kind)
		require.NoError(t, err)
	}
}

func TestMigrateRawColumns(t *testing.T) {
	database := setupTestDB(t)
	dir := t.TempDir()
	writeCustomers(t, dir)
	writeClaims(t, dir)
	ctx := context.Background()
	l := newTestLoader(t, database, dir)
	loadShop(t, l)

	ok, err := db.ColumnExists(ctx, database, "clients", "raw_city_state_zip")
	require.NoError(t, err)
	require.False(t, ok)

	run, err := l.Run(ctx, models.KindRawColumns)
	require.NoError(t, err)
	requireBalanced(t, run)

	for _, c := range db.RawColumns {
		ok, err := db.ColumnExists(ctx, database, c.Table, c.Name)
		require.NoError(t, err)
		assert.True(t, ok, "%s.%s", c.Table, c.Name)
	}

	assert.Equal(t, 13, run.Stats.Read)
	assert.Equal(t, 5, run.Stats.Updated)
	assert.Equal(t, 1, run.Stats.Unchanged, "a claim without unit text has nothing to fill")
	assert.Equal(t, 0, run.Stats.Inserted)

	clients, err := db.ClientsWithRawAddress(ctx, database, 0)
	require.NoError(t, err)
	require.Len(t, clients, 2)
	assert.Equal(t, "Ann Lee", clients[0].Name)
	assert.Equal(t, "Clearwater 33755", clients[0].RawCityStateZip)
	assert.Equal(t, "Tampa, FL 33601", clients[1].RawCityStateZip)

	r, err := db.GetRepairByClaim(ctx, database, "12345")
	require.NoError(t, err)
	assert.Equal(t, "SONY  KV-27FS  SN1", r.RawUnitInfo)
}

func TestMigrateRawColumnsRerunChangesNothing(t *testing.T) {
	database := setupTestDB(t)
	dir := t.TempDir()
	writeCustomers(t, dir)
	writeClaims(t, dir)
	ctx := context.Background()
	l := newTestLoader(t, database, dir)
	loadShop(t, l)

	_, err := l.Run(ctx, models.KindRawColumns)
	require.NoError(t, err)

	run, err := l.Run(ctx, models.KindRawColumns)
	require.NoError(t, err)
	requireBalanced(t, run)
	assert.Equal(t, 0, run.Stats.Updated)
	assert.Equal(t, 6, run.Stats.Unchanged)
}

func TestMigrateRawColumnsKeepsExistingValues(t *testing.T) {
	database := setupTestDB(t)
	dir := t.TempDir()
	writeCustomers(t, dir)
	writeClaims(t, dir)
	ctx := context.Background()
	l := newTestLoader(t, database, dir)

	_, err := db.AddMissingColumns(ctx, database, db.RawColumns)
	require.NoError(t, err)
	loadShop(t, l)
	_, err = database.ExecContext(ctx, `UPDATE clients SET raw_city_state_zip = 'edited by hand' WHERE name = 'Ann Lee'`)
	require.NoError(t, err)

	run, err := l.Run(ctx, models.KindRawColumns)
	require.NoError(t, err)
	assert.Equal(t, 0, run.Stats.Updated, "loads after the columns exist already carry raw values")

	clients, err := db.ClientsWithRawAddress(ctx, database, 0)
	require.NoError(t, err)
	require.Len(t, clients, 2)
	assert.Equal(t, "edited by hand", clients[0].RawCityStateZip)
}

func TestMigrateRawColumnsDryRun(t *testing.T) {
	database := setupTestDB(t)
	dir := t.TempDir()
	writeCustomers(t, dir)
	writeClaims(t, dir)
	ctx := context.Background()
	loadShop(t, newTestLoader(t, database, dir))

	run, err := newTestLoader(t, database, dir, WithDryRun(true)).Run(ctx, models.KindRawColumns)
	require.NoError(t, err)
	requireBalanced(t, run)
	assert.Equal(t, 6, run.Stats.Pending)

	ok, err := db.ColumnExists(ctx, database, "repairs", "raw_unit_info")
	require.NoError(t, err)
	assert.False(t, ok)
}
