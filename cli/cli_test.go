// ABOUTME: Tests for the command tree against a temp data dir and sqlite store
// ABOUTME: Output is asserted on the plain, non-terminal rendering
package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/shopmigrate/db"
	"github.com/harperreed/shopmigrate/dbf/dbftest"
	"github.com/harperreed/shopmigrate/handlers"
	"github.com/harperreed/shopmigrate/legacy"
	"github.com/harperreed/shopmigrate/legacy/legacytest"
	"github.com/harperreed/shopmigrate/models"
)

type fixture struct {
	dataDir string
	dbURL   string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	t.Chdir(t.TempDir())
	dir := t.TempDir()

	legacytest.WriteFile(t, dir, "CUSTOMER.DAT",
		legacytest.CustomerRecord(legacytest.Customer{Name: "John Smith", CityStateZip: "Tampa, FL 33601"}),
		make([]byte, legacy.CustomerRecordSize),
	)
	legacytest.WriteFile(t, dir, "CLAIMS.DAT",
		legacytest.ClaimRecord(legacytest.Claim{Claim: "12345", Name: "John Smith", UnitInfo: "SONY  KV-27FS"}),
	)
	legacytest.WriteFile(t, dir, "CLAIMS2019.DAT",
		legacytest.ClaimRecord(legacytest.Claim{Claim: "11000", Name: "Ann Lee"}),
	)
	dbftest.WriteFile(t, dir, "PARTS.DBF", dbftest.Build(
		[]dbftest.Field{{Name: "PARTNAME", Type: 'C', Length: 20}, {Name: "COST", Type: 'N', Length: 8, Decimals: 2}},
		dbftest.Record{Values: []string{"FLYBACK", "12.50"}},
		dbftest.Record{Deleted: true, Values: []string{"OLD"}},
	))

	return fixture{dataDir: dir, dbURL: "sqlite://" + filepath.Join(t.TempDir(), "shop.db")}
}

func (f fixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand("test")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--data-dir", f.dataDir, "--database-url", f.dbURL}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMigrateAll(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, "migrate", "all")
	require.NoError(t, err)
	assert.Contains(t, out, "MIGRATION SUMMARY")
	for _, kind := range []string{models.KindClients, models.KindRepairs, models.KindInventory, models.KindRawColumns} {
		assert.Contains(t, out, kind)
	}
	assert.Contains(t, out, "clients reasons: name_empty=1")

	out, err = f.run(t, "runs")
	require.NoError(t, err)
	assert.Contains(t, out, "Total: 4 run(s)")
}

func TestMigrateDryRun(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, "migrate", "clients", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "dry run")

	out, err = f.run(t, "runs")
	require.NoError(t, err)
	assert.Contains(t, out, "No runs found")
}

func TestMigrateBackup(t *testing.T) {
	f := newFixture(t)
	_, err := f.run(t, "init")
	require.NoError(t, err)

	_, err = f.run(t, "migrate", "clients", "--backup")
	require.NoError(t, err)

	matches, err := filepath.Glob(strings.TrimPrefix(f.dbURL, "sqlite://") + ".backup.*")
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestMigrateErrors(t *testing.T) {
	f := newFixture(t)

	_, err := f.run(t, "migrate", "vendors")
	assert.ErrorContains(t, err, "unknown migration")

	root := NewRootCommand("test")
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"--database-url", f.dbURL, "migrate", "clients"})
	err = root.ExecuteContext(context.Background())
	assert.ErrorContains(t, err, "data directory")
}

func TestInit(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Store ready (sqlite3)")
	assert.Contains(t, out, "✓ migration_runs")
}

func TestInspectCommands(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, "inspect", "customer", filepath.Join(f.dataDir, "CUSTOMER.DAT"), "0")
	require.NoError(t, err)
	assert.Contains(t, out, "CUSTOMER.DAT record 0, 242 bytes: accepted")
	assert.Contains(t, out, `"city": "Tampa"`)

	out, err = f.run(t, "inspect", "customer", filepath.Join(f.dataDir, "CUSTOMER.DAT"), "1")
	require.NoError(t, err)
	assert.Contains(t, out, "rejected (name_empty)")

	out, err = f.run(t, "inspect", "repair", filepath.Join(f.dataDir, "CLAIMS2019.DAT"), "0", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "completed"`)

	_, err = f.run(t, "inspect", "repair", filepath.Join(f.dataDir, "CLAIMS.DAT"), "x")
	assert.Error(t, err)

	out, err = f.run(t, "inspect", "dbf", filepath.Join(f.dataDir, "PARTS.DBF"))
	require.NoError(t, err)
	assert.Contains(t, out, "active 1, deleted 1")
	assert.Contains(t, out, "FLYBACK")
	assert.Contains(t, out, "12.5")
}

func TestQuarantineCommands(t *testing.T) {
	f := newFixture(t)

	_, err := f.run(t, "quarantine", "list", "--run", "x")
	assert.ErrorContains(t, err, "no quarantine store")

	t.Setenv("SHOPMIGRATE_QUARANTINE_DIR", filepath.Join(t.TempDir(), "quarantine"))
	out, err := f.run(t, "migrate", "clients")
	require.NoError(t, err)
	assert.Contains(t, out, "clients")

	runs, err := f.run(t, "runs")
	require.NoError(t, err)
	id := lastField(t, runs, models.KindClients)

	out, err = f.run(t, "quarantine", "list", "--run", id)
	require.NoError(t, err)
	assert.Contains(t, out, "name_empty")
	assert.Contains(t, out, "Showing 1 of 1 record(s)")

	_, err = f.run(t, "quarantine", "purge", "--run", id)
	require.NoError(t, err)
	out, err = f.run(t, "quarantine", "list", "--run", id)
	require.NoError(t, err)
	assert.Contains(t, out, "No quarantined records")
}

// lastField returns the final column of the first line mentioning word.
func lastField(t *testing.T, out, word string) string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) > 0 && strings.Contains(line, word) {
			return fields[len(fields)-1]
		}
	}
	t.Fatalf("no line with %q in:\n%s", word, out)
	return ""
}

func TestPlainSummary(t *testing.T) {
	runs := []*models.MigrationRun{{
		ID:     "r1",
		Kind:   models.KindRepairs,
		Status: models.RunStatusFailed,
		Error:  "batch 2: boom",
		Stats: models.RunStats{
			Read: 3, Valid: 3, Inserted: 1, WriteFailed: 2,
			FileErrors: []string{"CLAIMS2018.DAT: permission denied"},
		},
	}}

	out := renderPlainSummary(runs, false)
	assert.Contains(t, out, "repairs")
	assert.Contains(t, out, "repairs unreadable: CLAIMS2018.DAT")
	assert.Contains(t, out, "repairs error: batch 2: boom")

	styled := renderStyledSummary(runs, true)
	assert.Contains(t, styled, "dry run")
	assert.Contains(t, styled, "failed writes 2")
}

func TestMCPServerTools(t *testing.T) {
	ctx := context.Background()
	database, err := db.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	records, err := handlers.NewRecordHandlers(t.TempDir(), legacy.DefaultLayouts())
	require.NoError(t, err)
	server := newMCPServer("test", database, records, handlers.NewQuarantineHandlers(nil))

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer func() { _ = ss.Close() }()

	client := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "v0"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer func() { _ = cs.Close() }()

	tools, err := cs.ListTools(ctx, nil)
	require.NoError(t, err)
	names := make([]string, 0, len(tools.Tools))
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"query_shop", "list_runs", "get_run", "inspect_record", "list_quarantine"}, names)

	res, err := cs.CallTool(ctx, &mcp.CallToolParams{Name: "list_runs", Arguments: map[string]any{}})
	require.NoError(t, err)
	assert.False(t, res.IsError)
}
