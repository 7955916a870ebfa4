package importer

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/harperreed/shopmigrate/db"
	"github.com/harperreed/shopmigrate/dbf/dbftest"
	"github.com/harperreed/shopmigrate/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func setupTestDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func newTestLoader(t *testing.T, database *db.DB, dir string, opts ...Option) *Loader {
	t.Helper()
	l, err := New(database, dir, opts...)
	require.NoError(t, err)
	return l
}

func countRows(t *testing.T, database *db.DB, table string) int {
	t.Helper()
	n, err := db.CountRows(context.Background(), database, table)
	require.NoError(t, err)
	return n
}

func requireBalanced(t *testing.T, run *models.MigrationRun) {
	t.Helper()
	require.True(t, run.Stats.Balanced(), "unbalanced counters: %s", run.Stats)
}

type memoryQuarantine struct {
	mu      sync.Mutex
	entries []models.QuarantineEntry
}

func (q *memoryQuarantine) Add(e models.QuarantineEntry) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append(q.entries, e)
	return nil
}

type recordingNotifier struct {
	runs []*models.MigrationRun
}

func (n *recordingNotifier) Publish(_ context.Context, run *models.MigrationRun) error {
	n.runs = append(n.runs, run)
	return nil
}

var (
	partFields = []dbftest.Field{
		{Name: "PARTNAME", Type: 'C', Length: 20},
		{Name: "DESCRIP", Type: 'C', Length: 30},
		{Name: "COST", Type: 'N', Length: 8, Decimals: 2},
		{Name: "PRICE", Type: 'N', Length: 8, Decimals: 2},
		{Name: "ONHAND", Type: 'N', Length: 5},
		{Name: "LASTORDER", Type: 'D', Length: 8},
		{Name: "ACTIVE", Type: 'L', Length: 1},
	}
	aliasFields = []dbftest.Field{
		{Name: "PARTNAME", Type: 'C', Length: 20},
		{Name: "ALIAS", Type: 'C', Length: 20},
		{Name: "VENDOR", Type: 'C', Length: 20},
	}
)
