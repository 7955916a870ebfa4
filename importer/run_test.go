// ABOUTME: Tests for dispatching runs and RunAll ordering
// ABOUTME: Also checks that cancelled batches are counted as failed writes
package importer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/shopmigrate/db"
	"github.com/harperreed/shopmigrate/models"
)

func TestRunUnknownKind(t *testing.T) {
	database := setupTestDB(t)

	run, err := newTestLoader(t, database, t.TempDir()).Run(context.Background(), "vendors")
	assert.ErrorContains(t, err, "vendors")
	assert.Nil(t, run)
	assert.Equal(t, 0, countRows(t, database, "migration_runs"))
}

func TestRunAll(t *testing.T) {
	database := setupTestDB(t)
	dir := t.TempDir()
	writeCustomers(t, dir)
	writeClaims(t, dir)
	writeParts(t, dir, true)
	n := &recordingNotifier{}
	ctx := context.Background()

	runs, err := newTestLoader(t, database, dir, WithNotifier(n)).RunAll(ctx)
	require.NoError(t, err)
	require.Len(t, runs, len(Kinds))
	for i, run := range runs {
		assert.Equal(t, Kinds[i], run.Kind)
		assert.Equal(t, models.RunStatusCompleted, run.Status)
		requireBalanced(t, run)
	}
	assert.Equal(t, runs, n.runs)

	stored, err := db.ListRuns(ctx, database, 10)
	require.NoError(t, err)
	assert.Len(t, stored, len(Kinds))

	assert.Equal(t, 2, countRows(t, database, "clients"))
	assert.Equal(t, 4, countRows(t, database, "repairs"))
	assert.Equal(t, 2, countRows(t, database, "parts"))

	r, err := db.GetRepairByClaim(ctx, database, "11000")
	require.NoError(t, err)
	require.NotNil(t, r.ClientID, "repairs link to clients loaded earlier in the run")
}

func TestRunAllStopsAtFirstFailure(t *testing.T) {
	database := setupTestDB(t)
	dir := t.TempDir()
	writeClaims(t, dir)

	runs, err := newTestLoader(t, database, dir).RunAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), models.KindClients)
	require.Len(t, runs, 1)
	assert.Equal(t, models.RunStatusFailed, runs[0].Status)
	assert.Equal(t, 0, countRows(t, database, "repairs"))

	stored, err := db.GetRun(context.Background(), database, runs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusFailed, stored.Status)
	assert.NotEmpty(t, stored.Error)
}

func TestWriteBatchesCancelled(t *testing.T) {
	database := setupTestDB(t)
	l := newTestLoader(t, database, t.TempDir(), WithBatchSize(2))
	run := &models.MigrationRun{Kind: models.KindClients}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := writeBatches(ctx, l, run, []int{1, 2, 3},
		func(context.Context, *db.Tx, []int) (int64, error) {
			calls++
			return 0, nil
		},
		func([]int, int64) {},
	)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, calls)
	assert.Equal(t, 3, run.Stats.WriteFailed, "unwritten rows count as failed")
}
