// ABOUTME: Migration run lifecycle: bookkeeping, dispatch by kind and summaries
// ABOUTME: Every run ends with balanced counters in migration_runs and the logs
package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harperreed/shopmigrate/db"
	"github.com/harperreed/shopmigrate/models"
)

// Kinds lists the migrations in the order `all` runs them.
var Kinds = []string{models.KindClients, models.KindRepairs, models.KindInventory, models.KindRawColumns}

func (l *Loader) migration(kind string) (func(context.Context, *models.MigrationRun) error, bool) {
	switch kind {
	case models.KindClients:
		return l.migrateClients, true
	case models.KindRepairs:
		return l.migrateRepairs, true
	case models.KindInventory:
		return l.migrateInventory, true
	case models.KindRawColumns:
		return l.migrateRawColumns, true
	}
	return nil, false
}

// Run executes one migration. The returned run carries the counters even
// when err is non-nil.
func (l *Loader) Run(ctx context.Context, kind string) (*models.MigrationRun, error) {
	migrate, ok := l.migration(kind)
	if !ok {
		return nil, fmt.Errorf("unknown migration %q", kind)
	}

	var run *models.MigrationRun
	if l.dryRun {
		run = &models.MigrationRun{
			ID:        uuid.New().String(),
			Kind:      kind,
			Status:    models.RunStatusRunning,
			StartedAt: time.Now().UTC(),
		}
	} else {
		var err error
		if run, err = db.StartRun(ctx, l.db, kind); err != nil {
			return nil, err
		}
	}

	logger := l.logger.With(zap.String("kind", kind), zap.String("run_id", run.ID))
	logger.Info("migration started", zap.String("data_dir", l.dataDir), zap.Bool("dry_run", l.dryRun))

	runErr := migrate(ctx, run)

	run.Status = models.RunStatusCompleted
	if runErr != nil {
		run.Status = models.RunStatusFailed
		run.Error = runErr.Error()
	}
	if !run.Stats.Balanced() {
		logger.Error("counters do not balance", zap.Stringer("stats", run.Stats))
	}

	// record the outcome even when ctx was cancelled mid-run
	finishCtx := context.WithoutCancel(ctx)
	if l.dryRun {
		now := time.Now().UTC()
		run.FinishedAt = &now
	} else if err := db.FinishRun(finishCtx, l.db, run); err != nil {
		logger.Error("failed to record run", zap.Error(err))
	}

	if l.notifier != nil {
		if err := l.notifier.Publish(finishCtx, run); err != nil {
			logger.Warn("failed to publish run summary", zap.Error(err))
		}
	}

	fields := []zap.Field{
		zap.String("status", run.Status),
		zap.Int("read", run.Stats.Read),
		zap.Int("skipped", run.Stats.Skipped),
		zap.Int("rejected", run.Stats.Rejected),
		zap.Int("duplicates", run.Stats.Duplicates),
		zap.Int("inserted", run.Stats.Inserted),
		zap.Int("updated", run.Stats.Updated),
		zap.Int("unchanged", run.Stats.Unchanged),
		zap.Int("pending", run.Stats.Pending),
		zap.Int("write_failed", run.Stats.WriteFailed),
		zap.Any("reasons", run.Stats.Reasons),
	}
	if runErr != nil {
		logger.Error("migration failed", append(fields, zap.Error(runErr))...)
	} else {
		logger.Info("migration finished", fields...)
	}

	return run, runErr
}

// RunAll runs every migration in order and stops at the first failure.
func (l *Loader) RunAll(ctx context.Context) ([]*models.MigrationRun, error) {
	var runs []*models.MigrationRun
	for _, kind := range Kinds {
		run, err := l.Run(ctx, kind)
		if run != nil {
			runs = append(runs, run)
		}
		if err != nil {
			return runs, fmt.Errorf("%s: %w", kind, err)
		}
	}
	return runs, nil
}
