// ABOUTME: Add-column and backfill migration for raw heuristic inputs
// ABOUTME: Adds raw_city_state_zip and raw_unit_info then fills only empty values
package importer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/harperreed/shopmigrate/db"
	"github.com/harperreed/shopmigrate/legacy"
	"github.com/harperreed/shopmigrate/models"
)

type rawValue struct {
	key string
	raw string
}

func (l *Loader) migrateRawColumns(ctx context.Context, run *models.MigrationRun) error {
	if l.dryRun {
		for _, c := range db.RawColumns {
			ok, err := db.ColumnExists(ctx, l.db, c.Table, c.Name)
			if err != nil {
				return err
			}
			if !ok {
				l.logger.Info("would add column", zap.String("table", c.Table), zap.String("column", c.Name))
			}
		}
	} else {
		added, err := db.AddMissingColumns(ctx, l.db, db.RawColumns)
		if err != nil {
			return err
		}
		for _, c := range added {
			l.logger.Info("added column", zap.String("table", c.Table), zap.String("column", c.Name))
		}
	}

	clients, err := l.rawClientValues(run)
	if err != nil {
		return err
	}
	parsed, err := l.readRepairs(run)
	if err != nil {
		return err
	}
	repairs := make([]rawValue, 0, len(parsed))
	for _, p := range parsed {
		repairs = append(repairs, rawValue{key: legacy.ClaimKey(p.ClaimNumber), raw: p.RawUnitInfo})
	}

	clientErr := l.backfill(ctx, run, clients, db.BackfillClientRaw)
	repairErr := l.backfill(ctx, run, repairs, db.BackfillRepairRaw)
	if err := errors.Join(clientErr, repairErr); err != nil {
		return fmt.Errorf("backfill incomplete: %w", err)
	}
	return nil
}

// rawClientValues decodes the customer file with the same dedup rule as the
// client migration so each stored client gets the value it was loaded from.
func (l *Loader) rawClientValues(run *models.MigrationRun) ([]rawValue, error) {
	path := legacy.FindFile(l.dataDir, l.files.Customers)
	file, err := legacy.ReadRecordFile(path, l.customers.Layout().RecordSize)
	if err != nil {
		return nil, err
	}

	dedup := NewDedupIndex()
	var out []rawValue
	_ = file.Each(func(rec legacy.Record) error {
		run.Stats.Read++
		parsed, outcome := l.customers.Decode(rec)
		if !outcome.OK() {
			l.count(run, rec, outcome)
			return nil
		}
		run.Stats.Valid++
		if !dedup.Claim(legacy.NameKey(parsed.Name)) {
			run.Stats.Duplicates++
			return nil
		}
		out = append(out, rawValue{key: parsed.Name, raw: parsed.RawCityStateZip})
		return nil
	})
	return out, nil
}

// backfill applies conditional updates batch by batch. Rows whose value is
// already set, or that have nothing to write, count as unchanged.
func (l *Loader) backfill(
	ctx context.Context,
	run *models.MigrationRun,
	values []rawValue,
	update func(ctx context.Context, q db.Queryer, key, raw string) (int64, error),
) error {
	return writeBatches(ctx, l, run, values,
		func(ctx context.Context, tx *db.Tx, batch []rawValue) (int64, error) {
			var changed int64
			for _, v := range batch {
				if v.raw == "" {
					continue
				}
				n, err := update(ctx, tx, v.key, v.raw)
				if err != nil {
					return 0, err
				}
				changed += min(n, 1)
			}
			return changed, nil
		},
		func(batch []rawValue, n int64) {
			run.Stats.Updated += int(n)
			run.Stats.Unchanged += len(batch) - int(n)
		},
	)
}
