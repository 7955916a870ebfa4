// ABOUTME: Additive client migration from the legacy customer file
// ABOUTME: Seeds dedup from stored client names so reruns insert nothing new
package importer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/harperreed/shopmigrate/db"
	"github.com/harperreed/shopmigrate/legacy"
	"github.com/harperreed/shopmigrate/models"
)

func (l *Loader) migrateClients(ctx context.Context, run *models.MigrationRun) error {
	path := legacy.FindFile(l.dataDir, l.files.Customers)
	file, err := legacy.ReadRecordFile(path, l.customers.Layout().RecordSize)
	if err != nil {
		return err
	}

	existing, err := db.ClientNames(ctx, l.db)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(existing))
	for _, c := range existing {
		keys = append(keys, legacy.NameKey(c.Name))
	}
	dedup := NewDedupIndex(keys...)

	withRaw, err := db.HasRawColumn(ctx, l.db, "clients")
	if err != nil {
		return err
	}

	l.logger.Info("reading customers",
		zap.String("file", file.Name), zap.Int("records", file.Len()), zap.Int("existing_clients", len(existing)))

	var clients []models.Client
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
		clients = append(clients, parsed.Client())
		return nil
	})

	err = writeBatches(ctx, l, run, clients,
		func(ctx context.Context, tx *db.Tx, batch []models.Client) (int64, error) {
			return db.InsertClients(ctx, tx, batch, withRaw)
		},
		func(batch []models.Client, _ int64) {
			run.Stats.Inserted += len(batch)
		},
	)
	if err != nil {
		return fmt.Errorf("client load incomplete: %w", err)
	}
	return nil
}
