// ABOUTME: Truncate-and-reload repair migration from the current and history claim files
// ABOUTME: Dedups claim numbers in file priority order and links repairs to clients by name
package importer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/harperreed/shopmigrate/db"
	"github.com/harperreed/shopmigrate/legacy"
	"github.com/harperreed/shopmigrate/models"
)

// readRepairs decodes every claim file in priority order and returns the
// first record seen for each claim number. The current file must be
// readable; unreadable history files are recorded and skipped.
func (l *Loader) readRepairs(run *models.MigrationRun) ([]*models.ParsedRepair, error) {
	sources, err := legacy.RepairSources(l.dataDir, l.files.Repairs, l.files.HistoryPattern)
	if err != nil {
		return nil, err
	}

	dedup := NewDedupIndex()
	var repairs []*models.ParsedRepair
	for _, src := range sources {
		file, err := legacy.ReadRecordFile(src.Path, l.repairs.Layout().RecordSize)
		if err != nil {
			if !src.Historical {
				return nil, err
			}
			l.fileError(run, src.Name, err)
			continue
		}

		l.logger.Info("reading claims",
			zap.String("file", file.Name), zap.Bool("historical", src.Historical), zap.Int("records", file.Len()))

		_ = file.Each(func(rec legacy.Record) error {
			run.Stats.Read++
			parsed, outcome := l.repairs.Decode(rec, src.Historical)
			if !outcome.OK() {
				l.count(run, rec, outcome)
				return nil
			}
			run.Stats.Valid++

			if !dedup.Claim(legacy.ClaimKey(parsed.ClaimNumber)) {
				run.Stats.Duplicates++
				l.logger.Debug("duplicate claim",
					zap.Int("claim", parsed.ClaimNumber), zap.String("source", rec.Source), zap.Int("index", rec.Index))
				return nil
			}
			repairs = append(repairs, parsed)
			return nil
		})
	}
	return repairs, nil
}

// clientIndex maps normalized client names to ids. The lowest id wins when
// names collide.
func (l *Loader) clientIndex(ctx context.Context) (map[string]int64, error) {
	names, err := db.ClientNames(ctx, l.db)
	if err != nil {
		return nil, err
	}
	index := make(map[string]int64, len(names))
	for _, n := range names {
		key := legacy.NameKey(n.Name)
		if _, ok := index[key]; !ok {
			index[key] = n.ID
		}
	}
	return index, nil
}

func toRepair(p *models.ParsedRepair, clients map[string]int64) models.Repair {
	r := models.Repair{
		ClaimNumber:   legacy.ClaimKey(p.ClaimNumber),
		Brand:         p.Brand,
		Model:         p.Model,
		Serial:        p.Serial,
		Issue:         p.Issue,
		WorkPerformed: p.WorkPerformed,
		Status:        p.Status,
		CreatedAt:     p.DateIn,
		CompletedDate: p.DateCompleted,
		ClosedDate:    p.DateClosed,
		RawUnitInfo:   p.RawUnitInfo,
	}
	if id, ok := clients[p.ClientNameKey]; ok {
		r.ClientID = &id
	}
	return r
}

func (l *Loader) migrateRepairs(ctx context.Context, run *models.MigrationRun) error {
	parsed, err := l.readRepairs(run)
	if err != nil {
		return err
	}

	clients, err := l.clientIndex(ctx)
	if err != nil {
		return err
	}
	withRaw, err := db.HasRawColumn(ctx, l.db, "repairs")
	if err != nil {
		return err
	}

	repairs := make([]models.Repair, 0, len(parsed))
	linked := 0
	for _, p := range parsed {
		r := toRepair(p, clients)
		if r.ClientID != nil {
			linked++
		}
		repairs = append(repairs, r)
	}
	l.logger.Info("repairs decoded",
		zap.Int("unique_claims", len(repairs)), zap.Int("linked_to_client", linked))

	if !l.dryRun {
		if err := l.db.InTx(ctx, func(tx *db.Tx) error {
			return db.ClearRepairs(ctx, tx)
		}); err != nil {
			return err
		}
	}

	err = writeBatches(ctx, l, run, repairs,
		func(ctx context.Context, tx *db.Tx, batch []models.Repair) (int64, error) {
			return db.InsertRepairs(ctx, tx, batch, withRaw)
		},
		func(batch []models.Repair, _ int64) {
			run.Stats.Inserted += len(batch)
		},
	)
	if err != nil {
		return fmt.Errorf("repair load incomplete: %w", err)
	}
	return nil
}
