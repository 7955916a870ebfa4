// ABOUTME: Truncate-and-reload parts migration from the dBase inventory tables
// ABOUTME: Joins the primary parts table with the alias table on part name
package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"go.uber.org/zap"

	"github.com/harperreed/shopmigrate/db"
	"github.com/harperreed/shopmigrate/dbf"
	"github.com/harperreed/shopmigrate/legacy"
	"github.com/harperreed/shopmigrate/models"
)

// Reasons for DBF records that produce no part.
const (
	ReasonDeleted   = "deleted"
	ReasonBadFlag   = "bad_flag"
	ReasonTruncated = "truncated"
)

type partAliases struct {
	aliases []string
	vendor  string
}

func partKey(name string) string {
	return strings.ToUpper(strings.Join(strings.Fields(name), " "))
}

func (l *Loader) dbfOptions() []dbf.Option {
	if l.charset == nil {
		return nil
	}
	return []dbf.Option{dbf.WithCharset(l.charset)}
}

// readAliases loads the alias table keyed by part. A missing table is not
// an error: parts then load without aliases.
func (l *Loader) readAliases(run *models.MigrationRun) map[string]*partAliases {
	path := legacy.FindFile(l.dataDir, l.files.PartAliases)
	file, err := dbf.ReadFile(path, l.dbfOptions()...)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn("no part alias table, loading parts without aliases", zap.String("file", l.files.PartAliases))
		} else {
			l.fileError(run, l.files.PartAliases, err)
		}
		return nil
	}

	f := l.partFields
	out := make(map[string]*partAliases)
	for _, row := range file.Rows {
		key := partKey(row.String(f.AliasPart))
		if key == "" {
			continue
		}
		pa, ok := out[key]
		if !ok {
			pa = &partAliases{}
			out[key] = pa
		}
		if alias := strings.TrimSpace(row.String(f.Alias)); alias != "" && !contains(pa.aliases, alias) {
			pa.aliases = append(pa.aliases, alias)
		}
		if vendor := strings.TrimSpace(row.String(f.Vendor)); vendor != "" && pa.vendor == "" {
			pa.vendor = vendor
		}
	}
	l.logger.Info("read part aliases", zap.String("file", file.Name), zap.Int("parts", len(out)))
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (l *Loader) toPart(row dbf.Row, aliases map[string]*partAliases) models.Part {
	f := l.partFields
	p := models.Part{
		Name:        strings.TrimSpace(row.String(f.Name)),
		Description: row.String(f.Description),
		Active:      true,
	}
	if v, ok := row.Float(f.Cost); ok {
		p.Cost = &v
	}
	if v, ok := row.Float(f.Price); ok {
		p.Price = &v
	}
	if v, ok := row.Float(f.Quantity); ok {
		p.Quantity = &v
	}
	if v := row.String(f.LastOrdered); v != "" {
		p.LastOrdered = &v
	}
	if _, ok := row[f.Active]; ok {
		p.Active = row.Bool(f.Active)
	}
	if pa, ok := aliases[partKey(p.Name)]; ok {
		p.Aliases = pa.aliases
		p.Vendor = pa.vendor
	}
	return p
}

func (l *Loader) migrateInventory(ctx context.Context, run *models.MigrationRun) error {
	path := legacy.FindFile(l.dataDir, l.files.Parts)
	primary, err := dbf.ReadFile(path, l.dbfOptions()...)
	if err != nil {
		return err
	}
	if _, ok := fieldIndex(primary.Fields, l.partFields.Name); !ok {
		return fmt.Errorf("%s has no %s field", primary.Name, l.partFields.Name)
	}

	st := primary.Stats
	run.Stats.Read += st.Active + st.Deleted + st.Malformed + st.Truncated
	addReason(&run.Stats, ReasonDeleted, st.Deleted)
	addReason(&run.Stats, ReasonBadFlag, st.Malformed)
	addReason(&run.Stats, ReasonTruncated, st.Truncated)

	l.logger.Info("reading parts",
		zap.String("file", primary.Name),
		zap.Int("records", primary.Header.RecordCount),
		zap.Int("active", st.Active),
		zap.Int("deleted", st.Deleted),
		zap.Int("malformed", st.Malformed),
		zap.Int("truncated", st.Truncated),
	)

	aliases := l.readAliases(run)

	dedup := NewDedupIndex()
	var parts []models.Part
	for i, row := range primary.Rows {
		p := l.toPart(row, aliases)
		if p.Name == "" {
			run.Stats.Reject(legacy.ReasonEmptyName)
			raw, _ := json.Marshal(row)
			l.quarantineRaw(run, primary.Name, i, legacy.Rejected.String(), legacy.ReasonEmptyName, raw)
			continue
		}
		run.Stats.Valid++
		if !dedup.Claim(partKey(p.Name)) {
			run.Stats.Duplicates++
			continue
		}
		parts = append(parts, p)
	}

	if !l.dryRun {
		if err := l.db.InTx(ctx, func(tx *db.Tx) error {
			return db.ClearParts(ctx, tx)
		}); err != nil {
			return err
		}
	}

	err = writeBatches(ctx, l, run, parts,
		func(ctx context.Context, tx *db.Tx, batch []models.Part) (int64, error) {
			return db.InsertParts(ctx, tx, batch)
		},
		func(batch []models.Part, _ int64) {
			run.Stats.Inserted += len(batch)
		},
	)
	if err != nil {
		return fmt.Errorf("parts load incomplete: %w", err)
	}
	return nil
}

// addReason counts n malformed DBF records as skipped under reason.
func addReason(s *models.RunStats, reason string, n int) {
	for i := 0; i < n; i++ {
		s.Skip(reason)
	}
}

func fieldIndex(fields []dbf.Field, name string) (int, bool) {
	for i, f := range fields {
		if f.Name == name {
			return i, true
		}
	}
	return 0, false
}
