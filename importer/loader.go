// ABOUTME: Relational loader that turns decoded legacy records into shop rows
// ABOUTME: Holds run options and the batched, per-transaction write loop
package importer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"

	"github.com/harperreed/shopmigrate/db"
	"github.com/harperreed/shopmigrate/legacy"
	"github.com/harperreed/shopmigrate/models"
)

// DefaultBatchSize is the number of rows per multi-row INSERT.
const DefaultBatchSize = 50

// MaxBatchSize caps rows per INSERT so the widest row stays under SQLite's
// 32766 bound variables per statement.
const MaxBatchSize = 1000

// Files names the legacy inputs inside the data directory. Lookups are
// case-insensitive.
type Files struct {
	Customers      string `mapstructure:"customers"`
	Repairs        string `mapstructure:"repairs"`
	HistoryPattern string `mapstructure:"history_pattern"`
	Parts          string `mapstructure:"parts"`
	PartAliases    string `mapstructure:"part_aliases"`
}

// DefaultFiles returns the file names the shop system uses.
func DefaultFiles() Files {
	return Files{
		Customers:      "CUSTOMER.DAT",
		Repairs:        "CLAIMS.DAT",
		HistoryPattern: "CLAIMS*.DAT",
		Parts:          "PARTS.DBF",
		PartAliases:    "PARTALIAS.DBF",
	}
}

// PartFields names the DBF columns read by the inventory migration.
type PartFields struct {
	Name        string
	Description string
	Cost        string
	Price       string
	Quantity    string
	LastOrdered string
	Active      string

	AliasPart string
	Alias     string
	Vendor    string
}

// DefaultPartFields matches the shop's PARTS.DBF and PARTALIAS.DBF.
func DefaultPartFields() PartFields {
	return PartFields{
		Name:        "PARTNAME",
		Description: "DESCRIP",
		Cost:        "COST",
		Price:       "PRICE",
		Quantity:    "ONHAND",
		LastOrdered: "LASTORDER",
		Active:      "ACTIVE",
		AliasPart:   "PARTNAME",
		Alias:       "ALIAS",
		Vendor:      "VENDOR",
	}
}

// Quarantine receives records a run skipped or rejected.
type Quarantine interface {
	Add(models.QuarantineEntry) error
}

// Notifier is told about every finished run.
type Notifier interface {
	Publish(ctx context.Context, run *models.MigrationRun) error
}

// Loader runs migrations from one data directory into one store.
type Loader struct {
	db         *db.DB
	dataDir    string
	logger     *zap.Logger
	batchSize  int
	dryRun     bool
	layouts    legacy.Layouts
	files      Files
	partFields PartFields
	charset    encoding.Encoding
	quarantine Quarantine
	notifier   Notifier

	customers *legacy.CustomerDecoder
	repairs   *legacy.RepairDecoder
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// WithBatchSize sets rows per INSERT; values below 1 keep the default and
// values above MaxBatchSize are clamped to it.
func WithBatchSize(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.batchSize = min(n, MaxBatchSize)
		}
	}
}

// WithDryRun decodes and counts without writing to the store.
func WithDryRun(dryRun bool) Option {
	return func(l *Loader) { l.dryRun = dryRun }
}

// WithLayouts overrides the record layouts.
func WithLayouts(layouts legacy.Layouts) Option {
	return func(l *Loader) { l.layouts = layouts }
}

// WithFiles overrides input file names. Empty names keep their default.
func WithFiles(files Files) Option {
	return func(l *Loader) {
		def := DefaultFiles()
		l.files = Files{
			Customers:      pick(files.Customers, def.Customers),
			Repairs:        pick(files.Repairs, def.Repairs),
			HistoryPattern: pick(files.HistoryPattern, def.HistoryPattern),
			Parts:          pick(files.Parts, def.Parts),
			PartAliases:    pick(files.PartAliases, def.PartAliases),
		}
	}
}

// WithPartFields overrides the DBF column names.
func WithPartFields(fields PartFields) Option {
	return func(l *Loader) { l.partFields = fields }
}

// WithCharset transcodes DBF character fields from a legacy code page.
func WithCharset(enc encoding.Encoding) Option {
	return func(l *Loader) { l.charset = enc }
}

// WithQuarantine keeps every skipped or rejected record in q.
func WithQuarantine(q Quarantine) Option {
	return func(l *Loader) { l.quarantine = q }
}

// WithNotifier publishes run summaries through n.
func WithNotifier(n Notifier) Option {
	return func(l *Loader) { l.notifier = n }
}

func pick(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// New creates a loader reading legacy files from dataDir.
func New(database *db.DB, dataDir string, opts ...Option) (*Loader, error) {
	l := &Loader{
		db:         database,
		dataDir:    dataDir,
		logger:     zap.NewNop(),
		batchSize:  DefaultBatchSize,
		layouts:    legacy.DefaultLayouts(),
		files:      DefaultFiles(),
		partFields: DefaultPartFields(),
	}
	for _, opt := range opts {
		opt(l)
	}

	var err error
	if l.customers, err = legacy.NewCustomerDecoder(l.layouts.Customer); err != nil {
		return nil, fmt.Errorf("customer layout: %w", err)
	}
	if l.repairs, err = legacy.NewRepairDecoder(l.layouts.Repair); err != nil {
		return nil, fmt.Errorf("repair layout: %w", err)
	}
	return l, nil
}

// DryRun reports whether the loader writes.
func (l *Loader) DryRun() bool { return l.dryRun }

// count records a non-accepted outcome and quarantines the record.
func (l *Loader) count(run *models.MigrationRun, rec legacy.Record, outcome legacy.Outcome) {
	switch outcome.Kind {
	case legacy.Skipped:
		run.Stats.Skip(outcome.Reason)
	case legacy.Rejected:
		run.Stats.Reject(outcome.Reason)
	default:
		return
	}

	l.logger.Debug("record not loaded",
		zap.String("source", rec.Source),
		zap.Int("index", rec.Index),
		zap.Stringer("outcome", outcome.Kind),
		zap.String("reason", outcome.Reason),
	)
	l.quarantineRaw(run, rec.Source, rec.Index, outcome.Kind.String(), outcome.Reason, rec.Bytes)
}

func (l *Loader) quarantineRaw(run *models.MigrationRun, source string, index int, outcome, reason string, raw []byte) {
	if l.quarantine == nil {
		return
	}
	entry := models.QuarantineEntry{
		RunID:   run.ID,
		Kind:    run.Kind,
		Source:  source,
		Index:   index,
		Outcome: outcome,
		Reason:  reason,
		Raw:     append([]byte(nil), raw...),
	}
	if err := l.quarantine.Add(entry); err != nil {
		l.logger.Warn("failed to quarantine record",
			zap.String("source", source), zap.Int("index", index), zap.Error(err))
	}
}

// fileError records an unreadable input that the run can continue without.
func (l *Loader) fileError(run *models.MigrationRun, name string, err error) {
	run.Stats.FileErrors = append(run.Stats.FileErrors, fmt.Sprintf("%s: %v", name, err))
	l.logger.Warn("skipping unreadable file", zap.String("file", name), zap.Error(err))
}

// writeBatches writes items in batches, each in its own transaction. A
// failed batch is rolled back, its rows count as WriteFailed and the next
// batch is tried. committed is called with each batch that made it in and
// the rows the statement reported. Cancellation stops the loop and counts
// the unwritten rest as failed.
func writeBatches[T any](
	ctx context.Context,
	l *Loader,
	run *models.MigrationRun,
	items []T,
	write func(ctx context.Context, tx *db.Tx, batch []T) (int64, error),
	committed func(batch []T, n int64),
) error {
	if l.dryRun {
		run.Stats.Pending += len(items)
		return nil
	}

	var errs []error
	for start, num := 0, 1; start < len(items); start, num = start+l.batchSize, num+1 {
		end := min(start+l.batchSize, len(items))
		batch := items[start:end]

		if err := ctx.Err(); err != nil {
			run.Stats.WriteFailed += len(items) - start
			return errors.Join(append(errs, err)...)
		}

		var n int64
		err := l.db.InTx(ctx, func(tx *db.Tx) error {
			var err error
			n, err = write(ctx, tx, batch)
			return err
		})
		if err != nil {
			run.Stats.WriteFailed += len(batch)
			errs = append(errs, fmt.Errorf("batch %d: %w", num, err))
			l.logger.Warn("batch rolled back",
				zap.String("kind", run.Kind), zap.Int("batch", num), zap.Int("rows", len(batch)), zap.Error(err))
			continue
		}

		committed(batch, n)
		l.logger.Info("batch committed",
			zap.String("kind", run.Kind), zap.Int("batch", num), zap.Int("rows", len(batch)), zap.Int("done", end), zap.Int("total", len(items)))
	}
	return errors.Join(errs...)
}
