// ABOUTME: migrate subcommand running one or all legacy migrations
// ABOUTME: Wires quarantine, broker events and the optional pre-run backup
package cli

import (
	"fmt"
	"slices"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harperreed/shopmigrate/db"
	"github.com/harperreed/shopmigrate/importer"
	"github.com/harperreed/shopmigrate/models"
)

func newMigrateCommand(a *app) *cobra.Command {
	var (
		dryRun bool
		backup bool
	)

	cmd := &cobra.Command{
		Use:       "migrate clients|repairs|inventory|raw-columns|all",
		Short:     "Load legacy records into the target store",
		Args:      cobra.ExactArgs(1),
		ValidArgs: append(slices.Clone(importer.Kinds), "all"),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := args[0]
			if kind != "all" && !slices.Contains(importer.Kinds, kind) {
				return fmt.Errorf("unknown migration %q (valid: %v, all)", kind, importer.Kinds)
			}
			ctx := cmd.Context()

			database, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			if backup && !dryRun {
				path, err := database.Backup(ctx, time.Now())
				if err != nil {
					return err
				}
				a.logger.Info("store backed up", zap.String("path", path))
			}

			var extra []importer.Option
			store, err := a.openQuarantine()
			if err != nil {
				return err
			}
			if store != nil {
				defer func() { _ = store.Close() }()
				extra = append(extra, importer.WithQuarantine(store))
			}
			pub, err := a.openPublisher()
			if err != nil {
				return err
			}
			if pub != nil {
				defer func() { _ = pub.Close() }()
				extra = append(extra, importer.WithNotifier(pub))
			}

			loader, err := a.newLoader(database, dryRun, extra...)
			if err != nil {
				return err
			}

			var runs []*models.MigrationRun
			if kind == "all" {
				runs, err = loader.RunAll(ctx)
			} else {
				var run *models.MigrationRun
				run, err = loader.Run(ctx, kind)
				if run != nil {
					runs = append(runs, run)
				}
			}

			printSummary(cmd.OutOrStdout(), runs, dryRun)
			return err
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "decode and count without writing")
	cmd.Flags().BoolVar(&backup, "backup", false, "copy the sqlite store file before loading")
	cmd.Flags().Int("batch-size", 0, fmt.Sprintf("rows per INSERT (default %d)", importer.DefaultBatchSize))
	_ = a.v.BindPFlag("batch_size", cmd.Flags().Lookup("batch-size"))
	return cmd
}

func newInitCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the target store and its bookkeeping tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := a.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "✓ Store ready (%s)\n", database.Dialect())
			for _, table := range append(slices.Clone(db.Tables), "migration_runs") {
				ok, err := db.TableExists(cmd.Context(), database, table)
				if err != nil {
					return err
				}
				mark := "✗"
				if ok {
					mark = "✓"
				}
				_, _ = fmt.Fprintf(out, "  %s %s\n", mark, table)
			}
			return nil
		},
	}
}
