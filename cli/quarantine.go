// ABOUTME: quarantine subcommands for records a run did not load
// ABOUTME: Lists and purges entries in the badger quarantine store
package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harperreed/shopmigrate/legacy"
	"github.com/harperreed/shopmigrate/quarantine"
)

func newQuarantineCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quarantine",
		Short: "Inspect records that migrations skipped or rejected",
	}

	var (
		runID string
		limit int
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List quarantined records of one run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.requireQuarantine()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			entries, err := store.List(runID, limit)
			if err != nil {
				return err
			}
			total, err := store.Count(runID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				_, _ = fmt.Fprintln(out, "No quarantined records")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "SOURCE\tINDEX\tOUTCOME\tREASON\tRAW")
			for _, e := range entries {
				_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", e.Source, e.Index, e.Outcome, e.Reason, preview(e.Raw))
			}
			_ = w.Flush()

			_, _ = fmt.Fprintf(out, "\nShowing %d of %d record(s)\n", len(entries), total)
			return nil
		},
	}
	list.Flags().StringVar(&runID, "run", "", "run ID (required)")
	list.Flags().IntVar(&limit, "limit", 50, "maximum records to show")
	_ = list.MarkFlagRequired("run")

	var purgeRun string
	purge := &cobra.Command{
		Use:   "purge",
		Short: "Delete the quarantined records of one run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.requireQuarantine()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.Purge(purgeRun); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Purged quarantine of run %s\n", purgeRun)
			return nil
		},
	}
	purge.Flags().StringVar(&purgeRun, "run", "", "run ID (required)")
	_ = purge.MarkFlagRequired("run")

	cmd.AddCommand(list, purge)
	return cmd
}

func (a *app) requireQuarantine() (*quarantine.Store, error) {
	store, err := a.openQuarantine()
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("no quarantine store: set quarantine_dir or SHOPMIGRATE_QUARANTINE_DIR")
	}
	return store, nil
}

// preview shows the start of a raw record with unprintable bytes escaped.
func preview(raw []byte) string {
	const n = 40
	if len(raw) > n {
		raw = raw[:n]
	}
	return legacy.EscapeBytes(raw)
}
