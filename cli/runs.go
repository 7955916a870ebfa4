// ABOUTME: runs subcommand listing migration history
// ABOUTME: Reads migration_runs newest first
package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harperreed/shopmigrate/db"
)

func newRunsCommand(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent migration runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := a.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			runs, err := db.ListRuns(cmd.Context(), database, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				_, _ = fmt.Fprintln(out, "No runs found")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "STARTED\tKIND\tSTATUS\tREAD\tINSERTED\tUPDATED\tREJECTED\tID")
			_, _ = fmt.Fprintln(w, "-------\t----\t------\t----\t--------\t-------\t--------\t--")
			for _, r := range runs {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
					r.StartedAt.Local().Format("2006-01-02 15:04"), r.Kind, r.Status,
					r.Stats.Read, r.Stats.Inserted, r.Stats.Updated, r.Stats.Rejected, r.ID)
			}
			_ = w.Flush()

			_, _ = fmt.Fprintf(out, "\nTotal: %d run(s)\n", len(runs))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to show")
	return cmd
}
