package cli

import (
	"github.com/spf13/cobra"

	"github.com/harperreed/shopmigrate/tui"
)

func newReviewCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "review",
		Short: "Review and correct client city/state/zip splits",
		Long: `Lists clients whose stored city, state and zip do not account for the
raw text they were split from, and lets you fix them in place. Needs the
raw-columns migration to have run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := a.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			return tui.Run(cmd.Context(), database)
		},
	}
}
