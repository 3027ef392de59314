package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/qrlink/internal/app"
)

func newRepairCommand(rt *cliState) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "repair",
		Short: "Normalize stored expiration dates to canonical UTC",
		Long: `Scans every link with an expiration date. Values that parse but are not in
the canonical UTC form are rewritten; values that cannot be parsed are
cleared. Running it again afterwards changes nothing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := app.New(ctx, rt.cfg, rt.log)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.Repair(ctx, dryRun)
			if err != nil {
				return err
			}

			verb := "updated"
			if dryRun {
				verb = "would update"
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "scanned %d links, %s %d (%d normalized, %d cleared)\n",
				report.Scanned, verb, report.Changed(), report.Normalized, report.Cleared)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report changes without writing them")
	return cmd
}
