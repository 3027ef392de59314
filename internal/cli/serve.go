package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/qrlink/internal/app"
)

func newServeCommand(rt *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), rt)
		},
	}
}

func runServe(ctx context.Context, rt *cliState) error {
	a, err := app.New(ctx, rt.cfg, rt.log)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.Serve(ctx)
}
