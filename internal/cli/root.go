package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/qrlink/internal/config"
	"github.com/MrSnakeDoc/qrlink/internal/logger"
)

// cliState holds what every subcommand needs once flags are parsed.
type cliState struct {
	configPath string
	cfg        *config.Config
	log        logger.Logger
}

// NewRootCommand builds the qrlink command tree. Running it without a
// subcommand starts the server.
func NewRootCommand() *cobra.Command {
	rt := &cliState{}

	root := &cobra.Command{
		Use:           "qrlink",
		Short:         "QR code generator with expiring short links",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return rt.load()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if rt.log != nil {
				_ = rt.log.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), rt)
		},
	}

	root.PersistentFlags().StringVarP(&rt.configPath, "config", "c", "", "path to a YAML config file (default $QRLINK_CONFIG_FILE)")

	root.AddCommand(
		newServeCommand(rt),
		newRepairCommand(rt),
		newVersionCommand(),
	)
	return root
}

func (rt *cliState) load() error {
	cfg, err := config.Load(rt.configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	rt.cfg = cfg
	rt.log = logger.New(cfg.LogLevel, cfg.PrettyLog)
	return nil
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}
