package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/logging"
)

// NewRootCmd creates the hirehub command. Without a subcommand it serves.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "hirehub",
		Short:        "HireHub authentication and invitation service",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd)
		},
	}

	addConfigFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}

// addConfigFlags registers the flags config.Load reads. Flag names are the
// koanf keys they override.
func addConfigFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "config file path (YAML)")
	flags.String("port", "", "HTTP listen port")
	flags.String("log.level", "", "log level (debug, info, warn, error)")
	flags.String("frontend_url", "", "base URL used in signup and email links")
}

// loadConfig resolves and validates configuration and installs the stdout
// logger at the configured level.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
