package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/beadm/internal/app"
	"github.com/firefly-engineering/beadm/internal/config"
	"github.com/firefly-engineering/beadm/internal/errors"
	"github.com/firefly-engineering/beadm/internal/logging"
)

var (
	verbose    bool
	jsonOutput bool
	configPath string
	beRoot     string
	clientType string
)

var rootCmd = &cobra.Command{
	Use:   "beadm",
	Short: "ZFS boot environment administration",
	Long: `beadm manages ZFS boot environments.

A boot environment is a bootable clone of the root filesystem:
  - Create one before an upgrade, activate it, reboot into it
  - Activate temporarily to try a boot environment for one boot only
  - Roll back to a snapshot or destroy what you no longer need`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup(verbose, jsonOutput, os.Stderr)
	},
}

func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		logging.Debug("command failed",
			"kind", errors.KindOf(err),
			"category", errors.RPCCategory(err),
			"exit", errors.GetExitCode(err))
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the config file (default "+config.DefaultConfigFile+")")
	rootCmd.PersistentFlags().StringVarP(&beRoot, "beroot", "r", "", "Boot environment root dataset, e.g. zroot/ROOT")
	rootCmd.PersistentFlags().StringVar(&clientType, "client", "", "Client backend: libzfs or mock")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// Helper aliases for user-facing output (delegates to logging package)
var (
	logInfo    = logging.UserInfo
	logSuccess = logging.UserSuccess
	logWarning = logging.UserWarning
)

// newApp builds the App a command runs against. Tests replace it.
var newApp = func(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load(config.Path(configPath), configPath != "")
	if err != nil {
		return nil, err
	}
	if beRoot != "" {
		cfg.Root = beRoot
	}
	if clientType != "" {
		cfg.Client = clientType
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.ConfigError("invalid command line override", err)
	}
	return app.New(ctx, app.WithConfig(cfg))
}
