package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/beadm/internal/app"
	"github.com/firefly-engineering/beadm/internal/audit"
)

var initCmd = &cobra.Command{
	Use:   "init <pool>",
	Short: "Prepare a pool for boot environments",
	Long: `Create the boot environment root dataset layout on a pool.

This creates <pool>/ROOT with mountpoint=none and <pool>/home mounted at
/home. Datasets that already exist are checked, not recreated.`,
	Args: cobra.ExactArgs(1),
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	pool := args[0]

	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		if err := a.Client.Init(ctx, pool); err != nil {
			return err
		}
		a.Record(audit.EventInit, pool, "")
		fmt.Fprintln(cmd.OutOrStdout(), "Boot environment dataset layout initialized.")
		return nil
	})
}
