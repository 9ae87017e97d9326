package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/beadm/internal/app"
	"github.com/firefly-engineering/beadm/internal/audit"
)

var rollbackCmd = &cobra.Command{
	Use:   "rollback <name> <snapshot>",
	Short: "Roll a boot environment back to a snapshot",
	Long: `Roll a boot environment back to one of its snapshots.

The snapshot is given either by its tag or as name@tag. Snapshots newer
than the target are destroyed.`,
	Args: cobra.ExactArgs(2),
	RunE: runRollback,
}

func init() {
	rootCmd.AddCommand(rollbackCmd)
}

func runRollback(cmd *cobra.Command, args []string) error {
	name, snapshot := args[0], args[1]

	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		if err := a.Client.Rollback(ctx, name, snapshot); err != nil {
			return err
		}
		a.Record(audit.EventRollback, name, snapshot)
		fmt.Fprintf(cmd.OutOrStdout(), "Rolled back to '%s'.\n", snapshot)
		return nil
	})
}
