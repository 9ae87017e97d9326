package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/beadm/internal/app"
	"github.com/firefly-engineering/beadm/internal/audit"
)

var deactivateCmd = &cobra.Command{
	Use:   "deactivate <name>",
	Short: "Cancel a pending temporary activation",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeactivate,
}

func init() {
	rootCmd.AddCommand(deactivateCmd)
}

func runDeactivate(cmd *cobra.Command, args []string) error {
	name := args[0]

	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		if err := a.Client.Deactivate(ctx, name); err != nil {
			return err
		}
		a.Record(audit.EventDeactivate, name, "")
		fmt.Fprintf(cmd.OutOrStdout(), "Deactivated '%s'.\n", name)
		return nil
	})
}
