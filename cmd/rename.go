package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/beadm/internal/app"
	"github.com/firefly-engineering/beadm/internal/audit"
)

var renameCmd = &cobra.Command{
	Use:   "rename <name> <new-name>",
	Short: "Rename a boot environment",
	Args:  cobra.ExactArgs(2),
	RunE:  runRename,
}

func init() {
	rootCmd.AddCommand(renameCmd)
}

func runRename(cmd *cobra.Command, args []string) error {
	name, newName := args[0], args[1]

	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		if err := a.Client.Rename(ctx, name, newName); err != nil {
			return err
		}
		a.Record(audit.EventRename, newName, "from "+name)
		fmt.Fprintf(cmd.OutOrStdout(), "Renamed boot environment '%s' to '%s'.\n", name, newName)
		return nil
	})
}
