package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/beadm/internal/app"
	"github.com/firefly-engineering/beadm/internal/audit"
	"github.com/firefly-engineering/beadm/internal/be"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot [flags] [name|name@snapshot]",
	Short: "Snapshot a boot environment",
	Long: `Take a snapshot of a boot environment.

Without an argument the active boot environment is snapshotted. Without
a snapshot part the snapshot is named after the current UTC time.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSnapshot,
}

var snapshotDescription string

func init() {
	snapshotCmd.Flags().StringVarP(&snapshotDescription, "description", "d", "", "Description of the snapshot")
	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	var source *be.Label
	if len(args) > 0 {
		l, err := be.ParseLabel(args[0])
		if err != nil {
			return err
		}
		source = &l
	}

	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		name, err := a.Client.Snapshot(ctx, source, snapshotDescription)
		if err != nil {
			return err
		}
		a.Record(audit.EventSnapshot, name, snapshotDescription)
		fmt.Fprintf(cmd.OutOrStdout(), "Created '%s'.\n", name)
		return nil
	})
}
