package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/beadm/internal/app"
	"github.com/firefly-engineering/beadm/internal/audit"
	"github.com/firefly-engineering/beadm/internal/be"
	"github.com/firefly-engineering/beadm/internal/tui"
)

var destroyCmd = &cobra.Command{
	Use:   "destroy [flags] <name|name@snapshot>",
	Short: "Destroy a boot environment or snapshot",
	Long: `Destroy a boot environment or one of its snapshots.

The active boot environment cannot be destroyed. A mounted boot
environment is refused unless --force-unmount is given, and a boot
environment with snapshots is refused unless --snapshots is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runDestroy,
}

var (
	destroyForceUnmount bool
	destroySnapshots    bool
	destroyNoConfirm    bool
)

func init() {
	destroyCmd.Flags().BoolVarP(&destroyForceUnmount, "force-unmount", "f", false, "Unmount the boot environment first")
	destroyCmd.Flags().BoolVarP(&destroySnapshots, "snapshots", "s", false, "Also destroy the boot environment's snapshots")
	destroyCmd.Flags().BoolVarP(&destroyNoConfirm, "force", "F", false, "Do not ask for confirmation")
	rootCmd.AddCommand(destroyCmd)
}

func runDestroy(cmd *cobra.Command, args []string) error {
	target, err := be.ParseLabel(args[0])
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		if !destroyNoConfirm && isInteractive() {
			ok, err := confirm(fmt.Sprintf("Destroy '%s'?", target))
			if err != nil {
				return fmt.Errorf("confirmation failed: %w", err)
			}
			if !ok {
				logInfo("Cancelled")
				return nil
			}
		}

		opts := be.DestroyOptions{
			ForceUnmount:  destroyForceUnmount,
			ForceNoVerify: destroyNoConfirm,
			Snapshots:     destroySnapshots,
		}
		if err := a.Client.Destroy(ctx, target, opts); err != nil {
			return err
		}

		details := ""
		if destroySnapshots {
			details = "with snapshots"
		}
		a.Record(audit.EventDestroy, target.String(), details)
		fmt.Fprintf(cmd.OutOrStdout(), "Destroyed '%s'.\n", target)
		return nil
	})
}

// confirm asks a yes/no question. Tests replace it.
var confirm = tui.Confirm
