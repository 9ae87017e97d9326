package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/beadm/internal/app"
	"github.com/firefly-engineering/beadm/internal/audit"
)

var unmountCmd = &cobra.Command{
	Use:     "unmount [flags] <name|mountpoint>",
	Aliases: []string{"umount"},
	Short:   "Unmount a boot environment",
	Args:    cobra.ExactArgs(1),
	RunE:    runUnmount,
}

var unmountForce bool

func init() {
	unmountCmd.Flags().BoolVarP(&unmountForce, "force", "f", false, "Force the unmount")
	rootCmd.AddCommand(unmountCmd)
}

func runUnmount(cmd *cobra.Command, args []string) error {
	target := args[0]

	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		mountpoint, err := a.Client.Unmount(ctx, target, unmountForce)
		if err != nil {
			return err
		}
		if mountpoint == "" {
			logInfo("'%s' was not mounted", target)
			return nil
		}
		a.Record(audit.EventUnmount, target, mountpoint)
		return nil
	})
}
