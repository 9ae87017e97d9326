package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/beadm/internal/app"
	"github.com/firefly-engineering/beadm/internal/audit"
	"github.com/firefly-engineering/beadm/internal/be"
)

var mountCmd = &cobra.Command{
	Use:   "mount [flags] <name> [path]",
	Short: "Mount a boot environment",
	Long: `Mount a boot environment.

Without a path the boot environment is mounted at a new temporary
directory, whose path is printed.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runMount,
}

var mountMode string

func init() {
	mountCmd.Flags().StringVarP(&mountMode, "mode", "s", "rw", "Mount mode: rw or ro")
	rootCmd.AddCommand(mountCmd)
}

func runMount(cmd *cobra.Command, args []string) error {
	mode, err := be.ParseMountMode(mountMode)
	if err != nil {
		return err
	}
	name := args[0]
	path := ""
	if len(args) > 1 {
		path = args[1]
	}

	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		mountpoint, err := a.Client.Mount(ctx, name, path, mode)
		if err != nil {
			return err
		}
		a.Record(audit.EventMount, name, fmt.Sprintf("%s (%s)", mountpoint, mode))
		if path == "" {
			fmt.Fprintln(cmd.OutOrStdout(), mountpoint)
		}
		return nil
	})
}
