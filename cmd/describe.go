package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/beadm/internal/app"
	"github.com/firefly-engineering/beadm/internal/audit"
	"github.com/firefly-engineering/beadm/internal/be"
)

var describeCmd = &cobra.Command{
	Use:   "describe <name|name@snapshot> <description>",
	Short: "Set the description of a boot environment or snapshot",
	Args:  cobra.ExactArgs(2),
	RunE:  runDescribe,
}

func init() {
	rootCmd.AddCommand(describeCmd)
}

func runDescribe(cmd *cobra.Command, args []string) error {
	target, err := be.ParseLabel(args[0])
	if err != nil {
		return err
	}
	description := args[1]

	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		if err := a.Client.Describe(ctx, target, description); err != nil {
			return err
		}
		a.Record(audit.EventDescribe, target.String(), description)
		fmt.Fprintf(cmd.OutOrStdout(), "Set description for '%s'.\n", target)
		return nil
	})
}
