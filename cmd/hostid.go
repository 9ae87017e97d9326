package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/beadm/internal/app"
	"github.com/firefly-engineering/beadm/internal/be"
	"github.com/firefly-engineering/beadm/internal/errors"
)

var hostidCmd = &cobra.Command{
	Use:   "hostid <name>",
	Short: "Print the host id recorded in a boot environment",
	Args:  cobra.ExactArgs(1),
	RunE:  runHostid,
}

func init() {
	rootCmd.AddCommand(hostidCmd)
}

func runHostid(cmd *cobra.Command, args []string) error {
	name := args[0]

	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		id, ok, err := a.Client.Hostid(ctx, name)
		if err != nil {
			return err
		}
		if !ok {
			return errors.New(errors.KindGeneral, errors.ExitGeneralError, name,
				fmt.Sprintf("No host ID found for '%s'.", name))
		}
		fmt.Fprintln(cmd.OutOrStdout(), be.FormatHostID(id))
		return nil
	})
}
