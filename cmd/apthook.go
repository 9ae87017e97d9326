package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/beadm/internal/app"
	"github.com/firefly-engineering/beadm/internal/apthook"
)

var aptHookCmd = &cobra.Command{
	Use:    "apt-hook",
	Short:  "Snapshot the active boot environment before APT changes packages",
	Hidden: true,
	Long: `Run as an APT JSON hook. APT passes the socket in $APT_HOOK_SOCKET.

Configure it in /etc/apt/apt.conf.d:
  AptCli::Hooks::Install:: "/usr/sbin/beadm apt-hook";`,
	Args: cobra.NoArgs,
	RunE: runAptHook,
}

func init() {
	rootCmd.AddCommand(aptHookCmd)
}

func runAptHook(cmd *cobra.Command, args []string) error {
	conn, err := apthook.Socket()
	if err != nil {
		return err
	}
	defer conn.Close()

	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		hook := apthook.New(a.Client, apthook.WithAudit(a.Audit))
		return hook.Run(ctx, apthook.NewStream(conn, conn))
	})
}
