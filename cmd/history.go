package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/firefly-engineering/beadm/internal/app"
	"github.com/firefly-engineering/beadm/internal/audit"
)

var historyCmd = &cobra.Command{
	Use:   "history [name]",
	Short: "Display the audit trail of boot environment changes",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

var historyJSON bool

func init() {
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Output events as JSON lines")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	name := ""
	if len(args) > 0 {
		name = args[0]
	}

	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		logger := a.Audit
		if logger == nil {
			logger = audit.NewLogger(a.Config.EventsPath())
		}

		events, err := logger.Events(name)
		if err != nil {
			return fmt.Errorf("failed to read audit log: %w", err)
		}

		if len(events) == 0 {
			if name != "" {
				logInfo("No events found for boot environment %s", name)
			} else {
				logInfo("No events recorded")
			}
			return nil
		}

		out := cmd.OutOrStdout()
		if historyJSON {
			for _, e := range events {
				data, err := json.Marshal(e)
				if err != nil {
					return fmt.Errorf("failed to marshal event: %w", err)
				}
				fmt.Fprintln(out, string(data))
			}
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tWHEN\tEVENT\tBE\tDETAILS")
		for _, e := range events {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				humanize.Time(e.Timestamp),
				e.Type, orDash(e.BE), orDash(e.Details))
		}
		return w.Flush()
	})
}
