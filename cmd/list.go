package cmd

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/beadm/internal/app"
	"github.com/firefly-engineering/beadm/internal/be"
	"github.com/firefly-engineering/beadm/internal/errors"
	"github.com/firefly-engineering/beadm/internal/tui"
)

var listCmd = &cobra.Command{
	Use:     "list [flags] [name]",
	Aliases: []string{"ls"},
	Short:   "List boot environments",
	Long: `List boot environments, optionally with their snapshots.

The ACTIVE column shows N for the next-boot target, R for the running
boot environment and T for a temporary (boot once) target.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

var (
	listAll       bool
	listSnapshots bool
	listScripted  bool
	listSortAsc   string
	listSortDesc  string
)

func init() {
	listCmd.Flags().BoolVarP(&listAll, "all", "a", false, "List boot environments and all their snapshots")
	listCmd.Flags().BoolVarP(&listSnapshots, "snapshots", "s", false, "Include snapshots")
	listCmd.Flags().BoolVarP(&listScripted, "scripted", "H", false, "Tab-separated output without header, raw numbers")
	listCmd.Flags().StringVarP(&listSortAsc, "sort", "k", "date", "Sort ascending by date, name or space")
	listCmd.Flags().StringVarP(&listSortDesc, "sort-desc", "K", "", "Sort descending by date, name or space")
	listCmd.MarkFlagsMutuallyExclusive("sort", "sort-desc")
	rootCmd.AddCommand(listCmd)
}

// listRow is one line of list output, a boot environment or a snapshot.
type listRow struct {
	name        string
	flags       string
	mountpoint  string
	space       uint64
	created     int64
	description string
}

func bootEnvironmentRow(env be.BootEnvironment) listRow {
	return listRow{
		name:        env.Name,
		flags:       tui.Flags(env),
		mountpoint:  env.Mountpoint,
		space:       env.Space,
		created:     env.Created,
		description: env.Description,
	}
}

func snapshotRow(s be.Snapshot) listRow {
	return listRow{
		name:        s.Name,
		space:       s.Space,
		created:     s.Created,
		description: s.Description,
	}
}

// rowOrder returns the comparison for key: "date", "name" or "space".
func rowOrder(key string, descending bool) (func(a, b listRow) int, error) {
	var compare func(a, b listRow) int
	switch key {
	case "date":
		compare = func(a, b listRow) int { return cmp.Compare(a.created, b.created) }
	case "name":
		compare = func(a, b listRow) int { return cmp.Compare(a.name, b.name) }
	case "space":
		compare = func(a, b listRow) int { return cmp.Compare(a.space, b.space) }
	default:
		return nil, errors.InvalidProp("sort", key)
	}
	if descending {
		return func(a, b listRow) int { return compare(b, a) }, nil
	}
	return compare, nil
}

func runList(cmd *cobra.Command, args []string) error {
	key, descending := listSortAsc, false
	if listSortDesc != "" {
		key, descending = listSortDesc, true
	}
	order, err := rowOrder(key, descending)
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		bes, err := a.Client.BootEnvironments(ctx)
		if err != nil {
			return err
		}
		if len(args) > 0 {
			bes = slices.DeleteFunc(bes, func(env be.BootEnvironment) bool { return env.Name != args[0] })
			if len(bes) == 0 {
				return errors.NotFound(args[0])
			}
		}

		envRows := make([]listRow, 0, len(bes))
		for _, env := range bes {
			envRows = append(envRows, bootEnvironmentRow(env))
		}
		slices.SortStableFunc(envRows, order)

		var rows []listRow
		for _, row := range envRows {
			rows = append(rows, row)
			if !listAll && !listSnapshots {
				continue
			}
			snaps, err := a.Client.Snapshots(ctx, row.name)
			if err != nil {
				return err
			}
			snapRows := make([]listRow, 0, len(snaps))
			for _, s := range snaps {
				snapRows = append(snapRows, snapshotRow(s))
			}
			slices.SortStableFunc(snapRows, order)
			rows = append(rows, snapRows...)
		}

		if listScripted {
			writeScripted(cmd.OutOrStdout(), rows)
			return nil
		}
		return writeTable(cmd.OutOrStdout(), rows)
	})
}

func writeScripted(out io.Writer, rows []listRow) {
	for _, r := range rows {
		fmt.Fprintf(out, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.name, r.flags, r.mountpoint,
			strconv.FormatUint(r.space, 10), strconv.FormatInt(r.created, 10),
			r.description)
	}
}

func writeTable(out io.Writer, rows []listRow) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tACTIVE\tMOUNTPOINT\tSPACE\tCREATED\tDESCRIPTION")

	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.name, orDash(r.flags), orDash(r.mountpoint),
			formatSize(r.space), formatCreated(r.created),
			orDash(r.description))
	}

	return w.Flush()
}
