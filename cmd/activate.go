package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/beadm/internal/app"
	"github.com/firefly-engineering/beadm/internal/audit"
	"github.com/firefly-engineering/beadm/internal/errors"
	"github.com/firefly-engineering/beadm/internal/tui"
)

var activateCmd = &cobra.Command{
	Use:   "activate [name]",
	Short: "Make a boot environment the next boot target",
	Long: `Activate a boot environment so the next reboot uses it.

With --temporary the boot environment is used for the next boot only;
afterwards the system returns to the permanent target. --remove-temporary
undoes a pending temporary activation. --interactive picks the boot
environment from a list.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runActivate,
}

var (
	activateTemporary       bool
	activateRemoveTemporary bool
	activateInteractive     bool
)

func init() {
	activateCmd.Flags().BoolVarP(&activateTemporary, "temporary", "t", false, "Activate for the next boot only")
	activateCmd.Flags().BoolVarP(&activateRemoveTemporary, "remove-temporary", "T", false, "Remove a temporary activation")
	activateCmd.Flags().BoolVarP(&activateInteractive, "interactive", "i", false, "Pick the boot environment interactively")
	activateCmd.MarkFlagsMutuallyExclusive("temporary", "remove-temporary")
	activateCmd.MarkFlagsMutuallyExclusive("interactive", "remove-temporary")
	rootCmd.AddCommand(activateCmd)
}

func runActivate(cmd *cobra.Command, args []string) error {
	switch {
	case activateRemoveTemporary && len(args) > 0:
		return errors.ValidationError("--remove-temporary takes no boot environment name")
	case activateInteractive && len(args) > 0:
		return errors.ValidationError("--interactive takes no boot environment name")
	case !activateRemoveTemporary && !activateInteractive && len(args) == 0:
		return errors.ValidationError("boot environment name required")
	}

	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		if activateRemoveTemporary {
			if err := a.Client.ClearBootOnce(ctx); err != nil {
				return err
			}
			a.Record(audit.EventDeactivate, "", "temporary activation removed")
			fmt.Fprintln(cmd.OutOrStdout(), "Removed temporary boot environment activation.")
			return nil
		}

		var name string
		temporary := activateTemporary
		if activateInteractive {
			picked, once, err := pickBootEnvironment(ctx, a)
			if err != nil || picked == "" {
				return err
			}
			name = picked
			temporary = temporary || once
		} else {
			name = args[0]
		}

		if err := a.Client.Activate(ctx, name, temporary); err != nil {
			return err
		}

		suffix := ""
		if temporary {
			suffix = " temporarily"
		}
		a.Record(audit.EventActivate, name, activationKind(temporary))
		fmt.Fprintf(cmd.OutOrStdout(), "Activated '%s'%s.\n", name, suffix)
		return nil
	})
}

// pickBootEnvironment runs the picker and returns the chosen name, or ""
// if the user quit. temporary reports a one-time activation.
func pickBootEnvironment(ctx context.Context, a *app.App) (name string, temporary bool, err error) {
	if !isInteractive() {
		return "", false, errors.ValidationError("--interactive requires a terminal")
	}

	bes, err := a.Client.BootEnvironments(ctx)
	if err != nil {
		return "", false, err
	}

	result, err := tui.RunPicker(bes)
	if err != nil {
		return "", false, fmt.Errorf("picker failed: %w", err)
	}

	switch result.Action {
	case tui.ActionActivate:
		return result.BE.Name, false, nil
	case tui.ActionActivateTemporary:
		return result.BE.Name, true, nil
	default:
		return "", false, nil
	}
}

func activationKind(temporary bool) string {
	if temporary {
		return "temporary"
	}
	return "permanent"
}
