package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/beadm/internal/app"
	"github.com/firefly-engineering/beadm/internal/audit"
	"github.com/firefly-engineering/beadm/internal/be"
	"github.com/firefly-engineering/beadm/internal/errors"
	"github.com/firefly-engineering/beadm/internal/tui"
)

var createCmd = &cobra.Command{
	Use:   "create [flags] <name>",
	Short: "Create a boot environment",
	Long: `Create a boot environment.

By default the new boot environment is a clone of the active one. Use
--source to clone another boot environment or one of its snapshots, or
--empty to create a boot environment with nothing in it.

Examples:
  beadm create upgrade
  beadm create -a -d "before kernel update" upgrade
  beadm create -e default@2024-03-01T12:30:00Z restored
  beadm create --empty --host-id 0x1a2b3c4d --use-os-release /etc/os-release fresh`,
	Args: func(cmd *cobra.Command, args []string) error {
		if createInteractive {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: runCreate,
}

var (
	createActivate    bool
	createTemporary   bool
	createDescription string
	createSource      string
	createProperties  []string
	createEmpty       bool
	createHostID      string
	createOSRelease   string
	createInteractive bool
)

func init() {
	createCmd.Flags().BoolVarP(&createActivate, "activate", "a", false, "Activate the new boot environment")
	createCmd.Flags().BoolVarP(&createTemporary, "temporary", "t", false, "Activate the new boot environment for the next boot only")
	createCmd.Flags().StringVarP(&createDescription, "description", "d", "", "Description of the new boot environment")
	createCmd.Flags().StringVarP(&createSource, "source", "e", "", "Clone this boot environment or snapshot (name or name@snapshot)")
	createCmd.Flags().StringArrayVarP(&createProperties, "property", "o", nil, "Set a dataset property (key=value, repeatable)")
	createCmd.Flags().BoolVar(&createEmpty, "empty", false, "Create an empty boot environment")
	createCmd.Flags().StringVar(&createHostID, "host-id", "", "Host id of an empty boot environment (hexadecimal)")
	createCmd.Flags().StringVar(&createOSRelease, "use-os-release", "", "Describe an empty boot environment with PRETTY_NAME from this os-release file")
	createCmd.Flags().BoolVarP(&createInteractive, "interactive", "i", false, "Create the boot environment with a wizard")
	createCmd.MarkFlagsMutuallyExclusive("activate", "temporary")
	createCmd.MarkFlagsMutuallyExclusive("source", "empty")
	createCmd.MarkFlagsMutuallyExclusive("description", "use-os-release")
	createCmd.MarkFlagsMutuallyExclusive("interactive", "empty")
	createCmd.MarkFlagsMutuallyExclusive("interactive", "source")
	rootCmd.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	if !createEmpty {
		if createHostID != "" {
			return errors.ValidationError("--host-id requires --empty")
		}
		if createOSRelease != "" {
			return errors.ValidationError("--use-os-release requires --empty")
		}
	}
	if createEmpty && (createActivate || createTemporary) {
		return errors.ValidationError("an empty boot environment cannot be activated")
	}
	if _, err := be.ParseProperties(createProperties); err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		if createEmpty {
			return createEmptyBE(ctx, cmd, a, args[0])
		}

		var name string
		opts := be.CreateOptions{
			Description: createDescription,
			Properties:  createProperties,
		}
		activate, temporary := createActivate, createTemporary

		if createInteractive {
			wizard, err := runCreateWizard(ctx, a)
			if err != nil || wizard == nil {
				return err
			}
			name = wizard.Name
			opts.Source = wizard.Source
			opts.Description = wizard.Description
			activate = activate || wizard.Activate
		} else {
			name = args[0]
			if createSource != "" {
				src, err := be.ParseLabel(createSource)
				if err != nil {
					return err
				}
				opts.Source = &src
			}
		}

		if err := a.Client.Create(ctx, name, opts); err != nil {
			return err
		}
		a.Record(audit.EventCreate, name, createDetails(opts))

		state := "inactive"
		if activate || temporary {
			if err := a.Client.Activate(ctx, name, temporary); err != nil {
				return err
			}
			state = "active"
			if temporary {
				state = "temporarily active"
			}
			a.Record(audit.EventActivate, name, activationKind(temporary))
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created %s boot environment '%s'.\n", state, name)
		return nil
	})
}

func createEmptyBE(ctx context.Context, cmd *cobra.Command, a *app.App, name string) error {
	opts := be.NewOptions{
		Description: createDescription,
		HostID:      createHostID,
		Properties:  createProperties,
	}
	if createOSRelease != "" {
		pretty, err := readPrettyName(createOSRelease)
		if err != nil {
			return err
		}
		opts.Description = pretty
	}

	if err := a.Client.New(ctx, name, opts); err != nil {
		return err
	}
	a.Record(audit.EventCreate, name, "empty")

	fmt.Fprintf(cmd.OutOrStdout(), "Created empty boot environment '%s'.\n", name)
	return nil
}

func createDetails(opts be.CreateOptions) string {
	var parts []string
	if opts.Source != nil {
		parts = append(parts, "source="+opts.Source.String())
	}
	if len(opts.Properties) > 0 {
		parts = append(parts, "properties="+strings.Join(opts.Properties, ","))
	}
	return strings.Join(parts, " ")
}

// runCreateWizard collects create options interactively. A nil result
// means the user cancelled.
func runCreateWizard(ctx context.Context, a *app.App) (*tui.CreateOptions, error) {
	if !isInteractive() {
		return nil, errors.ValidationError("--interactive requires a terminal")
	}

	bes, err := a.Client.BootEnvironments(ctx)
	if err != nil {
		return nil, err
	}
	var snaps []be.Snapshot
	for _, env := range bes {
		s, err := a.Client.Snapshots(ctx, env.Name)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, s...)
	}

	result, err := tui.RunCreateWizard(clientRoot(a), bes, snaps)
	if err != nil {
		return nil, fmt.Errorf("wizard failed: %w", err)
	}
	if result == nil {
		logInfo("Cancelled")
	}
	return result, nil
}
