// Package tui provides terminal user interface components for beadm.
//
// This package uses the Bubble Tea framework for the interactive parts of
// the command line: choosing a boot environment to activate, creating one
// step by step, and confirming destructive operations.
//
// # Boot Environment Picker
//
// The picker lists boot environments with their flags (N next boot,
// R running now, T boot once), mountpoint and description:
//
//	result, err := tui.RunPicker(bes)
//	switch result.Action {
//	case tui.ActionActivate:
//	    // Activate result.BE permanently
//	case tui.ActionActivateTemporary:
//	    // Activate result.BE for the next boot only
//	case tui.ActionQuit:
//	    // Exit
//	}
//
// # Creation Wizard
//
// RunCreateWizard walks through name, clone source, description and
// confirmation, and returns the collected CreateOptions, or nil when the
// user cancels. Names are checked as they are typed.
//
// # Confirmation
//
// Confirm asks a yes/no question and treats anything but y as no.
package tui
