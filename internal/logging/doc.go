// Package logging provides logging utilities for beadm.
//
// Two kinds of output are kept apart:
//   - Debug logging: structured logs via slog, controlled by -v and --json
//   - User output: short status lines for the operator
//
// # Debug Logging
//
//	logging.Debug("zfs", "cmd", "zfs list -H -p zroot/ROOT")
//	logging.Warn("mount table unreadable", "path", path, "error", err)
//
// # User Output
//
//	logging.UserSuccess("Activated boot environment %s", name)
//	logging.UserWarning("%s is mounted at %s", name, mp)
//
// UserInfo and UserSuccess write to Stdout; UserWarning and UserError
// write to Stderr.
package logging
