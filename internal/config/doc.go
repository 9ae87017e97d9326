// Package config loads the beadm configuration file.
//
// # Configuration File
//
// The file is TOML, read from /etc/beadm/config.toml unless --config or
// $BEADM_CONFIG names another location. A missing file means defaults:
//
//	root = "zroot/ROOT"      # boot environment root, detected when empty
//	client = "libzfs"        # or "mock"
//	thread_safe = false
//	state_dir = "/var/lib/beadm"
//
//	[zfs]
//	zfs = "zfs"
//	zpool = "zpool"
//	mount = "mount"
//	mount_table = "/proc/self/mounts"
//	temp_dir = "/tmp"
//
// # Validation
//
// Load validates after parsing. Unknown keys are rejected so that typos do
// not silently fall back to defaults.
package config
