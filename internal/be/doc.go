// Package be manages ZFS boot environments.
//
// A boot environment is a bootable root filesystem living as a direct child
// of a boot environment root such as "zroot/ROOT". The Client interface is
// the administration contract; three implementations are provided:
//
//   - LibZFSClient drives a real pool through the zfs, zpool and mount
//     programs (package libzfs).
//   - Emulator keeps everything in memory, for tests and demonstrations.
//   - ThreadSafeClient serializes calls to another Client and turns a panic
//     into a poisoned, permanently failing client.
//
// # Boot targets
//
// The pool's bootfs property names the next-boot target. A temporary
// activation records the permanent target in the pool user property
// ca.kamacite:previous-bootfs and points bootfs at the one-shot target.
// While that property is set, listings report the bootfs boot environment
// as boot-once and no boot environment as next-boot.
//
// # Usage
//
//	client, err := be.New(ctx, &be.Config{Type: be.ClientLibZFS})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	if err := client.Create(ctx, "upgrade", be.CreateOptions{}); err != nil {
//	    return err
//	}
//	return client.Activate(ctx, "upgrade", true)
package be
