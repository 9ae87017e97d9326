// Package libzfs wraps the OpenZFS userland behind handle types modelled on
// libzfs: a library session (Handle), dataset handles (Dataset) and pool
// handles (Pool).
//
// # Handle Lifetime
//
// A Handle is created with Init and released once with Close. Datasets and
// pools opened through it are owned by the caller and must be closed exactly
// once; the Handle counts them so leaks show up in tests:
//
//	h, _ := libzfs.Init()
//	defer h.Close()
//
//	ds, err := libzfs.Open(ctx, h, name, libzfs.TypeFilesystem)
//	if err != nil {
//	    return err
//	}
//	defer ds.Close()
//
// # Iteration
//
// IterChildren and IterSnapshots call fn once per child with a borrowed
// Dataset. Borrowed handles are owned by the iteration: Close on them is a
// no-op and they stop working once fn returns, so callers copy out what they
// need inside fn. Iterations do not nest.
//
// # Errors
//
// Failures from the zfs, zpool and mount commands are returned as *Error,
// carrying an Errno classified from the command's diagnostic text.
package libzfs
