// Package errors provides the typed error taxonomy for beadm.
//
// # Error Types
//
// BEError is the base error type. It carries a Kind used for matching, an
// exit code, the identifier the error concerns, and an optional cause:
//
//	type BEError struct {
//	    Kind    Kind   // Taxonomy member
//	    Code    int    // Exit code
//	    Name    string // BE name, path, or property
//	    Message string // User-facing message
//	    Cause   error  // Wrapped error
//	}
//
// # Exit Codes
//
//	ExitSuccess         = 0  // Success
//	ExitGeneralError    = 1  // General/unknown errors
//	ExitNotFound        = 2  // Boot environment or snapshot does not exist
//	ExitConflict        = 3  // Name already in use
//	ExitInvalidArgument = 4  // Invalid name, path, or property
//	ExitMountState      = 5  // Mounted / not mounted / mountpoint in use
//	ExitActive          = 6  // Refusing to destroy the active BE
//	ExitNativeError     = 7  // ZFS operation failed
//	ExitIOError         = 8  // I/O failure
//	ExitConfigError     = 9  // Configuration error
//
// # Matching
//
// Use IsKind to test for a taxonomy member anywhere in an error chain:
//
//	if errors.IsKind(err, errors.KindNotFound) {
//	    ...
//	}
//
// RPCCategory maps errors onto the coarse categories a remote façade reports.
package errors
