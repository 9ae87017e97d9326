package errors

import (
	"errors"
	"fmt"
)

// Exit codes for beadm
const (
	ExitSuccess         = 0
	ExitGeneralError    = 1
	ExitNotFound        = 2
	ExitConflict        = 3
	ExitInvalidArgument = 4
	ExitMountState      = 5
	ExitActive          = 6
	ExitNativeError     = 7
	ExitIOError         = 8
	ExitConfigError     = 9
)

// Kind classifies a BEError.
type Kind int

const (
	KindGeneral Kind = iota
	KindNotFound
	KindConflict
	KindInvalidName
	KindInvalidPath
	KindInvalidProp
	KindMountPointInUse
	KindMounted
	KindNotMounted
	KindCannotDestroyActive
	KindHasSnapshots
	KindUnmountFailed
	KindNoActiveBootEnvironment
	KindInvalidRoot
	KindNative
	KindIO
	KindInternal
	KindUnsupported
	KindConfig
)

var kindNames = map[Kind]string{
	KindGeneral:                 "general",
	KindNotFound:                "not-found",
	KindConflict:                "conflict",
	KindInvalidName:             "invalid-name",
	KindInvalidPath:             "invalid-path",
	KindInvalidProp:             "invalid-prop",
	KindMountPointInUse:         "mountpoint-in-use",
	KindMounted:                 "mounted",
	KindNotMounted:              "not-mounted",
	KindCannotDestroyActive:     "cannot-destroy-active",
	KindHasSnapshots:            "has-snapshots",
	KindUnmountFailed:           "unmount-failed",
	KindNoActiveBootEnvironment: "no-active-boot-environment",
	KindInvalidRoot:             "invalid-root",
	KindNative:                  "native",
	KindIO:                      "io",
	KindInternal:                "internal",
	KindUnsupported:             "unsupported",
	KindConfig:                  "config",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// BEError is the base error type for beadm
type BEError struct {
	Kind    Kind
	Code    int
	Name    string // identifier the error is about (BE name, path, property)
	Message string
	Cause   error
}

func (e *BEError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *BEError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the exit code for this error
func (e *BEError) ExitCode() int {
	return e.Code
}

// New creates a new BEError
func New(kind Kind, code int, name, message string) *BEError {
	return &BEError{
		Kind:    kind,
		Code:    code,
		Name:    name,
		Message: message,
	}
}

// Wrap wraps an existing error with a BEError
func Wrap(kind Kind, code int, name, message string, cause error) *BEError {
	return &BEError{
		Kind:    kind,
		Code:    code,
		Name:    name,
		Message: message,
		Cause:   cause,
	}
}

// NotFound returns an error for a missing boot environment or snapshot
func NotFound(name string) *BEError {
	return New(KindNotFound, ExitNotFound, name, fmt.Sprintf("boot environment '%s' not found", name))
}

// Conflict returns an error for a name that is already taken
func Conflict(name string) *BEError {
	return New(KindConflict, ExitConflict, name, fmt.Sprintf("boot environment '%s' already exists", name))
}

// InvalidName returns an error for an identifier that fails validation
func InvalidName(name, reason string) *BEError {
	return New(KindInvalidName, ExitInvalidArgument, name, fmt.Sprintf("invalid boot environment name '%s': %s", name, reason))
}

// InvalidPath returns an error for an unusable filesystem path
func InvalidPath(path string) *BEError {
	return New(KindInvalidPath, ExitInvalidArgument, path, fmt.Sprintf("invalid path: '%s'", path))
}

// InvalidProp returns an error for a malformed or rejected property
func InvalidProp(name, value string) *BEError {
	return New(KindInvalidProp, ExitInvalidArgument, name, fmt.Sprintf("invalid property '%s=%s'", name, value))
}

// MountPointInUse returns an error when another boot environment occupies path
func MountPointInUse(path string) *BEError {
	return New(KindMountPointInUse, ExitMountState, path, fmt.Sprintf("mount point '%s' is already in use", path))
}

// Mounted returns an error for a boot environment that is currently mounted
func Mounted(name, mountpoint string) *BEError {
	return New(KindMounted, ExitMountState, name,
		fmt.Sprintf("boot environment '%s' is currently mounted at '%s'", name, mountpoint))
}

// NotMounted returns an error for an operation that needs a mounted boot environment
func NotMounted(name string) *BEError {
	return New(KindNotMounted, ExitMountState, name,
		fmt.Sprintf("boot environment '%s' must be mounted to access its contents", name))
}

// CannotDestroyActive returns an error when destroying a protected boot environment
func CannotDestroyActive(name string) *BEError {
	return New(KindCannotDestroyActive, ExitActive, name, fmt.Sprintf("cannot destroy active boot environment '%s'", name))
}

// HasSnapshots returns an error when a boot environment still has snapshots
func HasSnapshots(name string) *BEError {
	return New(KindHasSnapshots, ExitConflict, name,
		fmt.Sprintf("boot environment '%s' has snapshots and cannot be destroyed", name))
}

// UnmountFailed returns an error when the native unmount fails
func UnmountFailed(name string, cause error) *BEError {
	return Wrap(KindUnmountFailed, ExitMountState, name, fmt.Sprintf("failed to unmount '%s'", name), cause)
}

// NoActiveBootEnvironment returns an error when the root filesystem is not a boot environment
func NoActiveBootEnvironment() *BEError {
	return New(KindNoActiveBootEnvironment, ExitNotFound, "", "the root filesystem is not a ZFS boot environment")
}

// InvalidRoot returns an error for an unusable boot environment root
func InvalidRoot(name string) *BEError {
	return New(KindInvalidRoot, ExitInvalidArgument, name, fmt.Sprintf("invalid boot environment root: '%s'", name))
}

// Native wraps a failure reported by the native dataset library
func Native(cause error) *BEError {
	return Wrap(KindNative, ExitNativeError, "", "zfs operation failed", cause)
}

// IO wraps an I/O failure
func IO(cause error) *BEError {
	return Wrap(KindIO, ExitIOError, "", "I/O error", cause)
}

// Internal returns an error for internal failures such as a poisoned lock
func Internal(message string) *BEError {
	return New(KindInternal, ExitGeneralError, "", message)
}

// Unsupported returns an error for an operation a backend does not implement
func Unsupported(op string) *BEError {
	return New(KindUnsupported, ExitGeneralError, op, fmt.Sprintf("%s is not supported by this client", op))
}

// ConfigError returns an error for configuration issues
func ConfigError(message string, cause error) *BEError {
	return Wrap(KindConfig, ExitConfigError, "", message, cause)
}

// ValidationError returns an error for command-line input validation failures
func ValidationError(message string) *BEError {
	return New(KindGeneral, ExitInvalidArgument, "", message)
}

// GetExitCode extracts the exit code from an error
func GetExitCode(err error) int {
	var beErr *BEError
	if errors.As(err, &beErr) {
		return beErr.ExitCode()
	}
	return ExitGeneralError
}

// KindOf returns the Kind of the first BEError in err's chain, or KindGeneral.
func KindOf(err error) Kind {
	var beErr *BEError
	if errors.As(err, &beErr) {
		return beErr.Kind
	}
	return KindGeneral
}

// IsKind reports whether err's chain contains a BEError of the given kind.
func IsKind(err error, kind Kind) bool {
	var beErr *BEError
	return errors.As(err, &beErr) && beErr.Kind == kind
}

// RPC error categories for remote façades.
const (
	RPCUnknownObject = "UnknownObject"
	RPCInvalidArgs   = "InvalidArgs"
	RPCFailed        = "Failed"
)

// RPCCategory maps an error to the category a remote façade reports.
func RPCCategory(err error) string {
	switch KindOf(err) {
	case KindNotFound:
		return RPCUnknownObject
	case KindInvalidName, KindInvalidPath, KindInvalidProp, KindInvalidRoot:
		return RPCInvalidArgs
	default:
		return RPCFailed
	}
}

// Is checks if an error is of a specific type
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target any) bool {
	return errors.As(err, target)
}
