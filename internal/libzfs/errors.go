package libzfs

import (
	"errors"
	"fmt"
	"strings"
)

// Errno classifies a failed library call.
type Errno int

const (
	ErrnoUnknown Errno = iota
	ErrnoNoEnt
	ErrnoExists
	ErrnoBusy
)

func (e Errno) String() string {
	switch e {
	case ErrnoNoEnt:
		return "ENOENT"
	case ErrnoExists:
		return "EEXIST"
	case ErrnoBusy:
		return "EBUSY"
	default:
		return "EUNKNOWN"
	}
}

var (
	// ErrClosed is returned when a closed Handle, Dataset or Pool is used.
	ErrClosed = errors.New("libzfs: handle is closed")

	// ErrInvalidated is returned when a borrowed Dataset is used after its
	// iteration callback has returned.
	ErrInvalidated = errors.New("libzfs: borrowed dataset used outside its callback")

	// ErrReentrant is returned when an iteration is started from inside
	// another iteration callback.
	ErrReentrant = errors.New("libzfs: nested dataset iteration")
)

// Error is a failure reported by the zfs userland.
type Error struct {
	Errno       Errno
	Op          string // e.g. "zfs destroy"
	Description string // first line of the command's diagnostics
	Cause       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Description)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsNotExist reports whether err is a libzfs ENOENT failure.
func IsNotExist(err error) bool {
	return errnoOf(err) == ErrnoNoEnt
}

// IsExist reports whether err is a libzfs EEXIST failure.
func IsExist(err error) bool {
	return errnoOf(err) == ErrnoExists
}

// IsBusy reports whether err is a libzfs EBUSY failure.
func IsBusy(err error) bool {
	return errnoOf(err) == ErrnoBusy
}

func errnoOf(err error) Errno {
	var zerr *Error
	if errors.As(err, &zerr) {
		return zerr.Errno
	}
	return ErrnoUnknown
}

// newError builds an Error from a failed command and its output.
func newError(op string, output []byte, cause error) *Error {
	desc := firstLine(string(output))
	if desc == "" && cause != nil {
		desc = cause.Error()
	}
	return &Error{
		Errno:       classify(desc),
		Op:          op,
		Description: desc,
		Cause:       cause,
	}
}

func classify(desc string) Errno {
	lower := strings.ToLower(desc)
	switch {
	case strings.Contains(lower, "does not exist"),
		strings.Contains(lower, "no such pool"),
		strings.Contains(lower, "no such file or directory"):
		return ErrnoNoEnt
	case strings.Contains(lower, "already exists"):
		return ErrnoExists
	case strings.Contains(lower, "busy"):
		return ErrnoBusy
	}
	return ErrnoUnknown
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
