// Package validation checks identifier syntax for boot environment names,
// dataset paths, and snapshot tags.
package validation

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/firefly-engineering/beadm/internal/errors"
)

// MaxNameLength is the longest dataset path ZFS accepts.
const MaxNameLength = 255

// ValidateComponent validates a single path segment. Dataset components must
// begin with an ASCII letter or digit; snapshot components may begin with any
// allowed character.
func ValidateComponent(name string, dataset bool) error {
	if reason := componentProblem(name, dataset); reason != "" {
		return errors.InvalidName(name, reason)
	}
	return nil
}

// ValidateDatasetName validates a slash-separated dataset path such as
// "zroot/ROOT/default". Failures are reported against the full path.
func ValidateDatasetName(path string) error {
	if reason := pathProblem(path); reason != "" {
		return errors.InvalidName(path, reason)
	}
	return nil
}

// ValidateBEName validates a boot environment name that will live under root.
func ValidateBEName(name, root string) error {
	if len(root)+len(name) > MaxNameLength {
		return errors.InvalidName(name, "name too long")
	}
	return ValidateComponent(name, true)
}

// ValidateSnapshotTag validates the part of a snapshot name after '@'.
func ValidateSnapshotTag(tag string) error {
	return ValidateComponent(tag, false)
}

// ValidatePoolName validates a bare pool name.
func ValidatePoolName(pool string) error {
	if strings.ContainsAny(pool, "/@") {
		return errors.InvalidName(pool, "pool name cannot contain '/' or '@'")
	}
	return ValidateComponent(pool, true)
}

// ValidateDescription rejects descriptions that cannot round-trip through a
// ZFS user property: a lone "-" reads back as unset, and control characters
// break the tab-separated output of zfs list.
func ValidateDescription(desc string) error {
	if desc == "-" {
		return errors.InvalidProp("description", desc)
	}
	if strings.IndexFunc(desc, unicode.IsControl) >= 0 {
		return errors.InvalidProp("description", desc)
	}
	return nil
}

func componentProblem(name string, dataset bool) string {
	if name == "" {
		return "name cannot be empty"
	}
	if len(name) > MaxNameLength {
		return "name too long"
	}
	if first, _ := utf8.DecodeRuneInString(name); dataset && !isAlnum(first) {
		return fmt.Sprintf("name cannot begin with '%c'", first)
	}
	// FreeBSD breaks on boot environments containing spaces, so they are
	// rejected along with everything else outside [A-Za-z0-9._:-].
	for _, c := range name {
		if !isAlnum(c) && !strings.ContainsRune(".-_:", c) {
			return fmt.Sprintf("invalid character '%c' in name", c)
		}
	}
	return ""
}

func pathProblem(path string) string {
	switch {
	case path == "":
		return "name cannot be empty"
	case len(path) > MaxNameLength:
		return "name too long"
	case strings.HasPrefix(path, "/"):
		return "leading separator"
	case strings.HasSuffix(path, "/"):
		return "trailing separator"
	}
	for _, part := range strings.Split(path, "/") {
		if part == "" {
			return "empty component"
		}
		if reason := componentProblem(part, true); reason != "" {
			return reason
		}
	}
	return ""
}

func isAlnum(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
