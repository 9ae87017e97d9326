// Package dataset provides a validated ZFS dataset name type.
//
// A Name is always syntactically legal: every component is checked once
// when the value is built, so code handing a Name to the zfs userland never
// re-validates it.
package dataset

import (
	"fmt"
	"strings"
	"time"

	"github.com/firefly-engineering/beadm/internal/errors"
	"github.com/firefly-engineering/beadm/internal/validation"
)

// SnapshotTimeFormat renders automatic snapshot tags.
const SnapshotTimeFormat = "2006-01-02T15:04:05Z"

// Name is a validated filesystem ("pool/ROOT/be") or snapshot
// ("pool/ROOT/be@tag") dataset name. The zero value is invalid.
type Name struct {
	s string
}

// New validates path and returns it as a Name.
func New(path string) (Name, error) {
	fs, tag, isSnap := strings.Cut(path, "@")
	if err := validation.ValidateDatasetName(fs); err != nil {
		return Name{}, err
	}
	if isSnap {
		if strings.Contains(tag, "@") {
			return Name{}, errors.InvalidName(path, "multiple '@' separators")
		}
		if err := validation.ValidateSnapshotTag(tag); err != nil {
			return Name{}, errors.InvalidName(path, "invalid snapshot tag")
		}
	}
	return Name{s: path}, nil
}

// MustNew is New for constant names; it panics on invalid input.
func MustNew(path string) Name {
	n, err := New(path)
	if err != nil {
		panic(err)
	}
	return n
}

// String returns the full dataset path.
func (n Name) String() string {
	return n.s
}

// IsZero reports whether n is the zero value.
func (n Name) IsZero() bool {
	return n.s == ""
}

// IsSnapshot reports whether n names a snapshot.
func (n Name) IsSnapshot() bool {
	return strings.Contains(n.s, "@")
}

// Append returns n/child. child must be a valid dataset component.
func (n Name) Append(child string) (Name, error) {
	if n.IsSnapshot() {
		return Name{}, errors.InvalidName(n.s, "cannot append to a snapshot name")
	}
	if err := validation.ValidateComponent(child, true); err != nil {
		return Name{}, err
	}
	full := n.s + "/" + child
	if len(full) > validation.MaxNameLength {
		return Name{}, errors.InvalidName(child, "name too long")
	}
	return Name{s: full}, nil
}

// Snapshot returns n@tag. tag must be a valid snapshot component.
func (n Name) Snapshot(tag string) (Name, error) {
	if n.IsSnapshot() {
		return Name{}, errors.InvalidName(n.s, "already a snapshot name")
	}
	if err := validation.ValidateSnapshotTag(tag); err != nil {
		return Name{}, err
	}
	full := n.s + "@" + tag
	if len(full) > validation.MaxNameLength {
		return Name{}, errors.InvalidName(tag, "name too long")
	}
	return Name{s: full}, nil
}

// GenerateSnapshot returns a snapshot of n tagged with the UTC timestamp now.
func (n Name) GenerateSnapshot(now time.Time) (Name, error) {
	return n.Snapshot(SnapshotTag(now))
}

// Filesystem returns the filesystem part of a snapshot name, or n itself.
func (n Name) Filesystem() Name {
	fs, _, _ := strings.Cut(n.s, "@")
	return Name{s: fs}
}

// Tag returns the snapshot tag, or "" for a filesystem name.
func (n Name) Tag() string {
	_, tag, _ := strings.Cut(n.s, "@")
	return tag
}

// Pool returns the first component.
func (n Name) Pool() string {
	pool, _, _ := strings.Cut(n.Filesystem().s, "/")
	return pool
}

// Parent returns the parent filesystem. ok is false for a pool root.
func (n Name) Parent() (Name, bool) {
	fs := n.Filesystem().s
	i := strings.LastIndexByte(fs, '/')
	if i < 0 {
		return Name{}, false
	}
	return Name{s: fs[:i]}, true
}

// Basename returns the last component of the filesystem part.
func (n Name) Basename() string {
	fs := n.Filesystem().s
	return fs[strings.LastIndexByte(fs, '/')+1:]
}

// IsChildOf reports whether n is a direct child filesystem of parent.
func (n Name) IsChildOf(parent Name) bool {
	p, ok := n.Parent()
	return ok && !n.IsSnapshot() && p.s == parent.s
}

// RelativeTo strips the "parent/" prefix from n.
func (n Name) RelativeTo(parent Name) (string, error) {
	prefix := parent.s + "/"
	if !strings.HasPrefix(n.s, prefix) {
		return "", fmt.Errorf("%s is not under %s", n.s, parent.s)
	}
	return strings.TrimPrefix(n.s, prefix), nil
}

// SnapshotTag renders t as an automatic snapshot tag in UTC.
func SnapshotTag(t time.Time) string {
	return t.UTC().Format(SnapshotTimeFormat)
}
