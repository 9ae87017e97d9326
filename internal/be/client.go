package be

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/firefly-engineering/beadm/internal/dataset"
	"github.com/firefly-engineering/beadm/internal/errors"
	"github.com/firefly-engineering/beadm/internal/validation"
)

// BootEnvironment describes one boot environment.
type BootEnvironment struct {
	Name        string // e.g. "default"
	Path        string // full dataset path, e.g. "zroot/ROOT/default"
	GUID        uint64
	Description string // "" when unset
	Mountpoint  string // "" when not mounted
	Active      bool   // currently booted
	NextBoot    bool   // permanent boot target
	BootOnce    bool   // temporary boot target for the next boot only
	Space       uint64 // bytes
	Created     int64  // seconds since the epoch
}

// Mounted reports whether the boot environment is mounted anywhere.
func (b BootEnvironment) Mounted() bool {
	return b.Mountpoint != ""
}

// Snapshot describes one snapshot of a boot environment.
type Snapshot struct {
	Name        string // "be@tag"
	Path        string // "pool/ROOT/be@tag"
	Description string
	Space       uint64
	Created     int64
}

// Label names either a boot environment or one of its snapshots.
type Label struct {
	Name     string
	Snapshot string // "" for a plain boot environment
}

// ParseLabel parses "name" or "name@snapshot". Only the overall shape is
// checked here; components are validated by the operation using the label.
func ParseLabel(s string) (Label, error) {
	name, snap, isSnap := strings.Cut(s, "@")
	if name == "" {
		return Label{}, errors.InvalidName(s, "boot environment name cannot be empty")
	}
	if !isSnap {
		return Label{Name: name}, nil
	}
	if strings.Contains(snap, "@") {
		return Label{}, errors.InvalidName(s, "too many '@' characters")
	}
	if snap == "" {
		return Label{}, errors.InvalidName(s, "snapshot name cannot be empty")
	}
	return Label{Name: name, Snapshot: snap}, nil
}

// IsSnapshot reports whether the label names a snapshot.
func (l Label) IsSnapshot() bool {
	return l.Snapshot != ""
}

func (l Label) String() string {
	if l.Snapshot == "" {
		return l.Name
	}
	return l.Name + "@" + l.Snapshot
}

func (l Label) validate(root string) error {
	if err := validation.ValidateBEName(l.Name, root); err != nil {
		return err
	}
	if l.Snapshot != "" {
		return validation.ValidateSnapshotTag(l.Snapshot)
	}
	return nil
}

// MountMode selects read-write or read-only mounts.
type MountMode int

const (
	MountReadWrite MountMode = iota
	MountReadOnly
)

func (m MountMode) String() string {
	if m == MountReadOnly {
		return "ro"
	}
	return "rw"
}

// ParseMountMode parses "rw" or "ro".
func ParseMountMode(s string) (MountMode, error) {
	switch s {
	case "rw", "":
		return MountReadWrite, nil
	case "ro":
		return MountReadOnly, nil
	}
	return MountReadWrite, errors.InvalidProp("mode", s)
}

// CreateOptions holds options for Create.
type CreateOptions struct {
	Description string
	Source      *Label   // nil clones the active boot environment
	Properties  []string // "key=value"
}

// NewOptions holds options for New.
type NewOptions struct {
	Description string
	HostID      string   // hexadecimal, optional
	Properties  []string // "key=value"
}

// DestroyOptions holds options for Destroy.
type DestroyOptions struct {
	ForceUnmount  bool // unmount a mounted boot environment first
	ForceNoVerify bool // confirmation was skipped by the caller
	Snapshots     bool // also destroy the boot environment's snapshots
}

// Client is the boot environment administration interface. Implementations
// must keep the collection invariants after every call: unique names and
// mountpoints, at most one next-boot and one boot-once target (never both),
// and the active boot environment is never destroyed.
type Client interface {
	// Create clones a new boot environment from a snapshot, from a fresh
	// snapshot of another boot environment, or from the active one.
	Create(ctx context.Context, name string, opts CreateOptions) error

	// New creates an empty boot environment.
	New(ctx context.Context, name string, opts NewOptions) error

	// Destroy removes a boot environment or a snapshot.
	Destroy(ctx context.Context, target Label, opts DestroyOptions) error

	// Mount mounts a boot environment and returns the mountpoint used. An
	// empty path mounts at a fresh temporary directory.
	Mount(ctx context.Context, name, path string, mode MountMode) (string, error)

	// Unmount unmounts a boot environment named by its name or mountpoint
	// and returns the mountpoint it had, or "" if it was not mounted.
	Unmount(ctx context.Context, target string, force bool) (string, error)

	// Hostid reads the host id of a mounted boot environment. ok is false
	// when none is recorded.
	Hostid(ctx context.Context, name string) (hostid uint32, ok bool, err error)

	// Rename renames a boot environment.
	Rename(ctx context.Context, name, newName string) error

	// Activate makes name the next-boot target, or with temporary the
	// boot-once target.
	Activate(ctx context.Context, name string, temporary bool) error

	// Deactivate clears a pending boot-once on name.
	Deactivate(ctx context.Context, name string) error

	// ClearBootOnce undoes any pending temporary activation.
	ClearBootOnce(ctx context.Context) error

	// Rollback reverts a boot environment to one of its snapshots. snapshot
	// is either a tag or "name@tag".
	Rollback(ctx context.Context, name, snapshot string) error

	// BootEnvironments lists every boot environment under the root.
	BootEnvironments(ctx context.Context) ([]BootEnvironment, error)

	// Snapshots lists the snapshots of one boot environment, oldest first.
	Snapshots(ctx context.Context, name string) ([]Snapshot, error)

	// Snapshot takes a snapshot and returns its "be@tag" name. A nil source
	// snapshots the active boot environment; a source without a snapshot
	// part gets a generated tag.
	Snapshot(ctx context.Context, source *Label, description string) (string, error)

	// Init prepares a pool for boot environments.
	Init(ctx context.Context, pool string) error

	// Describe sets the description of a boot environment or snapshot.
	Describe(ctx context.Context, target Label, description string) error

	// Close releases any resources held by the client.
	Close() error
}

// SnapshotTag renders an automatic snapshot tag for now.
func SnapshotTag(now time.Time) string {
	return dataset.SnapshotTag(now)
}

// ParseProperties splits "key=value" strings. Keys and values must be
// non-empty.
func ParseProperties(props []string) (map[string]string, error) {
	out := make(map[string]string, len(props))
	for _, p := range props {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			return nil, errors.InvalidProp(p, "")
		}
		if k == "" || v == "" {
			return nil, errors.InvalidProp(k, v)
		}
		out[k] = v
	}
	return out, nil
}

// ParseHostID parses a hexadecimal host id with an optional 0x prefix.
func ParseHostID(s string) (uint32, error) {
	t := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	id, err := strconv.ParseUint(t, 16, 32)
	if err != nil {
		return 0, errors.InvalidProp("hostid", s)
	}
	return uint32(id), nil
}

// FormatHostID renders a host id the way ParseHostID reads it.
func FormatHostID(id uint32) string {
	return fmt.Sprintf("0x%08x", id)
}
