package libzfs

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/firefly-engineering/beadm/internal/dataset"
)

// Type selects the kind of dataset to open.
type Type int

const (
	TypeFilesystem Type = iota
	TypeSnapshot
)

func (t Type) String() string {
	if t == TypeSnapshot {
		return "snapshot"
	}
	return "filesystem"
}

// Ownership records who releases a dataset handle.
type Ownership int

const (
	// Owned handles come from Open and must be closed by the caller.
	Owned Ownership = iota
	// Borrowed handles are lent to an iteration callback.
	Borrowed
)

// Native properties fetched for every dataset.
var nativeColumns = []string{"name", "guid", "used", "creation", "mountpoint", "canmount"}

// Dataset is a handle on one filesystem or snapshot.
type Dataset struct {
	h         *Handle
	name      dataset.Name
	typ       Type
	ownership Ownership
	props     map[string]string
	valid     bool
}

// RenameFlags controls Rename.
type RenameFlags struct {
	NoUnmount    bool // leave mounts in place
	ForceUnmount bool
}

// DestroyFlags controls Destroy.
type DestroyFlags struct {
	Recursive    bool // also destroy snapshots and children
	ForceUnmount bool
}

// Open returns an owned handle on name.
func Open(ctx context.Context, h *Handle, name dataset.Name, typ Type) (*Dataset, error) {
	if name.IsSnapshot() != (typ == TypeSnapshot) {
		return nil, &Error{
			Errno:       ErrnoNoEnt,
			Op:          "zfs open",
			Description: fmt.Sprintf("cannot open '%s': not a %s", name, typ),
		}
	}

	rows, err := h.list(ctx, typ, false, name)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &Error{
			Errno:       ErrnoNoEnt,
			Op:          "zfs open",
			Description: fmt.Sprintf("cannot open '%s': dataset does not exist", name),
		}
	}

	if err := h.acquire(); err != nil {
		return nil, err
	}
	return &Dataset{h: h, name: name, typ: typ, ownership: Owned, props: rows[0], valid: true}, nil
}

// Create creates a filesystem with the given properties.
func Create(ctx context.Context, h *Handle, name dataset.Name, props map[string]string) error {
	args := append([]string{"create"}, propertyArgs(props)...)
	_, err := h.zfs(ctx, append(args, name.String())...)
	return err
}

// CreateSnapshot creates a snapshot with the given properties.
func CreateSnapshot(ctx context.Context, h *Handle, name dataset.Name, props map[string]string) error {
	if !name.IsSnapshot() {
		return fmt.Errorf("libzfs: %s is not a snapshot name", name)
	}
	args := append([]string{"snapshot"}, propertyArgs(props)...)
	_, err := h.zfs(ctx, append(args, name.String())...)
	return err
}

// Close releases an owned handle. Closing a borrowed handle does nothing;
// closing an owned handle twice returns ErrClosed.
func (d *Dataset) Close() error {
	if d.ownership == Borrowed {
		return nil
	}
	if !d.valid {
		return ErrClosed
	}
	d.valid = false
	d.h.release()
	return nil
}

// Ownership returns whether the handle is owned or borrowed.
func (d *Dataset) Ownership() Ownership {
	return d.ownership
}

func (d *Dataset) check() error {
	if d.valid {
		return nil
	}
	if d.ownership == Borrowed {
		return ErrInvalidated
	}
	return ErrClosed
}

// Name returns the dataset name.
func (d *Dataset) Name() dataset.Name {
	return d.name
}

// Type returns the dataset type.
func (d *Dataset) Type() Type {
	return d.typ
}

// Mountpoint returns where the dataset is currently mounted, or "" when it
// is not mounted. It reads the live mount table, not the mountpoint property.
func (d *Dataset) Mountpoint() (string, error) {
	if err := d.check(); err != nil {
		return "", err
	}
	mounts, err := d.h.Mounts()
	if err != nil {
		return "", err
	}
	for _, m := range mounts {
		if m.FSType == "zfs" && m.Source == d.name.String() {
			return m.Target, nil
		}
	}
	return "", nil
}

// MountpointProperty returns the mountpoint property.
func (d *Dataset) MountpointProperty() string {
	return d.cached("mountpoint")
}

// CanMount returns the canmount property.
func (d *Dataset) CanMount() string {
	return d.cached("canmount")
}

// UsedSpace returns the used property in bytes, or 0 when unreadable.
func (d *Dataset) UsedSpace() uint64 {
	v, _ := strconv.ParseUint(d.cached("used"), 10, 64)
	return v
}

// CreationTime returns the creation property in seconds since the epoch, or
// 0 when unreadable.
func (d *Dataset) CreationTime() int64 {
	v, _ := strconv.ParseInt(d.cached("creation"), 10, 64)
	return v
}

// GUID returns the guid property, or 0 when unreadable.
func (d *Dataset) GUID() uint64 {
	v, _ := strconv.ParseUint(d.cached("guid"), 10, 64)
	return v
}

// UserProperty returns a user property and whether it is set. Properties
// registered with WithUserProperties are served from the values read at
// open time.
func (d *Dataset) UserProperty(ctx context.Context, key string) (string, bool, error) {
	if err := d.check(); err != nil {
		return "", false, err
	}
	if v, ok := d.props[key]; ok {
		return v, v != "", nil
	}
	out, err := d.h.zfs(ctx, "get", "-H", "-p", "-o", "value", key, d.name.String())
	if err != nil {
		return "", false, err
	}
	v := unsetDash(strings.TrimSpace(string(out)))
	return v, v != "", nil
}

// SetProperty sets a property on the dataset.
func (d *Dataset) SetProperty(ctx context.Context, key, value string) error {
	if err := d.check(); err != nil {
		return err
	}
	if _, err := d.h.zfs(ctx, "set", key+"="+value, d.name.String()); err != nil {
		return err
	}
	d.props[key] = value
	return nil
}

// InheritProperty clears a locally set property.
func (d *Dataset) InheritProperty(ctx context.Context, key string) error {
	if err := d.check(); err != nil {
		return err
	}
	if _, err := d.h.zfs(ctx, "inherit", key, d.name.String()); err != nil {
		return err
	}
	if _, ok := d.props[key]; ok {
		d.props[key] = ""
	}
	return nil
}

// Rename renames the dataset. On success the handle refers to newName.
func (d *Dataset) Rename(ctx context.Context, newName dataset.Name, flags RenameFlags) error {
	if err := d.check(); err != nil {
		return err
	}
	args := []string{"rename"}
	if flags.NoUnmount {
		args = append(args, "-u")
	}
	if flags.ForceUnmount {
		args = append(args, "-f")
	}
	if _, err := d.h.zfs(ctx, append(args, d.name.String(), newName.String())...); err != nil {
		return err
	}
	d.name = newName
	d.props["name"] = newName.String()
	return nil
}

// Destroy destroys the dataset. The handle must still be closed.
func (d *Dataset) Destroy(ctx context.Context, flags DestroyFlags) error {
	if err := d.check(); err != nil {
		return err
	}
	args := []string{"destroy"}
	if flags.Recursive {
		args = append(args, "-r")
	}
	if flags.ForceUnmount {
		args = append(args, "-f")
	}
	_, err := d.h.zfs(ctx, append(args, d.name.String())...)
	return err
}

// MountAt mounts the filesystem at path, ignoring its mountpoint property.
func (d *Dataset) MountAt(ctx context.Context, path string, readOnly bool) error {
	if err := d.check(); err != nil {
		return err
	}
	opts := "zfsutil"
	if readOnly {
		opts += ",ro"
	}
	_, err := d.h.run(ctx, d.h.mountBin, "-t", "zfs", "-o", opts, d.name.String(), path)
	return err
}

// Unmount unmounts the filesystem.
func (d *Dataset) Unmount(ctx context.Context, force bool) error {
	if err := d.check(); err != nil {
		return err
	}
	args := []string{"unmount"}
	if force {
		args = append(args, "-f")
	}
	_, err := d.h.zfs(ctx, append(args, d.name.String())...)
	return err
}

// RollbackTo reverts the filesystem to snap, which must be its most recent
// snapshot.
func (d *Dataset) RollbackTo(ctx context.Context, snap *Dataset) error {
	if err := d.check(); err != nil {
		return err
	}
	if err := snap.check(); err != nil {
		return err
	}
	if snap.typ != TypeSnapshot || snap.name.Filesystem() != d.name {
		return fmt.Errorf("libzfs: %s is not a snapshot of %s", snap.name, d.name)
	}
	_, err := d.h.zfs(ctx, "rollback", snap.name.String())
	return err
}

// Clone creates a filesystem from this snapshot.
func (d *Dataset) Clone(ctx context.Context, target dataset.Name, props map[string]string) error {
	if err := d.check(); err != nil {
		return err
	}
	if d.typ != TypeSnapshot {
		return fmt.Errorf("libzfs: cannot clone filesystem %s", d.name)
	}
	args := append([]string{"clone"}, propertyArgs(props)...)
	_, err := d.h.zfs(ctx, append(args, d.name.String(), target.String())...)
	return err
}

// IterChildren calls fn with a borrowed handle for each direct child
// filesystem. Iteration stops at the first error fn returns.
func (d *Dataset) IterChildren(ctx context.Context, fn func(*Dataset) error) error {
	return d.iterate(ctx, TypeFilesystem, fn)
}

// IterSnapshots calls fn with a borrowed handle for each snapshot, oldest
// first. Iteration stops at the first error fn returns.
func (d *Dataset) IterSnapshots(ctx context.Context, fn func(*Dataset) error) error {
	return d.iterate(ctx, TypeSnapshot, fn)
}

func (d *Dataset) iterate(ctx context.Context, typ Type, fn func(*Dataset) error) error {
	if err := d.check(); err != nil {
		return err
	}
	if err := d.h.beginIteration(); err != nil {
		return err
	}
	defer d.h.endIteration()

	rows, err := d.h.list(ctx, typ, true, d.name)
	if err != nil {
		return err
	}
	for _, row := range rows {
		name, err := dataset.New(row["name"])
		if err != nil || name == d.name {
			continue
		}
		child := &Dataset{h: d.h, name: name, typ: typ, ownership: Borrowed, props: row, valid: true}
		err = fn(child)
		child.valid = false
		if err != nil {
			return err
		}
	}
	return nil
}

func (d *Dataset) cached(key string) string {
	if d.check() != nil {
		return ""
	}
	return d.props[key]
}

// list runs zfs list for name (depth 0) or its direct children (depth 1)
// and returns one property map per row.
func (h *Handle) list(ctx context.Context, typ Type, children bool, name dataset.Name) ([]map[string]string, error) {
	columns := append(append([]string(nil), nativeColumns...), h.userProps...)
	args := []string{"list", "-H", "-p", "-o", strings.Join(columns, ","), "-t", typ.String()}
	if children {
		args = append(args, "-d", "1")
	}
	if typ == TypeSnapshot && children {
		args = append(args, "-s", "createtxg")
	}
	out, err := h.zfs(ctx, append(args, name.String())...)
	if err != nil {
		return nil, err
	}

	var rows []map[string]string
	for _, line := range strings.Split(string(out), "\n") {
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		row := make(map[string]string, len(columns))
		for i, col := range columns {
			if i < len(fields) {
				row[col] = unsetDash(fields[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func propertyArgs(props map[string]string) []string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		args = append(args, "-o", k+"="+props[k])
	}
	return args
}

// unsetDash maps the "-" zfs prints for unset properties to "".
func unsetDash(v string) string {
	if v == "-" {
		return ""
	}
	return v
}
