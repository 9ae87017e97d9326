package be

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/firefly-engineering/beadm/internal/dataset"
	"github.com/firefly-engineering/beadm/internal/errors"
	"github.com/firefly-engineering/beadm/internal/libzfs"
	"github.com/firefly-engineering/beadm/internal/logging"
	"github.com/firefly-engineering/beadm/internal/validation"
)

// User properties beadm keeps on datasets and pools.
const (
	DescriptionProperty    = "ca.kamacite:description"
	HostIDProperty         = "ca.kamacite:hostid"
	PreviousBootfsProperty = "ca.kamacite:previous-bootfs"
)

// tempMountPrefix names the directories Mount creates for an empty path.
const tempMountPrefix = "be_mount."

// LibZFSOption configures a LibZFSClient.
type LibZFSOption func(*LibZFSClient)

// WithHandleOptions passes options to the library session.
func WithHandleOptions(opts ...libzfs.Option) LibZFSOption {
	return func(c *LibZFSClient) {
		c.handleOpts = append(c.handleOpts, opts...)
	}
}

// WithClock sets the clock used for generated snapshot tags.
func WithClock(now func() time.Time) LibZFSOption {
	return func(c *LibZFSClient) {
		c.now = now
	}
}

// WithTempDir sets where temporary mountpoints are created.
func WithTempDir(dir string) LibZFSOption {
	return func(c *LibZFSClient) {
		if dir != "" {
			c.tempDir = dir
		}
	}
}

// LibZFSClient manages boot environments on a real pool through the ZFS
// userland. It holds one library session from construction until Close and
// is not safe for concurrent use; wrap it in a ThreadSafeClient to share it.
type LibZFSClient struct {
	h          *libzfs.Handle
	root       dataset.Name
	now        func() time.Time
	tempDir    string
	handleOpts []libzfs.Option
}

// NewLibZFSClient opens a library session for boot environments under root.
func NewLibZFSClient(root dataset.Name, opts ...LibZFSOption) (*LibZFSClient, error) {
	if root.IsZero() || root.IsSnapshot() {
		return nil, errors.InvalidRoot(root.String())
	}
	c := &LibZFSClient{
		root:    root,
		now:     time.Now,
		tempDir: "/tmp",
	}
	for _, opt := range opts {
		opt(c)
	}
	h, err := libzfs.Init(append(c.handleOpts, libzfs.WithUserProperties(DescriptionProperty, HostIDProperty))...)
	if err != nil {
		return nil, errors.Native(err)
	}
	c.h = h
	return c, nil
}

// Root returns the boot environment root.
func (c *LibZFSClient) Root() dataset.Name {
	return c.root
}

// Handle returns the library session.
func (c *LibZFSClient) Handle() *libzfs.Handle {
	return c.h
}

// Close releases the library session.
func (c *LibZFSClient) Close() error {
	return c.h.Close()
}

// beName builds root/name after validating name.
func (c *LibZFSClient) beName(name string) (dataset.Name, error) {
	if err := validation.ValidateBEName(name, c.root.String()); err != nil {
		return dataset.Name{}, err
	}
	return c.root.Append(name)
}

func (c *LibZFSClient) labelName(l Label) (dataset.Name, error) {
	n, err := c.beName(l.Name)
	if err != nil || !l.IsSnapshot() {
		return n, err
	}
	return n.Snapshot(l.Snapshot)
}

// open opens a boot environment or snapshot, mapping ENOENT to NotFound.
func (c *LibZFSClient) open(ctx context.Context, name dataset.Name, label string) (*libzfs.Dataset, error) {
	typ := libzfs.TypeFilesystem
	if name.IsSnapshot() {
		typ = libzfs.TypeSnapshot
	}
	ds, err := libzfs.Open(ctx, c.h, name, typ)
	if libzfs.IsNotExist(err) {
		return nil, errors.NotFound(label)
	}
	if err != nil {
		return nil, nativeErr(err)
	}
	return ds, nil
}

func (c *LibZFSClient) exists(ctx context.Context, name dataset.Name) (bool, error) {
	ds, err := c.open(ctx, name, name.String())
	if errors.IsKind(err, errors.KindNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	ds.Close()
	return true, nil
}

func (c *LibZFSClient) pool(ctx context.Context) (*libzfs.Pool, error) {
	p, err := libzfs.OpenPool(ctx, c.h, c.root.Pool())
	if err != nil {
		return nil, nativeErr(err)
	}
	return p, nil
}

// bootState reads the permanent target and any recorded previous target.
type bootState struct {
	bootfs   dataset.Name
	previous dataset.Name
}

func (c *LibZFSClient) bootState(ctx context.Context) (bootState, error) {
	p, err := c.pool(ctx)
	if err != nil {
		return bootState{}, err
	}
	defer p.Close()

	var st bootState
	if st.bootfs, _, err = p.Bootfs(ctx); err != nil {
		return bootState{}, nativeErr(err)
	}
	if st.previous, _, err = p.DatasetProperty(ctx, PreviousBootfsProperty); err != nil {
		return bootState{}, nativeErr(err)
	}
	return st, nil
}

func (c *LibZFSClient) rootFS() (dataset.Name, bool, error) {
	n, ok, err := c.h.RootFS()
	if err != nil {
		return dataset.Name{}, false, errors.IO(err)
	}
	return n, ok, nil
}

// nativeErr converts library failures into the error taxonomy. Errors that
// already carry a kind pass through unchanged.
func nativeErr(err error) error {
	if err == nil {
		return nil
	}
	var beErr *errors.BEError
	if errors.As(err, &beErr) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return errors.IO(err)
	}
	return errors.Native(err)
}

func (c *LibZFSClient) Create(ctx context.Context, name string, opts CreateOptions) error {
	target, err := c.beName(name)
	if err != nil {
		return err
	}
	if err := validation.ValidateDescription(opts.Description); err != nil {
		return err
	}
	props, err := ParseProperties(opts.Properties)
	if err != nil {
		return err
	}
	if ok, err := c.exists(ctx, target); err != nil {
		return err
	} else if ok {
		return errors.Conflict(name)
	}

	var (
		snapName  dataset.Name
		generated bool
	)
	switch src := opts.Source; {
	case src != nil && src.IsSnapshot():
		if snapName, err = c.labelName(*src); err != nil {
			return err
		}
	case src != nil:
		srcName, err := c.beName(src.Name)
		if err != nil {
			return err
		}
		if ok, err := c.exists(ctx, srcName); err != nil {
			return err
		} else if !ok {
			return errors.NotFound(src.Name)
		}
		if snapName, err = c.takeSnapshot(ctx, srcName, ""); err != nil {
			return err
		}
		generated = true
	default:
		rootfs, ok, err := c.rootFS()
		if err != nil {
			return err
		}
		if !ok {
			return errors.NoActiveBootEnvironment()
		}
		if snapName, err = c.takeSnapshot(ctx, rootfs, ""); err != nil {
			return err
		}
		generated = true
	}

	label := snapName.String()
	if opts.Source != nil {
		label = opts.Source.String()
	}
	snap, err := c.open(ctx, snapName, label)
	if err != nil {
		return err
	}
	defer snap.Close()

	props["canmount"] = "noauto"
	props["mountpoint"] = "/"
	if opts.Description != "" {
		props[DescriptionProperty] = opts.Description
	}
	if err := snap.Clone(ctx, target, props); err != nil {
		if generated {
			if derr := snap.Destroy(ctx, libzfs.DestroyFlags{}); derr != nil {
				logging.Warn("could not remove origin snapshot", "snapshot", snapName.String(), "error", derr)
			}
		}
		if libzfs.IsExist(err) {
			return errors.Conflict(name)
		}
		return nativeErr(err)
	}
	logging.Debug("created boot environment", "name", target.String(), "origin", snapName.String())
	return nil
}

// takeSnapshot snapshots fsName with a generated tag.
func (c *LibZFSClient) takeSnapshot(ctx context.Context, fsName dataset.Name, description string) (dataset.Name, error) {
	snap, err := fsName.GenerateSnapshot(c.now())
	if err != nil {
		return dataset.Name{}, err
	}
	return snap, c.createSnapshot(ctx, snap, description)
}

func (c *LibZFSClient) createSnapshot(ctx context.Context, snap dataset.Name, description string) error {
	props := map[string]string{}
	if description != "" {
		props[DescriptionProperty] = description
	}
	err := libzfs.CreateSnapshot(ctx, c.h, snap, props)
	switch {
	case libzfs.IsNotExist(err):
		return errors.NotFound(snap.Filesystem().Basename())
	case libzfs.IsExist(err):
		return errors.Conflict(c.shortName(snap))
	}
	return nativeErr(err)
}

// shortName strips the root from a boot environment or snapshot name.
func (c *LibZFSClient) shortName(n dataset.Name) string {
	if rel, err := n.RelativeTo(c.root); err == nil {
		return rel
	}
	return n.String()
}

func (c *LibZFSClient) New(ctx context.Context, name string, opts NewOptions) error {
	target, err := c.beName(name)
	if err != nil {
		return err
	}
	if err := validation.ValidateDescription(opts.Description); err != nil {
		return err
	}
	props, err := ParseProperties(opts.Properties)
	if err != nil {
		return err
	}
	if opts.HostID != "" {
		id, err := ParseHostID(opts.HostID)
		if err != nil {
			return err
		}
		props[HostIDProperty] = FormatHostID(id)
	}
	props["canmount"] = "noauto"
	props["mountpoint"] = "/"
	if opts.Description != "" {
		props[DescriptionProperty] = opts.Description
	}

	if err := libzfs.Create(ctx, c.h, target, props); err != nil {
		if libzfs.IsExist(err) {
			return errors.Conflict(name)
		}
		return nativeErr(err)
	}
	return nil
}

func (c *LibZFSClient) Destroy(ctx context.Context, target Label, opts DestroyOptions) error {
	name, err := c.labelName(target)
	if err != nil {
		return err
	}
	if ok, err := c.exists(ctx, name.Filesystem()); err != nil {
		return err
	} else if !ok {
		return errors.NotFound(target.Name)
	}
	ds, err := c.open(ctx, name, target.String())
	if err != nil {
		return err
	}
	defer ds.Close()

	if target.IsSnapshot() {
		return nativeErr(ds.Destroy(ctx, libzfs.DestroyFlags{}))
	}

	rootfs, _, err := c.rootFS()
	if err != nil {
		return err
	}
	st, err := c.bootState(ctx)
	if err != nil {
		return err
	}
	if name == rootfs || name == st.bootfs || name == st.previous {
		return errors.CannotDestroyActive(target.Name)
	}

	mp, err := ds.Mountpoint()
	if err != nil {
		return errors.IO(err)
	}
	if mp != "" && !opts.ForceUnmount {
		return errors.Mounted(target.Name, mp)
	}

	if !opts.Snapshots {
		count := 0
		if err := ds.IterSnapshots(ctx, func(*libzfs.Dataset) error {
			count++
			return nil
		}); err != nil {
			return nativeErr(err)
		}
		if count > 0 {
			return errors.HasSnapshots(target.Name)
		}
	}

	if mp != "" {
		if err := ds.Unmount(ctx, true); err != nil {
			return errors.UnmountFailed(target.Name, err)
		}
	}
	return nativeErr(ds.Destroy(ctx, libzfs.DestroyFlags{Recursive: opts.Snapshots, ForceUnmount: mp != ""}))
}

func (c *LibZFSClient) Mount(ctx context.Context, name, mountpoint string, mode MountMode) (string, error) {
	target, err := c.beName(name)
	if err != nil {
		return "", err
	}
	ds, err := c.open(ctx, target, name)
	if err != nil {
		return "", err
	}
	defer ds.Close()

	current, err := ds.Mountpoint()
	if err != nil {
		return "", errors.IO(err)
	}
	if current != "" {
		if mountpoint != "" && current == filepath.Clean(mountpoint) {
			return current, nil
		}
		return "", errors.Mounted(name, current)
	}

	fsys := c.h.FS()
	temporary := mountpoint == ""
	if temporary {
		if mountpoint, err = fsys.MkdirTemp(c.tempDir, tempMountPrefix+"*"); err != nil {
			return "", errors.IO(err)
		}
	} else {
		if !filepath.IsAbs(mountpoint) {
			return "", errors.InvalidPath(mountpoint)
		}
		mountpoint = filepath.Clean(mountpoint)
		mounts, err := c.h.Mounts()
		if err != nil {
			return "", errors.IO(err)
		}
		for _, m := range mounts {
			if m.Target == mountpoint && m.FSType == "zfs" {
				return "", errors.MountPointInUse(mountpoint)
			}
		}
		if !fsys.IsDir(mountpoint) {
			if err := fsys.MkdirAll(mountpoint, 0o755); err != nil {
				return "", errors.IO(err)
			}
		}
	}

	if err := ds.MountAt(ctx, mountpoint, mode == MountReadOnly); err != nil {
		if temporary {
			_ = fsys.Remove(mountpoint)
		}
		return "", nativeErr(err)
	}
	return mountpoint, nil
}

func (c *LibZFSClient) Unmount(ctx context.Context, target string, force bool) (string, error) {
	name, err := c.resolveUnmountTarget(target)
	if err != nil {
		return "", err
	}
	ds, err := c.open(ctx, name, target)
	if err != nil {
		return "", err
	}
	defer ds.Close()

	mp, err := ds.Mountpoint()
	if err != nil {
		return "", errors.IO(err)
	}
	if mp == "" {
		return "", nil
	}
	if err := ds.Unmount(ctx, force); err != nil {
		return "", errors.UnmountFailed(name.Basename(), err)
	}
	c.removeTempMountpoint(mp)
	return mp, nil
}

// resolveUnmountTarget accepts a boot environment name or the absolute path
// one is mounted at.
func (c *LibZFSClient) resolveUnmountTarget(target string) (dataset.Name, error) {
	if !filepath.IsAbs(target) {
		return c.beName(target)
	}
	mounts, err := c.h.Mounts()
	if err != nil {
		return dataset.Name{}, errors.IO(err)
	}
	clean := filepath.Clean(target)
	for _, m := range mounts {
		if m.FSType != "zfs" || m.Target != clean {
			continue
		}
		if n, err := dataset.New(m.Source); err == nil && n.IsChildOf(c.root) {
			return n, nil
		}
	}
	return dataset.Name{}, errors.NotFound(target)
}

// removeTempMountpoint deletes a directory Mount created, if mp is one.
func (c *LibZFSClient) removeTempMountpoint(mp string) {
	dir, base := filepath.Split(mp)
	if filepath.Clean(dir) != filepath.Clean(c.tempDir) || !strings.HasPrefix(base, tempMountPrefix) {
		return
	}
	p, err := securejoin.SecureJoin(c.tempDir, base)
	if err != nil {
		logging.Debug("not removing temporary mountpoint", "path", mp, "error", err)
		return
	}
	if err := c.h.FS().Remove(p); err != nil {
		logging.Debug("failed to remove temporary mountpoint", "path", p, "error", err)
	}
}

func (c *LibZFSClient) Hostid(ctx context.Context, name string) (uint32, bool, error) {
	target, err := c.beName(name)
	if err != nil {
		return 0, false, err
	}
	ds, err := c.open(ctx, target, name)
	if err != nil {
		return 0, false, err
	}
	defer ds.Close()

	mp, err := ds.Mountpoint()
	if err != nil {
		return 0, false, errors.IO(err)
	}
	if mp == "" {
		return 0, false, errors.NotMounted(name)
	}

	p, err := securejoin.SecureJoin(mp, "etc/hostid")
	if err != nil {
		return 0, false, errors.IO(err)
	}
	id, ok, err := libzfs.ReadHostID(c.h.FS(), p)
	if err != nil {
		return 0, false, errors.IO(err)
	}
	if ok {
		return id, true, nil
	}

	recorded, ok, err := ds.UserProperty(ctx, HostIDProperty)
	if err != nil || !ok {
		return 0, false, nativeErr(err)
	}
	id, err = ParseHostID(recorded)
	if err != nil {
		logging.Warn("ignoring malformed host id property", "name", name, "value", recorded)
		return 0, false, nil
	}
	return id, true, nil
}

func (c *LibZFSClient) Rename(ctx context.Context, name, newName string) error {
	from, err := c.beName(name)
	if err != nil {
		return err
	}
	to, err := c.beName(newName)
	if err != nil {
		return err
	}
	ds, err := c.open(ctx, from, name)
	if err != nil {
		return err
	}
	defer ds.Close()

	st, err := c.bootState(ctx)
	if err != nil {
		return err
	}
	if err := ds.Rename(ctx, to, libzfs.RenameFlags{NoUnmount: true}); err != nil {
		if libzfs.IsExist(err) {
			return errors.Conflict(newName)
		}
		return nativeErr(err)
	}

	// The pool tracks bootfs itself; the previous target is a plain string.
	if st.previous == from {
		p, err := c.pool(ctx)
		if err != nil {
			return err
		}
		defer p.Close()
		if err := p.SetProperty(ctx, PreviousBootfsProperty, to.String()); err != nil {
			return nativeErr(err)
		}
	}
	return nil
}

func (c *LibZFSClient) Activate(ctx context.Context, name string, temporary bool) error {
	target, err := c.beName(name)
	if err != nil {
		return err
	}
	if ok, err := c.exists(ctx, target); err != nil {
		return err
	} else if !ok {
		return errors.NotFound(name)
	}

	p, err := c.pool(ctx)
	if err != nil {
		return err
	}
	defer p.Close()

	if !temporary {
		if err := p.SetProperty(ctx, PreviousBootfsProperty, ""); err != nil {
			return nativeErr(err)
		}
		return nativeErr(p.SetBootfs(ctx, target))
	}

	// Remember the permanent target once; a second temporary activation
	// must not overwrite it with the first one-shot target.
	if _, recorded, err := p.DatasetProperty(ctx, PreviousBootfsProperty); err != nil {
		return nativeErr(err)
	} else if !recorded {
		current, ok, err := p.Bootfs(ctx)
		if err != nil {
			return nativeErr(err)
		}
		if !ok {
			return errors.NoActiveBootEnvironment()
		}
		if err := p.SetProperty(ctx, PreviousBootfsProperty, current.String()); err != nil {
			return nativeErr(err)
		}
	}
	return nativeErr(p.SetBootfs(ctx, target))
}

func (c *LibZFSClient) Deactivate(ctx context.Context, name string) error {
	target, err := c.beName(name)
	if err != nil {
		return err
	}
	if ok, err := c.exists(ctx, target); err != nil {
		return err
	} else if !ok {
		return errors.NotFound(name)
	}
	st, err := c.bootState(ctx)
	if err != nil {
		return err
	}
	if st.previous.IsZero() || st.bootfs != target {
		return nil
	}
	return c.restorePrevious(ctx, st.previous)
}

func (c *LibZFSClient) ClearBootOnce(ctx context.Context) error {
	st, err := c.bootState(ctx)
	if err != nil {
		return err
	}
	if st.previous.IsZero() {
		return nil
	}
	return c.restorePrevious(ctx, st.previous)
}

func (c *LibZFSClient) restorePrevious(ctx context.Context, previous dataset.Name) error {
	p, err := c.pool(ctx)
	if err != nil {
		return err
	}
	defer p.Close()
	if err := p.SetBootfs(ctx, previous); err != nil {
		return nativeErr(err)
	}
	return nativeErr(p.SetProperty(ctx, PreviousBootfsProperty, ""))
}

func (c *LibZFSClient) Rollback(ctx context.Context, name, snapshot string) error {
	target, err := c.beName(name)
	if err != nil {
		return err
	}
	l, err := snapshotLabel(name, snapshot)
	if err != nil {
		return err
	}
	snapName, err := target.Snapshot(l.Snapshot)
	if err != nil {
		return err
	}

	ds, err := c.open(ctx, target, name)
	if err != nil {
		return err
	}
	defer ds.Close()
	snap, err := c.open(ctx, snapName, l.String())
	if err != nil {
		return err
	}
	defer snap.Close()

	return nativeErr(ds.RollbackTo(ctx, snap))
}

func (c *LibZFSClient) BootEnvironments(ctx context.Context) ([]BootEnvironment, error) {
	root, err := libzfs.Open(ctx, c.h, c.root, libzfs.TypeFilesystem)
	if libzfs.IsNotExist(err) {
		return nil, errors.InvalidRoot(c.root.String())
	}
	if err != nil {
		return nil, nativeErr(err)
	}
	defer root.Close()

	rootfs, _, err := c.rootFS()
	if err != nil {
		return nil, err
	}
	st, err := c.bootState(ctx)
	if err != nil {
		return nil, err
	}
	pending := !st.previous.IsZero()

	var bes []BootEnvironment
	err = root.IterChildren(ctx, func(ds *libzfs.Dataset) error {
		mp, err := ds.Mountpoint()
		if err != nil {
			return errors.IO(err)
		}
		desc, _, err := ds.UserProperty(ctx, DescriptionProperty)
		if err != nil {
			return err
		}
		n := ds.Name()
		bes = append(bes, BootEnvironment{
			Name:        n.Basename(),
			Path:        n.String(),
			GUID:        ds.GUID(),
			Description: desc,
			Mountpoint:  mp,
			Active:      n == rootfs,
			NextBoot:    !pending && n == st.bootfs,
			BootOnce:    pending && n == st.bootfs,
			Space:       ds.UsedSpace(),
			Created:     ds.CreationTime(),
		})
		return nil
	})
	if err != nil {
		return nil, nativeErr(err)
	}
	return bes, nil
}

func (c *LibZFSClient) Snapshots(ctx context.Context, name string) ([]Snapshot, error) {
	target, err := c.beName(name)
	if err != nil {
		return nil, err
	}
	ds, err := c.open(ctx, target, name)
	if err != nil {
		return nil, err
	}
	defer ds.Close()

	var snaps []Snapshot
	err = ds.IterSnapshots(ctx, func(s *libzfs.Dataset) error {
		desc, _, err := s.UserProperty(ctx, DescriptionProperty)
		if err != nil {
			return err
		}
		snaps = append(snaps, Snapshot{
			Name:        name + "@" + s.Name().Tag(),
			Path:        s.Name().String(),
			Description: desc,
			Space:       s.UsedSpace(),
			Created:     s.CreationTime(),
		})
		return nil
	})
	if err != nil {
		return nil, nativeErr(err)
	}
	return snaps, nil
}

func (c *LibZFSClient) Snapshot(ctx context.Context, source *Label, description string) (string, error) {
	if err := validation.ValidateDescription(description); err != nil {
		return "", err
	}

	var snap dataset.Name
	switch {
	case source == nil:
		rootfs, ok, err := c.rootFS()
		if err != nil {
			return "", err
		}
		if !ok || !rootfs.IsChildOf(c.root) {
			return "", errors.NoActiveBootEnvironment()
		}
		if snap, err = rootfs.GenerateSnapshot(c.now()); err != nil {
			return "", err
		}
	case source.IsSnapshot():
		var err error
		if snap, err = c.labelName(*source); err != nil {
			return "", err
		}
	default:
		beName, err := c.beName(source.Name)
		if err != nil {
			return "", err
		}
		if snap, err = beName.GenerateSnapshot(c.now()); err != nil {
			return "", err
		}
	}

	if err := c.createSnapshot(ctx, snap, description); err != nil {
		return "", err
	}
	return c.shortName(snap), nil
}

func (c *LibZFSClient) Init(ctx context.Context, pool string) error {
	if err := validation.ValidatePoolName(pool); err != nil {
		return err
	}
	p, err := libzfs.OpenPool(ctx, c.h, pool)
	if libzfs.IsNotExist(err) {
		return errors.NotFound(pool)
	}
	if err != nil {
		return nativeErr(err)
	}
	p.Close()

	poolRoot := dataset.MustNew(pool)
	beRoot, _ := poolRoot.Append("ROOT")
	if err := c.ensureFilesystem(ctx, beRoot, "none", errors.InvalidRoot(beRoot.String())); err != nil {
		return err
	}
	home, _ := poolRoot.Append("home")
	return c.ensureFilesystem(ctx, home, "/home", nil)
}

// ensureFilesystem creates name with the given mountpoint, or checks an
// existing one has it. mismatch is returned for a different mountpoint; nil
// reports InvalidProp.
func (c *LibZFSClient) ensureFilesystem(ctx context.Context, name dataset.Name, mountpoint string, mismatch error) error {
	ds, err := libzfs.Open(ctx, c.h, name, libzfs.TypeFilesystem)
	if libzfs.IsNotExist(err) {
		return nativeErr(libzfs.Create(ctx, c.h, name, map[string]string{"mountpoint": mountpoint}))
	}
	if err != nil {
		return nativeErr(err)
	}
	defer ds.Close()

	if got := ds.MountpointProperty(); got != mountpoint {
		if mismatch != nil {
			return mismatch
		}
		return errors.InvalidProp("mountpoint", got)
	}
	return nil
}

func (c *LibZFSClient) Describe(ctx context.Context, target Label, description string) error {
	name, err := c.labelName(target)
	if err != nil {
		return err
	}
	if err := validation.ValidateDescription(description); err != nil {
		return err
	}
	ds, err := c.open(ctx, name, target.String())
	if err != nil {
		return err
	}
	defer ds.Close()

	if description == "" {
		return nativeErr(ds.InheritProperty(ctx, DescriptionProperty))
	}
	return nativeErr(ds.SetProperty(ctx, DescriptionProperty, description))
}

// ActiveRoot returns the parent of the dataset mounted at "/" after checking
// it looks like a boot environment layout: the root filesystem has
// canmount=noauto and its parent has mountpoint=none.
func ActiveRoot(ctx context.Context, h *libzfs.Handle) (dataset.Name, error) {
	rootfs, ok, err := h.RootFS()
	if err != nil {
		return dataset.Name{}, errors.IO(err)
	}
	if !ok {
		return dataset.Name{}, errors.NoActiveBootEnvironment()
	}
	parent, ok := rootfs.Parent()
	if !ok {
		return dataset.Name{}, errors.NoActiveBootEnvironment()
	}

	ds, err := libzfs.Open(ctx, h, rootfs, libzfs.TypeFilesystem)
	if err != nil {
		return dataset.Name{}, nativeErr(err)
	}
	canmount := ds.CanMount()
	ds.Close()
	if canmount != "noauto" {
		return dataset.Name{}, errors.InvalidRoot(parent.String())
	}

	pds, err := libzfs.Open(ctx, h, parent, libzfs.TypeFilesystem)
	if err != nil {
		return dataset.Name{}, nativeErr(err)
	}
	mp := pds.MountpointProperty()
	pds.Close()
	if mp != "none" {
		return dataset.Name{}, errors.InvalidRoot(parent.String())
	}
	return parent, nil
}
