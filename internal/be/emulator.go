package be

import (
	"context"
	"hash/fnv"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/firefly-engineering/beadm/internal/errors"
	"github.com/firefly-engineering/beadm/internal/validation"
)

// DefaultSpace is the space reported for boot environments created without
// a source to inherit from.
const DefaultSpace = 8192

// sampleHostID is reported for mounted boot environments that have no host
// id of their own.
const sampleHostID = 0xdeadbeef

// EmulatorOption configures an Emulator.
type EmulatorOption func(*Emulator)

// WithEmulatorClock sets the clock used for creation times and generated
// snapshot tags.
func WithEmulatorClock(now func() time.Time) EmulatorOption {
	return func(e *Emulator) {
		e.now = now
	}
}

// WithEmulatorTempDir sets the directory temporary mountpoints are named in.
func WithEmulatorTempDir(dir string) EmulatorOption {
	return func(e *Emulator) {
		if dir != "" {
			e.tempDir = dir
		}
	}
}

// WithSnapshots seeds the snapshots of existing boot environments.
func WithSnapshots(snaps ...Snapshot) EmulatorOption {
	return func(e *Emulator) {
		for _, s := range snaps {
			be, _, _ := strings.Cut(s.Name, "@")
			e.snaps[be] = append(e.snaps[be], s)
		}
	}
}

// Emulator is an in-memory Client. It does no I/O and exists for tests and
// demonstrations. All methods are safe for concurrent use.
type Emulator struct {
	mu      sync.RWMutex
	root    string
	bes     []BootEnvironment
	snaps   map[string][]Snapshot
	hostids map[string]uint32
	now     func() time.Time
	tempDir string
}

// NewEmulator returns an emulator holding bes under root.
func NewEmulator(root string, bes []BootEnvironment, opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		root:    root,
		bes:     append([]BootEnvironment(nil), bes...),
		snaps:   make(map[string][]Snapshot),
		hostids: make(map[string]uint32),
		now:     time.Now,
		tempDir: "/tmp",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewSampledEmulator returns an emulator rooted at zfake/ROOT with two boot
// environments: "default" (active, mounted at /, next boot) and "alt".
func NewSampledEmulator(opts ...EmulatorOption) *Emulator {
	const root = "zfake/ROOT"
	bes := []BootEnvironment{
		{
			Name:       "default",
			Path:       root + "/default",
			GUID:       guidFor("default"),
			Mountpoint: "/",
			Active:     true,
			NextBoot:   true,
			Space:      950000000,
			Created:    1623301740,
		},
		{
			Name:        "alt",
			Path:        root + "/alt",
			GUID:        guidFor("alt"),
			Description: "Testing",
			Space:       8192,
			Created:     1623305460,
		},
	}
	snaps := WithSnapshots(
		Snapshot{
			Name:        "default@2021-06-10-04:30",
			Path:        root + "/default@2021-06-10-04:30",
			Description: "Automatic snapshot",
			Space:       404000,
			Created:     1623303000,
		},
		Snapshot{
			Name:    "default@2021-06-10-05:10",
			Path:    root + "/default@2021-06-10-05:10",
			Space:   404000,
			Created: 1623305400,
		},
		Snapshot{
			Name:        "alt@backup",
			Path:        root + "/alt@backup",
			Description: "Manual backup",
			Space:       1024,
			Created:     1623306000,
		},
	)
	return NewEmulator(root, bes, append([]EmulatorOption{snaps}, opts...)...)
}

// Root returns the boot environment root the emulator pretends to manage.
func (e *Emulator) Root() string {
	return e.root
}

func guidFor(name string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return h.Sum64()
}

// find returns the index of the named boot environment, or -1.
func (e *Emulator) find(name string) int {
	for i := range e.bes {
		if e.bes[i].Name == name {
			return i
		}
	}
	return -1
}

func (e *Emulator) findSnapshot(l Label) int {
	for i, s := range e.snaps[l.Name] {
		if s.Name == l.String() {
			return i
		}
	}
	return -1
}

func (e *Emulator) active() int {
	for i := range e.bes {
		if e.bes[i].Active {
			return i
		}
	}
	return -1
}

func (e *Emulator) Create(ctx context.Context, name string, opts CreateOptions) error {
	if err := validation.ValidateBEName(name, e.root); err != nil {
		return err
	}
	if err := validation.ValidateDescription(opts.Description); err != nil {
		return err
	}
	if _, err := ParseProperties(opts.Properties); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.find(name) >= 0 {
		return errors.Conflict(name)
	}

	space := uint64(DefaultSpace)
	switch src := opts.Source; {
	case src != nil:
		if err := src.validate(e.root); err != nil {
			return err
		}
		i := e.find(src.Name)
		if i < 0 {
			return errors.NotFound(src.String())
		}
		if src.IsSnapshot() && e.findSnapshot(*src) < 0 {
			return errors.NotFound(src.String())
		}
		space = e.bes[i].Space
	default:
		if i := e.active(); i >= 0 {
			space = e.bes[i].Space
		}
	}

	e.bes = append(e.bes, BootEnvironment{
		Name:        name,
		Path:        e.root + "/" + name,
		GUID:        guidFor(name),
		Description: opts.Description,
		Space:       space,
		Created:     e.now().Unix(),
	})
	return nil
}

func (e *Emulator) New(ctx context.Context, name string, opts NewOptions) error {
	if err := validation.ValidateBEName(name, e.root); err != nil {
		return err
	}
	if err := validation.ValidateDescription(opts.Description); err != nil {
		return err
	}
	var hostid uint32
	if opts.HostID != "" {
		id, err := ParseHostID(opts.HostID)
		if err != nil {
			return err
		}
		hostid = id
	}
	if _, err := ParseProperties(opts.Properties); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.find(name) >= 0 {
		return errors.Conflict(name)
	}
	e.bes = append(e.bes, BootEnvironment{
		Name:        name,
		Path:        e.root + "/" + name,
		GUID:        guidFor(name),
		Description: opts.Description,
		Space:       DefaultSpace,
		Created:     e.now().Unix(),
	})
	if opts.HostID != "" {
		e.hostids[name] = hostid
	}
	return nil
}

func (e *Emulator) Destroy(ctx context.Context, target Label, opts DestroyOptions) error {
	if err := target.validate(e.root); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.find(target.Name)
	if i < 0 {
		return errors.NotFound(target.Name)
	}

	if target.IsSnapshot() {
		j := e.findSnapshot(target)
		if j < 0 {
			return errors.NotFound(target.String())
		}
		list := e.snaps[target.Name]
		e.snaps[target.Name] = append(list[:j:j], list[j+1:]...)
		return nil
	}

	be := e.bes[i]
	if be.Active {
		return errors.CannotDestroyActive(be.Name)
	}
	if be.Mounted() && !opts.ForceUnmount {
		return errors.Mounted(be.Name, be.Mountpoint)
	}
	if opts.Snapshots {
		return errors.Unsupported("destroying snapshots along with a boot environment")
	}

	e.bes = append(e.bes[:i:i], e.bes[i+1:]...)
	delete(e.snaps, be.Name)
	delete(e.hostids, be.Name)
	return nil
}

func (e *Emulator) Mount(ctx context.Context, name, mountpoint string, mode MountMode) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.find(name)
	if i < 0 {
		return "", errors.NotFound(name)
	}
	be := &e.bes[i]
	if be.Mounted() {
		if mountpoint != "" && be.Mountpoint == path.Clean(mountpoint) {
			return be.Mountpoint, nil
		}
		return "", errors.Mounted(name, be.Mountpoint)
	}

	if mountpoint == "" {
		mountpoint = path.Join(e.tempDir, "be_mount."+uuid.NewString())
	} else {
		if !path.IsAbs(mountpoint) {
			return "", errors.InvalidPath(mountpoint)
		}
		mountpoint = path.Clean(mountpoint)
	}
	for j := range e.bes {
		if e.bes[j].Mountpoint == mountpoint {
			return "", errors.MountPointInUse(mountpoint)
		}
	}

	be.Mountpoint = mountpoint
	return mountpoint, nil
}

func (e *Emulator) Unmount(ctx context.Context, target string, force bool) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.find(target)
	if i < 0 && path.IsAbs(target) {
		for j := range e.bes {
			if e.bes[j].Mountpoint == path.Clean(target) {
				i = j
				break
			}
		}
	}
	if i < 0 {
		return "", errors.NotFound(target)
	}

	prev := e.bes[i].Mountpoint
	e.bes[i].Mountpoint = ""
	return prev, nil
}

func (e *Emulator) Hostid(ctx context.Context, name string) (uint32, bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	i := e.find(name)
	if i < 0 {
		return 0, false, errors.NotFound(name)
	}
	if !e.bes[i].Mounted() {
		return 0, false, errors.NotMounted(name)
	}
	if id, ok := e.hostids[name]; ok {
		return id, true, nil
	}
	if strings.Contains(name, "no-hostid") {
		return 0, false, nil
	}
	return sampleHostID, true, nil
}

func (e *Emulator) Rename(ctx context.Context, name, newName string) error {
	if err := validation.ValidateBEName(newName, e.root); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.find(name)
	if i < 0 {
		return errors.NotFound(name)
	}
	if e.find(newName) >= 0 {
		return errors.Conflict(newName)
	}

	e.bes[i].Name = newName
	e.bes[i].Path = e.root + "/" + newName

	if snaps, ok := e.snaps[name]; ok {
		for j := range snaps {
			_, tag, _ := strings.Cut(snaps[j].Name, "@")
			snaps[j].Name = newName + "@" + tag
			snaps[j].Path = e.root + "/" + newName + "@" + tag
		}
		e.snaps[newName] = snaps
		delete(e.snaps, name)
	}
	if id, ok := e.hostids[name]; ok {
		e.hostids[newName] = id
		delete(e.hostids, name)
	}
	return nil
}

func (e *Emulator) Activate(ctx context.Context, name string, temporary bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.find(name)
	if i < 0 {
		return errors.NotFound(name)
	}
	for j := range e.bes {
		e.bes[j].NextBoot = false
		e.bes[j].BootOnce = false
	}
	if temporary {
		e.bes[i].BootOnce = true
	} else {
		e.bes[i].NextBoot = true
	}
	return nil
}

func (e *Emulator) Deactivate(ctx context.Context, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.find(name)
	if i < 0 {
		return errors.NotFound(name)
	}
	e.bes[i].BootOnce = false
	return nil
}

func (e *Emulator) ClearBootOnce(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	pending := false
	for j := range e.bes {
		if e.bes[j].BootOnce {
			e.bes[j].BootOnce = false
			pending = true
		}
	}
	if !pending {
		return nil
	}
	if i := e.active(); i >= 0 {
		e.bes[i].NextBoot = true
	}
	return nil
}

func (e *Emulator) Rollback(ctx context.Context, name, snapshot string) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.find(name) < 0 {
		return errors.NotFound(name)
	}
	l, err := snapshotLabel(name, snapshot)
	if err != nil {
		return err
	}
	if e.findSnapshot(l) < 0 {
		return errors.NotFound(l.String())
	}
	return errors.Unsupported("rollback")
}

func (e *Emulator) BootEnvironments(ctx context.Context) ([]BootEnvironment, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]BootEnvironment(nil), e.bes...), nil
}

func (e *Emulator) Snapshots(ctx context.Context, name string) ([]Snapshot, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.find(name) < 0 {
		return nil, errors.NotFound(name)
	}
	return append([]Snapshot(nil), e.snaps[name]...), nil
}

func (e *Emulator) Snapshot(ctx context.Context, source *Label, description string) (string, error) {
	if err := validation.ValidateDescription(description); err != nil {
		return "", err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var l Label
	if source == nil {
		i := e.active()
		if i < 0 {
			return "", errors.NoActiveBootEnvironment()
		}
		l.Name = e.bes[i].Name
	} else {
		l = *source
		if err := l.validate(e.root); err != nil {
			return "", err
		}
		if e.find(l.Name) < 0 {
			return "", errors.NotFound(l.Name)
		}
	}
	if l.Snapshot == "" {
		l.Snapshot = SnapshotTag(e.now())
	}
	if e.findSnapshot(l) >= 0 {
		return "", errors.Conflict(l.String())
	}

	e.snaps[l.Name] = append(e.snaps[l.Name], Snapshot{
		Name:        l.String(),
		Path:        e.root + "/" + l.String(),
		Description: description,
		Created:     e.now().Unix(),
	})
	return l.String(), nil
}

func (e *Emulator) Init(ctx context.Context, pool string) error {
	return validation.ValidatePoolName(pool)
}

func (e *Emulator) Describe(ctx context.Context, target Label, description string) error {
	if err := validation.ValidateDescription(description); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.find(target.Name)
	if i < 0 {
		return errors.NotFound(target.Name)
	}
	if !target.IsSnapshot() {
		e.bes[i].Description = description
		return nil
	}
	j := e.findSnapshot(target)
	if j < 0 {
		return errors.NotFound(target.String())
	}
	e.snaps[target.Name][j].Description = description
	return nil
}

func (e *Emulator) Close() error {
	return nil
}

// snapshotLabel resolves a rollback argument, either "tag" or "name@tag",
// against the boot environment name.
func snapshotLabel(name, snapshot string) (Label, error) {
	if !strings.Contains(snapshot, "@") {
		if err := validation.ValidateSnapshotTag(snapshot); err != nil {
			return Label{}, err
		}
		return Label{Name: name, Snapshot: snapshot}, nil
	}
	l, err := ParseLabel(snapshot)
	if err != nil {
		return Label{}, err
	}
	if l.Name != name {
		return Label{}, errors.InvalidName(snapshot, "snapshot belongs to another boot environment")
	}
	if err := validation.ValidateSnapshotTag(l.Snapshot); err != nil {
		return Label{}, err
	}
	return l, nil
}
