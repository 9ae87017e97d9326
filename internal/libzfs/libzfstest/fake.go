// Package libzfstest provides an in-memory stand-in for the zfs, zpool and
// mount commands, for tests of code built on package libzfs.
package libzfstest

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/firefly-engineering/beadm/internal/system"
)

// MountTable is where the fake writes its mount table.
const MountTable = "/proc/self/mounts"

// Default sizes given to new datasets.
const (
	FilesystemSpace = 8192
	SnapshotSpace   = 1024
)

var errExit = fmt.Errorf("exit status 1")

type entry struct {
	name    string
	props   map[string]string
	guid    uint64
	used    uint64
	created int64
	origin  string
}

func (e *entry) isSnapshot() bool {
	return strings.Contains(e.name, "@")
}

type mount struct {
	source, target, fstype, opts string
}

// Fake is an in-memory ZFS userland. Wire it in with
// libzfs.WithExecutor(f.Exec) and libzfs.WithFileSystem(f.FS).
type Fake struct {
	FS   *system.MockFS
	Exec *system.MockExecutor

	mu        sync.Mutex
	datasets  map[string]*entry
	pools     map[string]map[string]string
	mounts    []mount
	clock     int64
	nextGUID  uint64
	failures  []failure
	rollbacks []string
}

type failure struct {
	prefix string
	stderr string
}

// New returns an empty fake with no pools.
func New() *Fake {
	f := &Fake{
		FS:       system.NewMockFS(),
		Exec:     system.NewMockExecutor(),
		datasets: make(map[string]*entry),
		pools:    make(map[string]map[string]string),
		clock:    1623301740,
		nextGUID: 0x1000,
	}
	f.Exec.Handler = f.handle
	f.writeMountTable()
	return f
}

// AddPool creates a pool and its root filesystem.
func (f *Fake) AddPool(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pools[name] = make(map[string]string)
	f.addLocked(name, map[string]string{"mountpoint": "/" + name})
}

// AddFilesystem creates a filesystem. Its parent need not exist.
func (f *Fake) AddFilesystem(name string, props map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addLocked(name, props)
}

// AddSnapshot creates a snapshot.
func (f *Fake) AddSnapshot(name string, props map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addLocked(name, props)
}

// SetUsed overrides a dataset's used space.
func (f *Fake) SetUsed(name string, used uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e, ok := f.datasets[name]; ok {
		e.used = used
	}
}

// Mount records name as mounted at target.
func (f *Fake) Mount(name, target string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mounts = append(f.mounts, mount{source: name, target: target, fstype: "zfs", opts: "rw"})
	f.writeMountTable()
}

// MountOther records a non-ZFS mount.
func (f *Fake) MountOther(source, target, fstype string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mounts = append(f.mounts, mount{source: source, target: target, fstype: fstype, opts: "rw"})
	f.writeMountTable()
}

// Exists reports whether a dataset exists.
func (f *Fake) Exists(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.datasets[name]
	return ok
}

// Datasets returns all dataset names, sorted.
func (f *Fake) Datasets() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.datasets))
	for n := range f.datasets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Prop returns a locally set dataset property.
func (f *Fake) Prop(name, key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e, ok := f.datasets[name]; ok {
		return e.props[key]
	}
	return ""
}

// PoolProp returns a pool property.
func (f *Fake) PoolProp(pool, key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pools[pool][key]
}

// SetPoolProp sets a pool property directly.
func (f *Fake) SetPoolProp(pool, key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if props, ok := f.pools[pool]; ok {
		props[key] = value
	}
}

// MountedAt returns where name is mounted, or "".
func (f *Fake) MountedAt(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.mounts {
		if m.fstype == "zfs" && m.source == name {
			return m.target
		}
	}
	return ""
}

// MountOptions returns the options name was mounted with, or "".
func (f *Fake) MountOptions(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.mounts {
		if m.fstype == "zfs" && m.source == name {
			return m.opts
		}
	}
	return ""
}

// Rollbacks returns the snapshots rolled back to, in order.
func (f *Fake) Rollbacks() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.rollbacks...)
}

// FailNext makes the next command whose line starts with prefix fail with
// stderr as its diagnostic output.
func (f *Fake) FailNext(prefix, stderr string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = append(f.failures, failure{prefix: prefix, stderr: stderr})
}

func (f *Fake) addLocked(name string, props map[string]string) *entry {
	e := &entry{
		name:    name,
		props:   make(map[string]string),
		guid:    f.nextGUID,
		created: f.clock,
		used:    FilesystemSpace,
	}
	if strings.Contains(name, "@") {
		e.used = SnapshotSpace
	}
	for k, v := range props {
		e.props[k] = v
	}
	f.nextGUID++
	f.clock += 60
	f.datasets[name] = e
	return e
}

func (f *Fake) handle(name string, args []string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	line := strings.Join(append([]string{name}, args...), " ")
	for i, fl := range f.failures {
		if strings.HasPrefix(line, fl.prefix) {
			f.failures = append(f.failures[:i], f.failures[i+1:]...)
			return []byte(fl.stderr + "\n"), errExit
		}
	}

	if len(args) == 0 {
		return usage(name)
	}
	switch name {
	case "zfs":
		return f.zfs(args[0], args[1:])
	case "zpool":
		return f.zpool(args[0], args[1:])
	case "mount":
		return f.mount(args)
	}
	return fail("%s: command not found", name)
}

func (f *Fake) zfs(sub string, args []string) ([]byte, error) {
	switch sub {
	case "list":
		return f.list(args)
	case "get":
		return f.get(args)
	case "set":
		return f.set(args)
	case "inherit":
		return f.inherit(args)
	case "create":
		return f.create(args)
	case "snapshot":
		return f.snapshot(args)
	case "clone":
		return f.clone(args)
	case "rename":
		return f.rename(args)
	case "destroy":
		return f.destroy(args)
	case "unmount", "umount":
		return f.unmount(args)
	case "rollback":
		return f.rollback(args)
	}
	return usage("zfs " + sub)
}

// parsed holds flags and -o key=value options from a command line.
type parsed struct {
	flags map[string]string
	props map[string]string
	pos   []string
}

// parseArgs splits args into flags, "-o k=v" properties and positionals.
// withValue lists flags that take an argument.
func parseArgs(args []string, withValue string) parsed {
	p := parsed{flags: map[string]string{}, props: map[string]string{}}
	for i := 0; i < len(args); i++ {
		a := args[i]
		if len(a) < 2 || a[0] != '-' {
			p.pos = append(p.pos, a)
			continue
		}
		flag := a[1:]
		if strings.Contains(withValue, flag) && i+1 < len(args) {
			i++
			if flag == "o" && strings.Contains(args[i], "=") {
				k, v, _ := strings.Cut(args[i], "=")
				p.props[k] = v
			} else {
				p.flags[flag] = args[i]
			}
			continue
		}
		p.flags[flag] = ""
	}
	return p
}

func (p parsed) has(flag string) bool {
	_, ok := p.flags[flag]
	return ok
}

func (f *Fake) list(args []string) ([]byte, error) {
	p := parseArgs(args, "odts")
	if len(p.pos) != 1 {
		return usage("zfs list")
	}
	name := p.pos[0]
	e, ok := f.datasets[name]
	if !ok {
		return notExist(name)
	}
	columns := strings.Split(p.flags["o"], ",")
	if p.flags["o"] == "" {
		columns = []string{"name"}
	}
	wantSnap := p.flags["t"] == "snapshot"

	var rows []*entry
	if e.isSnapshot() == wantSnap {
		rows = append(rows, e)
	}
	if p.flags["d"] == "1" && !e.isSnapshot() {
		var children []*entry
		for _, c := range f.datasets {
			if wantSnap && strings.HasPrefix(c.name, name+"@") {
				children = append(children, c)
			}
			if !wantSnap && !c.isSnapshot() && parentOf(c.name) == name {
				children = append(children, c)
			}
		}
		sort.Slice(children, func(i, j int) bool {
			if wantSnap && children[i].created != children[j].created {
				return children[i].created < children[j].created
			}
			return children[i].name < children[j].name
		})
		rows = append(rows, children...)
	}

	var b strings.Builder
	for _, r := range rows {
		vals := make([]string, len(columns))
		for i, col := range columns {
			vals[i] = f.column(r, col)
		}
		b.WriteString(strings.Join(vals, "\t"))
		b.WriteByte('\n')
	}
	return []byte(b.String()), nil
}

func (f *Fake) column(e *entry, col string) string {
	switch col {
	case "name":
		return e.name
	case "type":
		if e.isSnapshot() {
			return "snapshot"
		}
		return "filesystem"
	case "guid":
		return strconv.FormatUint(e.guid, 10)
	case "used":
		return strconv.FormatUint(e.used, 10)
	case "creation":
		return strconv.FormatInt(e.created, 10)
	case "origin":
		return orDash(e.origin)
	case "mountpoint":
		if e.isSnapshot() {
			return "-"
		}
		return f.mountpointProp(e.name)
	case "canmount":
		if e.isSnapshot() {
			return "-"
		}
		if v, ok := e.props["canmount"]; ok {
			return v
		}
		return "on"
	}
	return orDash(e.props[col])
}

// mountpointProp resolves the inherited mountpoint property.
func (f *Fake) mountpointProp(name string) string {
	e, ok := f.datasets[name]
	if !ok {
		return "none"
	}
	if v, ok := e.props["mountpoint"]; ok {
		return v
	}
	parent := parentOf(name)
	if parent == "" {
		return "/" + name
	}
	pm := f.mountpointProp(parent)
	if pm == "none" || pm == "legacy" {
		return pm
	}
	return strings.TrimSuffix(pm, "/") + "/" + name[len(parent)+1:]
}

func (f *Fake) get(args []string) ([]byte, error) {
	p := parseArgs(args, "o")
	if len(p.pos) != 2 {
		return usage("zfs get")
	}
	e, ok := f.datasets[p.pos[1]]
	if !ok {
		return notExist(p.pos[1])
	}
	return []byte(f.column(e, p.pos[0]) + "\n"), nil
}

func (f *Fake) set(args []string) ([]byte, error) {
	if len(args) != 2 || !strings.Contains(args[0], "=") {
		return usage("zfs set")
	}
	e, ok := f.datasets[args[1]]
	if !ok {
		return notExist(args[1])
	}
	k, v, _ := strings.Cut(args[0], "=")
	e.props[k] = v
	return nil, nil
}

func (f *Fake) inherit(args []string) ([]byte, error) {
	if len(args) != 2 {
		return usage("zfs inherit")
	}
	e, ok := f.datasets[args[1]]
	if !ok {
		return notExist(args[1])
	}
	delete(e.props, args[0])
	return nil, nil
}

func (f *Fake) create(args []string) ([]byte, error) {
	p := parseArgs(args, "o")
	if len(p.pos) != 1 {
		return usage("zfs create")
	}
	name := p.pos[0]
	if _, ok := f.datasets[name]; ok {
		return fail("cannot create '%s': dataset already exists", name)
	}
	if parent := parentOf(name); parent == "" || f.datasets[parent] == nil {
		return fail("cannot create '%s': parent does not exist", name)
	}
	f.addLocked(name, p.props)
	return nil, nil
}

func (f *Fake) snapshot(args []string) ([]byte, error) {
	p := parseArgs(args, "o")
	if len(p.pos) != 1 || !strings.Contains(p.pos[0], "@") {
		return usage("zfs snapshot")
	}
	name := p.pos[0]
	fs, _, _ := strings.Cut(name, "@")
	if _, ok := f.datasets[fs]; !ok {
		return notExist(fs)
	}
	if _, ok := f.datasets[name]; ok {
		return fail("cannot create snapshot '%s': dataset already exists", name)
	}
	f.addLocked(name, p.props)
	return nil, nil
}

func (f *Fake) clone(args []string) ([]byte, error) {
	p := parseArgs(args, "o")
	if len(p.pos) != 2 {
		return usage("zfs clone")
	}
	snap, target := p.pos[0], p.pos[1]
	if _, ok := f.datasets[snap]; !ok || !strings.Contains(snap, "@") {
		return notExist(snap)
	}
	if _, ok := f.datasets[target]; ok {
		return fail("cannot create '%s': dataset already exists", target)
	}
	if parent := parentOf(target); f.datasets[parent] == nil {
		return fail("cannot create '%s': parent does not exist", target)
	}
	e := f.addLocked(target, p.props)
	e.origin = snap
	return nil, nil
}

func (f *Fake) rename(args []string) ([]byte, error) {
	p := parseArgs(args, "")
	if len(p.pos) != 2 {
		return usage("zfs rename")
	}
	from, to := p.pos[0], p.pos[1]
	if _, ok := f.datasets[from]; !ok {
		return notExist(from)
	}
	if _, ok := f.datasets[to]; ok {
		return fail("cannot rename to '%s': dataset already exists", to)
	}

	renamed := make(map[string]*entry, len(f.datasets))
	for n, e := range f.datasets {
		if nn, ok := replacePrefix(n, from, to); ok {
			e.name = nn
			renamed[nn] = e
		} else {
			renamed[n] = e
		}
		if no, ok := replacePrefix(e.origin, from, to); ok {
			e.origin = no
		}
	}
	f.datasets = renamed
	for i := range f.mounts {
		if nn, ok := replacePrefix(f.mounts[i].source, from, to); ok && f.mounts[i].fstype == "zfs" {
			f.mounts[i].source = nn
		}
	}
	// bootfs is stored by object, so it follows a rename. User properties
	// are plain strings and do not.
	for _, props := range f.pools {
		if nv, ok := replacePrefix(props["bootfs"], from, to); ok {
			props["bootfs"] = nv
		}
	}
	f.writeMountTable()
	return nil, nil
}

func (f *Fake) destroy(args []string) ([]byte, error) {
	p := parseArgs(args, "")
	if len(p.pos) != 1 {
		return usage("zfs destroy")
	}
	name := p.pos[0]
	if _, ok := f.datasets[name]; !ok {
		return notExist(name)
	}

	var doomed []string
	for n := range f.datasets {
		if n == name || strings.HasPrefix(n, name+"@") || strings.HasPrefix(n, name+"/") {
			doomed = append(doomed, n)
		}
	}
	if len(doomed) > 1 && !p.has("r") {
		return fail("cannot destroy '%s': filesystem has children\nuse '-r' to destroy the following datasets:", name)
	}
	if !p.has("f") {
		for _, m := range f.mounts {
			if m.fstype == "zfs" && contains(doomed, m.source) {
				return fail("cannot unmount '%s': pool or dataset is busy", m.target)
			}
		}
	}
	for _, e := range f.datasets {
		for _, d := range doomed {
			if e.origin == d && !contains(doomed, e.name) {
				return fail("cannot destroy '%s': snapshot has dependent clones", d)
			}
		}
	}

	for _, d := range doomed {
		delete(f.datasets, d)
	}
	kept := f.mounts[:0]
	for _, m := range f.mounts {
		if m.fstype != "zfs" || !contains(doomed, m.source) {
			kept = append(kept, m)
		}
	}
	f.mounts = kept
	f.writeMountTable()
	return nil, nil
}

func (f *Fake) unmount(args []string) ([]byte, error) {
	p := parseArgs(args, "")
	if len(p.pos) != 1 {
		return usage("zfs unmount")
	}
	name := p.pos[0]
	if _, ok := f.datasets[name]; !ok {
		return notExist(name)
	}
	for i, m := range f.mounts {
		if m.fstype == "zfs" && m.source == name {
			if m.target == "/" && !p.has("f") {
				return fail("cannot unmount '/': pool or dataset is busy")
			}
			f.mounts = append(f.mounts[:i], f.mounts[i+1:]...)
			f.writeMountTable()
			return nil, nil
		}
	}
	return fail("cannot unmount '%s': not currently mounted", name)
}

func (f *Fake) rollback(args []string) ([]byte, error) {
	p := parseArgs(args, "")
	if len(p.pos) != 1 {
		return usage("zfs rollback")
	}
	name := p.pos[0]
	snap, ok := f.datasets[name]
	if !ok || !snap.isSnapshot() {
		return notExist(name)
	}
	fs, _, _ := strings.Cut(name, "@")
	var later []string
	for n, e := range f.datasets {
		if strings.HasPrefix(n, fs+"@") && e.created > snap.created {
			later = append(later, n)
		}
	}
	if len(later) > 0 && !p.has("r") {
		return fail("cannot rollback to '%s': more recent snapshots or bookmarks exist", name)
	}
	for _, n := range later {
		delete(f.datasets, n)
	}
	f.rollbacks = append(f.rollbacks, name)
	return nil, nil
}

func (f *Fake) zpool(sub string, args []string) ([]byte, error) {
	p := parseArgs(args, "o")
	switch sub {
	case "list":
		if len(p.pos) != 1 {
			return usage("zpool list")
		}
		if _, ok := f.pools[p.pos[0]]; !ok {
			return fail("cannot open '%s': no such pool", p.pos[0])
		}
		return []byte(p.pos[0] + "\n"), nil
	case "get":
		if len(p.pos) != 2 {
			return usage("zpool get")
		}
		props, ok := f.pools[p.pos[1]]
		if !ok {
			return fail("cannot open '%s': no such pool", p.pos[1])
		}
		return []byte(orDash(props[p.pos[0]]) + "\n"), nil
	case "set":
		if len(p.pos) != 2 || !strings.Contains(p.pos[0], "=") {
			return usage("zpool set")
		}
		props, ok := f.pools[p.pos[1]]
		if !ok {
			return fail("cannot open '%s': no such pool", p.pos[1])
		}
		k, v, _ := strings.Cut(p.pos[0], "=")
		if k == "bootfs" && v != "" {
			if _, ok := f.datasets[v]; !ok {
				return fail("cannot set property for '%s': '%s' is an invalid name", p.pos[1], v)
			}
		}
		if v == "" {
			delete(props, k)
		} else {
			props[k] = v
		}
		return nil, nil
	}
	return usage("zpool " + sub)
}

func (f *Fake) mount(args []string) ([]byte, error) {
	p := parseArgs(args, "to")
	if len(p.pos) != 2 || p.flags["t"] != "zfs" {
		return usage("mount")
	}
	source, target := p.pos[0], p.pos[1]
	if _, ok := f.datasets[source]; !ok {
		return fail("filesystem '%s' cannot be mounted: dataset does not exist", source)
	}
	opts := "rw"
	for _, o := range strings.Split(p.flags["o"], ",") {
		if o == "ro" {
			opts = "ro"
		}
	}
	f.mounts = append(f.mounts, mount{source: source, target: target, fstype: "zfs", opts: opts})
	f.writeMountTable()
	return nil, nil
}

func (f *Fake) writeMountTable() {
	var b strings.Builder
	for _, m := range f.mounts {
		fmt.Fprintf(&b, "%s %s %s %s 0 0\n",
			strings.ReplaceAll(m.source, " ", `\040`),
			strings.ReplaceAll(m.target, " ", `\040`),
			m.fstype, m.opts)
	}
	_ = f.FS.WriteFile(MountTable, []byte(b.String()), 0o444)
}

func parentOf(name string) string {
	fs, _, _ := strings.Cut(name, "@")
	i := strings.LastIndexByte(fs, '/')
	if i < 0 {
		return ""
	}
	return fs[:i]
}

func replacePrefix(s, from, to string) (string, bool) {
	if s == from {
		return to, true
	}
	for _, sep := range []string{"/", "@"} {
		if strings.HasPrefix(s, from+sep) {
			return to + s[len(from):], true
		}
	}
	return s, false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func orDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}

func notExist(name string) ([]byte, error) {
	return fail("cannot open '%s': dataset does not exist", name)
}

func usage(cmd string) ([]byte, error) {
	return fail("%s: invalid usage", cmd)
}

func fail(format string, args ...any) ([]byte, error) {
	return []byte(fmt.Sprintf(format, args...) + "\n"), errExit
}
