package libzfs

import (
	"context"
	"sync"

	"github.com/kballard/go-shellquote"

	"github.com/firefly-engineering/beadm/internal/dataset"
	"github.com/firefly-engineering/beadm/internal/logging"
	"github.com/firefly-engineering/beadm/internal/system"
)

// Default locations of the userland tools and the kernel mount table.
const (
	DefaultZFS        = "zfs"
	DefaultZpool      = "zpool"
	DefaultMount      = "mount"
	DefaultMountTable = "/proc/self/mounts"
)

// Option configures a Handle.
type Option func(*Handle)

// WithExecutor sets the command executor.
func WithExecutor(exec system.CommandExecutor) Option {
	return func(h *Handle) {
		h.exec = exec
	}
}

// WithFileSystem sets the filesystem used for the mount table and hostid.
func WithFileSystem(fs system.FileSystem) Option {
	return func(h *Handle) {
		h.fs = fs
	}
}

// WithBinaries overrides the zfs, zpool and mount programs. Empty values
// keep the defaults.
func WithBinaries(zfs, zpool, mount string) Option {
	return func(h *Handle) {
		if zfs != "" {
			h.zfsBin = zfs
		}
		if zpool != "" {
			h.zpoolBin = zpool
		}
		if mount != "" {
			h.mountBin = mount
		}
	}
}

// WithMountTable sets the mount table path.
func WithMountTable(path string) Option {
	return func(h *Handle) {
		if path != "" {
			h.mountTable = path
		}
	}
}

// WithUserProperties adds user properties that are fetched along with the
// native ones whenever a dataset is opened or iterated.
func WithUserProperties(props ...string) Option {
	return func(h *Handle) {
		h.userProps = append(h.userProps, props...)
	}
}

// Handle is a library session. It is not safe for concurrent use.
type Handle struct {
	exec       system.CommandExecutor
	fs         system.FileSystem
	zfsBin     string
	zpoolBin   string
	mountBin   string
	mountTable string
	userProps  []string

	mu          sync.Mutex
	closed      bool
	outstanding int
	iterating   bool
}

// Init opens a library session.
func Init(opts ...Option) (*Handle, error) {
	h := &Handle{
		exec:       system.DefaultExecutor(),
		fs:         system.DefaultFS(),
		zfsBin:     DefaultZFS,
		zpoolBin:   DefaultZpool,
		mountBin:   DefaultMount,
		mountTable: DefaultMountTable,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Close releases the session. Closing twice returns ErrClosed.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	h.closed = true
	if h.outstanding > 0 {
		logging.Warn("libzfs session closed with open handles", "outstanding", h.outstanding)
	}
	return nil
}

// Outstanding returns the number of owned dataset and pool handles that have
// not been closed.
func (h *Handle) Outstanding() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.outstanding
}

// FS returns the filesystem the session reads from.
func (h *Handle) FS() system.FileSystem {
	return h.fs
}

func (h *Handle) acquire() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	h.outstanding++
	return nil
}

func (h *Handle) release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.outstanding--
}

func (h *Handle) beginIteration() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	if h.iterating {
		return ErrReentrant
	}
	h.iterating = true
	return nil
}

func (h *Handle) endIteration() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.iterating = false
}

func (h *Handle) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// run executes one userland command and converts a failure into *Error.
func (h *Handle) run(ctx context.Context, bin string, args ...string) ([]byte, error) {
	if h.isClosed() {
		return nil, ErrClosed
	}

	logging.Debug("exec", "cmd", shellquote.Join(append([]string{bin}, args...)...))

	out, err := h.exec.Execute(ctx, bin, args...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		op := bin
		if len(args) > 0 {
			op += " " + args[0]
		}
		return out, newError(op, out, err)
	}
	return out, nil
}

func (h *Handle) zfs(ctx context.Context, args ...string) ([]byte, error) {
	return h.run(ctx, h.zfsBin, args...)
}

func (h *Handle) zpool(ctx context.Context, args ...string) ([]byte, error) {
	return h.run(ctx, h.zpoolBin, args...)
}

// Mounts reads the current mount table.
func (h *Handle) Mounts() ([]MountEntry, error) {
	data, err := h.fs.ReadFile(h.mountTable)
	if err != nil {
		return nil, err
	}
	return ParseMountTable(data), nil
}

// RootFS returns the ZFS dataset mounted at "/", if any.
func (h *Handle) RootFS() (dataset.Name, bool, error) {
	mounts, err := h.Mounts()
	if err != nil {
		return dataset.Name{}, false, err
	}

	// Later entries shadow earlier ones at the same target.
	var root dataset.Name
	found := false
	for _, m := range mounts {
		if m.Target != "/" {
			continue
		}
		if m.FSType != "zfs" {
			root, found = dataset.Name{}, false
			continue
		}
		if n, err := dataset.New(m.Source); err == nil && !n.IsSnapshot() {
			root, found = n, true
		}
	}
	return root, found, nil
}
