package be

import (
	"context"
	"fmt"
	"sync"

	"github.com/firefly-engineering/beadm/internal/errors"
	"github.com/firefly-engineering/beadm/internal/logging"
)

// ThreadSafeClient serializes every call to a Client that is not safe for
// concurrent use. A panic inside the wrapped client poisons the wrapper:
// the panicking call and every later call return an internal error without
// reaching the inner client again.
type ThreadSafeClient struct {
	mu       sync.Mutex
	inner    Client
	poisoned bool
}

// NewThreadSafeClient wraps inner.
func NewThreadSafeClient(inner Client) *ThreadSafeClient {
	return &ThreadSafeClient{inner: inner}
}

// Poisoned reports whether an earlier call panicked.
func (t *ThreadSafeClient) Poisoned() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.poisoned
}

// do runs fn with the lock held.
func (t *ThreadSafeClient) do(op string, fn func(Client) error) (err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.poisoned {
		return errors.Internal("client lock poisoned")
	}
	defer func() {
		if r := recover(); r != nil {
			t.poisoned = true
			logging.Error("boot environment client panicked", "op", op, "panic", fmt.Sprint(r))
			err = errors.Internal(fmt.Sprintf("%s panicked: %v", op, r))
		}
	}()
	return fn(t.inner)
}

func (t *ThreadSafeClient) Create(ctx context.Context, name string, opts CreateOptions) error {
	return t.do("create", func(c Client) error {
		return c.Create(ctx, name, opts)
	})
}

func (t *ThreadSafeClient) New(ctx context.Context, name string, opts NewOptions) error {
	return t.do("new", func(c Client) error {
		return c.New(ctx, name, opts)
	})
}

func (t *ThreadSafeClient) Destroy(ctx context.Context, target Label, opts DestroyOptions) error {
	return t.do("destroy", func(c Client) error {
		return c.Destroy(ctx, target, opts)
	})
}

func (t *ThreadSafeClient) Mount(ctx context.Context, name, path string, mode MountMode) (mountpoint string, err error) {
	err = t.do("mount", func(c Client) (err error) {
		mountpoint, err = c.Mount(ctx, name, path, mode)
		return err
	})
	return mountpoint, err
}

func (t *ThreadSafeClient) Unmount(ctx context.Context, target string, force bool) (prev string, err error) {
	err = t.do("unmount", func(c Client) (err error) {
		prev, err = c.Unmount(ctx, target, force)
		return err
	})
	return prev, err
}

func (t *ThreadSafeClient) Hostid(ctx context.Context, name string) (id uint32, ok bool, err error) {
	err = t.do("hostid", func(c Client) (err error) {
		id, ok, err = c.Hostid(ctx, name)
		return err
	})
	return id, ok, err
}

func (t *ThreadSafeClient) Rename(ctx context.Context, name, newName string) error {
	return t.do("rename", func(c Client) error {
		return c.Rename(ctx, name, newName)
	})
}

func (t *ThreadSafeClient) Activate(ctx context.Context, name string, temporary bool) error {
	return t.do("activate", func(c Client) error {
		return c.Activate(ctx, name, temporary)
	})
}

func (t *ThreadSafeClient) Deactivate(ctx context.Context, name string) error {
	return t.do("deactivate", func(c Client) error {
		return c.Deactivate(ctx, name)
	})
}

func (t *ThreadSafeClient) ClearBootOnce(ctx context.Context) error {
	return t.do("clear boot once", func(c Client) error {
		return c.ClearBootOnce(ctx)
	})
}

func (t *ThreadSafeClient) Rollback(ctx context.Context, name, snapshot string) error {
	return t.do("rollback", func(c Client) error {
		return c.Rollback(ctx, name, snapshot)
	})
}

func (t *ThreadSafeClient) BootEnvironments(ctx context.Context) (bes []BootEnvironment, err error) {
	err = t.do("list", func(c Client) (err error) {
		bes, err = c.BootEnvironments(ctx)
		return err
	})
	return bes, err
}

func (t *ThreadSafeClient) Snapshots(ctx context.Context, name string) (snaps []Snapshot, err error) {
	err = t.do("list snapshots", func(c Client) (err error) {
		snaps, err = c.Snapshots(ctx, name)
		return err
	})
	return snaps, err
}

func (t *ThreadSafeClient) Snapshot(ctx context.Context, source *Label, description string) (name string, err error) {
	err = t.do("snapshot", func(c Client) (err error) {
		name, err = c.Snapshot(ctx, source, description)
		return err
	})
	return name, err
}

func (t *ThreadSafeClient) Init(ctx context.Context, pool string) error {
	return t.do("init", func(c Client) error {
		return c.Init(ctx, pool)
	})
}

func (t *ThreadSafeClient) Describe(ctx context.Context, target Label, description string) error {
	return t.do("describe", func(c Client) error {
		return c.Describe(ctx, target, description)
	})
}

func (t *ThreadSafeClient) Close() error {
	return t.do("close", func(c Client) error {
		return c.Close()
	})
}
