package be

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/firefly-engineering/beadm/internal/errors"
)

// panickyClient panics on Rename and counts the calls that reach it.
type panickyClient struct {
	*Emulator
	mu    sync.Mutex
	calls int
}

func (p *panickyClient) Rename(ctx context.Context, name, newName string) error {
	p.count()
	panic("rename exploded")
}

func (p *panickyClient) BootEnvironments(ctx context.Context) ([]BootEnvironment, error) {
	p.count()
	return p.Emulator.BootEnvironments(ctx)
}

func (p *panickyClient) count() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
}

func TestThreadSafeClientForwards(t *testing.T) {
	ctx := context.Background()
	c := NewThreadSafeClient(newSampled())

	if err := c.Create(ctx, "web", CreateOptions{Description: "desc"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	mp, err := c.Mount(ctx, "web", "/mnt/web", MountReadOnly)
	if err != nil || mp != "/mnt/web" {
		t.Errorf("Mount() = %q, %v", mp, err)
	}
	id, ok, err := c.Hostid(ctx, "web")
	if err != nil || !ok || id != 0xdeadbeef {
		t.Errorf("Hostid() = %#x, %v, %v", id, ok, err)
	}
	prev, err := c.Unmount(ctx, "/mnt/web", false)
	if err != nil || prev != "/mnt/web" {
		t.Errorf("Unmount() = %q, %v", prev, err)
	}
	snap, err := c.Snapshot(ctx, &Label{Name: "web"}, "")
	if err != nil || snap != "web@2024-03-01T12:30:00Z" {
		t.Errorf("Snapshot() = %q, %v", snap, err)
	}
	snaps, err := c.Snapshots(ctx, "web")
	if err != nil || len(snaps) != 1 {
		t.Errorf("Snapshots() = %v, %v", snaps, err)
	}

	wantKind(t, "Destroy(default)", c.Destroy(ctx, Label{Name: "default"}, DestroyOptions{}), errors.KindCannotDestroyActive)
	if c.Poisoned() {
		t.Error("ordinary errors poisoned the wrapper")
	}
}

func TestThreadSafeClientPoisoning(t *testing.T) {
	ctx := context.Background()
	inner := &panickyClient{Emulator: newSampled()}
	c := NewThreadSafeClient(inner)

	if _, err := c.BootEnvironments(ctx); err != nil {
		t.Fatalf("BootEnvironments() error = %v", err)
	}

	err := c.Rename(ctx, "alt", "beta")
	wantKind(t, "Rename()", err, errors.KindInternal)
	if !c.Poisoned() {
		t.Fatal("Poisoned() = false after panic")
	}

	_, err = c.BootEnvironments(ctx)
	wantKind(t, "BootEnvironments() after panic", err, errors.KindInternal)
	if err == nil || err.Error() != "client lock poisoned" {
		t.Errorf("error = %v, want client lock poisoned", err)
	}
	if inner.calls != 2 {
		t.Errorf("inner client saw %d calls, want 2", inner.calls)
	}
}

func TestThreadSafeClientConcurrent(t *testing.T) {
	ctx := context.Background()
	c := NewThreadSafeClient(NewEmulator("pool/ROOT", nil))

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers*2)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("be%d", i)
			errs <- c.New(ctx, name, NewOptions{})
			// Every worker races for the same name; exactly one wins.
			errs <- c.New(ctx, "shared", NewOptions{})
			_, _ = c.BootEnvironments(ctx)
			_ = c.Activate(ctx, name, i%2 == 0)
		}(i)
	}
	wg.Wait()
	close(errs)

	conflicts := 0
	for err := range errs {
		if errors.IsKind(err, errors.KindConflict) {
			conflicts++
		} else if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if conflicts != workers-1 {
		t.Errorf("conflicts = %d, want %d", conflicts, workers-1)
	}

	bes, _ := c.BootEnvironments(ctx)
	if len(bes) != workers+1 {
		t.Errorf("BootEnvironments() returned %d entries, want %d", len(bes), workers+1)
	}
	next, once := countFlags(bes)
	if next+once != 1 {
		t.Errorf("next=%d once=%d, want exactly one boot target", next, once)
	}
}
