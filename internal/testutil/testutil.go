// Package testutil provides test utilities for command tests
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/firefly-engineering/beadm/internal/app"
	"github.com/firefly-engineering/beadm/internal/audit"
	"github.com/firefly-engineering/beadm/internal/be"
	"github.com/firefly-engineering/beadm/internal/config"
)

// FixedTime is the clock reading of every TestEnv emulator.
var FixedTime = time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

// TestEnv holds the test environment
type TestEnv struct {
	T        *testing.T
	TmpDir   string
	Config   *config.Config
	Emulator *be.Emulator
	Audit    *audit.Logger
	App      *app.App
}

// NewTestEnv creates a test environment backed by the sampled emulator,
// with its state directory and temporary mountpoints under t.TempDir().
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	tmpDir := t.TempDir()

	cfg := config.Default()
	cfg.Client = string(be.ClientMock)
	cfg.StateDir = filepath.Join(tmpDir, "state")
	cfg.ZFS.TempDir = filepath.Join(tmpDir, "tmp")

	for _, dir := range []string{cfg.StateDir, cfg.ZFS.TempDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}

	emulator := be.NewSampledEmulator(
		be.WithEmulatorClock(func() time.Time { return FixedTime }),
		be.WithEmulatorTempDir(cfg.ZFS.TempDir),
	)
	logger := audit.NewLogger(cfg.EventsPath())

	testApp, err := app.New(context.Background(),
		app.WithConfig(cfg),
		app.WithClient(emulator),
		app.WithAudit(logger),
	)
	if err != nil {
		t.Fatalf("Failed to create app: %v", err)
	}

	return &TestEnv{
		T:        t,
		TmpDir:   tmpDir,
		Config:   cfg,
		Emulator: emulator,
		Audit:    logger,
		App:      testApp,
	}
}

// WriteConfig writes the environment's config as TOML and returns its path.
func (e *TestEnv) WriteConfig(content string) string {
	e.T.Helper()

	path := filepath.Join(e.TmpDir, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		e.T.Fatalf("Failed to write config: %v", err)
	}
	return path
}

// BootEnvironment returns the named boot environment, or nil.
func (e *TestEnv) BootEnvironment(name string) *be.BootEnvironment {
	e.T.Helper()

	bes, err := e.Emulator.BootEnvironments(context.Background())
	if err != nil {
		e.T.Fatalf("BootEnvironments() error: %v", err)
	}
	for i := range bes {
		if bes[i].Name == name {
			return &bes[i]
		}
	}
	return nil
}

// Events returns the recorded audit events for name, or all events if
// name is empty.
func (e *TestEnv) Events(name string) []audit.Event {
	e.T.Helper()

	events, err := e.Audit.Events(name)
	if err != nil {
		e.T.Fatalf("Events() error: %v", err)
	}
	return events
}
