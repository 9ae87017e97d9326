package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/firefly-engineering/beadm/internal/audit"
	"github.com/firefly-engineering/beadm/internal/be"
	"github.com/firefly-engineering/beadm/internal/config"
)

func mockConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Client = "mock"
	cfg.StateDir = t.TempDir()
	return cfg
}

func TestNew_MockConfig(t *testing.T) {
	a, err := New(context.Background(), WithConfig(mockConfig(t)))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	if _, ok := a.Client.(*be.Emulator); !ok {
		t.Errorf("Client = %T, want *be.Emulator", a.Client)
	}
	if a.Audit != nil {
		t.Error("mock client should not record audit events by default")
	}
}

func TestNew_WithClient(t *testing.T) {
	client := be.NewSampledEmulator()
	cfg := mockConfig(t)
	cfg.Client = "libzfs"

	a, err := New(context.Background(), WithConfig(cfg), WithClient(client))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if a.Client != client {
		t.Error("WithClient did not set client")
	}
	if a.Audit == nil {
		t.Fatal("libzfs config should enable the audit log")
	}
	if got, want := a.Audit.Path(), filepath.Join(cfg.StateDir, "events.jsonl"); got != want {
		t.Errorf("Audit.Path() = %q, want %q", got, want)
	}
}

func TestNew_WithAudit(t *testing.T) {
	logger := audit.NewLogger(filepath.Join(t.TempDir(), "events.jsonl"))

	a, err := New(context.Background(), WithConfig(mockConfig(t)), WithAudit(logger))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if a.Audit != logger {
		t.Error("WithAudit did not set audit logger")
	}

	a.Record(audit.EventCreate, "upgrade", "source=default")
	events, err := logger.Events("upgrade")
	if err != nil {
		t.Fatalf("Events() error = %v", err)
	}
	if len(events) != 1 || events[0].Type != audit.EventCreate {
		t.Errorf("events = %+v, want one create event", events)
	}
}

func TestNew_WithoutAudit(t *testing.T) {
	logger := audit.NewLogger(filepath.Join(t.TempDir(), "events.jsonl"))

	a, err := New(context.Background(),
		WithConfig(mockConfig(t)),
		WithAudit(logger),
		WithoutAudit(),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if a.Audit != nil {
		t.Error("WithoutAudit should disable the audit log")
	}
	// Record on a nil logger is a no-op.
	a.Record(audit.EventDestroy, "upgrade", "")
}

func TestNew_BadConfig(t *testing.T) {
	cfg := mockConfig(t)
	cfg.Client = "bogus"

	if _, err := New(context.Background(), WithConfig(cfg)); err == nil {
		t.Error("New() with an unknown client type succeeded")
	}
}

func TestClose_NoClient(t *testing.T) {
	a := &App{}
	if err := a.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
