package testutil

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/firefly-engineering/beadm/internal/audit"
	"github.com/firefly-engineering/beadm/internal/be"
)

func TestLoadValidConfig(t *testing.T) {
	cfg, err := ValidConfig()
	if err != nil {
		t.Fatalf("ValidConfig() error: %v", err)
	}

	if cfg.Root != "zroot/ROOT" {
		t.Errorf("Root = %q, want %q", cfg.Root, "zroot/ROOT")
	}
	if !cfg.ThreadSafe {
		t.Error("ThreadSafe should be true")
	}
	if cfg.ZFS.Zpool != "/usr/sbin/zpool" {
		t.Errorf("ZFS.Zpool = %q, want %q", cfg.ZFS.Zpool, "/usr/sbin/zpool")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Valid config should pass validation: %v", err)
	}
}

func TestLoadInvalidConfig(t *testing.T) {
	cfg, err := InvalidConfig()
	if err != nil {
		t.Fatalf("InvalidConfig() error: %v", err)
	}

	if err := cfg.Validate(); err == nil {
		t.Error("Invalid config should fail validation")
	}
}

func TestAptInstallSession(t *testing.T) {
	data, err := AptInstallSession()
	if err != nil {
		t.Fatalf("AptInstallSession() error: %v", err)
	}

	// Five messages, each followed by an empty line.
	if got := bytes.Count(data, []byte("\n\n")); got != 5 {
		t.Errorf("session has %d terminated messages, want 5", got)
	}
}

func TestLoadFixtureMissing(t *testing.T) {
	if _, err := LoadFixture("nope.toml"); err == nil {
		t.Error("LoadFixture() of a missing file should fail")
	}
}

func TestNewTestEnv(t *testing.T) {
	env := NewTestEnv(t)

	if env.App.Client != env.Emulator {
		t.Error("App.Client should be the environment's emulator")
	}
	if env.BootEnvironment("default") == nil {
		t.Error("sampled emulator should contain default")
	}
	if env.BootEnvironment("missing") != nil {
		t.Error("BootEnvironment(missing) should be nil")
	}

	env.App.Record(audit.EventCreate, "alt", "")
	if got := env.Events("alt"); len(got) != 1 {
		t.Errorf("Events(alt) = %+v, want one event", got)
	}

	mp, err := env.Emulator.Mount(context.Background(), "alt", "", be.MountReadWrite)
	if err != nil {
		t.Fatalf("Mount() error: %v", err)
	}
	if !strings.HasPrefix(mp, env.Config.ZFS.TempDir+"/be_mount.") {
		t.Errorf("temporary mountpoint %q not under %q", mp, env.Config.ZFS.TempDir)
	}
}
