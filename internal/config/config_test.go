package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/firefly-engineering/beadm/internal/be"
	"github.com/firefly-engineering/beadm/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Client != "libzfs" {
		t.Errorf("Client = %q, want %q", cfg.Client, "libzfs")
	}
	if cfg.StateDir != DefaultStateDir {
		t.Errorf("StateDir = %q, want %q", cfg.StateDir, DefaultStateDir)
	}
	if cfg.ZFS.TempDir != DefaultTempDir {
		t.Errorf("ZFS.TempDir = %q, want %q", cfg.ZFS.TempDir, DefaultTempDir)
	}
	if got, want := cfg.EventsPath(), filepath.Join(DefaultStateDir, "events.jsonl"); got != want {
		t.Errorf("EventsPath() = %q, want %q", got, want)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
root = "tank/ROOT"
client = "mock"
thread_safe = true
state_dir = "/srv/beadm"

[zfs]
zfs = "/sbin/zfs"
zpool = "/sbin/zpool"
mount_table = "/proc/mounts"
`)

	cfg, err := Load(path, true)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Root != "tank/ROOT" {
		t.Errorf("Root = %q, want %q", cfg.Root, "tank/ROOT")
	}
	if cfg.Client != "mock" {
		t.Errorf("Client = %q, want %q", cfg.Client, "mock")
	}
	if !cfg.ThreadSafe {
		t.Error("ThreadSafe = false, want true")
	}
	if cfg.StateDir != "/srv/beadm" {
		t.Errorf("StateDir = %q, want %q", cfg.StateDir, "/srv/beadm")
	}
	if cfg.ZFS.ZFS != "/sbin/zfs" || cfg.ZFS.Zpool != "/sbin/zpool" {
		t.Errorf("ZFS = %+v", cfg.ZFS)
	}
	if cfg.ZFS.TempDir != DefaultTempDir {
		t.Errorf("ZFS.TempDir = %q, want default %q", cfg.ZFS.TempDir, DefaultTempDir)
	}

	cc := cfg.ClientConfig()
	want := be.Config{
		Type:       be.ClientMock,
		Root:       "tank/ROOT",
		ThreadSafe: true,
		ZFS:        "/sbin/zfs",
		Zpool:      "/sbin/zpool",
		MountTable: "/proc/mounts",
		TempDir:    DefaultTempDir,
	}
	if *cc != want {
		t.Errorf("ClientConfig() = %+v, want %+v", *cc, want)
	}
}

func TestLoadMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.toml")

	cfg, err := Load(missing, false)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Client != "libzfs" {
		t.Errorf("Client = %q, want default", cfg.Client)
	}

	_, err = Load(missing, true)
	if !errors.IsKind(err, errors.KindConfig) {
		t.Errorf("Load(required) error = %v, want config error", err)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", `root = `},
		{"unknown key", `roots = "zroot/ROOT"`},
		{"bad client", `client = "docker"`},
		{"bad root", `root = "zroot//ROOT"`},
		{"relative state dir", `state_dir = "state"`},
		{"relative temp dir", "[zfs]\ntemp_dir = \"tmp\""},
		{"relative mount table", "[zfs]\nmount_table = \"mounts\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content), true)
			if !errors.IsKind(err, errors.KindConfig) {
				t.Errorf("Load() error = %v, want config error", err)
			}
			if got := errors.GetExitCode(err); got != errors.ExitConfigError {
				t.Errorf("GetExitCode() = %d, want %d", got, errors.ExitConfigError)
			}
		})
	}
}

func TestPath(t *testing.T) {
	t.Setenv(EnvConfig, "")
	if got := Path(""); got != DefaultConfigFile {
		t.Errorf("Path() = %q, want %q", got, DefaultConfigFile)
	}

	t.Setenv(EnvConfig, "/etc/other.toml")
	if got := Path(""); got != "/etc/other.toml" {
		t.Errorf("Path() = %q, want $BEADM_CONFIG", got)
	}
	if got := Path("/root/explicit.toml"); got != "/root/explicit.toml" {
		t.Errorf("Path(explicit) = %q, want explicit path", got)
	}
}
