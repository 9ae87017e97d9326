package system

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"strings"
	"testing"
)

func TestMockFS_ReadWriteFile(t *testing.T) {
	m := NewMockFS()

	if err := m.WriteFile("/proc/self/mounts", []byte("zroot/ROOT/default / zfs rw 0 0\n"), 0o444); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	data, err := m.ReadFile("/proc/self/mounts")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.HasPrefix(string(data), "zroot/ROOT/default") {
		t.Errorf("ReadFile() = %q", data)
	}
	if !m.IsDir("/proc/self") {
		t.Error("parent directories should be implied")
	}

	_, err = m.ReadFile("/etc/hostid")
	if !errors.Is(err, fs.ErrNotExist) || !os.IsNotExist(err) {
		t.Errorf("ReadFile(missing) error = %v, want not-exist", err)
	}

	m.ReadFileErr = errors.New("permission denied")
	if _, err := m.ReadFile("/proc/self/mounts"); err != m.ReadFileErr {
		t.Errorf("ReadFile() error = %v, want injected error", err)
	}
}

func TestMockFS_Directories(t *testing.T) {
	m := NewMockFS()

	if err := m.MkdirAll("/mnt/alt/", 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	for _, p := range []string{"/mnt", "/mnt/alt"} {
		if !m.IsDir(p) {
			t.Errorf("IsDir(%q) = false, want true", p)
		}
	}

	m.AddFile("/mnt/alt/etc/hostid", []byte{1, 2, 3, 4}, 0o644)
	if err := m.Remove("/mnt/alt"); err == nil {
		t.Error("Remove() of a non-empty directory should fail")
	}
	if err := m.Remove("/mnt/alt/etc/hostid"); err != nil {
		t.Fatalf("Remove(file) error = %v", err)
	}
	if err := m.Remove("/mnt/alt/etc"); err != nil {
		t.Fatalf("Remove(dir) error = %v", err)
	}
	if m.IsDir("/mnt/alt/etc") {
		t.Error("removed directory still reported")
	}
	if err := m.Remove("/nowhere"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Remove(missing) error = %v, want not-exist", err)
	}
}

func TestMockFS_MkdirTemp(t *testing.T) {
	m := NewMockFS()

	tests := []struct {
		pattern string
		want    string
	}{
		{"be_mount.*", "/tmp/be_mount.1"},
		{"be_*.d", "/tmp/be_2.d"},
		{"plain", "/tmp/plain3"},
	}
	for _, tt := range tests {
		got, err := m.MkdirTemp("/tmp", tt.pattern)
		if err != nil {
			t.Fatalf("MkdirTemp(%q) error = %v", tt.pattern, err)
		}
		if got != tt.want {
			t.Errorf("MkdirTemp(%q) = %q, want %q", tt.pattern, got, tt.want)
		}
		if !m.IsDir(got) {
			t.Errorf("IsDir(%q) = false after MkdirTemp", got)
		}
	}

	m.MkdirTempErr = errors.New("no space left on device")
	if _, err := m.MkdirTemp("/tmp", "be_mount.*"); err != m.MkdirTempErr {
		t.Errorf("MkdirTemp() error = %v, want injected error", err)
	}
}

func TestMockExecutor_Responses(t *testing.T) {
	m := NewMockExecutor()
	m.AddResponse("zfs", []byte("bare"), nil)
	m.AddResponse("zfs list", []byte("first arg"), nil)
	m.AddResponse("zfs list -H zroot", []byte("full"), nil)

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"list", "-H", "zroot"}, "full"},
		{[]string{"list", "-H", "zfake"}, "first arg"},
		{[]string{"get", "all"}, "bare"},
	}
	for _, tt := range tests {
		out, err := m.Execute(context.Background(), "zfs", tt.args...)
		if err != nil {
			t.Fatalf("Execute(%v) error = %v", tt.args, err)
		}
		if string(out) != tt.want {
			t.Errorf("Execute(%v) = %q, want %q", tt.args, out, tt.want)
		}
	}

	out, err := m.Execute(context.Background(), "zpool", "list")
	if out != nil || err != nil {
		t.Errorf("unmatched Execute() = %q, %v, want nil, nil", out, err)
	}

	want := []string{"zfs list -H zroot", "zfs list -H zfake", "zfs get all", "zpool list"}
	if got := m.CommandLines(); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("CommandLines() = %v, want %v", got, want)
	}
	if last, ok := m.LastCommand(); !ok || last.String() != "zpool list" {
		t.Errorf("LastCommand() = %v, %v", last, ok)
	}
}

func TestMockExecutor_Handler(t *testing.T) {
	m := NewMockExecutor()
	m.AddResponse("zfs", []byte("ignored"), nil)
	m.Handler = func(name string, args []string) ([]byte, error) {
		return []byte(name + ":" + strings.Join(args, ",")), nil
	}

	out, err := m.Execute(context.Background(), "zfs", "snapshot", "zroot/ROOT/default@a")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if string(out) != "zfs:snapshot,zroot/ROOT/default@a" {
		t.Errorf("Execute() = %q", out)
	}
}

func TestMockExecutor_CanceledContext(t *testing.T) {
	m := NewMockExecutor()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := m.Execute(ctx, "zfs", "list"); !errors.Is(err, context.Canceled) {
		t.Errorf("Execute() error = %v, want context.Canceled", err)
	}
	if _, ok := m.LastCommand(); !ok {
		t.Error("canceled commands should still be recorded")
	}
}

func TestDefaults(t *testing.T) {
	dir := t.TempDir()
	fsys := DefaultFS()

	tmp, err := fsys.MkdirTemp(dir, "be_mount.*")
	if err != nil {
		t.Fatalf("MkdirTemp() error = %v", err)
	}
	if !fsys.IsDir(tmp) {
		t.Errorf("IsDir(%q) = false", tmp)
	}
	if err := fsys.Remove(tmp); err != nil {
		t.Errorf("Remove() error = %v", err)
	}
	if fsys.IsDir(tmp) {
		t.Error("directory still exists after Remove")
	}

	if DefaultExecutor() == nil {
		t.Error("DefaultExecutor() = nil")
	}
}
