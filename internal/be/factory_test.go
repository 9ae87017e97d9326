package be

import (
	"context"
	"testing"

	"github.com/firefly-engineering/beadm/internal/errors"
	"github.com/firefly-engineering/beadm/internal/libzfs/libzfstest"
)

func TestNewClient(t *testing.T) {
	ctx := context.Background()

	newFake := func() *libzfstest.Fake {
		f := libzfstest.New()
		f.AddPool("zroot")
		f.AddFilesystem("zroot/ROOT", map[string]string{"mountpoint": "none"})
		f.AddFilesystem("zroot/ROOT/default", map[string]string{"canmount": "noauto", "mountpoint": "/"})
		f.Mount("zroot/ROOT/default", "/")
		return f
	}

	t.Run("mock", func(t *testing.T) {
		c, err := New(ctx, &Config{Type: ClientMock})
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		defer c.Close()
		if _, ok := c.(*Emulator); !ok {
			t.Errorf("New() = %T, want *Emulator", c)
		}
		bes, _ := c.BootEnvironments(ctx)
		if len(bes) != 2 {
			t.Errorf("sampled emulator has %d boot environments, want 2", len(bes))
		}
	})

	t.Run("thread safe", func(t *testing.T) {
		c, err := New(ctx, &Config{Type: ClientMock, ThreadSafe: true})
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		if _, ok := c.(*ThreadSafeClient); !ok {
			t.Errorf("New() = %T, want *ThreadSafeClient", c)
		}
	})

	t.Run("libzfs detects root", func(t *testing.T) {
		f := newFake()
		c, err := New(ctx, &Config{Type: ClientLibZFS, Executor: f.Exec, FS: f.FS})
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		defer c.Close()
		native, ok := c.(*LibZFSClient)
		if !ok {
			t.Fatalf("New() = %T, want *LibZFSClient", c)
		}
		if native.Root().String() != "zroot/ROOT" {
			t.Errorf("Root() = %s, want zroot/ROOT", native.Root())
		}
	})

	t.Run("libzfs explicit root", func(t *testing.T) {
		f := newFake()
		f.AddFilesystem("zroot/OTHER", map[string]string{"mountpoint": "none"})
		c, err := New(ctx, &Config{Root: "zroot/OTHER", Executor: f.Exec, FS: f.FS})
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		defer c.Close()
		if got := c.(*LibZFSClient).Root().String(); got != "zroot/OTHER" {
			t.Errorf("Root() = %s, want zroot/OTHER", got)
		}
	})

	t.Run("errors", func(t *testing.T) {
		_, err := New(ctx, &Config{Type: "bogus"})
		wantKind(t, "New(bogus)", err, errors.KindConfig)

		_, err = New(ctx, &Config{Root: "zroot//ROOT"})
		wantKind(t, "New(bad root)", err, errors.KindInvalidName)

		f := libzfstest.New()
		f.MountOther("/dev/sda1", "/", "ext4")
		_, err = New(ctx, &Config{Executor: f.Exec, FS: f.FS})
		wantKind(t, "New(no zfs root)", err, errors.KindNoActiveBootEnvironment)
	})
}

func TestParseLabel(t *testing.T) {
	tests := []struct {
		in      string
		want    Label
		wantErr string
	}{
		{in: "default", want: Label{Name: "default"}},
		{in: "default@snap", want: Label{Name: "default", Snapshot: "snap"}},
		{in: "", wantErr: "boot environment name cannot be empty"},
		{in: "@snap", wantErr: "boot environment name cannot be empty"},
		{in: "default@", wantErr: "snapshot name cannot be empty"},
		{in: "a@b@c", wantErr: "too many '@' characters"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLabel(tt.in)
			if tt.wantErr != "" {
				var beErr *errors.BEError
				if !errors.As(err, &beErr) || beErr.Kind != errors.KindInvalidName {
					t.Fatalf("ParseLabel(%q) error = %v, want InvalidName", tt.in, err)
				}
				if want := "invalid boot environment name '" + tt.in + "': " + tt.wantErr; beErr.Error() != want {
					t.Errorf("ParseLabel(%q) error = %q, want %q", tt.in, beErr.Error(), want)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLabel(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseLabel(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
			if got.String() != tt.in {
				t.Errorf("String() = %q, want %q", got.String(), tt.in)
			}
		})
	}
}

func TestParseProperties(t *testing.T) {
	got, err := ParseProperties([]string{"compression=lz4", "org:note=a=b"})
	if err != nil {
		t.Fatalf("ParseProperties() error = %v", err)
	}
	if got["compression"] != "lz4" || got["org:note"] != "a=b" {
		t.Errorf("ParseProperties() = %v", got)
	}

	for _, bad := range []string{"novalue", "=x", "key="} {
		if _, err := ParseProperties([]string{bad}); !errors.IsKind(err, errors.KindInvalidProp) {
			t.Errorf("ParseProperties(%q) error = %v, want InvalidProp", bad, err)
		}
	}
}

func TestParseHostID(t *testing.T) {
	tests := []struct {
		in   string
		want uint32
		ok   bool
	}{
		{"deadbeef", 0xdeadbeef, true},
		{"0x00c0ffee", 0xc0ffee, true},
		{"0XABC", 0xabc, true},
		{"", 0, false},
		{"0x", 0, false},
		{"123456789", 0, false},
		{"zz", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseHostID(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("ParseHostID(%q) = %#x, %v, want %#x", tt.in, got, err, tt.want)
		}
	}
	if got := FormatHostID(0xc0ffee); got != "0x00c0ffee" {
		t.Errorf("FormatHostID() = %q, want 0x00c0ffee", got)
	}
}

func TestParseMountMode(t *testing.T) {
	for in, want := range map[string]MountMode{"rw": MountReadWrite, "": MountReadWrite, "ro": MountReadOnly} {
		got, err := ParseMountMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMountMode(%q) = %v, %v, want %v", in, got, err, want)
		}
	}
	if _, err := ParseMountMode("rx"); !errors.IsKind(err, errors.KindInvalidProp) {
		t.Errorf("ParseMountMode(rx) error = %v, want InvalidProp", err)
	}
}
