package dataset

import (
	"strings"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	tests := []struct {
		path    string
		wantErr bool
	}{
		{"zroot", false},
		{"zroot/ROOT/default", false},
		{"zroot/ROOT/default@2021-06-10T04:30:00Z", false},
		{"zroot/ROOT/default@.hidden", false},
		{"", true},
		{"zroot/ROOT/", true},
		{"zroot/ROOT/def ault", true},
		{"zroot/ROOT/default@", true},
		{"zroot/ROOT/default@a@b", true},
		{"zroot/ROOT/default@a b", true},
		{"zroot/ROOT/de\x00fault", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			n, err := New(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if err == nil && n.String() != tt.path {
				t.Errorf("String() = %q, want %q", n.String(), tt.path)
			}
		})
	}
}

func TestAppendAndSnapshot(t *testing.T) {
	root := MustNew("zroot/ROOT")

	be, err := root.Append("default")
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if be.String() != "zroot/ROOT/default" {
		t.Errorf("Append() = %q, want %q", be.String(), "zroot/ROOT/default")
	}

	if _, err := root.Append("-bad"); err == nil {
		t.Error("Append(-bad) should fail")
	}
	if _, err := root.Append("a/b"); err == nil {
		t.Error("Append(a/b) should fail")
	}

	snap, err := be.Snapshot("-weird")
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if snap.String() != "zroot/ROOT/default@-weird" {
		t.Errorf("Snapshot() = %q", snap.String())
	}
	if _, err := snap.Snapshot("again"); err == nil {
		t.Error("Snapshot() of a snapshot should fail")
	}
	if _, err := snap.Append("child"); err == nil {
		t.Error("Append() to a snapshot should fail")
	}
	if _, err := be.Snapshot(""); err == nil {
		t.Error("Snapshot(\"\") should fail")
	}
	if _, err := root.Append(strings.Repeat("a", 250)); err == nil {
		t.Error("Append() past the length ceiling should fail")
	}
}

func TestAccessors(t *testing.T) {
	snap := MustNew("zroot/ROOT/default@backup")

	if !snap.IsSnapshot() {
		t.Error("IsSnapshot() = false, want true")
	}
	if got := snap.Filesystem().String(); got != "zroot/ROOT/default" {
		t.Errorf("Filesystem() = %q", got)
	}
	if got := snap.Tag(); got != "backup" {
		t.Errorf("Tag() = %q, want backup", got)
	}
	if got := snap.Pool(); got != "zroot" {
		t.Errorf("Pool() = %q, want zroot", got)
	}
	if got := snap.Basename(); got != "default" {
		t.Errorf("Basename() = %q, want default", got)
	}
	parent, ok := snap.Parent()
	if !ok || parent.String() != "zroot/ROOT" {
		t.Errorf("Parent() = %q, %v", parent.String(), ok)
	}
	if _, ok := MustNew("zroot").Parent(); ok {
		t.Error("Parent() of pool should report false")
	}

	be := MustNew("zroot/ROOT/default")
	root := MustNew("zroot/ROOT")
	if !be.IsChildOf(root) {
		t.Error("IsChildOf() = false, want true")
	}
	if snap.IsChildOf(root) {
		t.Error("IsChildOf() for snapshot = true, want false")
	}
	if MustNew("zroot/ROOT/default/var").IsChildOf(root) {
		t.Error("IsChildOf() for grandchild = true, want false")
	}

	rel, err := be.RelativeTo(root)
	if err != nil || rel != "default" {
		t.Errorf("RelativeTo() = %q, %v", rel, err)
	}
	if _, err := MustNew("tank/x").RelativeTo(root); err == nil {
		t.Error("RelativeTo() outside parent should fail")
	}
	if !(Name{}).IsZero() {
		t.Error("IsZero() = false for zero value")
	}
}

func TestGenerateSnapshot(t *testing.T) {
	loc := time.FixedZone("X", 5*3600)
	now := time.Date(2021, 6, 10, 9, 30, 0, 0, loc)

	snap, err := MustNew("zroot/ROOT/default").GenerateSnapshot(now)
	if err != nil {
		t.Fatalf("GenerateSnapshot() error = %v", err)
	}
	if got := snap.Tag(); got != "2021-06-10T04:30:00Z" {
		t.Errorf("Tag() = %q, want 2021-06-10T04:30:00Z", got)
	}

	earlier := SnapshotTag(now.Add(-time.Second))
	if !(earlier < snap.Tag()) {
		t.Errorf("tags should sort by time: %q !< %q", earlier, snap.Tag())
	}
}
