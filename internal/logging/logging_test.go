package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestSetup(t *testing.T) {
	tests := []struct {
		name      string
		verbose   bool
		json      bool
		log       func()
		wantEmpty bool
		want      string
	}{
		{"info text", false, false, func() { Info("listing", "root", "zroot/ROOT") }, false, "root=zroot/ROOT"},
		{"warn text", false, false, func() { Warn("mount table unreadable") }, false, "level=WARN"},
		{"error text", false, false, func() { Error("zfs failed", "exit", 1) }, false, "exit=1"},
		{"debug hidden", false, false, func() { Debug("zfs", "cmd", "zfs list") }, true, ""},
		{"debug verbose", true, false, func() { Debug("zfs", "cmd", "zfs list") }, false, `cmd="zfs list"`},
		{"json", false, true, func() { Info("activated", "be", "alt") }, false, `"be":"alt"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Setup(tt.verbose, tt.json, &buf)
			t.Cleanup(func() { Setup(false, false, nil) })

			tt.log()
			got := buf.String()
			if tt.wantEmpty {
				if got != "" {
					t.Errorf("output = %q, want none", got)
				}
				return
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("output = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestSetup_JSONIsValid(t *testing.T) {
	var buf bytes.Buffer
	Setup(false, true, &buf)
	t.Cleanup(func() { Setup(false, false, nil) })

	Info("created", "be", "upgrade", "source", "default@nightly")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output %q is not JSON: %v", buf.String(), err)
	}
	if rec["msg"] != "created" || rec["source"] != "default@nightly" {
		t.Errorf("record = %v", rec)
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	Setup(false, false, &buf)
	t.Cleanup(func() { Setup(false, false, nil) })

	With("root", "zroot/ROOT").Info("scan")

	if got := buf.String(); !strings.Contains(got, "msg=scan") || !strings.Contains(got, "root=zroot/ROOT") {
		t.Errorf("output = %q", got)
	}
}

func TestUserOutput(t *testing.T) {
	var out, errOut bytes.Buffer
	oldOut, oldErr := Stdout, Stderr
	Stdout, Stderr = &out, &errOut
	t.Cleanup(func() { Stdout, Stderr = oldOut, oldErr })

	UserInfo("listing %s", "zroot/ROOT")
	UserSuccess("created %s", "alt")
	UserWarning("%s is mounted", "alt")
	UserError("failed: %v", "boom")

	if got := out.String(); got != "ℹ listing zroot/ROOT\n✓ created alt\n" {
		t.Errorf("stdout = %q", got)
	}
	if got := errOut.String(); got != "⚠ alt is mounted\n✗ failed: boom\n" {
		t.Errorf("stderr = %q", got)
	}
}
