package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestBEError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *BEError
		wantMsg string
	}{
		{
			name:    "without cause",
			err:     New(KindGeneral, ExitGeneralError, "", "something went wrong"),
			wantMsg: "something went wrong",
		},
		{
			name:    "with cause",
			err:     Wrap(KindGeneral, ExitGeneralError, "", "operation failed", fmt.Errorf("underlying error")),
			wantMsg: "operation failed: underlying error",
		},
		{
			name:    "not found",
			err:     NotFound("alt"),
			wantMsg: "boot environment 'alt' not found",
		},
		{
			name:    "invalid name",
			err:     InvalidName("-bad", "name cannot begin with '-'"),
			wantMsg: "invalid boot environment name '-bad': name cannot begin with '-'",
		},
		{
			name:    "mounted",
			err:     Mounted("alt", "/mnt"),
			wantMsg: "boot environment 'alt' is currently mounted at '/mnt'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestBEError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := Native(cause)

	if unwrapped := err.Unwrap(); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	if unwrapped := NotFound("x").Unwrap(); unwrapped != nil {
		t.Errorf("Unwrap() = %v, want nil", unwrapped)
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *BEError
		wantKind Kind
		wantCode int
		wantName string
	}{
		{"NotFound", NotFound("be"), KindNotFound, ExitNotFound, "be"},
		{"Conflict", Conflict("be"), KindConflict, ExitConflict, "be"},
		{"InvalidName", InvalidName("be", "r"), KindInvalidName, ExitInvalidArgument, "be"},
		{"InvalidPath", InvalidPath("/x"), KindInvalidPath, ExitInvalidArgument, "/x"},
		{"InvalidProp", InvalidProp("k", "v"), KindInvalidProp, ExitInvalidArgument, "k"},
		{"MountPointInUse", MountPointInUse("/mnt/a"), KindMountPointInUse, ExitMountState, "/mnt/a"},
		{"Mounted", Mounted("be", "/mnt"), KindMounted, ExitMountState, "be"},
		{"NotMounted", NotMounted("be"), KindNotMounted, ExitMountState, "be"},
		{"CannotDestroyActive", CannotDestroyActive("be"), KindCannotDestroyActive, ExitActive, "be"},
		{"HasSnapshots", HasSnapshots("be"), KindHasSnapshots, ExitConflict, "be"},
		{"UnmountFailed", UnmountFailed("be", fmt.Errorf("busy")), KindUnmountFailed, ExitMountState, "be"},
		{"NoActiveBootEnvironment", NoActiveBootEnvironment(), KindNoActiveBootEnvironment, ExitNotFound, ""},
		{"InvalidRoot", InvalidRoot("zroot"), KindInvalidRoot, ExitInvalidArgument, "zroot"},
		{"Native", Native(fmt.Errorf("x")), KindNative, ExitNativeError, ""},
		{"IO", IO(fmt.Errorf("x")), KindIO, ExitIOError, ""},
		{"Internal", Internal("poisoned"), KindInternal, ExitGeneralError, ""},
		{"Unsupported", Unsupported("rollback"), KindUnsupported, ExitGeneralError, "rollback"},
		{"ConfigError", ConfigError("bad", nil), KindConfig, ExitConfigError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", tt.err.Kind, tt.wantKind)
			}
			if tt.err.Code != tt.wantCode {
				t.Errorf("Code = %d, want %d", tt.err.Code, tt.wantCode)
			}
			if tt.err.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", tt.err.Name, tt.wantName)
			}
		})
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{
			name:     "BEError",
			err:      NotFound("test"),
			wantCode: ExitNotFound,
		},
		{
			name:     "wrapped BEError",
			err:      fmt.Errorf("outer: %w", Conflict("test")),
			wantCode: ExitConflict,
		},
		{
			name:     "regular error",
			err:      fmt.Errorf("some error"),
			wantCode: ExitGeneralError,
		},
		{
			name:     "nil error",
			err:      nil,
			wantCode: ExitGeneralError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetExitCode(tt.err); got != tt.wantCode {
				t.Errorf("GetExitCode() = %d, want %d", got, tt.wantCode)
			}
		})
	}
}

func TestIsKind(t *testing.T) {
	wrapped := fmt.Errorf("listing: %w", NotFound("alt"))

	if !IsKind(wrapped, KindNotFound) {
		t.Error("IsKind() should find wrapped NotFound")
	}
	if IsKind(wrapped, KindConflict) {
		t.Error("IsKind() should not match a different kind")
	}
	if IsKind(fmt.Errorf("plain"), KindNotFound) {
		t.Error("IsKind() should be false for non-BEError")
	}
	if got := KindOf(fmt.Errorf("plain")); got != KindGeneral {
		t.Errorf("KindOf() = %v, want %v", got, KindGeneral)
	}
}

func TestRPCCategory(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{NotFound("x"), RPCUnknownObject},
		{InvalidName("x", "r"), RPCInvalidArgs},
		{InvalidPath("x"), RPCInvalidArgs},
		{InvalidProp("x", "y"), RPCInvalidArgs},
		{InvalidRoot("x"), RPCInvalidArgs},
		{Conflict("x"), RPCFailed},
		{CannotDestroyActive("x"), RPCFailed},
		{fmt.Errorf("plain"), RPCFailed},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := RPCCategory(tt.err); got != tt.want {
				t.Errorf("RPCCategory() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	if got := KindMountPointInUse.String(); got != "mountpoint-in-use" {
		t.Errorf("String() = %q, want %q", got, "mountpoint-in-use")
	}
	if got := Kind(99).String(); got != "kind(99)" {
		t.Errorf("String() = %q, want %q", got, "kind(99)")
	}
}

func TestErrorChaining(t *testing.T) {
	root := fmt.Errorf("root cause")
	middle := IO(root)
	outer := fmt.Errorf("operation failed: %w", middle)

	if !errors.Is(outer, root) {
		t.Error("errors.Is should find root cause")
	}

	var beErr *BEError
	if !As(outer, &beErr) {
		t.Fatal("As should find BEError")
	}
	if beErr.Code != ExitIOError {
		t.Errorf("Code = %d, want %d", beErr.Code, ExitIOError)
	}
	if !Is(outer, root) {
		t.Error("Is should find root cause")
	}
}
