// Package system abstracts the operating system calls beadm makes, so the
// zfs userland and the mount table can be replaced in tests.
package system

import (
	"context"
	"io/fs"
	"os"
)

// FileSystem is the file access beadm needs outside of ZFS itself: reading
// the mount table and host ids, and managing mountpoint directories.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte, perm fs.FileMode) error

	// Remove removes a file or an empty directory.
	Remove(path string) error

	MkdirAll(path string, perm fs.FileMode) error

	// MkdirTemp creates a new uniquely named directory in dir, as
	// os.MkdirTemp does.
	MkdirTemp(dir, pattern string) (string, error)

	IsDir(path string) bool
}

// CommandExecutor runs external programs such as zfs, zpool and mount.
type CommandExecutor interface {
	// Execute runs a command and returns its combined output.
	Execute(ctx context.Context, name string, args ...string) ([]byte, error)
}

// DefaultFS returns the FileSystem backed by the os package.
func DefaultFS() FileSystem {
	return osFileSystem{}
}

// DefaultExecutor returns the CommandExecutor backed by os/exec.
func DefaultExecutor() CommandExecutor {
	return osExecutor{}
}

type osFileSystem struct{}

func (osFileSystem) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }
func (osFileSystem) Remove(path string) error             { return os.Remove(path) }

func (osFileSystem) WriteFile(path string, data []byte, perm fs.FileMode) error {
	return os.WriteFile(path, data, perm)
}

func (osFileSystem) MkdirAll(path string, perm fs.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (osFileSystem) MkdirTemp(dir, pattern string) (string, error) {
	return os.MkdirTemp(dir, pattern)
}

func (osFileSystem) IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
