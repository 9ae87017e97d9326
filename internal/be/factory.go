package be

import (
	"context"
	"fmt"

	"github.com/firefly-engineering/beadm/internal/dataset"
	"github.com/firefly-engineering/beadm/internal/errors"
	"github.com/firefly-engineering/beadm/internal/libzfs"
	"github.com/firefly-engineering/beadm/internal/logging"
	"github.com/firefly-engineering/beadm/internal/system"
)

// ClientType identifies a Client implementation.
type ClientType string

const (
	ClientLibZFS ClientType = "libzfs"
	ClientMock   ClientType = "mock"
)

// Config selects and configures a Client.
type Config struct {
	// Type selects the backend.
	Type ClientType

	// Root is the boot environment root, e.g. "zroot/ROOT". Empty means the
	// parent of the dataset mounted at "/".
	Root string

	// ThreadSafe wraps the client in a ThreadSafeClient.
	ThreadSafe bool

	// Userland programs and files used by the libzfs backend. Empty values
	// keep the library defaults.
	ZFS        string
	Zpool      string
	Mount      string
	MountTable string
	TempDir    string

	// Executor and FS override the system defaults, for tests.
	Executor system.CommandExecutor
	FS       system.FileSystem
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *Config {
	return &Config{
		Type:    ClientLibZFS,
		TempDir: "/tmp",
	}
}

func (cfg *Config) handleOptions() []libzfs.Option {
	opts := []libzfs.Option{
		libzfs.WithBinaries(cfg.ZFS, cfg.Zpool, cfg.Mount),
		libzfs.WithMountTable(cfg.MountTable),
	}
	if cfg.Executor != nil {
		opts = append(opts, libzfs.WithExecutor(cfg.Executor))
	}
	if cfg.FS != nil {
		opts = append(opts, libzfs.WithFileSystem(cfg.FS))
	}
	return opts
}

// New builds the client cfg describes. A nil cfg uses DefaultConfig.
func New(ctx context.Context, cfg *Config) (Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var client Client
	switch cfg.Type {
	case ClientMock:
		logging.Debug("using emulated boot environments")
		client = NewSampledEmulator(WithEmulatorTempDir(cfg.TempDir))
	case ClientLibZFS, "":
		root, err := resolveRoot(ctx, cfg)
		if err != nil {
			return nil, err
		}
		logging.Debug("using libzfs boot environments", "root", root.String())
		c, err := NewLibZFSClient(root, WithHandleOptions(cfg.handleOptions()...), WithTempDir(cfg.TempDir))
		if err != nil {
			return nil, err
		}
		client = c
	default:
		return nil, errors.ConfigError(fmt.Sprintf("unknown client type: %s", cfg.Type), nil)
	}

	if cfg.ThreadSafe {
		client = NewThreadSafeClient(client)
	}
	return client, nil
}

func resolveRoot(ctx context.Context, cfg *Config) (dataset.Name, error) {
	if cfg.Root != "" {
		return dataset.New(cfg.Root)
	}
	h, err := libzfs.Init(cfg.handleOptions()...)
	if err != nil {
		return dataset.Name{}, errors.Native(err)
	}
	defer h.Close()
	return ActiveRoot(ctx, h)
}
