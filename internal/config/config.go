package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/firefly-engineering/beadm/internal/be"
	"github.com/firefly-engineering/beadm/internal/errors"
	"github.com/firefly-engineering/beadm/internal/validation"
)

const (
	DefaultConfigDir  = "/etc/beadm"
	DefaultConfigFile = DefaultConfigDir + "/config.toml"
	DefaultStateDir   = "/var/lib/beadm"
	DefaultTempDir    = "/tmp"

	// EnvConfig overrides the configuration file location.
	EnvConfig = "BEADM_CONFIG"

	// EventsFile is the audit log name inside the state directory.
	EventsFile = "events.jsonl"
)

// Config is the contents of config.toml
type Config struct {
	Root       string    `toml:"root"`
	Client     string    `toml:"client"`
	ThreadSafe bool      `toml:"thread_safe"`
	StateDir   string    `toml:"state_dir"`
	ZFS        ZFSConfig `toml:"zfs"`
}

// ZFSConfig holds the userland used by the libzfs client.
type ZFSConfig struct {
	ZFS        string `toml:"zfs"`
	Zpool      string `toml:"zpool"`
	Mount      string `toml:"mount"`
	MountTable string `toml:"mount_table"`
	TempDir    string `toml:"temp_dir"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Client:   string(be.ClientLibZFS),
		StateDir: DefaultStateDir,
		ZFS: ZFSConfig{
			TempDir: DefaultTempDir,
		},
	}
}

// Validate checks that the Config is valid.
func (c *Config) Validate() error {
	switch be.ClientType(c.Client) {
	case be.ClientLibZFS, be.ClientMock, "":
	default:
		return fmt.Errorf("invalid client: %s (must be libzfs or mock)", c.Client)
	}

	if c.Root != "" {
		if err := validation.ValidateDatasetName(c.Root); err != nil {
			return fmt.Errorf("invalid root %q: %w", c.Root, err)
		}
	}

	if c.StateDir != "" && !filepath.IsAbs(c.StateDir) {
		return fmt.Errorf("state_dir must be an absolute path (got %q)", c.StateDir)
	}
	if c.ZFS.TempDir != "" && !filepath.IsAbs(c.ZFS.TempDir) {
		return fmt.Errorf("zfs.temp_dir must be an absolute path (got %q)", c.ZFS.TempDir)
	}
	if c.ZFS.MountTable != "" && !filepath.IsAbs(c.ZFS.MountTable) {
		return fmt.Errorf("zfs.mount_table must be an absolute path (got %q)", c.ZFS.MountTable)
	}

	return nil
}

// EventsPath returns the audit log location.
func (c *Config) EventsPath() string {
	return filepath.Join(c.StateDir, EventsFile)
}

// ClientConfig converts c into the configuration be.New expects.
func (c *Config) ClientConfig() *be.Config {
	return &be.Config{
		Type:       be.ClientType(c.Client),
		Root:       c.Root,
		ThreadSafe: c.ThreadSafe,
		ZFS:        c.ZFS.ZFS,
		Zpool:      c.ZFS.Zpool,
		Mount:      c.ZFS.Mount,
		MountTable: c.ZFS.MountTable,
		TempDir:    c.ZFS.TempDir,
	}
}

// Path resolves the configuration file location: the explicit path if set,
// then $BEADM_CONFIG, then DefaultConfigFile.
func Path(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(EnvConfig); env != "" {
		return env
	}
	return DefaultConfigFile
}

// Load reads the configuration at path. A missing file yields the defaults
// unless required is set.
func Load(path string, required bool) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !required {
			return cfg, nil
		}
		return nil, errors.ConfigError(fmt.Sprintf("failed to read config %s", path), err)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("failed to parse config %s", path), err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.ConfigError(fmt.Sprintf("unknown key %q in config %s", undecoded[0].String(), path), nil)
	}

	if cfg.StateDir == "" {
		cfg.StateDir = DefaultStateDir
	}
	if cfg.ZFS.TempDir == "" {
		cfg.ZFS.TempDir = DefaultTempDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("invalid config %s", path), err)
	}

	return cfg, nil
}
