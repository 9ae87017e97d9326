package testutil

import (
	"embed"

	"github.com/BurntSushi/toml"

	"github.com/firefly-engineering/beadm/internal/config"
)

//go:embed fixtures/*
var fixturesFS embed.FS

// LoadFixture loads a fixture file by name.
func LoadFixture(name string) ([]byte, error) {
	return fixturesFS.ReadFile("fixtures/" + name)
}

// LoadConfigFixture decodes a TOML config fixture without validating it.
func LoadConfigFixture(name string) (*config.Config, error) {
	data, err := LoadFixture(name)
	if err != nil {
		return nil, err
	}
	cfg := config.Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ValidConfig returns the valid config fixture.
func ValidConfig() (*config.Config, error) {
	return LoadConfigFixture("valid_config.toml")
}

// InvalidConfig returns the invalid config fixture.
func InvalidConfig() (*config.Config, error) {
	return LoadConfigFixture("invalid_config.toml")
}

// AptInstallSession returns a recorded APT hook conversation for
// "apt install htop": hello, pre-prompt, statistics, post, bye.
func AptInstallSession() ([]byte, error) {
	return LoadFixture("apt_install_session.txt")
}
