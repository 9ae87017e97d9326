// Package testutil provides test fixtures and utilities.
//
// # Fixtures
//
// Fixtures are embedded using go:embed:
//
//	fixtures/valid_config.toml
//	fixtures/invalid_config.toml
//	fixtures/apt_install_session.txt
//
// Helper functions load and parse them:
//
//	cfg, err := testutil.ValidConfig()
//	cfg, err := testutil.InvalidConfig()
//	session, err := testutil.AptInstallSession()
//
// # Test Environment
//
// NewTestEnv builds an App around the sampled emulator with a fixed clock,
// and keeps its state directory and temporary mountpoints in t.TempDir():
//
//	env := testutil.NewTestEnv(t)
//	env.App.Client.Create(ctx, "upgrade", be.CreateOptions{})
//	events := env.Events("upgrade")
package testutil
