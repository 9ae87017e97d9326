// Package app provides the application context for beadm.
// It allows dependency injection for testing.
package app

import (
	"context"

	"github.com/firefly-engineering/beadm/internal/audit"
	"github.com/firefly-engineering/beadm/internal/be"
	"github.com/firefly-engineering/beadm/internal/config"
	"github.com/firefly-engineering/beadm/internal/logging"
)

// App holds the application dependencies
type App struct {
	// Config is the loaded configuration
	Config *config.Config

	// Client administers boot environments
	Client be.Client

	// Audit records mutating operations; nil disables recording
	Audit *audit.Logger

	noAudit bool
}

// Option is a function that configures the App
type Option func(*App)

// WithConfig sets the configuration
func WithConfig(cfg *config.Config) Option {
	return func(a *App) {
		a.Config = cfg
	}
}

// WithClient sets a custom client
func WithClient(c be.Client) Option {
	return func(a *App) {
		a.Client = c
	}
}

// WithAudit sets a custom audit logger
func WithAudit(l *audit.Logger) Option {
	return func(a *App) {
		a.Audit = l
	}
}

// WithoutAudit disables the audit log
func WithoutAudit() Option {
	return func(a *App) {
		a.noAudit = true
	}
}

// New creates a new App with the given options.
// If no client is provided via WithClient, one is built from the config.
// The audit log defaults to the config's state directory, except for the
// mock client whose boot environments do not outlive the process.
func New(ctx context.Context, opts ...Option) (*App, error) {
	a := &App{}

	for _, opt := range opts {
		opt(a)
	}

	if a.Config == nil {
		a.Config = config.Default()
	}

	if a.Client == nil {
		client, err := be.New(ctx, a.Config.ClientConfig())
		if err != nil {
			return nil, err
		}
		a.Client = client
	}

	if a.noAudit {
		a.Audit = nil
	} else if a.Audit == nil && be.ClientType(a.Config.Client) != be.ClientMock {
		a.Audit = audit.NewLogger(a.Config.EventsPath())
	}

	return a, nil
}

// Record appends an event to the audit log. Failures are logged, not
// returned: the operation itself already succeeded.
func (a *App) Record(eventType audit.EventType, name, details string) {
	if a.Audit == nil {
		return
	}
	if err := a.Audit.LogEvent(eventType, name, details); err != nil {
		logging.Warn("failed to record audit event", "type", eventType, "be", name, "error", err)
	}
}

// Close releases the client
func (a *App) Close() error {
	if a.Client == nil {
		return nil
	}
	return a.Client.Close()
}
