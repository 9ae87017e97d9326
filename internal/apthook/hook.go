package apthook

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/firefly-engineering/beadm/internal/audit"
	"github.com/firefly-engineering/beadm/internal/be"
	"github.com/firefly-engineering/beadm/internal/logging"
)

// DescriptionPrefix starts the description of every snapshot the hook takes.
const DescriptionPrefix = "before apt"

// Hook snapshots the active boot environment before APT changes packages.
type Hook struct {
	client be.Client
	out    io.Writer
	audit  *audit.Logger
}

// Option configures a Hook.
type Option func(*Hook)

// WithOutput sets where progress is reported. APT shows the hook's stderr.
func WithOutput(w io.Writer) Option {
	return func(h *Hook) {
		h.out = w
	}
}

// WithAudit records snapshots taken by the hook.
func WithAudit(l *audit.Logger) Option {
	return func(h *Hook) {
		h.audit = l
	}
}

// New creates a hook driving client.
func New(client be.Client, opts ...Option) *Hook {
	h := &Hook{client: client, out: logging.Stderr}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run processes messages from s until bye.
func (h *Hook) Run(ctx context.Context, s *Stream) error {
	for {
		msg, err := s.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		logging.With("method", msg.Method).Debug("apt hook message", "packages", len(msg.Params.Packages))

		switch msg.Method {
		case MethodInstallStatistics:
			if err := h.snapshot(ctx, msg.Params); err != nil {
				return err
			}
		case MethodInstallPost:
			snapshot, err := h.NewestSnapshot(ctx)
			if err != nil {
				return err
			}
			if snapshot == "" {
				fmt.Fprintln(h.out, "Could not determine latest snapshot.")
				continue
			}
			// OSC 8 hyperlink to be://SNAPSHOT.
			fmt.Fprintf(h.out, "Boot into your system prior to these changes as \x1b]8;;be://%s\x1b\\%s\x1b]8;;\x1b\\.\n", snapshot, snapshot)
		case MethodInstallFail:
			snapshot, err := h.NewestSnapshot(ctx)
			if err != nil {
				return err
			}
			if snapshot == "" {
				fmt.Fprintln(h.out, "Could not determine latest snapshot.")
				continue
			}
			fmt.Fprintf(h.out, "Installation failed. Snapshot available for rollback: %s\n", snapshot)
		}
	}
}

func (h *Hook) snapshot(ctx context.Context, p Params) error {
	if len(p.Packages) == 0 {
		logging.Debug("install statistics without packages, skipping snapshot")
		return nil
	}

	desc := Description(p)
	fmt.Fprint(h.out, "Backing up system prior to changes... ")

	name, err := h.client.Snapshot(ctx, nil, desc)
	if err != nil {
		fmt.Fprintln(h.out, "failed.")
		return fmt.Errorf("failed to create boot environment snapshot: %w", err)
	}
	fmt.Fprintf(h.out, "done. name=%q desc=%q\n", name, desc)

	if h.audit != nil {
		beName, _, _ := strings.Cut(name, "@")
		if err := h.audit.LogEvent(audit.EventSnapshot, beName, name); err != nil {
			logging.Warn("failed to record audit event", "error", err)
		}
	}
	return nil
}

// Description builds the snapshot description for an install event:
// "before apt", then the command and the search terms when present.
func Description(p Params) string {
	var b strings.Builder
	b.WriteString(DescriptionPrefix)
	if p.Command != "" {
		b.WriteString(" ")
		b.WriteString(p.Command)
	}
	if len(p.SearchTerms) > 0 {
		b.WriteString(" ")
		b.WriteString(strings.Join(p.SearchTerms, " "))
	}
	return b.String()
}

// NewestSnapshot returns the most recent snapshot of the active boot
// environment taken by the hook, or "" if there is none.
func (h *Hook) NewestSnapshot(ctx context.Context) (string, error) {
	bes, err := h.client.BootEnvironments(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to determine active boot environment: %w", err)
	}

	var active string
	for _, env := range bes {
		if env.Active {
			active = env.Name
			break
		}
	}
	if active == "" {
		return "", nil
	}

	snaps, err := h.client.Snapshots(ctx, active)
	if err != nil {
		return "", fmt.Errorf("failed to list snapshots for the active boot environment: %w", err)
	}

	var newest *be.Snapshot
	for i := range snaps {
		s := &snaps[i]
		if !strings.HasPrefix(s.Description, DescriptionPrefix) {
			continue
		}
		if newest == nil || s.Created > newest.Created {
			newest = s
		}
	}
	if newest == nil {
		return "", nil
	}
	return newest.Name, nil
}
